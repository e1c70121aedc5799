package subscription

import "errors"

var (
	ErrInvalidStatus        = errors.New("invalid subscription status")
	ErrInvalidWindow        = errors.New("invalid delivery window")
	ErrInvalidDuration      = errors.New("duration must be at least one week")
	ErrEmptyCategories      = errors.New("selected meal categories must not be empty")
	ErrPauseReasonRequired  = errors.New("pause reason is required")
	ErrNotActive            = errors.New("subscription is not active")
	ErrNotPaused            = errors.New("subscription is not paused")
	ErrTerminalState        = errors.New("subscription is in a terminal state")
	ErrInvalidCursor        = errors.New("cursor outside snapshot bounds")
	ErrCursorUnrecoverable  = errors.New("cursor could not be recovered from snapshot")
	ErrSnapshotShapeMissing = errors.New("snapshot has no delivery days or categories")
)

// Status is the single source of truth for lifecycle state. Activation is
// derived from activatedAt rather than kept as a separate boolean, so the two
// can never disagree.
type Status string

const (
	StatusPendingFirstDelivery Status = "pending_first_delivery"
	StatusActive               Status = "active"
	StatusPaused               Status = "paused"
	StatusCancelled            Status = "cancelled"
	StatusExpired              Status = "expired"
)

func NewStatus(s string) (Status, error) {
	st := Status(s)
	if err := st.Validate(); err != nil {
		return "", err
	}
	return st, nil
}

func (s Status) Validate() error {
	switch s {
	case StatusPendingFirstDelivery, StatusActive, StatusPaused, StatusCancelled, StatusExpired:
		return nil
	}
	return ErrInvalidStatus
}

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether no further transition can leave s.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusExpired
}

// DeliveryWindow is the customer's preferred time-of-day band. The scheduled
// delivery date is date-level; this supplies the human-readable window.
type DeliveryWindow string

const (
	WindowMorning   DeliveryWindow = "morning"
	WindowAfternoon DeliveryWindow = "afternoon"
	WindowEvening   DeliveryWindow = "evening"
)

func NewDeliveryWindow(s string) (DeliveryWindow, error) {
	w := DeliveryWindow(s)
	if err := w.Validate(); err != nil {
		return "", err
	}
	return w, nil
}

func (w DeliveryWindow) Validate() error {
	switch w {
	case WindowMorning, WindowAfternoon, WindowEvening:
		return nil
	}
	return ErrInvalidWindow
}

// Band renders the window as a wall-clock range for display and chef routing.
func (w DeliveryWindow) Band() string {
	switch w {
	case WindowMorning:
		return "08:00-11:00"
	case WindowAfternoon:
		return "12:00-15:00"
	case WindowEvening:
		return "17:00-20:00"
	default:
		return ""
	}
}

// SnapshotState tracks the best-effort compile outcome on the subscription
// row, so the retry queue can find incomplete ones without opening documents.
type SnapshotState string

const (
	SnapshotPending    SnapshotState = "pending"
	SnapshotReady      SnapshotState = "ready"
	SnapshotIncomplete SnapshotState = "incomplete"
)
