package errs

import "errors"

// Domain-specific sentinel errors for CQRS usecase layers
var (
	// Plan / catalog errors
	ErrPlanNotFound       = errors.New("meal plan not found")
	ErrMealNotFound       = errors.New("meal not found")
	ErrCatalogUnavailable = errors.New("catalog unavailable")

	// Subscription errors
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotInExpectedState   = errors.New("no matching subscription in expected state")

	// Snapshot errors
	ErrSnapshotNotFound   = errors.New("snapshot not found")
	ErrSnapshotIncomplete = errors.New("snapshot incomplete")

	// Delegation errors
	ErrDelegationNotFound      = errors.New("delegation not found")
	ErrTimelineEntryNotFound   = errors.New("timeline entry not found")
	ErrDelegationAlreadyExists = errors.New("delegation already exists")

	// Validation errors
	ErrDomainValidation = errors.New("domain validation error")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
