package subscription

import (
	"mealdrop-service/internal/domain/plan"
	"mealdrop-service/internal/domain/snapshot"
)

// Cursor points at the next meal due: week within the plan cycle, day of week
// and meal category. It only ever takes values present in the snapshot's
// delivery-days and selected-categories configuration.
type Cursor struct {
	Week     int               `json:"week"`
	Day      int               `json:"day"`
	Category plan.MealCategory `json:"category"`
}

// FirstCursor is where an un-activated subscription starts: week 1, day 1,
// first selected category. If day 1 is not a delivery day the self-healing
// scan settles on the first real slot.
func FirstCursor(categories []plan.MealCategory) Cursor {
	var first plan.MealCategory
	if len(categories) > 0 {
		first = categories[0]
	}
	return Cursor{Week: 1, Day: 1, Category: first}
}

func (c Cursor) IsZero() bool {
	return c.Week == 0 && c.Day == 0 && c.Category == ""
}

// Validate checks the cursor against the schedule shape.
func (c Cursor) Validate(durationWeeks int, deliveryDays []int, categories []plan.MealCategory) error {
	if c.Week < 1 || c.Week > durationWeeks {
		return ErrInvalidCursor
	}
	if c.Day < 1 || c.Day > 7 {
		return ErrInvalidCursor
	}
	if indexOfDay(deliveryDays, c.Day) < 0 {
		return ErrInvalidCursor
	}
	if indexOfCategory(categories, c.Category) < 0 {
		return ErrInvalidCursor
	}
	return nil
}

// Next computes the cursor after c. Within a day it moves to the next selected
// category; at the last category it jumps to the next scheduled delivery day,
// then to the next week, and wraps to week 1 once the plan cycle is exhausted.
// The returned bool reports a wraparound.
func (c Cursor) Next(durationWeeks int, deliveryDays []int, categories []plan.MealCategory) (Cursor, bool) {
	if len(deliveryDays) == 0 || len(categories) == 0 {
		return c, false
	}

	if ci := indexOfCategory(categories, c.Category); ci >= 0 && ci+1 < len(categories) {
		return Cursor{Week: c.Week, Day: c.Day, Category: categories[ci+1]}, false
	}

	// Last category of the day: move to the next delivery day. Calendar days
	// without a scheduled delivery are skipped outright.
	if di := indexOfDay(deliveryDays, c.Day); di >= 0 && di+1 < len(deliveryDays) {
		return Cursor{Week: c.Week, Day: deliveryDays[di+1], Category: categories[0]}, false
	}

	next := Cursor{Week: c.Week + 1, Day: deliveryDays[0], Category: categories[0]}
	if next.Week > durationWeeks {
		// The plan cycle repeats for the remainder of the subscription.
		next.Week = 1
		return next, true
	}
	return next, false
}

// before orders cursors week-major, then day, then category order.
func (c Cursor) before(other Cursor) bool {
	if c.Week != other.Week {
		return c.Week < other.Week
	}
	if c.Day != other.Day {
		return c.Day < other.Day
	}
	return c.Category.OrderIndex() < other.Category.OrderIndex()
}

// ResolveSlot returns the snapshot slot under the cursor. When the cursor
// points at a missing slot (upstream data drift) it recovers by a single
// bounded forward scan in week-major order, wrapping once to the start. The
// returned cursor is the corrected position and healed reports whether a
// correction happened; callers persist it and log a diagnostic.
func (c Cursor) ResolveSlot(snap *snapshot.Snapshot) (*snapshot.Slot, Cursor, bool, error) {
	if slot, ok := snap.SlotAt(snapshot.SlotKey{Week: c.Week, Day: c.Day, Category: c.Category}); ok {
		return slot, c, false, nil
	}

	if len(snap.Slots) == 0 {
		return nil, c, false, ErrCursorUnrecoverable
	}

	// Forward scan: slots are stored in scan order, so the first slot at or
	// after the cursor is the nearest valid position.
	for i := range snap.Slots {
		k := snap.Slots[i].Key
		candidate := Cursor{Week: k.Week, Day: k.Day, Category: k.Category}
		if !candidate.before(c) {
			return &snap.Slots[i], candidate, true, nil
		}
	}

	// Past the end of the schedule: wrap to the first slot of the cycle.
	k := snap.Slots[0].Key
	return &snap.Slots[0], Cursor{Week: k.Week, Day: k.Day, Category: k.Category}, true, nil
}

func indexOfDay(days []int, day int) int {
	for i, d := range days {
		if d == day {
			return i
		}
	}
	return -1
}

func indexOfCategory(categories []plan.MealCategory, c plan.MealCategory) int {
	for i, cat := range categories {
		if cat == c {
			return i
		}
	}
	return -1
}
