package subscription

import (
	"time"

	"mealdrop-service/internal/domain/snapshot"
)

// DaySchedule is one row of the look-ahead timeline: a delivery date and the
// slots due on it.
type DaySchedule struct {
	Date  time.Time
	Week  int
	Day   int
	Slots []*snapshot.Slot
}

// UpcomingDays walks the cursor forward exactly like advancement but without
// persisting anything: one row per scheduled delivery day holding at least one
// slot, days with none skipped, bounded by daysAhead calendar days from the
// cursor's current delivery date.
func (s *Subscription) UpcomingDays(snap *snapshot.Snapshot, daysAhead int) []DaySchedule {
	if daysAhead <= 0 {
		return nil
	}
	if len(snap.DeliveryDays) == 0 || len(snap.SelectedCategories) == 0 {
		return nil
	}

	cycle, week, day := s.cycle, s.cursor.Week, s.cursor.Day
	cycle, week, day = alignToDeliveryDay(snap, cycle, week, day)

	base := deliveryDateFor(snap, cycle, week, day)
	horizon := base.AddDate(0, 0, daysAhead-1)

	var out []DaySchedule
	for {
		date := deliveryDateFor(snap, cycle, week, day)
		if date.After(horizon) {
			return out
		}

		if slots := daySlots(snap, week, day); len(slots) > 0 {
			out = append(out, DaySchedule{
				Date:  date,
				Week:  week,
				Day:   day,
				Slots: slots,
			})
		}

		cycle, week, day = nextDeliveryDay(snap, cycle, week, day)
	}
}

// alignToDeliveryDay settles a cursor day that is not in the delivery-day
// configuration onto the next configured day.
func alignToDeliveryDay(snap *snapshot.Snapshot, cycle, week, day int) (int, int, int) {
	if indexOfDay(snap.DeliveryDays, day) >= 0 {
		return cycle, week, day
	}
	for _, d := range snap.DeliveryDays {
		if d >= day {
			return cycle, week, d
		}
	}
	return bumpWeek(snap, cycle, week)
}

func nextDeliveryDay(snap *snapshot.Snapshot, cycle, week, day int) (int, int, int) {
	if di := indexOfDay(snap.DeliveryDays, day); di >= 0 && di+1 < len(snap.DeliveryDays) {
		return cycle, week, snap.DeliveryDays[di+1]
	}
	return bumpWeek(snap, cycle, week)
}

func bumpWeek(snap *snapshot.Snapshot, cycle, week int) (int, int, int) {
	week++
	if week > snap.DurationWeeks {
		week = 1
		cycle++
	}
	return cycle, week, snap.DeliveryDays[0]
}

func daySlots(snap *snapshot.Snapshot, week, day int) []*snapshot.Slot {
	var out []*snapshot.Slot
	for _, c := range snap.SelectedCategories {
		if slot, ok := snap.SlotAt(snapshot.SlotKey{Week: week, Day: day, Category: c}); ok {
			out = append(out, slot)
		}
	}
	return out
}

func deliveryDateFor(snap *snapshot.Snapshot, cycle, week, day int) time.Time {
	return snap.StartDate.AddDate(0, 0,
		(cycle-1)*snap.DurationWeeks*7+(week-1)*7+(day-1))
}
