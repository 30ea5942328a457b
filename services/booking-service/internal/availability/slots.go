package availability

import (
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/timeutil"
)

// ComputeAvailableSlots returns the free slot labels ("9:00 AM") for one
// provider on date, in chronological order.
//
// Exception dates win over the weekly template. Slots start at
// workingHours.start and step by the interval, stopping strictly before
// workingHours.end. A slot is taken when any non-cancelled booking for the
// same provider and date sits at the same minute of day, however its time
// label was written.
func ComputeAvailableSlots(schedule model.ProviderSchedule, date string, existing []model.Appointment) ([]string, error) {
	if err := timeutil.ValidateDate(date); err != nil {
		return nil, err
	}
	if schedule.IsUnavailable(date) {
		return []string{}, nil
	}
	weekday, err := timeutil.Weekday(date)
	if err != nil {
		return nil, err
	}
	if !schedule.WorkingDays[weekday] {
		return []string{}, nil
	}

	wh := schedule.WorkingHours
	if wh.Interval <= 0 {
		return nil, &apperr.ValidationError{Field: "workingHours.interval", Reason: "must be positive"}
	}
	start, err := timeutil.MinuteOfDay(wh.Start)
	if err != nil {
		return nil, &apperr.ValidationError{Field: "workingHours.start", Reason: err.Error()}
	}
	end, err := timeutil.MinuteOfDay(wh.End)
	if err != nil {
		return nil, &apperr.ValidationError{Field: "workingHours.end", Reason: err.Error()}
	}

	taken := takenMinutes(schedule.ProviderID, date, existing)
	slots := []string{}
	for m := start; m < end; m += wh.Interval {
		if taken[m] {
			continue
		}
		slots = append(slots, timeutil.FormatSlotLabel(m))
	}
	return slots, nil
}

// Slots is ComputeAvailableSlots shaped as model.Slot values.
func Slots(schedule model.ProviderSchedule, date string, existing []model.Appointment) ([]model.Slot, error) {
	labels, err := ComputeAvailableSlots(schedule, date, existing)
	if err != nil {
		return nil, err
	}
	out := make([]model.Slot, 0, len(labels))
	for _, l := range labels {
		out = append(out, model.Slot{Date: date, Time: l, ProviderID: schedule.ProviderID})
	}
	return out, nil
}

// Contains reports whether the clock string names one of the free slots.
func Contains(slots []string, clock string) bool {
	want, err := timeutil.MinuteOfDay(clock)
	if err != nil {
		return false
	}
	for _, s := range slots {
		if m, err := timeutil.MinuteOfDay(s); err == nil && m == want {
			return true
		}
	}
	return false
}

func takenMinutes(providerID, date string, existing []model.Appointment) map[int]bool {
	taken := make(map[int]bool, len(existing))
	for _, a := range existing {
		if a.Status == model.StatusCancelled || a.Date != date {
			continue
		}
		if providerID != "" && a.ProviderID != "" && a.ProviderID != providerID {
			continue
		}
		m, err := timeutil.MinuteOfDay(a.Time)
		if err != nil {
			// A booking with an unreadable time cannot block a slot it does not name.
			continue
		}
		taken[m] = true
	}
	return taken
}
