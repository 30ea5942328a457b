package schedule

import (
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/timeutil"
)

const maxDisplayName = 100

// Normalize validates s and returns its canonical form: all seven weekdays
// present, clock strings as HH:MM, exception dates sorted and deduplicated,
// and a loadable timezone. Any problem is a *apperr.ValidationError.
func Normalize(s model.ProviderSchedule) (model.ProviderSchedule, error) {
	out := model.ProviderSchedule{
		ProviderID:  strings.TrimSpace(s.ProviderID),
		DisplayName: strings.TrimSpace(s.DisplayName),
		WorkingDays: make(map[string]bool, len(model.Weekdays)),
		UpdatedAt:   s.UpdatedAt,
	}
	if out.ProviderID == "" {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "providerId", Reason: "required"}
	}
	if utf8.RuneCountInString(out.DisplayName) > maxDisplayName {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "displayName", Reason: "too long"}
	}

	for _, d := range model.Weekdays {
		out.WorkingDays[d] = false
	}
	for day, on := range s.WorkingDays {
		key := strings.ToLower(strings.TrimSpace(day))
		if _, ok := out.WorkingDays[key]; !ok {
			return model.ProviderSchedule{}, &apperr.ValidationError{Field: "workingDays", Reason: "unknown weekday " + day}
		}
		out.WorkingDays[key] = on
	}

	start, err := timeutil.NormalizeTime(s.WorkingHours.Start)
	if err != nil {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "workingHours.start", Reason: err.Error()}
	}
	end, err := timeutil.NormalizeTime(s.WorkingHours.End)
	if err != nil {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "workingHours.end", Reason: err.Error()}
	}
	startMin, _ := timeutil.MinuteOfDay(start)
	endMin, _ := timeutil.MinuteOfDay(end)
	if startMin >= endMin {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "workingHours", Reason: "start must be before end"}
	}
	if s.WorkingHours.Interval <= 0 {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "workingHours.interval", Reason: "must be positive"}
	}
	out.WorkingHours = model.WorkingHours{Start: start, End: end, Interval: s.WorkingHours.Interval}

	seen := make(map[string]bool, len(s.UnavailableDates))
	out.UnavailableDates = make([]string, 0, len(s.UnavailableDates))
	for _, d := range s.UnavailableDates {
		d = strings.TrimSpace(d)
		if err := timeutil.ValidateDate(d); err != nil {
			return model.ProviderSchedule{}, &apperr.ValidationError{Field: "unavailableDates", Reason: err.Error()}
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		out.UnavailableDates = append(out.UnavailableDates, d)
	}
	sort.Strings(out.UnavailableDates)

	out.Timezone = strings.TrimSpace(s.Timezone)
	if out.Timezone == "" {
		out.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(out.Timezone); err != nil {
		return model.ProviderSchedule{}, &apperr.ValidationError{Field: "timezone", Reason: "unknown zone " + out.Timezone}
	}
	return out, nil
}
