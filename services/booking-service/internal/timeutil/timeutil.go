// Package timeutil converts the loose clock strings customers and providers
// type into canonical forms, and builds instants from date and clock
// components on a given wall clock without any UTC round trip.
package timeutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
)

const DateLayout = "2006-01-02"

var (
	// ASCII whitespace plus the no-break, narrow, thin, figure, hair and
	// zero-width spaces that locale formatters put before AM/PM.
	spaceRun = regexp.MustCompile(`[\s\x{00A0}\x{2000}-\x{200D}\x{202F}\x{205F}\x{3000}\x{FEFF}]+`)

	clockPattern  = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(?::(\d{2}))? ?([AaPp][Mm])?$`)
	strictDate    = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	strictClock   = regexp.MustCompile(`^(\d{2}):(\d{2})(?::(\d{2}))?$`)
	minutesPerDay = 24 * 60
)

// NormalizeTime turns "2:30 PM", "9am", "14:30" or "2:30 pm" into "HH:MM".
func NormalizeTime(raw string) (string, error) {
	h, m, err := parseClock(raw)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", h, m), nil
}

func parseClock(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(spaceRun.ReplaceAllString(raw, " "))
	if s == "" {
		return 0, 0, &apperr.FormatError{Input: raw, Reason: "empty"}
	}
	parts := clockPattern.FindStringSubmatch(s)
	if parts == nil {
		return 0, 0, &apperr.FormatError{Input: raw, Reason: "expected H[:MM] with optional AM/PM"}
	}

	hour, _ = strconv.Atoi(parts[1])
	if parts[2] != "" {
		minute, _ = strconv.Atoi(parts[2])
	}
	if minute > 59 {
		return 0, 0, &apperr.FormatError{Input: raw, Reason: "minute out of range"}
	}
	if parts[3] != "" {
		if sec, _ := strconv.Atoi(parts[3]); sec > 59 {
			return 0, 0, &apperr.FormatError{Input: raw, Reason: "second out of range"}
		}
	}

	modifier := strings.ToUpper(parts[4])
	if modifier != "" && hour == 0 {
		return 0, 0, &apperr.FormatError{Input: raw, Reason: "hour out of range for 12-hour clock"}
	}
	switch modifier {
	case "PM":
		if hour > 12 {
			return 0, 0, &apperr.FormatError{Input: raw, Reason: "hour out of range for 12-hour clock"}
		}
		if hour != 12 {
			hour += 12
		}
	case "AM":
		if hour > 12 {
			return 0, 0, &apperr.FormatError{Input: raw, Reason: "hour out of range for 12-hour clock"}
		}
		if hour == 12 {
			hour = 0
		}
	default:
		if hour > 23 {
			return 0, 0, &apperr.FormatError{Input: raw, Reason: "hour out of range"}
		}
	}
	return hour, minute, nil
}

// MinuteOfDay accepts anything NormalizeTime does.
func MinuteOfDay(raw string) (int, error) {
	h, m, err := parseClock(raw)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// FormatSlotLabel renders a minute of day as "9:00 AM".
func FormatSlotLabel(minute int) string {
	minute = ((minute % minutesPerDay) + minutesPerDay) % minutesPerDay
	h, m := minute/60, minute%60
	suffix := "AM"
	if h >= 12 {
		suffix = "PM"
	}
	h12 := h % 12
	if h12 == 0 {
		h12 = 12
	}
	return fmt.Sprintf("%d:%02d %s", h12, m, suffix)
}

// LabelFor canonicalizes any accepted clock string to its slot label.
func LabelFor(raw string) (string, error) {
	m, err := MinuteOfDay(raw)
	if err != nil {
		return "", err
	}
	return FormatSlotLabel(m), nil
}

type dateParts struct {
	year  int
	month time.Month
	day   int
}

func parseDateParts(date string) (dateParts, error) {
	parts := strictDate.FindStringSubmatch(date)
	if parts == nil {
		return dateParts{}, &apperr.InvalidDateError{Date: date, Reason: "expected YYYY-MM-DD"}
	}
	y, _ := strconv.Atoi(parts[1])
	mo, _ := strconv.Atoi(parts[2])
	d, _ := strconv.Atoi(parts[3])
	if mo < 1 || mo > 12 {
		return dateParts{}, &apperr.InvalidDateError{Date: date, Reason: "month out of range"}
	}
	// time.Date normalizes Feb 30 to Mar 2; a changed day means it did not exist.
	noon := time.Date(y, time.Month(mo), d, 12, 0, 0, 0, time.UTC)
	if d < 1 || noon.Day() != d || noon.Month() != time.Month(mo) {
		return dateParts{}, &apperr.InvalidDateError{Date: date, Reason: "no such calendar day"}
	}
	return dateParts{year: y, month: time.Month(mo), day: d}, nil
}

// ValidateDate reports an InvalidDateError for anything that is not a real YYYY-MM-DD day.
func ValidateDate(date string) error {
	_, err := parseDateParts(date)
	return err
}

// ParseDate returns midnight of date in loc.
func ParseDate(date string, loc *time.Location) (time.Time, error) {
	p, err := parseDateParts(date)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(p.year, p.month, p.day, 0, 0, 0, 0, loc), nil
}

// Weekday returns the lower-case weekday name of date, computed from its
// components so no zone offset can move it to a neighbouring day.
func Weekday(date string) (string, error) {
	p, err := parseDateParts(date)
	if err != nil {
		return "", err
	}
	wd := time.Date(p.year, p.month, p.day, 12, 0, 0, 0, time.UTC).Weekday()
	return strings.ToLower(wd.String()), nil
}

// CombineDateTime is CombineDateTimeIn using the process's local zone.
func CombineDateTime(date, clock string) (time.Time, error) {
	return CombineDateTimeIn(date, clock, time.Local)
}

// CombineDateTimeIn builds the instant at which the wall clock in loc reads
// date and clock. clock may be "HH:MM", "HH:MM:SS" or a slot label like "2:30 PM".
func CombineDateTimeIn(date, clock string, loc *time.Location) (time.Time, error) {
	p, err := parseDateParts(date)
	if err != nil {
		if de, ok := err.(*apperr.InvalidDateError); ok {
			de.Time = clock
		}
		return time.Time{}, err
	}

	normalized := clock
	if !strictClock.MatchString(clock) {
		n, err := NormalizeTime(clock)
		if err != nil {
			return time.Time{}, &apperr.InvalidDateError{Date: date, Time: clock, Reason: "unparseable time"}
		}
		normalized = n
	}
	parts := strictClock.FindStringSubmatch(normalized)
	h, _ := strconv.Atoi(parts[1])
	m, _ := strconv.Atoi(parts[2])
	sec := 0
	if parts[3] != "" {
		sec, _ = strconv.Atoi(parts[3])
	}
	if h > 23 || m > 59 || sec > 59 {
		return time.Time{}, &apperr.InvalidDateError{Date: date, Time: clock, Reason: "clock out of range"}
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Date(p.year, p.month, p.day, h, m, sec, 0, loc), nil
}
