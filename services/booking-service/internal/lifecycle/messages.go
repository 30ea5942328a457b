package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

func reminderPayload(appt model.Appointment, offset time.Duration) model.ReminderPayload {
	service := orDefault(appt.ServiceName, "barber")
	provider := orDefault(appt.ProviderName, "your barber")

	p := model.ReminderPayload{AppointmentID: appt.ID, CustomerID: appt.CustomerID}
	if offset == 24*time.Hour {
		p.Title = "Appointment Reminder"
		p.Body = fmt.Sprintf("You have a %s appointment with %s tomorrow at %s.", service, provider, appt.Time)
		return p
	}
	p.Title = "Upcoming Appointment"
	p.Body = fmt.Sprintf("Your %s appointment with %s is in %s.", service, provider, humanize(offset))
	return p
}

func humanize(d time.Duration) string {
	switch {
	case d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	default:
		return plural(int(d/time.Minute), "minute")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func calendarTitle(appt model.Appointment) string {
	return fmt.Sprintf("%s with %s", orDefault(appt.ServiceName, "Appointment"), orDefault(appt.ProviderName, "your barber"))
}

func calendarNotes(appt model.Appointment) string {
	var b strings.Builder
	if appt.CustomerName != "" {
		fmt.Fprintf(&b, "Customer: %s\n", appt.CustomerName)
	}
	if appt.ServicePrice != "" {
		fmt.Fprintf(&b, "Price: %s\n", appt.ServicePrice)
	}
	fmt.Fprintf(&b, "Appointment: %s", appt.ID)
	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
