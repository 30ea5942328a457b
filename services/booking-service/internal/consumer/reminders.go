package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/md-rashed-zaman/chairbook/libs/events"
	"github.com/md-rashed-zaman/chairbook/libs/kafkax"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"github.com/segmentio/kafka-go"
)

type ReminderMarker interface {
	MarkReminded(ctx context.Context, id string) (model.Appointment, bool, error)
}

// ReminderDue moves appointments to reminded as the scheduler reports their
// reminders firing.
func ReminderDue(marker ReminderMarker, logger *slog.Logger) kafkax.Handler {
	return func(ctx context.Context, msg kafka.Message) error {
		var due events.ReminderDue
		if err := json.Unmarshal(msg.Value, &due); err != nil {
			return fmt.Errorf("%w: decode reminder due: %v", kafkax.ErrPermanent, err)
		}
		if due.AppointmentID == "" {
			return fmt.Errorf("%w: reminder due without appointment_id", kafkax.ErrPermanent)
		}

		appt, changed, err := marker.MarkReminded(ctx, due.AppointmentID)
		if errors.Is(err, apperr.ErrNotFound) {
			return fmt.Errorf("%w: appointment %s not found", kafkax.ErrPermanent, due.AppointmentID)
		}
		if err != nil {
			return err
		}
		if changed {
			logger.Info("appointment reminded", "appointment_id", appt.ID, "remind_at", due.RemindAt)
		}
		return nil
	}
}
