package lifecycle

import (
	"fmt"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

var allowed = map[model.Status][]model.Status{
	model.StatusBooked:   {model.StatusReminded, model.StatusCompleted, model.StatusCancelled},
	model.StatusReminded: {model.StatusCompleted, model.StatusCancelled},
}

// CanTransition reports whether an appointment may move from one status to
// another. Nothing leaves a terminal status.
func CanTransition(from, to model.Status) bool {
	for _, s := range allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

func transitionError(from, to model.Status) error {
	return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, from, to)
}
