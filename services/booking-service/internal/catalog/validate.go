package catalog

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/apperr"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
)

const (
	maxIDLength     = 64
	maxNameLength   = 100
	maxDurationMins = 24 * 60
)

var pricePattern = regexp.MustCompile(`^\$?(\d{1,6})(?:\.(\d{1,2}))?$`)

// Normalize validates s and returns it with a trimmed name, an id, and the
// price written as dollars and cents ("20.00").
func Normalize(s model.CatalogService) (model.CatalogService, error) {
	s.ProviderID = strings.TrimSpace(s.ProviderID)
	if s.ProviderID == "" {
		return model.CatalogService{}, &apperr.ValidationError{Field: "providerId", Reason: "required"}
	}

	s.ID = strings.TrimSpace(s.ID)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if len(s.ID) > maxIDLength || strings.ContainsAny(s.ID, " \t\r\n") {
		return model.CatalogService{}, &apperr.ValidationError{Field: "id", Reason: "must be at most 64 characters without spaces"}
	}

	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return model.CatalogService{}, &apperr.ValidationError{Field: "name", Reason: "required"}
	}
	if utf8.RuneCountInString(s.Name) > maxNameLength {
		return model.CatalogService{}, &apperr.ValidationError{Field: "name", Reason: "too long"}
	}

	price, err := normalizePrice(s.Price)
	if err != nil {
		return model.CatalogService{}, err
	}
	s.Price = price

	if s.DurationMinutes <= 0 || s.DurationMinutes > maxDurationMins {
		return model.CatalogService{}, &apperr.ValidationError{Field: "durationMinutes", Reason: "must be between 1 and 1440"}
	}
	return s, nil
}

func normalizePrice(raw string) (string, error) {
	p := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if p == "" {
		return "", &apperr.ValidationError{Field: "price", Reason: "required"}
	}
	parts := pricePattern.FindStringSubmatch(p)
	if parts == nil {
		return "", &apperr.ValidationError{Field: "price", Reason: "expected a non-negative amount like 20 or 20.50"}
	}
	whole, _ := strconv.Atoi(parts[1])
	cents := parts[2]
	for len(cents) < 2 {
		cents += "0"
	}
	return fmt.Sprintf("%d.%s", whole, cents), nil
}
