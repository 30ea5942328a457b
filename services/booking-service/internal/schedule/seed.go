package schedule

import (
	"context"
	"fmt"
	"os"

	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/catalog"
	"github.com/md-rashed-zaman/chairbook/services/booking-service/internal/model"
	"gopkg.in/yaml.v3"
)

// SeedFile lists provider schedules to install at startup, e.g.
//
//	providers:
//	  - provider_id: barber-1
//	    display_name: Sam
//	    timezone: America/Chicago
//	    working_days: [tuesday, wednesday, saturday]
//	    working_hours: {start: "10:00", end: "18:00", interval: 30}
//	    unavailable_dates: ["2025-12-25"]
//	    services:
//	      - {id: cut, name: Haircut, price: "20.00", duration_minutes: 30}
type SeedFile struct {
	Providers []SeedProvider `yaml:"providers"`
}

type SeedProvider struct {
	ProviderID       string        `yaml:"provider_id"`
	DisplayName      string        `yaml:"display_name"`
	Timezone         string        `yaml:"timezone"`
	WorkingDays      []string      `yaml:"working_days"`
	WorkingHours     SeedHours     `yaml:"working_hours"`
	UnavailableDates []string      `yaml:"unavailable_dates"`
	Services         []SeedService `yaml:"services"`
}

type SeedService struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Price           string `yaml:"price"`
	DurationMinutes int    `yaml:"duration_minutes"`
}

type SeedHours struct {
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
	Interval int    `yaml:"interval"`
}

func LoadSeed(path string) (*SeedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule seed: %w", err)
	}
	var f SeedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schedule seed: %w", err)
	}
	return &f, nil
}

func (p SeedProvider) Schedule() model.ProviderSchedule {
	days := make(map[string]bool, len(p.WorkingDays))
	for _, d := range p.WorkingDays {
		days[d] = true
	}
	return model.ProviderSchedule{
		ProviderID:  p.ProviderID,
		DisplayName: p.DisplayName,
		WorkingDays: days,
		WorkingHours: model.WorkingHours{
			Start:    p.WorkingHours.Start,
			End:      p.WorkingHours.End,
			Interval: p.WorkingHours.Interval,
		},
		UnavailableDates: p.UnavailableDates,
		Timezone:         p.Timezone,
	}
}

// Apply saves every seeded schedule and its services. The first invalid
// entry stops the run.
func (f *SeedFile) Apply(ctx context.Context, store Store, services catalog.Store) (int, error) {
	for i, p := range f.Providers {
		if p.ProviderID == "" {
			return i, fmt.Errorf("schedule seed entry %d: missing provider_id", i)
		}
		if _, err := store.SaveProviderSchedule(ctx, p.ProviderID, p.Schedule()); err != nil {
			return i, fmt.Errorf("schedule seed %s: %w", p.ProviderID, err)
		}
		for _, svc := range p.Services {
			_, err := services.SaveService(ctx, p.ProviderID, model.CatalogService{
				ID:              svc.ID,
				Name:            svc.Name,
				Price:           svc.Price,
				DurationMinutes: svc.DurationMinutes,
			})
			if err != nil {
				return i, fmt.Errorf("schedule seed %s service %q: %w", p.ProviderID, svc.ID, err)
			}
		}
	}
	return len(f.Providers), nil
}
