package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"busreg-server-go/models"
)

// initialBusStops is the starter directory used for fresh stores
var initialBusStops = []models.CreateBusStopRequest{
	{Name: "Central Station", Location: strPtr("Park Town")},
	{Name: "North Yard"},
	{Name: "Central Park", Location: strPtr("Egmore")},
	{Name: "Anna Nagar Roundtana", Location: strPtr("Anna Nagar")},
	{Name: "Koyambedu Market", Location: strPtr("Koyambedu")},
	{Name: "Guindy Industrial Estate", Location: strPtr("Guindy")},
}

func strPtr(s string) *string { return &s }

// SeedIfEmpty adds the starter directory when the store has no bus stops.
// It reports how many stops were added.
func SeedIfEmpty(ctx context.Context, store Store, log *zap.Logger) (int, error) {
	if log == nil {
		log = zap.NewNop()
	}
	existing, err := store.ListBusStops(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check existing bus stops: %w", err)
	}
	if len(existing) > 0 {
		log.Info("bus stops present, skipping seed", zap.Int("count", len(existing)))
		return 0, nil
	}

	log.Info("no bus stops found, adding initial directory")
	added := 0
	for _, req := range initialBusStops {
		if _, err := store.CreateBusStop(ctx, req); err != nil {
			// Keep going so one bad row does not leave the directory empty
			log.Warn("failed to seed bus stop", zap.String("name", req.Name), zap.Error(err))
			continue
		}
		added++
	}
	return added, nil
}
