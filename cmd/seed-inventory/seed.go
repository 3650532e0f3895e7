package main

import (
	"context"
	"fmt"

	"hotel-booking-server/models"
	"hotel-booking-server/storage"
)

// checkBackend refuses the memory backend, whose contents would vanish
// when this process exits.
func checkBackend(backend string) error {
	if backend == storage.BackendMemory {
		return fmt.Errorf("the %s backend does not persist, seed postgres or redis instead", backend)
	}
	return nil
}

func seed(ctx context.Context, store storage.Store, records []models.AvailabilityRecord) error {
	for _, rec := range records {
		if err := store.PutAvailability(ctx, rec); err != nil {
			return fmt.Errorf("provisioning %s: %w", rec.Date, err)
		}
	}
	return nil
}
