package donation

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists donation records.
//
// FindByID, Update and Delete return shared.ErrNotFound when the id does not
// resolve. Update applies the patch with Donation.Apply and saves the result
// atomically; concurrent updates of the same record are last-write-wins.
type Repository interface {
	// Create assigns an ID when none is set and stores the record.
	Create(ctx context.Context, d *Donation) error
	// FindAll returns every record in creation order.
	FindAll(ctx context.Context) ([]Donation, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Donation, error)
	Update(ctx context.Context, id uuid.UUID, patch Patch) (*Donation, error)
	// Delete removes the record and returns it as it was before removal.
	Delete(ctx context.Context, id uuid.UUID) (*Donation, error)
}
