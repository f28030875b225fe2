package prescription

import "context"

// Repository deliberately exposes no update: prescriptions are immutable
// once issued. Correcting one means deleting and reissuing.
type Repository interface {
	Create(ctx context.Context, p *Prescription) error

	// GetByID returns ErrPrescriptionNotFound when no row matches.
	GetByID(ctx context.Context, id uint) (*Prescription, error)

	// Delete removes a single prescription.
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, q *ListPrescriptionsQuery) ([]*Prescription, error)
}
