package patient

import "context"

type Repository interface {
	// Create persists a new patient. Returns ErrEmailAlreadyRegistered when
	// the email is already taken.
	Create(ctx context.Context, p *Patient) error

	// GetByID returns ErrPatientNotFound when no row matches.
	GetByID(ctx context.Context, id uint) (*Patient, error)

	// Update applies the non-nil fields of cmd to an existing patient and
	// returns the updated row.
	Update(ctx context.Context, id uint, cmd *UpdatePatientCommand) (*Patient, error)

	// Delete removes the patient together with all of their appointments and
	// prescriptions in a single transaction.
	Delete(ctx context.Context, id uint) error

	// List returns patients in insertion order, honoring Skip/Limit.
	List(ctx context.Context, q *ListPatientsQuery) ([]*Patient, error)

	// ExistsByEmail checks email uniqueness without fetching the row.
	// excludeID, when non-zero, leaves that patient out of the check.
	ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error)

	// Exists reports whether a patient row exists, used to resolve foreign
	// keys before creating dependent records.
	Exists(ctx context.Context, id uint) (bool, error)
}
