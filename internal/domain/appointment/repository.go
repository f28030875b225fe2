package appointment

import "context"

type Repository interface {
	Create(ctx context.Context, a *Appointment) error

	// GetByID returns ErrAppointmentNotFound when no row matches.
	GetByID(ctx context.Context, id uint) (*Appointment, error)

	// Update applies the non-nil fields of cmd and returns the updated row.
	// UpdatedAt is refreshed even when cmd carries no fields.
	Update(ctx context.Context, id uint, cmd *UpdateAppointmentCommand) (*Appointment, error)

	// Delete removes a single appointment.
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, q *ListAppointmentsQuery) ([]*Appointment, error)
}
