package appointment

import "time"

type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// IsValid reports whether s is one of the known statuses. Any valid status
// may follow any other; there is no transition graph.
func (s Status) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Appointment belongs to exactly one patient. New appointments always start
// out scheduled; the creation payload carries no status. PatientID never
// changes after creation.
type Appointment struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PatientID uint `gorm:"column:patient_id;not null;index" json:"patient_id"`

	DoctorName      string    `gorm:"column:doctor_name;type:varchar(200);not null" json:"doctor_name"`
	AppointmentDate time.Time `gorm:"column:appointment_date;not null" json:"appointment_date"`
	DurationMinutes int       `gorm:"column:duration_minutes;not null;default:30" json:"duration_minutes"`
	Status          Status    `gorm:"column:status;type:varchar(20);not null;default:'scheduled';index" json:"status"`
	Reason          string    `gorm:"column:reason;type:text;not null" json:"reason"`
	Notes           string    `gorm:"column:notes;type:text" json:"notes"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Appointment) TableName() string {
	return "appointments"
}

func (a *Appointment) EndsAt() time.Time {
	return a.AppointmentDate.Add(time.Duration(a.DurationMinutes) * time.Minute)
}

// DefaultDurationMinutes applies when a creation request omits the duration.
const DefaultDurationMinutes = 30

type CreateAppointmentCommand struct {
	PatientID       uint
	DoctorName      string
	AppointmentDate time.Time
	// DurationMinutes is optional; nil means DefaultDurationMinutes.
	DurationMinutes *int
	Reason          string
	Notes           string
}

// UpdateAppointmentCommand applies a partial update: nil fields are left
// untouched. PatientID is not updatable.
type UpdateAppointmentCommand struct {
	DoctorName      *string
	AppointmentDate *time.Time
	DurationMinutes *int
	Status          *Status
	Reason          *string
	Notes           *string
}

// ApplyTo assigns the non-nil fields onto a.
func (c *UpdateAppointmentCommand) ApplyTo(a *Appointment) {
	if c.DoctorName != nil {
		a.DoctorName = *c.DoctorName
	}
	if c.AppointmentDate != nil {
		a.AppointmentDate = *c.AppointmentDate
	}
	if c.DurationMinutes != nil {
		a.DurationMinutes = *c.DurationMinutes
	}
	if c.Status != nil {
		a.Status = *c.Status
	}
	if c.Reason != nil {
		a.Reason = *c.Reason
	}
	if c.Notes != nil {
		a.Notes = *c.Notes
	}
}

// ListAppointmentsQuery filters by exact match on the non-nil fields and
// paginates in insertion order. An unknown status value simply matches
// nothing.
type ListAppointmentsQuery struct {
	PatientID *uint
	Status    *Status
	Skip      int
	Limit     int
}
