package patient

import (
	"strings"
	"time"
)

// Patient is the root record of the system. Email is unique across all
// patients. Date of birth is fixed at registration; the update command
// deliberately carries no such field.
//
// Timestamps are owned by the repository layer (autoCreateTime and
// autoUpdateTime are disabled) so that CreatedAt == UpdatedAt holds exactly
// after creation.
type Patient struct {
	ID uint `gorm:"primaryKey" json:"id"`

	FirstName   string    `gorm:"column:first_name;type:varchar(100);not null" json:"first_name"`
	LastName    string    `gorm:"column:last_name;type:varchar(100);not null" json:"last_name"`
	Email       string    `gorm:"column:email;type:varchar(255);not null;uniqueIndex" json:"email"`
	Phone       string    `gorm:"column:phone;type:varchar(20);not null" json:"phone"`
	DateOfBirth time.Time `gorm:"column:date_of_birth;not null" json:"date_of_birth"`

	Address        string `gorm:"column:address;type:text" json:"address"`
	MedicalHistory string `gorm:"column:medical_history;type:text" json:"medical_history"`
	BloodType      string `gorm:"column:blood_type;type:varchar(5)" json:"blood_type"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;autoUpdateTime:false" json:"updated_at"`
}

func (Patient) TableName() string {
	return "patients"
}

func (p *Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

type CreatePatientCommand struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	DateOfBirth    time.Time
	Address        string
	MedicalHistory string
	BloodType      string
}

// UpdatePatientCommand applies a partial update: nil fields are left
// untouched. Setting a field to its zero value requires a non-nil pointer.
type UpdatePatientCommand struct {
	FirstName      *string
	LastName       *string
	Email          *string
	Phone          *string
	Address        *string
	MedicalHistory *string
	BloodType      *string
}

// ApplyTo assigns the non-nil fields onto p.
func (c *UpdatePatientCommand) ApplyTo(p *Patient) {
	if c.FirstName != nil {
		p.FirstName = *c.FirstName
	}
	if c.LastName != nil {
		p.LastName = *c.LastName
	}
	if c.Email != nil {
		p.Email = *c.Email
	}
	if c.Phone != nil {
		p.Phone = *c.Phone
	}
	if c.Address != nil {
		p.Address = *c.Address
	}
	if c.MedicalHistory != nil {
		p.MedicalHistory = *c.MedicalHistory
	}
	if c.BloodType != nil {
		p.BloodType = *c.BloodType
	}
}

// ListPatientsQuery paginates over patients in insertion order.
type ListPatientsQuery struct {
	Skip  int
	Limit int
}
