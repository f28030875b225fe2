package prescription

import "time"

// ExpiryGraceDays is added on top of the prescribed duration when computing
// the expiry date, leaving a refill window after the course ends.
const ExpiryGraceDays = 90

// Prescription belongs to exactly one patient and is write-once: rows are
// created and deleted but never updated, so there is no UpdatedAt column.
// IssuedDate and ExpiryDate are computed at creation from the same instant.
type Prescription struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	PatientID uint `gorm:"column:patient_id;not null;index" json:"patient_id"`

	MedicationName    string `gorm:"column:medication_name;type:varchar(200);not null" json:"medication_name"`
	Dosage            string `gorm:"column:dosage;type:varchar(100);not null" json:"dosage"`
	Frequency         string `gorm:"column:frequency;type:varchar(100);not null" json:"frequency"`
	DurationDays      int    `gorm:"column:duration_days;not null" json:"duration_days"`
	PrescribingDoctor string `gorm:"column:prescribing_doctor;type:varchar(200);not null" json:"prescribing_doctor"`
	Instructions      string `gorm:"column:instructions;type:text" json:"instructions"`

	IssuedDate       time.Time `gorm:"column:issued_date;not null" json:"issued_date"`
	ExpiryDate       time.Time `gorm:"column:expiry_date;not null" json:"expiry_date"`
	RefillsRemaining int       `gorm:"column:refills_remaining;not null;default:0" json:"refills_remaining"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime:false" json:"created_at"`
}

func (Prescription) TableName() string {
	return "prescriptions"
}

// ExpiryFrom computes the expiry for a prescription issued at the given
// instant: durationDays plus the grace window, in calendar days.
func ExpiryFrom(issued time.Time, durationDays int) time.Time {
	return issued.AddDate(0, 0, durationDays+ExpiryGraceDays)
}

func (p *Prescription) IsExpired(now time.Time) bool {
	return now.After(p.ExpiryDate)
}

type CreatePrescriptionCommand struct {
	PatientID      uint
	MedicationName string
	Dosage         string
	Frequency      string
	// DurationDays is required; the pointer distinguishes an omitted field
	// from an explicit zero-day course.
	DurationDays      *int
	PrescribingDoctor string
	Instructions      string
	RefillsRemaining  int
}

// ListPrescriptionsQuery filters by patient when PatientID is non-nil and
// paginates in insertion order.
type ListPrescriptionsQuery struct {
	PatientID *uint
	Skip      int
	Limit     int
}
