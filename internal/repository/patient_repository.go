package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/carebase/carebase/internal/domain/appointment"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/internal/domain/prescription"
)

// PatientRepository is the GORM implementation of patient.Repository.
type PatientRepository struct {
	db *gorm.DB
}

var _ patient.Repository = (*PatientRepository)(nil)

func NewPatientRepository(db *gorm.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

func (r *PatientRepository) Create(ctx context.Context, p *patient.Patient) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return patient.ErrEmailAlreadyRegistered
		}
		return fmt.Errorf("inserting patient: %w", err)
	}
	return nil
}

func (r *PatientRepository) GetByID(ctx context.Context, id uint) (*patient.Patient, error) {
	var p patient.Patient
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, patient.ErrPatientNotFound
		}
		return nil, fmt.Errorf("fetching patient %d: %w", id, err)
	}
	return &p, nil
}

func (r *PatientRepository) Update(ctx context.Context, id uint, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	var p patient.Patient
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&p, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return patient.ErrPatientNotFound
			}
			return fmt.Errorf("fetching patient %d: %w", id, err)
		}

		cmd.ApplyTo(&p)
		p.UpdatedAt = time.Now().UTC()

		if err := tx.Save(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return patient.ErrEmailAlreadyRegistered
			}
			return fmt.Errorf("saving patient %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Delete removes the patient and every dependent appointment and
// prescription in one transaction. A missing patient rolls the whole thing
// back, leaving dependents untouched.
func (r *PatientRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("patient_id = ?", id).Delete(&appointment.Appointment{}).Error; err != nil {
			return fmt.Errorf("deleting appointments for patient %d: %w", id, err)
		}
		if err := tx.Where("patient_id = ?", id).Delete(&prescription.Prescription{}).Error; err != nil {
			return fmt.Errorf("deleting prescriptions for patient %d: %w", id, err)
		}

		res := tx.Delete(&patient.Patient{}, id)
		if res.Error != nil {
			return fmt.Errorf("deleting patient %d: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return patient.ErrPatientNotFound
		}
		return nil
	})
}

func (r *PatientRepository) List(ctx context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	patients := make([]*patient.Patient, 0)
	err := r.db.WithContext(ctx).
		Order("id").
		Offset(q.Skip).
		Limit(q.Limit).
		Find(&patients).Error
	if err != nil {
		return nil, fmt.Errorf("listing patients: %w", err)
	}
	return patients, nil
}

func (r *PatientRepository) ExistsByEmail(ctx context.Context, email string, excludeID uint) (bool, error) {
	q := r.db.WithContext(ctx).Model(&patient.Patient{}).Where("email = ?", email)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, fmt.Errorf("checking email uniqueness: %w", err)
	}
	return count > 0, nil
}

func (r *PatientRepository) Exists(ctx context.Context, id uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&patient.Patient{}).
		Where("id = ?", id).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("checking patient %d: %w", id, err)
	}
	return count > 0, nil
}
