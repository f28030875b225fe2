package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/carebase/carebase/internal/domain/prescription"
)

// PrescriptionRepository is the GORM implementation of
// prescription.Repository. There is no update path; prescriptions are
// immutable once issued.
type PrescriptionRepository struct {
	db *gorm.DB
}

var _ prescription.Repository = (*PrescriptionRepository)(nil)

func NewPrescriptionRepository(db *gorm.DB) *PrescriptionRepository {
	return &PrescriptionRepository{db: db}
}

func (r *PrescriptionRepository) Create(ctx context.Context, p *prescription.Prescription) error {
	p.CreatedAt = time.Now().UTC()

	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return fmt.Errorf("inserting prescription: %w", err)
	}
	return nil
}

func (r *PrescriptionRepository) GetByID(ctx context.Context, id uint) (*prescription.Prescription, error) {
	var p prescription.Prescription
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, prescription.ErrPrescriptionNotFound
		}
		return nil, fmt.Errorf("fetching prescription %d: %w", id, err)
	}
	return &p, nil
}

func (r *PrescriptionRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&prescription.Prescription{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting prescription %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return prescription.ErrPrescriptionNotFound
	}
	return nil
}

func (r *PrescriptionRepository) List(ctx context.Context, q *prescription.ListPrescriptionsQuery) ([]*prescription.Prescription, error) {
	db := r.db.WithContext(ctx).Order("id")
	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}

	prescriptions := make([]*prescription.Prescription, 0)
	if err := db.Offset(q.Skip).Limit(q.Limit).Find(&prescriptions).Error; err != nil {
		return nil, fmt.Errorf("listing prescriptions: %w", err)
	}
	return prescriptions, nil
}
