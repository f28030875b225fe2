package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/carebase/carebase/internal/domain/appointment"
)

// AppointmentRepository is the GORM implementation of appointment.Repository.
type AppointmentRepository struct {
	db *gorm.DB
}

var _ appointment.Repository = (*AppointmentRepository)(nil)

func NewAppointmentRepository(db *gorm.DB) *AppointmentRepository {
	return &AppointmentRepository{db: db}
}

func (r *AppointmentRepository) Create(ctx context.Context, a *appointment.Appointment) error {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return fmt.Errorf("inserting appointment: %w", err)
	}
	return nil
}

func (r *AppointmentRepository) GetByID(ctx context.Context, id uint) (*appointment.Appointment, error) {
	var a appointment.Appointment
	if err := r.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, appointment.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("fetching appointment %d: %w", id, err)
	}
	return &a, nil
}

func (r *AppointmentRepository) Update(ctx context.Context, id uint, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	var a appointment.Appointment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return appointment.ErrAppointmentNotFound
			}
			return fmt.Errorf("fetching appointment %d: %w", id, err)
		}

		cmd.ApplyTo(&a)
		a.UpdatedAt = time.Now().UTC()

		if err := tx.Save(&a).Error; err != nil {
			return fmt.Errorf("saving appointment %d: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AppointmentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&appointment.Appointment{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return appointment.ErrAppointmentNotFound
	}
	return nil
}

func (r *AppointmentRepository) List(ctx context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	db := r.db.WithContext(ctx).Order("id")
	if q.PatientID != nil {
		db = db.Where("patient_id = ?", *q.PatientID)
	}
	if q.Status != nil {
		db = db.Where("status = ?", *q.Status)
	}

	appointments := make([]*appointment.Appointment, 0)
	if err := db.Offset(q.Skip).Limit(q.Limit).Find(&appointments).Error; err != nil {
		return nil, fmt.Errorf("listing appointments: %w", err)
	}
	return appointments, nil
}
