package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/domain"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/internal/domain/prescription"
	"github.com/carebase/carebase/pkg/metrics"
)

type PrescriptionService struct {
	repo        prescription.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewPrescriptionService(
	repo prescription.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *PrescriptionService {
	return &PrescriptionService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		metrics:     collector,
		log:         log,
	}
}

// IssuePrescription creates a prescription for an existing patient. The
// issued and expiry dates are derived from the same instant: expiry is the
// prescribed duration plus the grace window.
func (s *PrescriptionService) IssuePrescription(ctx context.Context, cmd *prescription.CreatePrescriptionCommand, meta RequestMeta) (*prescription.Prescription, error) {
	if err := validateCreatePrescription(cmd); err != nil {
		return nil, err
	}

	exists, err := s.patientRepo.Exists(ctx, cmd.PatientID)
	if err != nil {
		s.log.Error("failed to verify patient", zap.Error(err))
		return nil, fmt.Errorf("verifying patient: %w", err)
	}
	if !exists {
		return nil, patient.ErrPatientNotFound
	}

	now := time.Now().UTC()
	p := &prescription.Prescription{
		PatientID:         cmd.PatientID,
		MedicationName:    cmd.MedicationName,
		Dosage:            cmd.Dosage,
		Frequency:         cmd.Frequency,
		DurationDays:      *cmd.DurationDays,
		PrescribingDoctor: cmd.PrescribingDoctor,
		Instructions:      cmd.Instructions,
		IssuedDate:        now,
		ExpiryDate:        prescription.ExpiryFrom(now, *cmd.DurationDays),
		RefillsRemaining:  cmd.RefillsRemaining,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create prescription", zap.Error(err))
		return nil, fmt.Errorf("creating prescription: %w", err)
	}

	s.metrics.PrescriptionsIssued.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionCreate,
		ResourceType: "prescription",
		ResourceID:   p.ID,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	s.log.Info("prescription issued",
		zap.Uint("prescription_id", p.ID),
		zap.Uint("patient_id", p.PatientID),
		zap.String("medication", p.MedicationName),
		zap.Time("expiry_date", p.ExpiryDate),
	)

	return p, nil
}

func (s *PrescriptionService) GetPrescription(ctx context.Context, id uint) (*prescription.Prescription, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PrescriptionService) ListPrescriptions(ctx context.Context, q *prescription.ListPrescriptionsQuery) ([]*prescription.Prescription, error) {
	normalizePage(&q.Skip, &q.Limit)
	return s.repo.List(ctx, q)
}

func (s *PrescriptionService) DeletePrescription(ctx context.Context, id uint, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting prescription: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionDelete,
		ResourceType: "prescription",
		ResourceID:   id,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	return nil
}

func validateCreatePrescription(cmd *prescription.CreatePrescriptionCommand) error {
	var errs []string

	if cmd.PatientID == 0 {
		errs = append(errs, "patient_id is required")
	}
	if strings.TrimSpace(cmd.MedicationName) == "" {
		errs = append(errs, "medication_name is required")
	}
	if strings.TrimSpace(cmd.Dosage) == "" {
		errs = append(errs, "dosage is required")
	}
	if strings.TrimSpace(cmd.Frequency) == "" {
		errs = append(errs, "frequency is required")
	}
	if cmd.DurationDays == nil {
		errs = append(errs, "duration_days is required")
	}
	if strings.TrimSpace(cmd.PrescribingDoctor) == "" {
		errs = append(errs, "prescribing_doctor is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
