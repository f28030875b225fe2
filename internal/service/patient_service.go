package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/domain"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/pkg/metrics"
)

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[\d\s\-()]+$`)
)

type PatientService struct {
	repo     patient.Repository
	auditSvc *AuditService
	metrics  *metrics.Collector
	log      *zap.Logger
}

func NewPatientService(repo patient.Repository, auditSvc *AuditService, collector *metrics.Collector, log *zap.Logger) *PatientService {
	return &PatientService{
		repo:     repo,
		auditSvc: auditSvc,
		metrics:  collector,
		log:      log,
	}
}

func (s *PatientService) CreatePatient(ctx context.Context, cmd *patient.CreatePatientCommand, meta RequestMeta) (*patient.Patient, error) {
	if err := validateCreatePatient(cmd); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmail(ctx, cmd.Email, 0)
	if err != nil {
		s.log.Error("failed to check email uniqueness", zap.Error(err))
		return nil, fmt.Errorf("checking email uniqueness: %w", err)
	}
	if exists {
		return nil, patient.ErrEmailAlreadyRegistered
	}

	p := &patient.Patient{
		FirstName:      cmd.FirstName,
		LastName:       cmd.LastName,
		Email:          cmd.Email,
		Phone:          cmd.Phone,
		DateOfBirth:    cmd.DateOfBirth,
		Address:        cmd.Address,
		MedicalHistory: cmd.MedicalHistory,
		BloodType:      cmd.BloodType,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		s.log.Error("failed to create patient", zap.Error(err))
		return nil, fmt.Errorf("creating patient: %w", err)
	}

	s.metrics.PatientsCreatedTotal.Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionCreate,
		ResourceType: "patient",
		ResourceID:   p.ID,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	s.log.Info("patient registered",
		zap.Uint("patient_id", p.ID),
		zap.String("name", p.FullName()),
	)

	return p, nil
}

func (s *PatientService) GetPatient(ctx context.Context, id uint) (*patient.Patient, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *PatientService) ListPatients(ctx context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	normalizePage(&q.Skip, &q.Limit)
	return s.repo.List(ctx, q)
}

func (s *PatientService) UpdatePatient(ctx context.Context, id uint, cmd *patient.UpdatePatientCommand, meta RequestMeta) (*patient.Patient, error) {
	if err := validateUpdatePatient(cmd); err != nil {
		return nil, err
	}

	if cmd.Email != nil {
		exists, err := s.repo.ExistsByEmail(ctx, *cmd.Email, id)
		if err != nil {
			s.log.Error("failed to check email uniqueness", zap.Error(err))
			return nil, fmt.Errorf("checking email uniqueness: %w", err)
		}
		if exists {
			return nil, patient.ErrEmailAlreadyRegistered
		}
	}

	p, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionUpdate,
		ResourceType: "patient",
		ResourceID:   id,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	return p, nil
}

// DeletePatient removes the patient and, in the same transaction, every
// appointment and prescription that references them.
func (s *PatientService) DeletePatient(ctx context.Context, id uint, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting patient: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionDelete,
		ResourceType: "patient",
		ResourceID:   id,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	s.log.Info("patient deleted with dependents", zap.Uint("patient_id", id))
	return nil
}

func validateCreatePatient(cmd *patient.CreatePatientCommand) error {
	var errs []string

	if strings.TrimSpace(cmd.FirstName) == "" {
		errs = append(errs, "first_name is required")
	}
	if strings.TrimSpace(cmd.LastName) == "" {
		errs = append(errs, "last_name is required")
	}
	switch {
	case strings.TrimSpace(cmd.Email) == "":
		errs = append(errs, "email is required")
	case !emailPattern.MatchString(cmd.Email):
		errs = append(errs, "email is invalid")
	}
	switch {
	case strings.TrimSpace(cmd.Phone) == "":
		errs = append(errs, "phone is required")
	case !phonePattern.MatchString(cmd.Phone):
		errs = append(errs, "phone is invalid")
	}
	if cmd.DateOfBirth.IsZero() {
		errs = append(errs, "date_of_birth is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateUpdatePatient(cmd *patient.UpdatePatientCommand) error {
	var errs []string

	if cmd.Email != nil && !emailPattern.MatchString(*cmd.Email) {
		errs = append(errs, "email is invalid")
	}
	if cmd.Phone != nil && !phonePattern.MatchString(*cmd.Phone) {
		errs = append(errs, "phone is invalid")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// normalizePage applies the documented defaults: skip 0, limit 100.
func normalizePage(skip, limit *int) {
	if *skip < 0 {
		*skip = 0
	}
	if *limit <= 0 {
		*limit = 100
	}
}
