package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/domain"
	"github.com/carebase/carebase/internal/domain/appointment"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/pkg/metrics"
)

type AppointmentService struct {
	repo        appointment.Repository
	patientRepo patient.Repository
	auditSvc    *AuditService
	metrics     *metrics.Collector
	log         *zap.Logger
}

func NewAppointmentService(
	repo appointment.Repository,
	patientRepo patient.Repository,
	auditSvc *AuditService,
	collector *metrics.Collector,
	log *zap.Logger,
) *AppointmentService {
	return &AppointmentService{
		repo:        repo,
		patientRepo: patientRepo,
		auditSvc:    auditSvc,
		metrics:     collector,
		log:         log,
	}
}

// ScheduleAppointment creates an appointment for an existing patient. New
// appointments always start out scheduled regardless of the payload.
func (s *AppointmentService) ScheduleAppointment(ctx context.Context, cmd *appointment.CreateAppointmentCommand, meta RequestMeta) (*appointment.Appointment, error) {
	if err := validateCreateAppointment(cmd); err != nil {
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

	duration := appointment.DefaultDurationMinutes
	if cmd.DurationMinutes != nil {
		duration = *cmd.DurationMinutes
	}

	a := &appointment.Appointment{
		PatientID:       cmd.PatientID,
		DoctorName:      cmd.DoctorName,
		AppointmentDate: cmd.AppointmentDate,
		DurationMinutes: duration,
		Status:          appointment.StatusScheduled,
		Reason:          cmd.Reason,
		Notes:           cmd.Notes,
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.log.Error("failed to create appointment", zap.Error(err))
		return nil, fmt.Errorf("creating appointment: %w", err)
	}

	s.metrics.AppointmentsTotal.WithLabelValues(string(appointment.StatusScheduled)).Inc()
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionCreate,
		ResourceType: "appointment",
		ResourceID:   a.ID,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	s.log.Info("appointment scheduled",
		zap.Uint("appointment_id", a.ID),
		zap.Uint("patient_id", a.PatientID),
		zap.Time("appointment_date", a.AppointmentDate),
	)

	return a, nil
}

func (s *AppointmentService) GetAppointment(ctx context.Context, id uint) (*appointment.Appointment, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AppointmentService) ListAppointments(ctx context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	normalizePage(&q.Skip, &q.Limit)
	return s.repo.List(ctx, q)
}

// UpdateAppointment applies a partial update. A status value, when present,
// must be one of the known statuses, but any status may replace any other.
func (s *AppointmentService) UpdateAppointment(ctx context.Context, id uint, cmd *appointment.UpdateAppointmentCommand, meta RequestMeta) (*appointment.Appointment, error) {
	if cmd.Status != nil && !cmd.Status.IsValid() {
		return nil, &ValidationError{Fields: []string{
			fmt.Sprintf("status must be one of %s, %s, %s",
				appointment.StatusScheduled, appointment.StatusCompleted, appointment.StatusCancelled),
		}}
	}

	a, err := s.repo.Update(ctx, id, cmd)
	if err != nil {
		return nil, fmt.Errorf("updating appointment: %w", err)
	}

	if cmd.Status != nil {
		s.metrics.AppointmentsTotal.WithLabelValues(string(*cmd.Status)).Inc()
	}
	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionUpdate,
		ResourceType: "appointment",
		ResourceID:   id,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	return a, nil
}

func (s *AppointmentService) DeleteAppointment(ctx context.Context, id uint, meta RequestMeta) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting appointment: %w", err)
	}

	s.auditSvc.LogAsync(ctx, AuditEntry{
		Action:       domain.ActionDelete,
		ResourceType: "appointment",
		ResourceID:   id,
		RequestID:    meta.RequestID,
		ClientIP:     meta.ClientIP,
	})

	return nil
}

func validateCreateAppointment(cmd *appointment.CreateAppointmentCommand) error {
	var errs []string

	if cmd.PatientID == 0 {
		errs = append(errs, "patient_id is required")
	}
	if strings.TrimSpace(cmd.DoctorName) == "" {
		errs = append(errs, "doctor_name is required")
	}
	if cmd.AppointmentDate.IsZero() {
		errs = append(errs, "appointment_date is required")
	}
	if strings.TrimSpace(cmd.Reason) == "" {
		errs = append(errs, "reason is required")
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
