package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/config"
	"github.com/carebase/carebase/internal/domain"
	"github.com/carebase/carebase/internal/domain/appointment"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/internal/domain/prescription"
	"github.com/carebase/carebase/internal/service"
	"github.com/carebase/carebase/pkg/metrics"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	m.Run()
}

// The tests below run requests through the full router, middleware chain
// included, over map-backed repositories that mimic the GORM ones: IDs and
// timestamps are assigned on insert and rows come back in insertion order.

type memPatientRepo struct {
	mu    sync.Mutex
	seq   uint
	rows  map[uint]*patient.Patient
	order []uint

	appointments  *memAppointmentRepo
	prescriptions *memPrescriptionRepo
}

func (r *memPatientRepo) Create(_ context.Context, p *patient.Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rows {
		if existing.Email == p.Email {
			return patient.ErrEmailAlreadyRegistered
		}
	}
	r.seq++
	p.ID = r.seq
	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now
	cp := *p
	r.rows[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memPatientRepo) GetByID(_ context.Context, id uint) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPatientRepo) Update(_ context.Context, id uint, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cmd.ApplyTo(p)
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	return &cp, nil
}

func (r *memPatientRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	if _, ok := r.rows[id]; !ok {
		r.mu.Unlock()
		return patient.ErrPatientNotFound
	}
	delete(r.rows, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.mu.Unlock()

	r.appointments.deleteByPatient(id)
	r.prescriptions.deleteByPatient(id)
	return nil
}

func (r *memPatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*patient.Patient, 0)
	for _, id := range r.order {
		cp := *r.rows[id]
		out = append(out, &cp)
	}
	return slicePage(out, q.Skip, q.Limit), nil
}

func (r *memPatientRepo) ExistsByEmail(_ context.Context, email string, excludeID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, p := range r.rows {
		if excludeID != 0 && id == excludeID {
			continue
		}
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *memPatientRepo) Exists(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.rows[id]
	return ok, nil
}

type memAppointmentRepo struct {
	mu    sync.Mutex
	seq   uint
	rows  map[uint]*appointment.Appointment
	order []uint
}

func (r *memAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	a.ID = r.seq
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now
	cp := *a
	r.rows[a.ID] = &cp
	r.order = append(r.order, a.ID)
	return nil
}

func (r *memAppointmentRepo) GetByID(_ context.Context, id uint) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memAppointmentRepo) Update(_ context.Context, id uint, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.rows[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cmd.ApplyTo(a)
	a.UpdatedAt = time.Now().UTC()
	cp := *a
	return &cp, nil
}

func (r *memAppointmentRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	delete(r.rows, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memAppointmentRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*appointment.Appointment, 0)
	for _, id := range r.order {
		a := r.rows[id]
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return slicePage(out, q.Skip, q.Limit), nil
}

func (r *memAppointmentRepo) deleteByPatient(patientID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	for _, id := range r.order {
		if r.rows[id].PatientID == patientID {
			delete(r.rows, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

type memPrescriptionRepo struct {
	mu    sync.Mutex
	seq   uint
	rows  map[uint]*prescription.Prescription
	order []uint
}

func (r *memPrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	p.ID = r.seq
	p.CreatedAt = time.Now().UTC()
	cp := *p
	r.rows[p.ID] = &cp
	r.order = append(r.order, p.ID)
	return nil
}

func (r *memPrescriptionRepo) GetByID(_ context.Context, id uint) (*prescription.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memPrescriptionRepo) Delete(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[id]; !ok {
		return prescription.ErrPrescriptionNotFound
	}
	delete(r.rows, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

func (r *memPrescriptionRepo) List(_ context.Context, q *prescription.ListPrescriptionsQuery) ([]*prescription.Prescription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*prescription.Prescription, 0)
	for _, id := range r.order {
		p := r.rows[id]
		if q.PatientID != nil && p.PatientID != *q.PatientID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return slicePage(out, q.Skip, q.Limit), nil
}

func (r *memPrescriptionRepo) deleteByPatient(patientID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.order[:0]
	for _, id := range r.order {
		if r.rows[id].PatientID == patientID {
			delete(r.rows, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

type memAuditRepo struct {
	mu    sync.Mutex
	saved []*domain.AuditLog
}

func (r *memAuditRepo) Save(_ context.Context, entry *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *entry
	r.saved = append(r.saved, &cp)
	return nil
}

func slicePage[T any](rows []T, skip, limit int) []T {
	if skip >= len(rows) {
		return rows[:0]
	}
	rows = rows[skip:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

type testServer struct {
	router *gin.Engine
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name:        "carebase-api",
			Environment: "test",
			Version:     "1.0.0",
		},
		CORS: config.CORSConfig{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
			MaxAge:         12 * time.Hour,
		},
		// Rate limiting stays disabled so tests can hammer the router.
		RateLimit: config.RateLimitConfig{},
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	patients := &memPatientRepo{rows: make(map[uint]*patient.Patient)}
	appointments := &memAppointmentRepo{rows: make(map[uint]*appointment.Appointment)}
	prescriptions := &memPrescriptionRepo{rows: make(map[uint]*prescription.Prescription)}
	patients.appointments = appointments
	patients.prescriptions = prescriptions

	cfg := testConfig()
	log := zap.NewNop()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())

	auditSvc := service.NewAuditService(&memAuditRepo{}, collector, log)
	t.Cleanup(auditSvc.Shutdown)

	patientSvc := service.NewPatientService(patients, auditSvc, collector, log)
	appointmentSvc := service.NewAppointmentService(appointments, patients, auditSvc, collector, log)
	prescriptionSvc := service.NewPrescriptionService(prescriptions, patients, auditSvc, collector, log)

	router := NewRouter(cfg, log, collector, Handlers{
		Patients:      NewPatientHandler(patientSvc),
		Appointments:  NewAppointmentHandler(appointmentSvc),
		Prescriptions: NewPrescriptionHandler(prescriptionSvc),
		Health:        NewHealthHandler(cfg.App.Name, cfg.App.Version),
	})

	return &testServer{router: router}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), "body: %s", w.Body.String())
	return v
}

func (s *testServer) createPatient(t *testing.T, email string) *patient.Patient {
	t.Helper()
	w := s.do(t, "POST", "/api/patients", gin.H{
		"first_name":    "Jane",
		"last_name":     "Doe",
		"email":         email,
		"phone":         "+1 (555) 123-4567",
		"date_of_birth": "1984-06-15T00:00:00Z",
		"blood_type":    "O+",
	})
	require.Equal(t, 201, w.Code, "body: %s", w.Body.String())
	p := decodeBody[*patient.Patient](t, w)
	return p
}

func (s *testServer) createAppointment(t *testing.T, patientID uint) *appointment.Appointment {
	t.Helper()
	w := s.do(t, "POST", "/api/appointments", gin.H{
		"patient_id":       patientID,
		"doctor_name":      "Dr. Gregory House",
		"appointment_date": "2026-09-01T14:30:00Z",
		"reason":           "annual checkup",
	})
	require.Equal(t, 201, w.Code, "body: %s", w.Body.String())
	return decodeBody[*appointment.Appointment](t, w)
}

func (s *testServer) createPrescription(t *testing.T, patientID uint, durationDays int) *prescription.Prescription {
	t.Helper()
	w := s.do(t, "POST", "/api/prescriptions", gin.H{
		"patient_id":         patientID,
		"medication_name":    "Amoxicillin",
		"dosage":             "500mg",
		"frequency":          "3x daily",
		"duration_days":      durationDays,
		"prescribing_doctor": "Dr. Gregory House",
	})
	require.Equal(t, 201, w.Code, "body: %s", w.Body.String())
	return decodeBody[*prescription.Prescription](t, w)
}
