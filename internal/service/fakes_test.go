package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/carebase/carebase/internal/domain"
	"github.com/carebase/carebase/internal/domain/appointment"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/internal/domain/prescription"
	"github.com/carebase/carebase/pkg/metrics"
)

// The fakes below are map-backed stands-ins for the GORM repositories. They
// assign IDs and timestamps the same way the real ones do and keep insertion
// order so pagination behaves like an ordered table scan.

type fakePatientRepo struct {
	mu    sync.Mutex
	seq   uint
	rows  map[uint]*patient.Patient
	order []uint

	// When set, Delete also removes dependent rows, mirroring the
	// transactional cascade of the real repository.
	appointments  *fakeAppointmentRepo
	prescriptions *fakePrescriptionRepo

	failWith error
}

func newFakePatientRepo() *fakePatientRepo {
	return &fakePatientRepo{rows: make(map[uint]*patient.Patient)}
}

func (f *fakePatientRepo) Create(_ context.Context, p *patient.Patient) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, existing := range f.rows {
		if existing.Email == p.Email {
			return patient.ErrEmailAlreadyRegistered
		}
	}

	f.seq++
	p.ID = f.seq
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	cp := *p
	f.rows[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakePatientRepo) GetByID(_ context.Context, id uint) (*patient.Patient, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.rows[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) Update(_ context.Context, id uint, cmd *patient.UpdatePatientCommand) (*patient.Patient, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.rows[id]
	if !ok {
		return nil, patient.ErrPatientNotFound
	}
	cmd.ApplyTo(p)
	p.UpdatedAt = time.Now().UTC()

	cp := *p
	return &cp, nil
}

func (f *fakePatientRepo) Delete(_ context.Context, id uint) error {
	if f.failWith != nil {
		return f.failWith
	}
	f.mu.Lock()
	if _, ok := f.rows[id]; !ok {
		f.mu.Unlock()
		return patient.ErrPatientNotFound
	}
	delete(f.rows, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	f.mu.Unlock()

	if f.appointments != nil {
		f.appointments.deleteByPatient(id)
	}
	if f.prescriptions != nil {
		f.prescriptions.deleteByPatient(id)
	}
	return nil
}

func (f *fakePatientRepo) List(_ context.Context, q *patient.ListPatientsQuery) ([]*patient.Patient, error) {
	if f.failWith != nil {
		return nil, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*patient.Patient, 0)
	for _, id := range f.order {
		cp := *f.rows[id]
		out = append(out, &cp)
	}
	return page(out, q.Skip, q.Limit), nil
}

func (f *fakePatientRepo) ExistsByEmail(_ context.Context, email string, excludeID uint) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	for id, p := range f.rows {
		if excludeID != 0 && id == excludeID {
			continue
		}
		if p.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePatientRepo) Exists(_ context.Context, id uint) (bool, error) {
	if f.failWith != nil {
		return false, f.failWith
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.rows[id]
	return ok, nil
}

type fakeAppointmentRepo struct {
	mu    sync.Mutex
	seq   uint
	rows  map[uint]*appointment.Appointment
	order []uint
}

func newFakeAppointmentRepo() *fakeAppointmentRepo {
	return &fakeAppointmentRepo{rows: make(map[uint]*appointment.Appointment)}
}

func (f *fakeAppointmentRepo) Create(_ context.Context, a *appointment.Appointment) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	a.ID = f.seq
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	cp := *a
	f.rows[a.ID] = &cp
	f.order = append(f.order, a.ID)
	return nil
}

func (f *fakeAppointmentRepo) GetByID(_ context.Context, id uint) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.rows[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentRepo) Update(_ context.Context, id uint, cmd *appointment.UpdateAppointmentCommand) (*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.rows[id]
	if !ok {
		return nil, appointment.ErrAppointmentNotFound
	}
	cmd.ApplyTo(a)
	a.UpdatedAt = time.Now().UTC()

	cp := *a
	return &cp, nil
}

func (f *fakeAppointmentRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rows[id]; !ok {
		return appointment.ErrAppointmentNotFound
	}
	delete(f.rows, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeAppointmentRepo) List(_ context.Context, q *appointment.ListAppointmentsQuery) ([]*appointment.Appointment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*appointment.Appointment, 0)
	for _, id := range f.order {
		a := f.rows[id]
		if q.PatientID != nil && a.PatientID != *q.PatientID {
			continue
		}
		if q.Status != nil && a.Status != *q.Status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	return page(out, q.Skip, q.Limit), nil
}

func (f *fakeAppointmentRepo) deleteByPatient(patientID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.order[:0]
	for _, id := range f.order {
		if f.rows[id].PatientID == patientID {
			delete(f.rows, id)
			continue
		}
		kept = append(kept, id)
	}
	f.order = kept
}

func (f *fakeAppointmentRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakePrescriptionRepo struct {
	mu    sync.Mutex
	seq   uint
	rows  map[uint]*prescription.Prescription
	order []uint
}

func newFakePrescriptionRepo() *fakePrescriptionRepo {
	return &fakePrescriptionRepo{rows: make(map[uint]*prescription.Prescription)}
}

func (f *fakePrescriptionRepo) Create(_ context.Context, p *prescription.Prescription) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	p.ID = f.seq
	p.CreatedAt = time.Now().UTC()

	cp := *p
	f.rows[p.ID] = &cp
	f.order = append(f.order, p.ID)
	return nil
}

func (f *fakePrescriptionRepo) GetByID(_ context.Context, id uint) (*prescription.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.rows[id]
	if !ok {
		return nil, prescription.ErrPrescriptionNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePrescriptionRepo) Delete(_ context.Context, id uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.rows[id]; !ok {
		return prescription.ErrPrescriptionNotFound
	}
	delete(f.rows, id)
	for i, oid := range f.order {
		if oid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakePrescriptionRepo) List(_ context.Context, q *prescription.ListPrescriptionsQuery) ([]*prescription.Prescription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*prescription.Prescription, 0)
	for _, id := range f.order {
		p := f.rows[id]
		if q.PatientID != nil && p.PatientID != *q.PatientID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return page(out, q.Skip, q.Limit), nil
}

func (f *fakePrescriptionRepo) deleteByPatient(patientID uint) {
	f.mu.Lock()
	defer f.mu.Unlock()

	kept := f.order[:0]
	for _, id := range f.order {
		if f.rows[id].PatientID == patientID {
			delete(f.rows, id)
			continue
		}
		kept = append(kept, id)
	}
	f.order = kept
}

func (f *fakePrescriptionRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	saved   []*domain.AuditLog
	saveErr error
}

func (f *fakeAuditRepo) Save(_ context.Context, entry *domain.AuditLog) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *entry
	f.saved = append(f.saved, &cp)
	return nil
}

func (f *fakeAuditRepo) entries() []*domain.AuditLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.AuditLog, len(f.saved))
	copy(out, f.saved)
	return out
}

// page slices in the same way an OFFSET/LIMIT query would.
func page[T any](rows []T, skip, limit int) []T {
	if skip >= len(rows) {
		return rows[:0]
	}
	rows = rows[skip:]
	if limit >= 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}

// testEnv wires the services over the fakes the way main wires them over
// GORM. The audit worker is drained via Cleanup so its entries are visible
// to assertions made after the test body.
type testEnv struct {
	patients      *fakePatientRepo
	appointments  *fakeAppointmentRepo
	prescriptions *fakePrescriptionRepo
	audits        *fakeAuditRepo

	patientSvc      *PatientService
	appointmentSvc  *AppointmentService
	prescriptionSvc *PrescriptionService
	auditSvc        *AuditService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	patients := newFakePatientRepo()
	appointments := newFakeAppointmentRepo()
	prescriptions := newFakePrescriptionRepo()
	patients.appointments = appointments
	patients.prescriptions = prescriptions

	audits := &fakeAuditRepo{}
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	log := zap.NewNop()

	auditSvc := NewAuditService(audits, collector, log)
	t.Cleanup(auditSvc.Shutdown)

	return &testEnv{
		patients:        patients,
		appointments:    appointments,
		prescriptions:   prescriptions,
		audits:          audits,
		patientSvc:      NewPatientService(patients, auditSvc, collector, log),
		appointmentSvc:  NewAppointmentService(appointments, patients, auditSvc, collector, log),
		prescriptionSvc: NewPrescriptionService(prescriptions, patients, auditSvc, collector, log),
		auditSvc:        auditSvc,
	}
}

var testMeta = RequestMeta{RequestID: "req-test", ClientIP: "203.0.113.7"}

func (e *testEnv) mustCreatePatient(t *testing.T, email string) *patient.Patient {
	t.Helper()
	p, err := e.patientSvc.CreatePatient(context.Background(), &patient.CreatePatientCommand{
		FirstName:   "Jane",
		LastName:    "Doe",
		Email:       email,
		Phone:       "+1 (555) 123-4567",
		DateOfBirth: time.Date(1984, 6, 15, 0, 0, 0, 0, time.UTC),
		BloodType:   "O+",
	}, testMeta)
	if err != nil {
		t.Fatalf("creating patient: %v", err)
	}
	return p
}

func (e *testEnv) mustScheduleAppointment(t *testing.T, patientID uint) *appointment.Appointment {
	t.Helper()
	a, err := e.appointmentSvc.ScheduleAppointment(context.Background(), &appointment.CreateAppointmentCommand{
		PatientID:       patientID,
		DoctorName:      "Dr. Gregory House",
		AppointmentDate: time.Date(2026, 9, 1, 14, 30, 0, 0, time.UTC),
		Reason:          "annual checkup",
	}, testMeta)
	if err != nil {
		t.Fatalf("scheduling appointment: %v", err)
	}
	return a
}

func (e *testEnv) mustIssuePrescription(t *testing.T, patientID uint, durationDays int) *prescription.Prescription {
	t.Helper()
	p, err := e.prescriptionSvc.IssuePrescription(context.Background(), &prescription.CreatePrescriptionCommand{
		PatientID:         patientID,
		MedicationName:    "Amoxicillin",
		Dosage:            "500mg",
		Frequency:         "3x daily",
		DurationDays:      &durationDays,
		PrescribingDoctor: "Dr. Gregory House",
	}, testMeta)
	if err != nil {
		t.Fatalf("issuing prescription: %v", err)
	}
	return p
}
