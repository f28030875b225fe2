package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/carebase/carebase/internal/domain/appointment"
	"github.com/carebase/carebase/internal/service"
)

type AppointmentHandler struct {
	svc *service.AppointmentService
}

func NewAppointmentHandler(svc *service.AppointmentService) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

// createAppointmentRequest carries no status: new appointments always start
// out scheduled.
type createAppointmentRequest struct {
	PatientID       uint      `json:"patient_id"`
	DoctorName      string    `json:"doctor_name"`
	AppointmentDate time.Time `json:"appointment_date"`
	DurationMinutes *int      `json:"duration_minutes"`
	Reason          string    `json:"reason"`
	Notes           string    `json:"notes"`
}

// updateAppointmentRequest carries only the fields a caller may change;
// patient_id is fixed at creation.
type updateAppointmentRequest struct {
	DoctorName      *string             `json:"doctor_name"`
	AppointmentDate *time.Time          `json:"appointment_date"`
	DurationMinutes *int                `json:"duration_minutes"`
	Status          *appointment.Status `json:"status"`
	Reason          *string             `json:"reason"`
	Notes           *string             `json:"notes"`
}

func (h *AppointmentHandler) Create(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.CreateAppointmentCommand{
		PatientID:       req.PatientID,
		DoctorName:      req.DoctorName,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}

	a, err := h.svc.ScheduleAppointment(c.Request.Context(), cmd, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, a)
}

func (h *AppointmentHandler) List(c *gin.Context) {
	q := &appointment.ListAppointmentsQuery{
		Skip:  parseQueryInt(c, "skip", 0, 0),
		Limit: parseQueryInt(c, "limit", 100, 1),
	}

	// A patient_id of 0 means unfiltered, same as leaving it out.
	if pid := parseQueryInt(c, "patient_id", 0, 0); pid > 0 {
		id := uint(pid)
		q.PatientID = &id
	}
	// The status filter is passed through verbatim; unknown values simply
	// match nothing.
	if s := c.Query("status"); s != "" {
		status := appointment.Status(s)
		q.Status = &status
	}

	appointments, err := h.svc.ListAppointments(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, appointments)
}

func (h *AppointmentHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	a, err := h.svc.GetAppointment(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req updateAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &appointment.UpdateAppointmentCommand{
		DoctorName:      req.DoctorName,
		AppointmentDate: req.AppointmentDate,
		DurationMinutes: req.DurationMinutes,
		Status:          req.Status,
		Reason:          req.Reason,
		Notes:           req.Notes,
	}

	a, err := h.svc.UpdateAppointment(c.Request.Context(), id, cmd, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *AppointmentHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteAppointment(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondNoContent(c)
}
