package v1

import (
	"github.com/gin-gonic/gin"

	"github.com/carebase/carebase/internal/domain/prescription"
	"github.com/carebase/carebase/internal/service"
)

// PrescriptionHandler exposes no update route: prescriptions are immutable
// once issued.
type PrescriptionHandler struct {
	svc *service.PrescriptionService
}

func NewPrescriptionHandler(svc *service.PrescriptionService) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

type createPrescriptionRequest struct {
	PatientID         uint   `json:"patient_id"`
	MedicationName    string `json:"medication_name"`
	Dosage            string `json:"dosage"`
	Frequency         string `json:"frequency"`
	DurationDays      *int   `json:"duration_days"`
	PrescribingDoctor string `json:"prescribing_doctor"`
	Instructions      string `json:"instructions"`
	RefillsRemaining  int    `json:"refills_remaining"`
}

func (h *PrescriptionHandler) Create(c *gin.Context) {
	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	cmd := &prescription.CreatePrescriptionCommand{
		PatientID:         req.PatientID,
		MedicationName:    req.MedicationName,
		Dosage:            req.Dosage,
		Frequency:         req.Frequency,
		DurationDays:      req.DurationDays,
		PrescribingDoctor: req.PrescribingDoctor,
		Instructions:      req.Instructions,
		RefillsRemaining:  req.RefillsRemaining,
	}

	p, err := h.svc.IssuePrescription(c.Request.Context(), cmd, requestMeta(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

func (h *PrescriptionHandler) List(c *gin.Context) {
	q := &prescription.ListPrescriptionsQuery{
		Skip:  parseQueryInt(c, "skip", 0, 0),
		Limit: parseQueryInt(c, "limit", 100, 1),
	}

	if pid := parseQueryInt(c, "patient_id", 0, 0); pid > 0 {
		id := uint(pid)
		q.PatientID = &id
	}

	prescriptions, err := h.svc.ListPrescriptions(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, prescriptions)
}

func (h *PrescriptionHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	p, err := h.svc.GetPrescription(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *PrescriptionHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.svc.DeletePrescription(c.Request.Context(), id, requestMeta(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	respondNoContent(c)
}
