package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/carebase/carebase/internal/domain/appointment"
	"github.com/carebase/carebase/internal/domain/patient"
	"github.com/carebase/carebase/internal/domain/prescription"
	"github.com/carebase/carebase/internal/middleware"
	"github.com/carebase/carebase/internal/service"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields"`
}

// Entity responses are the bare JSON encoding of the domain structs; only
// errors get an envelope.

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

func respondNoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorResponse{Error: message})
}

// respondServiceError maps domain errors onto HTTP statuses. Anything
// unrecognized is a 500 with a generic body; the underlying error has
// already been logged by the service layer.
func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, patient.ErrPatientNotFound):
		respondError(c, http.StatusNotFound, patient.ErrPatientNotFound.Error())

	case errors.Is(err, appointment.ErrAppointmentNotFound):
		respondError(c, http.StatusNotFound, appointment.ErrAppointmentNotFound.Error())

	case errors.Is(err, prescription.ErrPrescriptionNotFound):
		respondError(c, http.StatusNotFound, prescription.ErrPrescriptionNotFound.Error())

	case errors.Is(err, patient.ErrEmailAlreadyRegistered):
		respondError(c, http.StatusConflict, patient.ErrEmailAlreadyRegistered.Error())

	default:
		respondError(c, http.StatusInternalServerError, "internal server error")
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return false
	}
	return true
}

// parseID reads a positive integer path parameter.
func parseID(c *gin.Context, param string) (uint, bool) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "invalid "+param+": must be a positive integer")
		return 0, false
	}
	return uint(id), true
}

// parseQueryInt reads an integer query parameter. Anything that does not
// parse to an integer at or above floor falls back to defaultVal.
func parseQueryInt(c *gin.Context, key string, defaultVal, floor int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v >= floor {
			return v
		}
	}
	return defaultVal
}

func requestMeta(c *gin.Context) service.RequestMeta {
	return service.RequestMeta{
		RequestID: c.GetString(middleware.RequestIDKey),
		ClientIP:  c.ClientIP(),
	}
}
