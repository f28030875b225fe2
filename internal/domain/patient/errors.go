package patient

import "errors"

var (
	ErrPatientNotFound        = errors.New("patient not found")
	ErrEmailAlreadyRegistered = errors.New("email already registered")
)
