package service

import "errors"

var (
	ErrNotFound               = errors.New("resource not found")
	ErrInvalidState           = errors.New("operation not valid in current state")
	ErrNoEligibleAppointments = errors.New("no eligible appointments")
	ErrValidation             = errors.New("validation failed")
	ErrSessionAlreadyActive   = errors.New("call session already active")
	ErrInvalidCredentials     = errors.New("invalid credentials")
	ErrUserExists             = errors.New("user already exists")
)
