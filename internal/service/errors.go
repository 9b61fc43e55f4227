package service

import "errors"

var (
	ErrEmptyText       = errors.New("task text is required")
	ErrTaskNotFound    = errors.New("task not found")
	ErrInvalidMinutes  = errors.New("minutes must be a positive number")
	ErrResetInProgress = errors.New("reset already in progress")
	ErrEmptyName       = errors.New("name is required")
	ErrUnknownUser     = errors.New("unknown user")
)
