package service

import (
	"errors"
	"fmt"
)

// Таксономия ошибок ядра. Вызывающий код проверяет их через errors.Is.
var (
	ErrValidation         = errors.New("validation failed")
	ErrConflict           = errors.New("conflict")
	ErrAlreadyTaken       = errors.New("slot already taken")
	ErrCalendarInactive   = errors.New("calendar is inactive")
	ErrSlotNotOffered     = errors.New("slot is not offered")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrUnknown            = errors.New("outcome unknown")
	ErrNotFound           = errors.New("not found")
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}
