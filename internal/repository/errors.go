package repository

import "errors"

// Ошибки хранилища. Общие для PostgreSQL и memstore реализаций.
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrReferenced   = errors.New("record is referenced by other records")
	ErrLastCalendar = errors.New("cannot delete the last calendar or the last active calendar")
	ErrStaleStatus  = errors.New("record status changed concurrently")
)

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilInts(s []int) []int {
	if s == nil {
		return []int{}
	}
	return s
}
