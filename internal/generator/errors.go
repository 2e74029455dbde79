package generator

import "errors"

var (
	// ErrInvalidYearRange is returned when a date mode's start year is after its end year.
	ErrInvalidYearRange = errors.New("start year must not be after end year")

	// ErrInvalidLengthRange is returned when a minimum length exceeds the maximum.
	ErrInvalidLengthRange = errors.New("minimum length must not exceed maximum length")
)
