package compensation

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedCountry = errors.New("unsupported country")
	ErrInvalidDateRange   = errors.New("end date before effective date")
	ErrInvalidLineItem    = errors.New("invalid line item")
)

type UnsupportedCountryError struct {
	CountryCode string
}

func (e *UnsupportedCountryError) Error() string {
	return fmt.Sprintf("unsupported country %q", e.CountryCode)
}

func (e *UnsupportedCountryError) Is(target error) bool {
	return target == ErrUnsupportedCountry
}
