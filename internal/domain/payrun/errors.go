package payrun

import "errors"

var (
	ErrRunNotFound      = errors.New("payroll run not found")
	ErrInvalidPeriod    = errors.New("invalid payroll period")
	ErrStoreUnavailable = errors.New("payroll store not configured")
)
