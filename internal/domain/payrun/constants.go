package payrun

const (
	RunStatusRunning             = "RUNNING"
	RunStatusCompleted           = "COMPLETED"
	RunStatusCompletedWithErrors = "COMPLETED_WITH_ERRORS"
	RunStatusFailed              = "FAILED"
)

// Failure codes attached to a single employee in a run.
const (
	FailureUnsupportedCountry = "UNSUPPORTED_COUNTRY"
	FailureInvalidDateRange   = "INVALID_DATE_RANGE"
	FailureInvalidLineItem    = "INVALID_LINE_ITEM"
	FailureCancelled          = "CANCELLED"
	FailureInternal           = "INTERNAL"
)

const maxRunDays = 31
