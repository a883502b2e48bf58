package compensation

const (
	TypeEarning   = "EARNING"
	TypeAllowance = "ALLOWANCE"
	TypeDeduction = "DEDUCTION"

	StatusActive   = "ACTIVE"
	StatusInactive = "INACTIVE"

	EmployeeTypeLocal      = "LOCAL"
	EmployeeTypeExpatriate = "EXPATRIATE"

	CodeBasic    = "BASIC"
	CodeDA       = "DA"
	CodeOvertime = "OVERTIME"

	WarningMissingBasis = "MISSING_BASIS_COMPONENT"
)

var (
	ComponentTypes = []string{TypeEarning, TypeAllowance, TypeDeduction}
	Statuses       = []string{StatusActive, StatusInactive}
	EmployeeTypes  = []string{EmployeeTypeLocal, EmployeeTypeExpatriate}
)
