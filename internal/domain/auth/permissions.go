package auth

import (
	"context"
	"strings"
)

const (
	RoleEmployee    = "employee"
	RoleManager     = "manager"
	RoleHR          = "hr"
	RolePayroll     = "payroll"
	RoleSystemAdmin = "system_admin"
)

const (
	PermCompensationCalculate = "compensation.calculate"
	PermAttendanceRead        = "attendance.read"
	PermPayrollRead           = "payroll.read"
	PermPayrollRun            = "payroll.run"
	PermSystemAdmin           = "admin.system"
)

var DefaultPermissions = []string{
	PermCompensationCalculate,
	PermAttendanceRead,
	PermPayrollRead,
	PermPayrollRun,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermAttendanceRead,
	},
	RoleManager: {
		PermAttendanceRead,
		PermCompensationCalculate,
	},
	RoleHR: {
		PermAttendanceRead,
		PermCompensationCalculate,
		PermPayrollRead,
	},
	RolePayroll: {
		PermAttendanceRead,
		PermCompensationCalculate,
		PermPayrollRead,
		PermPayrollRun,
	},
	RoleSystemAdmin: {
		PermSystemAdmin,
	},
}

// StaticPermissions resolves permissions from RolePermissions. Role names
// are matched case-insensitively.
type StaticPermissions struct{}

func (StaticPermissions) HasPermission(_ context.Context, role, permission string) (bool, error) {
	for _, granted := range RolePermissions[strings.ToLower(strings.TrimSpace(role))] {
		if granted == permission {
			return true, nil
		}
	}
	return false, nil
}
