package sellout

import "strings"

// NotAvailable substitutes any reference that could not be resolved
const NotAvailable = "N/A"

// Role is an attribution field used for role-based grouping
type Role int

const (
	RoleTSE Role = iota + 1
	RoleZSM
	RoleArea
	RoleABM
	RoleASE
	RoleASM
	RoleRSO
	RoleType
)

// AllRoles lists every supported role in display order
var AllRoles = []Role{RoleTSE, RoleZSM, RoleArea, RoleABM, RoleASE, RoleASM, RoleRSO, RoleType}

var roleNames = map[Role]string{
	RoleTSE:  "TSE",
	RoleZSM:  "ZSM",
	RoleArea: "Area",
	RoleABM:  "ABM",
	RoleASE:  "ASE",
	RoleASM:  "ASM",
	RoleRSO:  "RSO",
	RoleType: "Type",
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return "Unknown"
}

// ParseRole matches a role name case-insensitively
func ParseRole(s string) (Role, bool) {
	s = strings.TrimSpace(s)
	for role, name := range roleNames {
		if strings.EqualFold(name, s) {
			return role, true
		}
	}
	return 0, false
}

// Attribution maps a role to the person (or label) responsible for a sale
type Attribution map[Role]string

// Get returns the attributed name, or N/A when the role is not attributed
func (a Attribution) Get(role Role) string {
	if v, ok := a[role]; ok && v != "" {
		return v
	}
	return NotAvailable
}

// Set records a non-empty value for role
func (a Attribution) Set(role Role, value string) {
	value = strings.TrimSpace(value)
	if _, known := roleNames[role]; !known || value == "" {
		return
	}
	a[role] = value
}
