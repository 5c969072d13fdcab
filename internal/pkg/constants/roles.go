package constants

const (
	Superadmin = "superadmin"
	Admin      = "admin"
	Reviewer   = "reviewer"
	Investor   = "investor"
)

// ValidRoles is the set of allowed values for the user role column.
var ValidRoles = []string{Investor, Reviewer, Admin, Superadmin}

// IsValidRole returns true if role is one of the allowed enum values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
