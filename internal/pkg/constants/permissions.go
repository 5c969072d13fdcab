package constants

const (
	ViewAccount        = "view_account"
	RequestWithdrawal  = "request_withdrawal"
	ReviewWithdrawal   = "review_withdrawal"
	CompleteWithdrawal = "complete_withdrawal"
	RecordInvestment   = "record_investment"
	BuyShares          = "buy_shares"
	ManageProperties   = "manage_properties"
	ManageAccounts     = "manage_accounts"
	ManageUsers        = "manage_users"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	ViewAccount:        {Investor, Reviewer, Admin, Superadmin},
	RequestWithdrawal:  {Investor, Admin, Superadmin},
	BuyShares:          {Investor, Admin, Superadmin},
	ReviewWithdrawal:   {Reviewer, Admin, Superadmin},
	CompleteWithdrawal: {Admin, Superadmin},
	RecordInvestment:   {Admin, Superadmin},
	ManageProperties:   {Admin, Superadmin},
	ManageAccounts:     {Admin, Superadmin},
	ManageUsers:        {Admin, Superadmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
