package users

import "errors"

var (
	ErrMissingUserID         = errors.New("Missing user ID")
	ErrInvalidUserID         = errors.New("Invalid user ID format (must be a valid UUID)")
	ErrUserNotFound          = errors.New("User not found")
	ErrInvalidEmail          = errors.New("Invalid email format")
	ErrInvalidPassword       = errors.New("Invalid password format")
	ErrFullnameRequired      = errors.New("Full name is required and must be a non-empty string")
	ErrInvalidFullname       = errors.New("Full name contains invalid characters (only letters, spaces, hyphens, and apostrophes allowed)")
	ErrEmailTaken            = errors.New("Email already registered")
	ErrNoUpdateFields        = errors.New("No valid update fields provided")
	ErrInvalidRole           = errors.New("Invalid role")
	ErrOnlySuperadminsAssign = errors.New("Only superadmins can assign admin or superadmin roles")
	ErrCannotModifyOwnRole   = errors.New("Users cannot modify their own role")
	ErrMustKeepOneSuperadmin = errors.New("There must be at least one superadmin")
)
