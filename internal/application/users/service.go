package users

import (
	"context"
	"errors"
	"strings"
	"unicode"

	"fortyacres-backend/internal/domain"
	"fortyacres-backend/internal/middleware"
	"fortyacres-backend/internal/pkg/constants"
	"fortyacres-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

// Service holds DB and Redis for user operations.
type Service struct {
	DB  *gorm.DB
	Rdb *redis.Client
}

type CreateUserInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Fullname string `json:"fullname"`
}

// CreateUser registers an investor. The caller strips password_hash before
// returning the user.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*domain.User, error) {
	if in.Email == "" || !validation.IsValidEmail(strings.TrimSpace(in.Email)) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrInvalidPassword
	}
	trimmed := strings.TrimSpace(in.Fullname)
	if trimmed == "" {
		return nil, ErrFullnameRequired
	}
	if !validation.IsValidFullname(trimmed) {
		return nil, ErrInvalidFullname
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	var existing domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Fullname:     titleCaseAndNormalize(trimmed),
		Role:         constants.Investor,
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, err
	}
	log.Info().Str("user_id", u.UserID.String()).Msg("user registered")
	return u, nil
}

// UpdateUser applies the allowed profile fields: email, password, fullname.
func (s *Service) UpdateUser(ctx context.Context, userID string, fields map[string]interface{}) (*domain.User, error) {
	if _, err := parseID(userID); err != nil {
		return nil, err
	}

	upd := make(map[string]interface{})
	if v, ok := fields["email"].(string); ok {
		e := strings.TrimSpace(strings.ToLower(v))
		if !validation.IsValidEmail(e) {
			return nil, ErrInvalidEmail
		}
		var dup domain.User
		if err := s.DB.WithContext(ctx).Where("email = ? AND user_id != ?", e, userID).First(&dup).Error; err == nil {
			return nil, ErrEmailTaken
		}
		upd["email"] = e
	}
	if v, ok := fields["password"].(string); ok {
		if !validation.IsValidPassword(v) {
			return nil, ErrInvalidPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(v), bcryptCost)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = string(hash)
	}
	if v, ok := fields["fullname"].(string); ok {
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, ErrFullnameRequired
		}
		if !validation.IsValidFullname(trimmed) {
			return nil, ErrInvalidFullname
		}
		upd["fullname"] = titleCaseAndNormalize(trimmed)
	}
	if len(upd) == 0 {
		return nil, ErrNoUpdateFields
	}

	res := s.DB.WithContext(ctx).Model(&domain.User{}).Where("user_id = ?", userID).Updates(upd)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrUserNotFound
	}
	return s.ViewUser(ctx, userID)
}

func (s *Service) ViewUser(ctx context.Context, userID string) (*domain.User, error) {
	if _, err := parseID(userID); err != nil {
		return nil, err
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", userID).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

type UpdateUserRoleInput struct {
	ActorUserID  string
	ActorRole    string
	TargetUserID string
	TargetRole   string
}

// UpdateUserRole changes a user's role and drops their sessions so the new
// role applies on next login.
func (s *Service) UpdateUserRole(ctx context.Context, in UpdateUserRoleInput) (*domain.User, error) {
	var u *domain.User
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		target, err := validateRoleAssignment(tx, in)
		if err != nil {
			return err
		}
		if err := tx.Model(target).Update("role", in.TargetRole).Error; err != nil {
			return err
		}
		target.Role = in.TargetRole
		u = target
		return nil
	})
	if err != nil {
		return nil, err
	}
	middleware.DestroyUserSessions(ctx, s.Rdb, in.TargetUserID)
	log.Info().Str("actor", in.ActorUserID).Str("user_id", in.TargetUserID).Str("role", in.TargetRole).Msg("user role updated")
	return u, nil
}

// validateRoleAssignment: only superadmins hand out admin or superadmin,
// nobody but a superadmin changes their own role, and the last superadmin
// cannot be downgraded.
func validateRoleAssignment(tx *gorm.DB, in UpdateUserRoleInput) (*domain.User, error) {
	if !constants.IsValidRole(in.TargetRole) {
		return nil, ErrInvalidRole
	}
	if (in.TargetRole == constants.Admin || in.TargetRole == constants.Superadmin) && in.ActorRole != constants.Superadmin {
		return nil, ErrOnlySuperadminsAssign
	}
	if _, err := parseID(in.TargetUserID); err != nil {
		return nil, err
	}
	var target domain.User
	if err := tx.Where("user_id = ?", in.TargetUserID).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if in.ActorUserID == in.TargetUserID && in.ActorRole != constants.Superadmin {
		return nil, ErrCannotModifyOwnRole
	}
	if target.Role == constants.Superadmin && in.TargetRole != constants.Superadmin {
		var count int64
		if err := tx.Model(&domain.User{}).Where("role = ?", constants.Superadmin).Count(&count).Error; err != nil {
			return nil, err
		}
		if count <= 1 {
			return nil, ErrMustKeepOneSuperadmin
		}
	}
	return &target, nil
}

func parseID(userID string) (uuid.UUID, error) {
	if userID == "" {
		return uuid.Nil, ErrMissingUserID
	}
	id, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, ErrInvalidUserID
	}
	return id, nil
}

// titleCaseAndNormalize collapses whitespace and capitalizes each word.
func titleCaseAndNormalize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	capitalize := true
	for _, r := range s {
		if unicode.IsSpace(r) {
			if !capitalize {
				b.WriteRune(' ')
				capitalize = true
			}
			continue
		}
		if capitalize {
			b.WriteRune(unicode.ToUpper(r))
			capitalize = false
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
