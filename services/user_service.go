package services

import (
	"context"
	"sort"
	"strings"

	"github.com/kendall-kelly/door-production-api/apperrors"
	"github.com/kendall-kelly/door-production-api/models"
	"github.com/kendall-kelly/door-production-api/utils"
	"github.com/kendall-kelly/door-production-api/workflow"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// UpdateProfileInput edits the caller's own profile.
type UpdateProfileInput struct {
	Name  string `json:"name" binding:"omitempty,max=200"`
	Email string `json:"email" binding:"omitempty,email"`
}

// UpdateUserInput is an office edit of another user's access.
type UpdateUserInput struct {
	Role        utils.Optional[models.Role]           `json:"role"`
	Departments utils.Optional[[]workflow.Department] `json:"departments"`
	Active      utils.Optional[bool]                  `json:"active"`
}

// UserService manages user profiles, roles and department assignments.
type UserService struct {
	base
	userInfo UserInfoProvider
}

func NewUserService(db *gorm.DB, userInfo UserInfoProvider, logger *zap.Logger) *UserService {
	return &UserService{base: newBase(db, nil, logger), userInfo: userInfo}
}

// Register creates the caller's profile from their Auth0 userinfo. A valid
// role claim on the token is honoured, otherwise the user starts as an
// operator with no departments.
func (s *UserService) Register(ctx context.Context, auth0ID, accessToken string, claimedRole models.Role) (*models.User, error) {
	info, err := s.userInfo.GetUserInfo(ctx, accessToken)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch user information from Auth0", err)
	}
	if strings.TrimSpace(info.Email) == "" {
		return nil, apperrors.Validation("email not provided by Auth0")
	}
	if strings.TrimSpace(info.Name) == "" {
		return nil, apperrors.Validation("name not provided by Auth0")
	}

	role := models.RoleOperator
	if claimedRole.Valid() {
		role = claimedRole
	}

	user := models.User{
		Auth0ID: auth0ID,
		Name:    strings.TrimSpace(info.Name),
		Email:   strings.ToLower(strings.TrimSpace(info.Email)),
		Role:    role,
		Active:  true,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return dbError(err, "user")
		}
		return logActivity(tx, user.Actor(), nil, models.ActionUserRegistered, map[string]interface{}{
			"user_id": user.ID,
			"role":    user.Role,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User registered", zap.Uint("user_id", user.ID), zap.String("role", string(user.Role)))
	return s.Get(ctx, user.ID)
}

// Get returns a user with their departments.
func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Preload("Departments").First(&user, id).Error; err != nil {
		return nil, dbError(err, "user")
	}
	return &user, nil
}

// GetByAuth0ID resolves the profile behind a token subject.
func (s *UserService) GetByAuth0ID(ctx context.Context, auth0ID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Departments").Where("auth0_id = ?", auth0ID).First(&user).Error
	if err != nil {
		return nil, dbError(err, "user")
	}
	return &user, nil
}

// UpdateProfile changes the caller's name or email.
func (s *UserService) UpdateProfile(ctx context.Context, actor models.Actor, in UpdateProfileInput) (*models.User, error) {
	updates := map[string]interface{}{}
	if name := strings.TrimSpace(in.Name); name != "" {
		updates["name"] = name
	}
	if email := strings.TrimSpace(in.Email); email != "" {
		updates["email"] = strings.ToLower(email)
	}
	if len(updates) == 0 {
		return s.Get(ctx, actor.UserID)
	}

	if err := s.db.WithContext(ctx).Model(&models.User{ID: actor.UserID}).Updates(updates).Error; err != nil {
		return nil, dbError(err, "user")
	}
	s.logger.Info("Profile updated", zap.Uint("user_id", actor.UserID), zap.Strings("fields", sortedKeys(updates)))
	return s.Get(ctx, actor.UserID)
}

// List returns every user. Office only.
func (s *UserService) List(ctx context.Context, actor models.Actor) ([]models.User, error) {
	if err := requireOffice(actor, "list users"); err != nil {
		return nil, err
	}

	var users []models.User
	if err := s.db.WithContext(ctx).Preload("Departments").Order("name ASC, id ASC").Find(&users).Error; err != nil {
		return nil, dbError(err, "user")
	}
	return users, nil
}

// Update sets a user's role, department set or active flag. The department
// set is replaced as a whole.
func (s *UserService) Update(ctx context.Context, actor models.Actor, id uint, in UpdateUserInput) (*models.User, error) {
	if err := requireOffice(actor, "manage users"); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Role.Set {
		if in.Role.IsNull() || !in.Role.Value.Valid() {
			return nil, apperrors.Validation("role must be office or operator")
		}
		updates["role"] = *in.Role.Value
	}
	if in.Active.Set {
		if in.Active.IsNull() {
			return nil, apperrors.Validation("active cannot be null")
		}
		updates["active"] = *in.Active.Value
	}
	var departments []workflow.Department
	if in.Departments.Set {
		var err error
		if departments, err = uniqueDepartments(in.Departments.Or(nil)); err != nil {
			return nil, err
		}
	}
	if len(updates) == 0 && !in.Departments.Set {
		return nil, apperrors.Validation("no fields to update")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, id).Error; err != nil {
			return dbError(err, "user")
		}
		if len(updates) > 0 {
			if err := tx.Model(&user).Updates(updates).Error; err != nil {
				return dbError(err, "user")
			}
		}

		fields := sortedKeys(updates)
		if in.Departments.Set {
			if err := tx.Where("user_id = ?", id).Delete(&models.UserDepartment{}).Error; err != nil {
				return dbError(err, "user department")
			}
			if len(departments) > 0 {
				rows := make([]models.UserDepartment, len(departments))
				for i, d := range departments {
					rows[i] = models.UserDepartment{UserID: id, Department: d}
				}
				if err := tx.Create(&rows).Error; err != nil {
					return dbError(err, "user department")
				}
			}
			fields = append(fields, "departments")
		}

		return logActivity(tx, actor, nil, models.ActionUserUpdated, map[string]interface{}{
			"user_id": id,
			"fields":  fields,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("User updated", zap.Uint("user_id", id), zap.Uint("by_user_id", actor.UserID))
	return s.Get(ctx, id)
}

func uniqueDepartments(in []workflow.Department) ([]workflow.Department, error) {
	seen := map[workflow.Department]bool{}
	out := make([]workflow.Department, 0, len(in))
	for _, d := range in {
		if !d.Valid() {
			return nil, apperrors.Validation("unknown department %q", d)
		}
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}
