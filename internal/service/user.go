package service

import (
	"context"
	"errors"
	"log/slog"
	"storefront-api/internal/apperror"
	"storefront-api/internal/dto"
	"storefront-api/internal/model"
	"storefront-api/internal/repository"
	"strings"

	"gorm.io/gorm"
)

// Identity is the authenticated caller resolved from a bearer token.
type Identity struct {
	UserID  string
	Email   string
	Name    string
	IsAdmin bool
}

func (i *Identity) Owns(order *model.Order) bool {
	return i != nil && order.UserID == i.UserID
}

func (i *Identity) CanAccess(order *model.Order) bool {
	return i != nil && (i.IsAdmin || i.Owns(order))
}

// ProfileClaims are the identity provider claims used to keep the local profile in sync.
type ProfileClaims struct {
	Subject   string
	Email     string
	FullName  string
	Name      string
	Phone     string
	AvatarURL string
}

// DisplayName falls back from full_name to name to the email local part.
func (c ProfileClaims) DisplayName() string {
	if c.FullName != "" {
		return c.FullName
	}
	if c.Name != "" {
		return c.Name
	}
	local, _, _ := strings.Cut(c.Email, "@")
	return local
}

type UserService interface {
	SyncProfile(ctx context.Context, claims ProfileClaims) (*Identity, error)
	GetProfile(ctx context.Context, identity *Identity) (*dto.UserResponse, error)
}

type userServiceImpl struct {
	userRepo   repository.UserRepository
	adminEmail string
	logger     *slog.Logger
}

func NewUserService(
	userRepo repository.UserRepository,
	adminEmail string,
	logger *slog.Logger,
) UserService {
	return &userServiceImpl{
		userRepo:   userRepo,
		adminEmail: adminEmail,
		logger:     logger,
	}
}

func (s *userServiceImpl) SyncProfile(ctx context.Context, claims ProfileClaims) (*Identity, error) {
	if claims.Subject == "" {
		return nil, apperror.Unauthorized("token has no subject")
	}

	name := claims.DisplayName()
	firstName, lastName := splitName(name)

	err := s.userRepo.Upsert(ctx, &model.User{
		ID:        claims.Subject,
		Email:     claims.Email,
		Name:      name,
		FirstName: firstName,
		LastName:  lastName,
		Phone:     claims.Phone,
		AvatarURL: claims.AvatarURL,
	})
	if err != nil {
		// the request can still be served with the token identity
		s.logger.WarnContext(ctx, "sync user profile failed", "user_id", claims.Subject, "error", err)
	}

	return &Identity{
		UserID:  claims.Subject,
		Email:   claims.Email,
		Name:    name,
		IsAdmin: s.isAdmin(claims.Email),
	}, nil
}

func (s *userServiceImpl) GetProfile(ctx context.Context, identity *Identity) (*dto.UserResponse, error) {
	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("user not found")
	}
	if err != nil {
		return nil, apperror.Dependency("get user", err)
	}

	return &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		AvatarURL: user.AvatarURL,
		IsAdmin:   identity.IsAdmin,
	}, nil
}

func (s *userServiceImpl) isAdmin(email string) bool {
	return s.adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), s.adminEmail)
}

func splitName(name string) (string, string) {
	fields := strings.Fields(name)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
