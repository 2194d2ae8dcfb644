package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"shelfkeeper/m/domain"
	"shelfkeeper/m/internal/auth"
	"shelfkeeper/m/internal/store"
)

const (
	msgInvalidCredentials = "Invalid credentials, please try again."
	msgInactiveAccount    = "Your account is inactive. Please contact support."
	msgInvalidRole        = "Invalid role. Choose 'admin' or 'member'."
)

type RegisterInput struct {
	Username string `json:"username" validate:"required,max=150,username"`
	Email    string `json:"email" validate:"required,max=254,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResult carries the authenticated user and a fresh token pair.
type LoginResult struct {
	User   *domain.User
	Tokens auth.Pair
}

// RefreshResult holds a new access token. Refresh is set only when refresh
// tokens are rotated.
type RefreshResult struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// IdentityService registers and authenticates users and manages their tokens.
type IdentityService struct {
	store         *store.Store
	tokens        *auth.Issuer
	log           *logrus.Logger
	rotateRefresh bool
	now           func() time.Time
}

func NewIdentityService(st *store.Store, tokens *auth.Issuer, log *logrus.Logger, rotateRefresh bool) *IdentityService {
	return &IdentityService{store: st, tokens: tokens, log: log, rotateRefresh: rotateRefresh, now: time.Now}
}

// Register creates a new user with a hashed password.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (domain.Profile, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	fields, err := checkStruct(in)
	if err != nil {
		return domain.Profile{}, err
	}
	if fields == nil {
		fields = domain.FieldErrors{}
	}
	if _, bad := fields["username"]; !bad {
		taken, err := s.store.UsernameTaken(ctx, in.Username)
		if err != nil {
			return domain.Profile{}, err
		}
		if taken {
			fields.Add("username", "A user with that username already exists.")
		}
	}
	if _, bad := fields["email"]; !bad {
		taken, err := s.store.EmailTaken(ctx, in.Email)
		if err != nil {
			return domain.Profile{}, err
		}
		if taken {
			fields.Add("email", "user with this email already exists.")
		}
	}
	if len(fields) > 0 {
		return domain.Profile{}, &domain.ValidationError{Fields: fields}
	}

	if in.Role == "" {
		in.Role = domain.RoleMember
	}
	if !domain.ValidRole(in.Role) {
		return domain.Profile{}, domain.NewValidationError(msgInvalidRole)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Username:   in.Username,
		Email:      in.Email,
		Password:   string(hashed),
		Role:       in.Role,
		IsActive:   true,
		DateJoined: s.now().UTC(),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrUniqueViolation) {
			return domain.Profile{}, domain.NewValidationError("Username or email already exists.")
		}
		return domain.Profile{}, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Infof("User registered: %s", user.Username)
	return user.Profile(), nil
}

// Login verifies credentials and issues an access/refresh token pair.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	fields, err := checkStruct(in)
	if err != nil {
		return nil, err
	}
	if fields != nil {
		return nil, &domain.ValidationError{Fields: fields}
	}

	user, err := s.store.GetUserByUsername(ctx, in.Username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, &domain.AuthError{Message: msgInvalidCredentials}
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return nil, &domain.AuthError{Message: msgInvalidCredentials}
	}
	if !user.IsActive {
		return nil, &domain.AuthError{Message: msgInactiveAccount}
	}

	pair, err := s.tokens.IssuePair(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	s.log.WithField("user_id", user.ID).Infof("User logged in: %s", user.Username)
	return &LoginResult{User: user, Tokens: pair}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *IdentityService) Refresh(ctx context.Context, refresh string) (RefreshResult, error) {
	claims, err := s.tokens.Parse(refresh, auth.RefreshToken)
	if err != nil {
		return RefreshResult{}, err
	}
	revoked, err := s.store.IsBlacklisted(ctx, claims.ID)
	if err != nil {
		return RefreshResult{}, err
	}
	if revoked {
		return RefreshResult{}, fmt.Errorf("%w: token is blacklisted", auth.ErrInvalidToken)
	}
	user, err := s.activeUser(ctx, claims.UserID)
	if err != nil {
		return RefreshResult{}, err
	}

	var out RefreshResult
	if out.Access, err = s.tokens.IssueAccess(user.ID, user.Role); err != nil {
		return RefreshResult{}, err
	}
	if s.rotateRefresh {
		if out.Refresh, err = s.tokens.IssueRefresh(user.ID, user.Role); err != nil {
			return RefreshResult{}, err
		}
		if err := s.store.BlacklistToken(ctx, claims.ID, user.ID, claims.ExpiresAt.Time); err != nil {
			return RefreshResult{}, err
		}
	}
	return out, nil
}

// Logout blacklists a refresh token so it can no longer be exchanged.
func (s *IdentityService) Logout(ctx context.Context, refresh string) error {
	claims, err := s.tokens.Parse(refresh, auth.RefreshToken)
	if err != nil {
		return err
	}
	if err := s.store.BlacklistToken(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time); err != nil {
		return err
	}
	s.log.WithField("user_id", claims.UserID).Info("Refresh token blacklisted")
	return nil
}

// Authenticate resolves the user behind an access token.
func (s *IdentityService) Authenticate(ctx context.Context, access string) (*domain.User, error) {
	claims, err := s.tokens.Parse(access, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	return s.activeUser(ctx, claims.UserID)
}

func (s *IdentityService) activeUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: user not found", auth.ErrInvalidToken)
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, fmt.Errorf("%w: user is inactive", auth.ErrInvalidToken)
	}
	return user, nil
}

// CreateAdmin registers a user with the admin role.
func (s *IdentityService) CreateAdmin(ctx context.Context, username, email, password string) (domain.Profile, error) {
	return s.Register(ctx, RegisterInput{Username: username, Email: email, Password: password, Role: domain.RoleAdmin})
}

func (s *IdentityService) SetActive(ctx context.Context, username string, active bool) error {
	err := s.store.SetUserActive(ctx, username, active)
	if errors.Is(err, store.ErrNotFound) {
		return &domain.NotFoundError{Message: fmt.Sprintf("User %q not found", username)}
	}
	if err != nil {
		return err
	}
	s.log.WithField("active", active).Infof("User status changed: %s", username)
	return nil
}

// FlushExpiredTokens removes blacklist entries for tokens that have expired.
func (s *IdentityService) FlushExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.store.FlushExpiredTokens(ctx, s.now())
	if err != nil {
		return 0, err
	}
	s.log.WithField("removed", n).Debug("Flushed expired blacklisted tokens")
	return n, nil
}
