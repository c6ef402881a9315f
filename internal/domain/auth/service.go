package auth

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/core/tx"
	"github.com/enxxi/v-board/internal/domain/user"
	"github.com/enxxi/v-board/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// RegisterRequest carries sign-up input.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Credentials carries login input.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Service provides registration, login and token rotation. Refresh tokens
// are JWTs whose hash is stored on the user row: presenting an old token
// after rotation fails the hash comparison even if the JWT still verifies.
type Service struct {
	userRepo   user.Repository
	txManager  tx.Manager
	jwtService *JWTService
	refresher  *JWTService
	config     ServiceConfig
}

// NewService creates a new auth service.
func NewService(userRepo user.Repository, txManager tx.Manager, jwtService *JWTService, config ServiceConfig) *Service {
	refreshCfg := jwtService.config
	refreshCfg.AccessTokenTTL = config.RefreshTokenExpiry

	return &Service{
		userRepo:   userRepo,
		txManager:  txManager,
		jwtService: jwtService,
		refresher:  NewJWTService(refreshCfg),
		config:     config,
	}
}

// Register creates a new user account.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*user.User, error) {
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := user.New(req.Username, req.Email, string(passwordHash))
	if err := u.Validate(ctx); err != nil {
		return nil, err
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.userRepo.Create(ctx, u)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered",
		"user_id", u.ID,
		"email", u.Email)

	return u, nil
}

// Login authenticates a user and returns a token pair.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *user.User, error) {
	u, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, u)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	logger.Info(ctx, "user logged in",
		"user_id", u.ID,
		"email", u.Email)

	return tokens, u, nil
}

// Refresh rotates the token pair. The presented refresh token must both
// verify as a JWT and match the hash stored at its last rotation.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	uc, err := s.refresher.ValidateToken(refreshToken)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}

	userID, err := id.Parse(uc.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}

	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || u.IsDeleted() {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}

	if u.RefreshTokenHash == nil || !tokenHashMatches(refreshToken, *u.RefreshTokenHash) {
		return nil, apperror.NewUnauthorized("refresh token revoked")
	}

	return s.generateTokenPair(ctx, u)
}

// Logout revokes the user's refresh token.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	if err := s.userRepo.SetRefreshTokenHash(ctx, userID, nil); err != nil {
		return err
	}

	logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// PromoteToAdmin grants the admin role. Caller must already be admin.
func (s *Service) PromoteToAdmin(ctx context.Context, userID id.ID) error {
	u, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u.IsDeleted() {
		return apperror.NewNotFound("user", userID.String())
	}
	if u.IsAdmin() {
		return nil
	}

	if err := s.userRepo.UpdateRole(ctx, userID, user.RoleAdmin); err != nil {
		return err
	}

	logger.Info(ctx, "user promoted to admin", "user_id", userID)
	return nil
}

// generateTokenPair creates access and refresh tokens and stores the
// refresh token's hash.
func (s *Service) generateTokenPair(ctx context.Context, u *user.User) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(
		u.ID.String(), u.Email, u.Username, u.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, _, err := s.refresher.GenerateAccessToken(
		u.ID.String(), u.Email, u.Username, u.IsAdmin())
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	hash := hashToken(refreshToken)
	if err := s.userRepo.SetRefreshTokenHash(ctx, u.ID, &hash); err != nil {
		return nil, fmt.Errorf("store refresh token hash: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates the SHA256 hash of a token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func tokenHashMatches(token, storedHash string) bool {
	hash := hashToken(token)
	return subtle.ConstantTimeCompare([]byte(hash), []byte(storedHash)) == 1
}
