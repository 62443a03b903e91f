package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"bibliolab/internal/core/apperror"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/tx"
	"bibliolab/internal/domain"
	"bibliolab/internal/domain/audit"
	"bibliolab/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
	BcryptCost         int
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 24 * time.Hour,
		BcryptCost:         bcrypt.DefaultCost,
	}
}

// Service provides registration, login and token rotation.
type Service struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	txManager  tx.Manager
	recorder   audit.Recorder
	jwtService *JWTService
	config     ServiceConfig
	clock      func() time.Time
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	tokenRepo TokenRepository,
	txManager tx.Manager,
	recorder audit.Recorder,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	if txManager == nil {
		txManager = tx.Nop{}
	}
	if recorder == nil {
		recorder = audit.Nop{}
	}
	if config.BcryptCost == 0 {
		config.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		txManager:  txManager,
		recorder:   recorder,
		jwtService: jwtService,
		config:     config,
		clock:      time.Now,
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	if len(password) < s.config.PasswordMinLength {
		return "", apperror.NewFieldValidation("password",
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength))
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.BcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// Register creates a new regular user.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	return s.createUser(ctx, req, false)
}

// CreateAdmin creates an administrator. Used by the seed command.
func (s *Service) CreateAdmin(ctx context.Context, req RegisterRequest) (*User, error) {
	return s.createUser(ctx, req, true)
}

func (s *Service) createUser(ctx context.Context, req RegisterRequest, admin bool) (*User, error) {
	passwordHash, err := s.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := NewUser(req.Username, req.Email, passwordHash, s.now())
	user.IsAdmin = admin
	if err := user.Validate(ctx); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.Exists(ctx, user.Username, user.Email)
	if err != nil {
		return nil, fmt.Errorf("check user exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("username or email already registered").
			WithDetail("username", user.Username)
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		return s.recorder.Record(ctx, audit.Event{
			EntityType: "user",
			EntityID:   user.ID,
			Action:     audit.ActionCreate,
			ActorID:    user.ID.String(),
			OccurredAt: user.CreatedAt,
			Snapshot:   publicSnapshot(user),
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "user registered",
		"user_id", user.ID,
		"username", user.Username,
		"admin", admin)

	return user, nil
}

// Login authenticates a user and returns a token pair.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	login := strings.TrimSpace(creds.Login)
	if login == "" || creds.Password == "" {
		return nil, nil, apperror.NewValidation("username and password are required")
	}

	var (
		user *User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(login))
	} else {
		user, err = s.userRepo.GetByUsername(ctx, login)
	}
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, nil, apperror.NewUnauthorized("invalid credentials")
		}
		return nil, nil, err
	}

	// Account state is only revealed to a caller who knows the password.
	now := s.now()
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		if user.CanLogin(now) == nil {
			user.RecordFailedLogin(now, s.config.MaxLoginAttempts, s.config.LockDuration)
			if uerr := s.userRepo.RecordLogin(ctx, user); uerr != nil {
				logger.Warn(ctx, "failed to record failed login", "user_id", user.ID, "error", uerr)
			}
		}
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := user.CanLogin(now); err != nil {
		return nil, nil, err
	}

	tokens, err := s.generateTokenPair(ctx, user, creds.UserAgent, creds.IPAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin(now)
	if err := s.userRepo.RecordLogin(ctx, user); err != nil {
		logger.Warn(ctx, "failed to record login", "user_id", user.ID, "error", err)
	}

	logger.Info(ctx, "user logged in", "user_id", user.ID, "username", user.Username)
	return tokens, user, nil
}

// RefreshToken rotates a refresh token and issues a new pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken, userAgent, ipAddress string) (*TokenPair, error) {
	token, err := s.tokenRepo.GetRefreshToken(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}

	now := s.now()
	if !token.IsValid(now) {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID, domain.ViewDefault)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	if err := user.CanLogin(now); err != nil {
		return nil, err
	}

	var pair *TokenPair
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.tokenRepo.RevokeRefreshToken(ctx, token.ID, "refreshed", now); err != nil {
			return fmt.Errorf("revoke refresh token: %w", err)
		}
		var err error
		pair, err = s.generateTokenPair(ctx, user, userAgent, ipAddress)
		return err
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

// Verify checks an access token and returns its claims.
func (s *Service) Verify(_ context.Context, accessToken string) (*Claims, error) {
	claims, err := s.jwtService.ParseToken(accessToken)
	if err != nil {
		return nil, apperror.NewUnauthorized("Token is invalid or expired")
	}
	return claims, nil
}

// Logout revokes all refresh tokens of the user.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID, "logout", s.now()); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	logger.Info(ctx, "user logged out", "user_id", userID)
	return nil
}

// Me returns the active account of userID.
func (s *Service) Me(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID, domain.ViewDefault)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("user", userID.String())
		}
		return nil, err
	}
	return user, nil
}

// CleanupExpiredTokens deletes refresh tokens that expired a day ago or more.
func (s *Service) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.tokenRepo.CleanupExpiredTokens(ctx, s.now().Add(-24*time.Hour))
}

func (s *Service) generateTokenPair(ctx context.Context, user *User, userAgent, ipAddress string) (*TokenPair, error) {
	now := s.now()
	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.config.RefreshTokenExpiry),
		CreatedAt: now,
		UserAgent: userAgent,
		IPAddress: ipAddress,
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user, refreshToken.ID.String())
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	raw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refreshToken.TokenHash = HashToken(raw)

	if err := s.tokenRepo.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// publicSnapshot drops credentials from audit snapshots.
func publicSnapshot(u *User) map[string]any {
	return map[string]any{
		"id":            u.ID,
		"username":      u.Username,
		"email":         u.Email,
		"profile_image": u.ProfileImage,
		"is_admin":      u.IsAdmin,
		"is_active":     u.IsActive,
	}
}

// HashToken creates the SHA-256 hex digest of an opaque token.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
