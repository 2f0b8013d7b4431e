package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"adboard/internal/logger"
	"adboard/internal/model"
	"adboard/internal/repository"
	"adboard/internal/utils"

	"github.com/google/uuid"
	"github.com/rif/cache2go"
)

var (
	ErrDuplicateIdentity  = errors.New("a user with this identity already exists")
	ErrInvalidCredentials = errors.New("invalid identity or password")
	ErrNotAuthenticated   = errors.New("authentication required")
	ErrForbidden          = errors.New("forbidden: user does not have permission for this action")
	ErrInvalidRole        = errors.New("invalid role")
	ErrPasswordTooLong    = fmt.Errorf("password must be at most %d bytes", utils.MaxPasswordBytes)
)

// AuthService manages users and their login sessions
type AuthService interface {
	Register(ctx context.Context, identity, password, role string) (*model.User, error)
	FindByIdentity(ctx context.Context, identity string) (*model.User, error)
	VerifyPassword(user *model.User, password string) bool
	Login(ctx context.Context, identity, password string) (*model.User, string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*model.User, error)
	EnsureAdmin(ctx context.Context, identity, password string) (bool, error)
	PruneSessions(ctx context.Context) (int64, error)
	SessionTTL() time.Duration
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	jwtUtil     *utils.JWTUtil
	users       *cache2go.Cache // user ID -> *model.User; users are never updated
	now         func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, jwtUtil *utils.JWTUtil) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		jwtUtil:     jwtUtil,
		users:       cache2go.New(1000, 60*time.Minute),
		now:         time.Now,
	}
}

func (s *authService) SessionTTL() time.Duration {
	return s.jwtUtil.Expiration()
}

// Register creates a new user account
func (s *authService) Register(ctx context.Context, identity, password, role string) (*model.User, error) {
	if !model.ValidRole(role) {
		return nil, ErrInvalidRole
	}
	if len(password) > utils.MaxPasswordBytes {
		return nil, ErrPasswordTooLong
	}

	existingUser, err := s.userRepo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existingUser != nil {
		return nil, ErrDuplicateIdentity
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Identity:     identity,
		PasswordHash: hashedPassword,
		Role:         role,
		CreatedAt:    s.now(),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}

	logger.Info().Int("user_id", user.ID).Str("role", user.Role).Msg("User registered")
	return user, nil
}

// FindByIdentity returns nil, nil for an unknown identity
func (s *authService) FindByIdentity(ctx context.Context, identity string) (*model.User, error) {
	user, err := s.userRepo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

func (s *authService) VerifyPassword(user *model.User, password string) bool {
	if user == nil {
		return false
	}
	return utils.CheckPasswordHash(password, user.PasswordHash)
}

// Login checks credentials, opens a server side session and returns a signed token for it
func (s *authService) Login(ctx context.Context, identity, password string) (*model.User, string, error) {
	user, err := s.userRepo.FindByIdentity(ctx, identity)
	if err != nil {
		return nil, "", fmt.Errorf("error finding user by identity: %w", err)
	}
	// Unknown identity and wrong password look the same to the caller
	if user == nil || !s.VerifyPassword(user, password) {
		return nil, "", ErrInvalidCredentials
	}

	now := s.now()
	session := &model.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.jwtUtil.Expiration()),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", fmt.Errorf("failed to create session: %w", err)
	}

	token, err := s.jwtUtil.GenerateToken(user.ID, user.Role, session.ID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate token: %w", err)
	}

	logger.Info().Int("user_id", user.ID).Msg("User logged in")
	return user, token, nil
}

// Logout revokes the session behind token. Unknown or malformed tokens are ignored.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, claims.SessionID()); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	logger.Info().Int("user_id", claims.UserID).Msg("User logged out")
	return nil
}

// CurrentUser resolves token to a user, or ErrNotAuthenticated
func (s *authService) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrNotAuthenticated
	}
	claims, err := s.jwtUtil.ValidateToken(token)
	if err != nil {
		return nil, ErrNotAuthenticated
	}

	session, err := s.sessionRepo.FindByID(ctx, claims.SessionID())
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if session == nil || session.UserID != claims.UserID || !session.Alive(s.now()) {
		return nil, ErrNotAuthenticated
	}

	return s.userByID(ctx, session.UserID)
}

func (s *authService) userByID(ctx context.Context, id int) (*model.User, error) {
	key := strconv.Itoa(id)
	if cached, ok := s.users.Get(key); ok {
		if user, ok := cached.(*model.User); ok {
			copied := *user
			return &copied, nil
		}
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	cached := *user
	s.users.Set(key, &cached)
	return user, nil
}

// EnsureAdmin creates an admin with the given credentials unless the identity
// is already taken. It reports whether a user was created.
func (s *authService) EnsureAdmin(ctx context.Context, identity, password string) (bool, error) {
	_, err := s.Register(ctx, identity, password, model.RoleAdmin)
	if errors.Is(err, ErrDuplicateIdentity) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PruneSessions deletes sessions whose expiry has passed
func (s *authService) PruneSessions(ctx context.Context) (int64, error) {
	n, err := s.sessionRepo.DeleteExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to prune sessions: %w", err)
	}
	if n > 0 {
		logger.Debug().Int64("count", n).Msg("Expired sessions pruned")
	}
	return n, nil
}

// RequireRole returns ErrNotAuthenticated for a nil user and ErrForbidden when
// the user has none of roles.
func RequireRole(user *model.User, roles ...string) error {
	if user == nil {
		return ErrNotAuthenticated
	}
	for _, role := range roles {
		if user.Role == role {
			return nil
		}
	}
	return ErrForbidden
}
