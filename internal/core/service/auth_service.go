package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/censusware/population-system/internal/core/domain"
	"github.com/censusware/population-system/internal/core/ports"
)

// IdentityCache abstracts the short-lived caller-identity store (Redis).
// Get returns (nil, nil) on a miss.
type IdentityCache interface {
	Get(ctx context.Context, userID string) (*domain.User, error)
	Set(ctx context.Context, user *domain.User) error
	Invalidate(ctx context.Context, userID string) error
}

// AuthService implements signup, signin, identity resolution and user
// deletion.
type AuthService struct {
	users     ports.UserRepository
	places    ports.PlaceRepository
	cache     IdentityCache
	audit     ports.AuditRecorder
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(
	users ports.UserRepository,
	places ports.PlaceRepository,
	cache IdentityCache,
	audit ports.AuditRecorder,
	jwtSecret string,
	tokenTTL time.Duration,
	log zerolog.Logger,
) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{
		users:     users,
		places:    places,
		cache:     cache,
		audit:     audit,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (string, *domain.User, error) {
	if in.FirstName == "" || in.LastName == "" || in.Username == "" || in.Password == "" {
		return "", nil, domain.ErrMissingParameters
	}

	if _, err := s.users.FindByUsername(ctx, in.Username); err == nil {
		return "", nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, err
	}

	// The one-way hash happens exactly here, once per clear-text assignment.
	hash, err := hashPassword(in.Password)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Username:     in.Username,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// The unique index on username backstops the pre-check against races.
	created, err := s.users.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	token, err := s.generateToken(created.ID)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("username", created.Username).Str("user_id", created.ID).Msg("user signed up")
	return token, created, nil
}

func (s *AuthService) Signin(ctx context.Context, username, password string) (string, *domain.User, error) {
	if username == "" || password == "" {
		return "", nil, domain.ErrMissingParameters
	}

	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same answer as a wrong password so usernames cannot be enumerated.
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user.ID)
	if err != nil {
		return "", nil, err
	}

	s.log.Info().Str("username", user.Username).Msg("user signed in")
	return token, user, nil
}

// ResolveIdentity maps a verified token subject to a live user, consulting
// the identity cache before the credential store.
func (s *AuthService) ResolveIdentity(ctx context.Context, userID string) (*domain.User, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, userID)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("identity cache read failed, falling back to store")
		} else if cached != nil {
			return cached, nil
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user); err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("identity cache write failed")
		}
	}
	return user, nil
}

// DeleteUser removes the account and rewrites every place's createdBy and
// updatedBy matching the user's id to the "Deleted" marker. The places
// themselves survive.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) (*ports.DeleteUserResult, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.users.Delete(ctx, user.ID); err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, user.ID); err != nil {
			s.log.Warn().Err(err).Str("user_id", user.ID).Msg("identity cache invalidation failed")
		}
	}

	creations, err := s.places.RewriteCreatedBy(ctx, user.ID, domain.DeletedSentinel)
	if err != nil {
		return nil, err
	}
	updates, err := s.places.RewriteUpdatedBy(ctx, user.ID, domain.DeletedSentinel)
	if err != nil {
		return nil, err
	}

	s.record(ports.AuditUserDeleted, user.ID, user.ID, user.Username)
	s.record(ports.AuditAuthorRewritten, user.ID, user.ID, "")

	s.log.Info().
		Str("user_id", user.ID).
		Int64("creations_rewritten", creations.Modified).
		Int64("updates_rewritten", updates.Modified).
		Msg("user deleted")

	return &ports.DeleteUserResult{Creations: creations, Updates: updates}, nil
}

func (s *AuthService) record(action, subject, actor, note string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(ports.AuditInput{
		Action:    action,
		Subject:   subject,
		Actor:     actor,
		Note:      note,
		Timestamp: time.Now().UTC(),
	})
}

func (s *AuthService) generateToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}

func hashPassword(clear string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(clear), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
