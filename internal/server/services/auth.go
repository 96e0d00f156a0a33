// Package services holds the server's business operations. AuthService owns
// signup, signin and the profile lookup behind GET /users/me.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/bookmarker/internal/common"
	"github.com/dmitrijs2005/bookmarker/internal/dbx"
	"github.com/dmitrijs2005/bookmarker/internal/logging"
	"github.com/dmitrijs2005/bookmarker/internal/server/metrics"
	"github.com/dmitrijs2005/bookmarker/internal/server/models"
	"github.com/dmitrijs2005/bookmarker/internal/server/repositories/repomanager"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/dmitrijs2005/bookmarker/internal/server/services"

const (
	opSignup = "signup"
	opSignin = "signin"
	opMe     = "me"
)

// dummyPassword is hashed once and verified against when signin meets an
// unknown email, so both failure paths pay for one argon2 derivation.
const dummyPassword = "bookmarker-timing-equalizer"

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, encoded, password string) (bool, error)
}

type TokenSigner interface {
	Issue(subject, email string, ttl time.Duration) (string, error)
}

type OutcomeRecorder interface {
	AuthOutcome(op, outcome string)
}

// Credentials is the signup/signin submission.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AccessToken struct {
	AccessToken string `json:"access_token"`
}

type AuthService struct {
	db          dbx.DBTX
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	issuer      TokenSigner
	metrics     OutcomeRecorder
	logger      logging.Logger
	tracer      trace.Tracer
	now         func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthService(db dbx.DBTX, m repomanager.RepositoryManager, hasher PasswordHasher, issuer TokenSigner, rec OutcomeRecorder, logger logging.Logger) *AuthService {
	if rec == nil {
		rec = (*metrics.Metrics)(nil)
	}
	return &AuthService{
		db:          db,
		repomanager: m,
		hasher:      hasher,
		issuer:      issuer,
		metrics:     rec,
		logger:      logger.With("module", "auth"),
		tracer:      otel.Tracer(tracerName),
		now:         time.Now,
	}
}

// Signup stores a new user and returns its public view.
func (s *AuthService) Signup(ctx context.Context, cred Credentials) (*models.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	hash, err := s.hasher.Hash(ctx, cred.Password)
	if err != nil {
		s.fail(ctx, span, opSignup, "hashing failed", err)
		return nil, fmt.Errorf("%w: hash: %w", common.ErrorInternal, err)
	}

	now := s.now().UTC().Truncate(time.Millisecond)
	user := &models.User{
		ID:           uuid.NewString(),
		Email:        cred.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrDuplicateKey) {
			s.metrics.AuthOutcome(opSignup, metrics.OutcomeDuplicate)
			s.logger.Info(ctx, "signup rejected: email taken", "email", cred.Email)
			return nil, common.ErrDuplicateCredential
		}
		s.fail(ctx, span, opSignup, "store failure", err)
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	span.SetAttributes(attribute.String("user.id", created.ID))
	s.metrics.AuthOutcome(opSignup, metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user signed up", "user_id", created.ID, "email", created.Email)
	return created.Public(), nil
}

// Signin exchanges valid credentials for an access token. Unknown email and
// wrong password return the same error.
func (s *AuthService) Signin(ctx context.Context, cred Credentials) (*AccessToken, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Signin")
	defer span.End()

	user, err := s.repomanager.Users(s.db).GetUserByEmail(ctx, cred.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.burnVerify(ctx, cred.Password)
			s.reject(ctx, cred.Email)
			return nil, common.ErrInvalidCredential
		}
		s.fail(ctx, span, opSignin, "store failure", err)
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	ok, err := s.hasher.Verify(ctx, user.PasswordHash, cred.Password)
	if err != nil {
		s.fail(ctx, span, opSignin, "verify failed", err, "user_id", user.ID)
		return nil, fmt.Errorf("%w: verify: %w", common.ErrorInternal, err)
	}
	if !ok {
		s.reject(ctx, cred.Email)
		return nil, common.ErrInvalidCredential
	}

	token, err := s.issuer.Issue(user.ID, user.Email, 0)
	if err != nil {
		s.fail(ctx, span, opSignin, "token signing failed", err, "user_id", user.ID)
		return nil, fmt.Errorf("%w: sign: %w", common.ErrorInternal, err)
	}

	span.SetAttributes(attribute.String("user.id", user.ID))
	s.metrics.AuthOutcome(opSignin, metrics.OutcomeSuccess)
	s.logger.Info(ctx, "user signed in", "user_id", user.ID)
	return &AccessToken{AccessToken: token}, nil
}

// Me reloads the token's subject. A subject that no longer exists is treated
// as an invalid token.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.PublicUser, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Me", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	user, err := s.repomanager.Users(s.db).GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.metrics.AuthOutcome(opMe, metrics.OutcomeInvalid)
			s.logger.Warn(ctx, "token subject not found", "user_id", userID)
			return nil, fmt.Errorf("%w: subject not found", common.ErrInvalidToken)
		}
		s.fail(ctx, span, opMe, "store failure", err)
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	s.metrics.AuthOutcome(opMe, metrics.OutcomeSuccess)
	return user.Public(), nil
}

func (s *AuthService) reject(ctx context.Context, email string) {
	s.metrics.AuthOutcome(opSignin, metrics.OutcomeInvalid)
	s.logger.Info(ctx, "signin rejected", "email", email)
}

func (s *AuthService) fail(ctx context.Context, span trace.Span, op, msg string, err error, args ...any) {
	span.RecordError(err)
	span.SetStatus(codes.Error, msg)
	s.metrics.AuthOutcome(op, metrics.OutcomeError)
	s.logger.Error(ctx, op+": "+msg, append(args, "error", err)...)
}

func (s *AuthService) burnVerify(ctx context.Context, password string) {
	s.dummyOnce.Do(func() {
		h, err := s.hasher.Hash(context.WithoutCancel(ctx), dummyPassword)
		if err != nil {
			s.logger.Warn(ctx, "dummy hash unavailable", "error", err)
			return
		}
		s.dummyHash = h
	})
	if s.dummyHash != "" {
		_, _ = s.hasher.Verify(ctx, s.dummyHash, password)
	}
}
