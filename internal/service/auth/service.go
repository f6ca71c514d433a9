package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"taskdesk/internal/config"
	"taskdesk/internal/domain"
	"taskdesk/internal/pkg/logger"
	pkgvalidator "taskdesk/internal/pkg/validator"
	"taskdesk/internal/repository"
	"taskdesk/internal/service/access"
	"taskdesk/internal/service/audit"
)

// Claims carry the session id and a random nonce whose hash is stored with the session.
type Claims struct {
	SessionID uuid.UUID `json:"sid"`
	Nonce     string    `json:"nonce"`
	jwt.RegisteredClaims
}

// Token is a signed session token and the moment it stops being accepted.
type Token struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Service interface {
	// Login checks credentials and opens a session. A presented session, if any, is revoked.
	Login(ctx context.Context, input domain.LoginInput, client domain.ClientInfo, current *domain.Session) (*domain.User, *Token, error)
	Logout(ctx context.Context, session *domain.Session) error
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
	ChangePassword(ctx context.Context, actor *domain.Principal, input domain.ChangePasswordInput) error

	LoginAs(ctx context.Context, actor *domain.Principal, targetID uuid.UUID, client domain.ClientInfo) (*domain.User, *Token, error)
	SwitchBack(ctx context.Context, actor *domain.Principal, client domain.ClientInfo) (*domain.User, *Token, error)
}

type service struct {
	repos  *repository.Repositories
	secret []byte
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time
}

func NewService(repos *repository.Repositories, cfg *config.Config) Service {
	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &service{
		repos:  repos,
		secret: []byte(cfg.SecretKey),
		ttl:    ttl,
		log:    logger.WithModule("auth"),
		now:    time.Now,
	}
}

func (s *service) Login(ctx context.Context, input domain.LoginInput, client domain.ClientInfo, current *domain.Session) (*domain.User, *Token, error) {
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return nil, nil, err
	}

	user, err := s.repos.User.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, domain.ErrInactiveUser
	}

	now := s.now()
	var token *Token
	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := s.revoke(ctx, tx, current); err != nil {
			return err
		}
		if err := tx.User.TouchLastLogin(ctx, user.ID, now); err != nil {
			return err
		}
		opened, err := s.openSession(ctx, tx, user.ID, nil, client)
		token = opened
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("user logged in", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

func (s *service) Logout(ctx context.Context, session *domain.Session) error {
	if session == nil {
		return nil
	}
	return s.repos.Session.Revoke(ctx, session.ID, s.now())
}

func (s *service) Authenticate(ctx context.Context, tokenString string) (*domain.Principal, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return nil, domain.ErrUnauthenticated
	}

	session, err := s.repos.Session.GetActive(ctx, claims.SessionID, hashToken(claims.Nonce), s.now())
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}

	user, err := s.repos.User.GetByID(ctx, session.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrUnauthenticated
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrInactiveUser
	}
	return &domain.Principal{User: user, Session: session}, nil
}

func (s *service) ChangePassword(ctx context.Context, actor *domain.Principal, input domain.ChangePasswordInput) error {
	if err := pkgvalidator.ValidateStruct(input); err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(actor.User.PasswordHash), []byte(input.OldPassword)); err != nil {
		return pkgvalidator.Field("old_password", "password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repos.User.UpdatePassword(ctx, actor.ID(), string(hash))
}

// LoginAs opens a session for target on behalf of a superuser and revokes the superuser's own.
func (s *service) LoginAs(ctx context.Context, actor *domain.Principal, targetID uuid.UUID, client domain.ClientInfo) (*domain.User, *Token, error) {
	if err := access.Superuser(actor, access.ResourceUser); err != nil {
		return nil, nil, err
	}
	if actor.Session != nil && actor.Session.IsImpersonating() {
		return nil, nil, domain.ErrAlreadyImpersonating
	}

	target, err := s.repos.User.GetByID(ctx, targetID)
	if err != nil {
		return nil, nil, err
	}
	if !target.IsActive || target.IsSuperuser {
		return nil, nil, domain.ErrInvalidTarget
	}

	originID := actor.ID()
	var token *Token
	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := s.revoke(ctx, tx, actor.Session); err != nil {
			return err
		}
		opened, err := s.openSession(ctx, tx, target.ID, &originID, client)
		if err != nil {
			return err
		}
		token = opened
		return audit.Record(ctx, tx.AuditLog, domain.CreateAuditLogInput{
			UserID:     originID,
			Action:     domain.AuditLoginAs,
			EntityType: access.ResourceUser,
			EntityID:   target.ID,
			NewValue:   map[string]string{"username": target.Username},
			Client:     client,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.log.Info("superuser logged in as user",
		zap.String("origin_user_id", originID.String()),
		zap.String("user_id", target.ID.String()),
	)
	return target, token, nil
}

// SwitchBack ends an impersonation and returns the origin superuser to a plain session.
func (s *service) SwitchBack(ctx context.Context, actor *domain.Principal, client domain.ClientInfo) (*domain.User, *Token, error) {
	if actor.Session == nil || !actor.Session.IsImpersonating() {
		return nil, nil, domain.ErrNotImpersonating
	}

	origin, err := s.repos.User.GetByID(ctx, *actor.Session.OriginUserID)
	if err != nil {
		return nil, nil, err
	}
	if !origin.IsActive || !origin.IsSuperuser {
		return nil, nil, domain.ErrForbidden
	}

	var token *Token
	err = s.repos.WithTx(ctx, func(tx *repository.Repositories) error {
		if err := s.revoke(ctx, tx, actor.Session); err != nil {
			return err
		}
		opened, err := s.openSession(ctx, tx, origin.ID, nil, client)
		if err != nil {
			return err
		}
		token = opened
		return audit.Record(ctx, tx.AuditLog, domain.CreateAuditLogInput{
			UserID:     origin.ID,
			Action:     domain.AuditSwitchBack,
			EntityType: access.ResourceUser,
			EntityID:   actor.ID(),
			Client:     client,
		})
	})
	if err != nil {
		return nil, nil, err
	}
	return origin, token, nil
}

func (s *service) revoke(ctx context.Context, tx *repository.Repositories, session *domain.Session) error {
	if session == nil {
		return nil
	}
	return tx.Session.Revoke(ctx, session.ID, s.now())
}

func (s *service) openSession(ctx context.Context, tx *repository.Repositories, userID uuid.UUID, originID *uuid.UUID, client domain.ClientInfo) (*Token, error) {
	nonce, err := randomNonce()
	if err != nil {
		return nil, err
	}

	now := s.now()
	session := &domain.Session{
		ID:           uuid.New(),
		UserID:       userID,
		OriginUserID: originID,
		TokenHash:    hashToken(nonce),
		IPAddress:    client.IPAddress,
		UserAgent:    client.UserAgent,
		ExpiresAt:    now.Add(s.ttl),
		CreatedAt:    now,
	}
	if err := tx.Session.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	claims := &Claims{
		SessionID: session.ID,
		Nonce:     nonce,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return &Token{Value: signed, ExpiresAt: session.ExpiresAt}, nil
}

func randomNonce() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
