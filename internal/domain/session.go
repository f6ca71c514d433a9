package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is the server-side record behind a session cookie. OriginUserID is set only
// while a superuser is acting as another user.
type Session struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	UserID       uuid.UUID  `json:"user_id" db:"user_id"`
	OriginUserID *uuid.UUID `json:"origin_user_id,omitempty" db:"origin_user_id"`
	TokenHash    string     `json:"-" db:"token_hash"`
	IPAddress    *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent    *string    `json:"user_agent,omitempty" db:"user_agent"`
	ExpiresAt    time.Time  `json:"expires_at" db:"expires_at"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	RevokedAt    *time.Time `json:"-" db:"revoked_at"`
}

func (s *Session) IsImpersonating() bool {
	return s.OriginUserID != nil
}

// Principal is the authenticated identity attached to a request.
type Principal struct {
	User    *User
	Session *Session
}

func (p *Principal) ID() uuid.UUID {
	return p.User.ID
}

func (p *Principal) IsSuperuser() bool {
	return p.User.IsSuperuser
}

type ClientInfo struct {
	IPAddress *string
	UserAgent *string
}
