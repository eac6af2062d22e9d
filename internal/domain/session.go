package domain

import (
	"strings"
	"time"
)

type SessionID int64

// Session — запись о refresh-сессии пользователя.
type Session struct {
	ID        SessionID
	UserID    UserID
	TokenHash string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	UserAgent *string
}

func NewSession(userID UserID, tokenHash string, expiresAt, now time.Time, opts ...SessionOption) (*Session, error) {
	if strings.TrimSpace(tokenHash) == "" {
		return nil, ErrEmptyTokenHash
	}
	if !expiresAt.After(now) {
		return nil, ErrPastExpiry
	}

	s := &Session{
		UserID:    userID,
		TokenHash: tokenHash,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

type SessionOption func(*Session)

func WithUserAgent(ua string) SessionOption {
	return func(s *Session) { s.UserAgent = trimPtr(&ua) }
}
