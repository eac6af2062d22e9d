package domain

import (
	"strings"
	"time"
)

// UserID — uuid, генерируется стором.
type UserID string

type User struct {
	ID           UserID
	Email        string
	PasswordHash string
	DisplayName  *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewUser создаёт пользователя. Ожидает уже посчитанный хеш пароля.
func NewUser(email, passwordHash string, now time.Time, opts ...UserOption) (*User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, ErrInvalidEmail
	}
	if strings.TrimSpace(passwordHash) == "" {
		return nil, ErrEmptyPasswordHash
	}

	u := &User{
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, opt := range opts {
		opt(u)
	}

	return u, nil
}

func (u *User) SetDisplayName(name *string, now time.Time) {
	u.DisplayName = trimPtr(name)
	u.UpdatedAt = now
}

type UserOption func(*User)

func WithDisplayName(name string) UserOption {
	return func(u *User) { u.DisplayName = trimPtr(&name) }
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func trimPtr(p *string) *string {
	if p == nil {
		return nil
	}
	t := strings.TrimSpace(*p)
	if t == "" {
		return nil
	}

	return &t
}
