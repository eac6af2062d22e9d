package repository

import (
	"context"
	"time"

	"github.com/quickmatch/lobby-service/internal/domain"
)

type SessionRepository interface {
	// Создает новую refresh сессию
	Create(ctx context.Context, s *domain.Session) (domain.SessionID, error)
	// Ищет сессию по хешу refresh-токена
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	DeleteByID(ctx context.Context, id domain.SessionID) error
	// Удаляет все сессии пользователя (sign out everywhere)
	DeleteByUser(ctx context.Context, userID domain.UserID) (int64, error)
	// Очистка просроченных сессий на момент now
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
