package repository

import (
	"context"

	"github.com/quickmatch/lobby-service/internal/domain"
)

type ParticipantRepository interface {
	Exists(ctx context.Context, roomID string, userID domain.UserID) (bool, error)
	Get(ctx context.Context, roomID string, userID domain.UserID) (*domain.Participant, error)
	CountInRoom(ctx context.Context, roomID string) (int64, error)
	// Join атомарен относительно лимита комнаты (блокировка строки rooms)
	Join(ctx context.Context, p *domain.Participant) error
	// Leave идемпотентен: возвращает число удалённых строк, 0 — не ошибка
	Leave(ctx context.Context, roomID string, userID domain.UserID) (int64, error)
	ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error)
	// ListDetailed обогащает участников профилем; поля профиля могут быть NULL
	ListDetailed(ctx context.Context, roomID string) ([]domain.ParticipantDetailed, error)
}
