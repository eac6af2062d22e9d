package repository

import (
	"context"

	"github.com/quickmatch/lobby-service/internal/domain"
)

type RoomRepository interface {
	// Создаёт комнату, заполняет ID/CreatedAt из стора
	Create(ctx context.Context, room *domain.Room) error
	// Возвращает комнату по ID
	Get(ctx context.Context, id string) (*domain.Room, error)
	// Открытые комнаты (waiting|active), created_at desc, с курсорной пагинацией
	ListOpen(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
	// Меняет статус только если текущий равен expected; false — гонка проиграна
	UpdateStatus(ctx context.Context, id string, expected, next domain.RoomStatus) (*domain.Room, bool, error)
	Delete(ctx context.Context, id string) error
}
