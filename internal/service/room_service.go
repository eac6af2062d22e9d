package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/repository"
)

type RoomService struct {
	roomRepo repository.RoomRepository
}

func NewRoomService(roomRepo repository.RoomRepository) *RoomService {
	return &RoomService{roomRepo: roomRepo}
}

// CreateRoom создаёт комнату в статусе waiting. Пустое после trim имя
// отклоняется локально, без похода в стор. max <= 0 значит «без лимита».
func (s *RoomService) CreateRoom(ctx context.Context, name string, createdBy domain.UserID, max int64) (*domain.Room, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.ErrEmptyRoomName
	}
	if max < 0 {
		return nil, domain.ErrBadCapacity
	}

	room := &domain.Room{
		Name:            name,
		Status:          domain.StatusWaiting,
		CreatedBy:       createdBy,
		MaxParticipants: max,
	}

	if err := s.roomRepo.Create(ctx, room); err != nil {
		return nil, fmt.Errorf("roomRepo.Create: %w", err)
	}
	return room, nil
}

// GetRoom возвращает комнату по ID.
func (s *RoomService) GetRoom(ctx context.Context, id string) (*domain.Room, error) {
	room, err := s.roomRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRoomNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// ListOpenRooms возвращает комнаты в waiting|active, новые первыми,
// с курсорной пагинацией.
func (s *RoomService) ListOpenRooms(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	rooms, nextCursor, err := s.roomRepo.ListOpen(ctx, limit, cursor)
	if err != nil {
		return nil, "", err
	}
	return rooms, nextCursor, nil
}

// Transition переводит комнату в target. Текущий статус перечитывается
// из стора непосредственно перед записью; сама запись guarded
// (WHERE status=expected), так что проигранная гонка двух переходов
// тоже возвращает InvalidTransitionError, а не затирает чужую запись.
func (s *RoomService) Transition(ctx context.Context, id string, target domain.RoomStatus) (*domain.Room, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("unknown room status %q", target)
	}

	current, err := s.roomRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !current.Status.CanTransitionTo(target) {
		return nil, &domain.InvalidTransitionError{From: current.Status, To: target}
	}

	room, ok, err := s.roomRepo.UpdateStatus(ctx, id, current.Status, target)
	if err != nil {
		return nil, fmt.Errorf("roomRepo.UpdateStatus: %w", err)
	}
	if !ok {
		// кто-то успел раньше: перечитываем фактический статус для контекста ошибки
		actual, gerr := s.roomRepo.Get(ctx, id)
		if gerr != nil {
			return nil, gerr
		}
		return nil, &domain.InvalidTransitionError{From: actual.Status, To: target}
	}

	return room, nil
}

// DeleteRoom — опционально, если создатель покинул комнату
func (s *RoomService) DeleteRoom(ctx context.Context, id string) error {
	return s.roomRepo.Delete(ctx, id)
}
