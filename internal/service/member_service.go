package service

import (
	"context"
	"fmt"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/repository"
)

type MemberService struct {
	roomRepo        repository.RoomRepository
	participantRepo repository.ParticipantRepository
}

func NewMemberService(roomRepo repository.RoomRepository, participantRepo repository.ParticipantRepository) *MemberService {
	return &MemberService{
		roomRepo:        roomRepo,
		participantRepo: participantRepo,
	}
}

// JoinRoom добавляет пользователя в комнату.
// Порядок проверок: статус комнаты -> уже участник (идемпотентный успех)
// -> лимит. Проверки здесь — быстрый путь; авторитетная защита от гонок
// в repo.Join (лок строки комнаты в транзакции).
func (s *MemberService) JoinRoom(ctx context.Context, roomID string, userID domain.UserID) (*domain.Participant, error) {
	room, err := s.roomRepo.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}

	if room.Status != domain.StatusWaiting {
		return nil, domain.ErrRoomNotJoinable
	}

	exists, err := s.participantRepo.Exists(ctx, roomID, userID)
	if err != nil {
		return nil, err
	}
	if exists {
		// повторный join того же пользователя — успех без дублирующей вставки
		return s.participantRepo.Get(ctx, roomID, userID)
	}

	if !room.Unbounded() {
		count, err := s.participantRepo.CountInRoom(ctx, roomID)
		if err != nil {
			return nil, err
		}
		if count >= room.MaxParticipants {
			return nil, domain.ErrRoomFull
		}
	}

	p := &domain.Participant{
		RoomID: roomID,
		UserID: userID,
	}
	if err := s.participantRepo.Join(ctx, p); err != nil {
		return nil, fmt.Errorf("participantRepo.Join: %w", err)
	}

	return p, nil
}

// LeaveRoom идемпотентен: отсутствие членства не ошибка.
func (s *MemberService) LeaveRoom(ctx context.Context, roomID string, userID domain.UserID) error {
	_, err := s.participantRepo.Leave(ctx, roomID, userID)
	return err
}

func (s *MemberService) ListParticipants(ctx context.Context, roomID string) ([]domain.Participant, error) {
	return s.participantRepo.ListByRoom(ctx, roomID)
}

// ListParticipantsDetailed — с профилем пользователя, обогащение best-effort.
func (s *MemberService) ListParticipantsDetailed(ctx context.Context, roomID string) ([]domain.ParticipantDetailed, error) {
	return s.participantRepo.ListDetailed(ctx, roomID)
}

func (s *MemberService) CountParticipants(ctx context.Context, roomID string) (int64, error) {
	return s.participantRepo.CountInRoom(ctx, roomID)
}
