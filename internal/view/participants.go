package view

import (
	"sync"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
)

// ParticipantList — живой список участников одной комнаты.
// INSERT добавляет участника (возможно без профиля — обогащение
// best-effort), DELETE убирает по user id. События других комнат
// отбрасываются по RoomID.
type ParticipantList struct {
	roomID string

	mu      sync.RWMutex
	entries []domain.ParticipantDetailed
}

func NewParticipantList(roomID string) *ParticipantList {
	return &ParticipantList{roomID: roomID}
}

func (l *ParticipantList) Reset(entries []domain.ParticipantDetailed) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = make([]domain.ParticipantDetailed, len(entries))
	copy(l.entries, entries)
}

func (l *ParticipantList) Apply(e feed.ChangeEvent) {
	if e.Table != feed.TableParticipants || e.RoomID != l.roomID {
		return
	}
	newRow, oldRow, err := e.DecodeParticipant()
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch e.Type {
	case feed.EventInsert:
		// идемпотентно по user id: повторный insert не задваивает строку
		for _, p := range l.entries {
			if string(p.UserID) == newRow.UserID {
				return
			}
		}
		l.entries = append(l.entries, domain.ParticipantDetailed{
			RoomID:   newRow.RoomID,
			UserID:   domain.UserID(newRow.UserID),
			JoinedAt: newRow.JoinedAt,
		})
	case feed.EventDelete:
		for i, p := range l.entries {
			if string(p.UserID) == oldRow.UserID {
				l.entries = append(l.entries[:i], l.entries[i+1:]...)
				return
			}
		}
		// неизвестный user id — no-op
	}
}

// Enrich дозаполняет профиль участника, если он уже в списке.
func (l *ParticipantList) Enrich(userID domain.UserID, email, displayName *string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.entries {
		if l.entries[i].UserID == userID {
			l.entries[i].Email = email
			l.entries[i].DisplayName = displayName
			return
		}
	}
}

func (l *ParticipantList) Snapshot() []domain.ParticipantDetailed {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]domain.ParticipantDetailed, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *ParticipantList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
