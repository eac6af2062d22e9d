package view

import (
	"sync"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
)

// RoomWatch следит за UPDATE-событиями одной комнаты и дёргает callback
// при смене статуса. Другие поля комнаты живьём не реконсилируются —
// для них нужен полный refetch.
type RoomWatch struct {
	roomID   string
	onStatus func(from, to domain.RoomStatus)

	mu   sync.Mutex
	last domain.RoomStatus
}

func NewRoomWatch(roomID string, current domain.RoomStatus, onStatus func(from, to domain.RoomStatus)) *RoomWatch {
	return &RoomWatch{
		roomID:   roomID,
		onStatus: onStatus,
		last:     current,
	}
}

func (w *RoomWatch) Apply(e feed.ChangeEvent) {
	if e.Table != feed.TableRooms || e.RoomID != w.roomID || e.Type != feed.EventUpdate {
		return
	}
	newRow, _, err := e.DecodeRoom()
	if err != nil {
		return
	}

	next := domain.RoomStatus(newRow.Status)
	if !next.Valid() {
		return
	}

	w.mu.Lock()
	prev := w.last
	if next == prev {
		w.mu.Unlock()
		return
	}
	w.last = next
	w.mu.Unlock()

	if w.onStatus != nil {
		w.onStatus(prev, next)
	}
}

func (w *RoomWatch) Status() domain.RoomStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last
}
