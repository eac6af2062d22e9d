package view

import (
	"sync"

	"github.com/quickmatch/lobby-service/internal/feed"
)

// RoomList — живой список открытых комнат лобби. События change-feed
// сворачиваются в упорядоченный срез: INSERT добавляет в начало, UPDATE
// заменяет по id, DELETE убирает по id. Порядок для событий, пришедших
// не в порядке created_at, остаётся «prepend» — принятая аппроксимация,
// список сходится к состоянию стора eventually.
type RoomList struct {
	mu    sync.RWMutex
	rooms []feed.RoomRow
}

func NewRoomList() *RoomList {
	return &RoomList{}
}

// Reset заменяет состояние результатом полного refetch.
func (l *RoomList) Reset(rooms []feed.RoomRow) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms = make([]feed.RoomRow, len(rooms))
	copy(l.rooms, rooms)
}

// Apply сворачивает одно событие. События чужих таблиц игнорируются.
func (l *RoomList) Apply(e feed.ChangeEvent) {
	if e.Table != feed.TableRooms {
		return
	}
	newRow, oldRow, err := e.DecodeRoom()
	if err != nil {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	switch e.Type {
	case feed.EventInsert:
		l.upsertFront(newRow)
	case feed.EventUpdate:
		// завершённая комната уходит из лобби
		if newRow.Status == "ended" {
			l.removeByID(newRow.ID)
			return
		}
		if !l.replaceByID(newRow) {
			// update по комнате, которой у нас нет — ведём себя как insert,
			// чтобы не потерять её до следующего refetch
			l.upsertFront(newRow)
		}
	case feed.EventDelete:
		id := oldRow.ID
		if id == "" {
			id = e.RoomID
		}
		l.removeByID(id) // неизвестный id — no-op
	}
}

// Snapshot возвращает копию текущего списка.
func (l *RoomList) Snapshot() []feed.RoomRow {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]feed.RoomRow, len(l.rooms))
	copy(out, l.rooms)
	return out
}

func (l *RoomList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.rooms)
}

func (l *RoomList) upsertFront(row feed.RoomRow) {
	if row.Status == "ended" {
		return
	}
	if l.replaceByID(row) {
		return // дубликат insert — заменяем на месте
	}
	l.rooms = append([]feed.RoomRow{row}, l.rooms...)
}

func (l *RoomList) replaceByID(row feed.RoomRow) bool {
	for i := range l.rooms {
		if l.rooms[i].ID == row.ID {
			l.rooms[i] = row
			return true
		}
	}
	return false
}

func (l *RoomList) removeByID(id string) {
	for i := range l.rooms {
		if l.rooms[i].ID == id {
			l.rooms = append(l.rooms[:i], l.rooms[i+1:]...)
			return
		}
	}
}
