package domain

import "time"

type RoomStatus string

const (
	StatusWaiting RoomStatus = "waiting"
	StatusActive  RoomStatus = "active"
	StatusEnded   RoomStatus = "ended"
)

// validTransitions: waiting -> active|ended, active -> ended, ended терминален.
var validTransitions = map[RoomStatus][]RoomStatus{
	StatusWaiting: {StatusActive, StatusEnded},
	StatusActive:  {StatusEnded},
	StatusEnded:   {},
}

func (s RoomStatus) Valid() bool {
	switch s {
	case StatusWaiting, StatusActive, StatusEnded:
		return true
	}
	return false
}

// CanTransitionTo сообщает, разрешён ли переход s -> target.
// Повторный переход в тот же статус не разрешён.
func (s RoomStatus) CanTransitionTo(target RoomStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

type Room struct {
	ID              string     `db:"id"`
	Name            string     `db:"name"`
	Status          RoomStatus `db:"status"`
	CreatedBy       UserID     `db:"created_by"`
	MaxParticipants int64      `db:"max_participants"` // 0 — без лимита
	CreatedAt       time.Time  `db:"created_at"`
}

// IsOpen: комната видна в лобби, пока не завершена.
func (r *Room) IsOpen() bool {
	return r.Status == StatusWaiting || r.Status == StatusActive
}

// Unbounded: лимит участников не задан.
func (r *Room) Unbounded() bool {
	return r.MaxParticipants <= 0
}
