package feed

import (
	"encoding/json"
	"time"
)

// Channel — имя NOTIFY-канала Postgres, через который идут все события.
const Channel = "lobby_events"

type EventType string

const (
	EventInsert EventType = "INSERT"
	EventUpdate EventType = "UPDATE"
	EventDelete EventType = "DELETE"
)

const (
	TableRooms        = "rooms"
	TableParticipants = "participants"
	TableAuthState    = "auth_state" // виртуальная таблица: sign in/out события
)

// ChangeEvent — одно изменение строки стора. New/Old заполнены
// в зависимости от типа: INSERT несёт New, DELETE — Old, UPDATE — оба.
// RoomID дублирует room-скоуп строки, чтобы фильтровать без разбора payload.
type ChangeEvent struct {
	Type   EventType       `json:"type"`
	Table  string          `json:"table"`
	RoomID string          `json:"room_id,omitempty"`
	New    json.RawMessage `json:"new,omitempty"`
	Old    json.RawMessage `json:"old,omitempty"`
}

// RoomRow — строка rooms в payload события.
type RoomRow struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Status          string    `json:"status"`
	CreatedBy       string    `json:"created_by"`
	MaxParticipants int64     `json:"max_participants"`
	CreatedAt       time.Time `json:"created_at"`
}

// ParticipantRow — строка participants в payload события.
type ParticipantRow struct {
	RoomID   string    `json:"room_id"`
	UserID   string    `json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}

// AuthStateRow — payload для sign in/out. INSERT = signed_in, DELETE = signed_out.
type AuthStateRow struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
}

func (e ChangeEvent) Marshal() ([]byte, error) {
	return json.Marshal(e)
}

func (e ChangeEvent) DecodeRoom() (RoomRow, RoomRow, error) {
	var newRow, oldRow RoomRow
	if len(e.New) > 0 {
		if err := json.Unmarshal(e.New, &newRow); err != nil {
			return newRow, oldRow, err
		}
	}
	if len(e.Old) > 0 {
		if err := json.Unmarshal(e.Old, &oldRow); err != nil {
			return newRow, oldRow, err
		}
	}
	return newRow, oldRow, nil
}

func (e ChangeEvent) DecodeParticipant() (ParticipantRow, ParticipantRow, error) {
	var newRow, oldRow ParticipantRow
	if len(e.New) > 0 {
		if err := json.Unmarshal(e.New, &newRow); err != nil {
			return newRow, oldRow, err
		}
	}
	if len(e.Old) > 0 {
		if err := json.Unmarshal(e.Old, &oldRow); err != nil {
			return newRow, oldRow, err
		}
	}
	return newRow, oldRow, nil
}

// MustRaw сериализует строку payload; ошибок для наших типов не бывает.
func MustRaw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
