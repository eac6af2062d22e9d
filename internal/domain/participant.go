package domain

import "time"

type Participant struct {
	RoomID   string    `db:"room_id"`
	UserID   UserID    `db:"user_id"`
	JoinedAt time.Time `db:"joined_at"`
}

// DisplayLabel возвращает лучшее доступное имя участника:
// display_name, потом email, потом усечённый user id.
// Обогащение профилем best-effort, поэтому любые поля могут отсутствовать.
type ParticipantDetailed struct {
	RoomID      string
	UserID      UserID
	Email       *string
	DisplayName *string
	JoinedAt    time.Time
}

func (p ParticipantDetailed) DisplayLabel() string {
	if p.DisplayName != nil && *p.DisplayName != "" {
		return *p.DisplayName
	}
	if p.Email != nil && *p.Email != "" {
		return *p.Email
	}
	return TruncateID(string(p.UserID), 8)
}

// TruncateID обрезает opaque-идентификатор для показа в UI.
func TruncateID(id string, n int) string {
	if len(id) <= n {
		return id
	}
	return id[:n]
}
