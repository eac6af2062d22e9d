package ws

import "github.com/quickmatch/lobby-service/internal/feed"

// Типы событий, которые уходят подписчикам WS
const (
	TypeLobbyState  = "lobby_state"  // снапшот открытых комнат
	TypeRoomCreated = "room_created" // новая комната в лобби
	TypeRoomUpdated = "room_updated" // комната изменилась (в т.ч. статус)
	TypeRoomRemoved = "room_removed" // комната ушла из лобби

	TypeRoomState     = "room_state"     // снапшот комнаты и участников
	TypePeerJoined    = "peer_joined"    // пользователь присоединился
	TypePeerLeft      = "peer_left"      // пользователь покинул
	TypeStatusChanged = "status_changed" // смена статуса комнаты
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type LobbyStatePayload struct {
	Rooms []feed.RoomRow `json:"rooms"`
}

type RoomEventPayload struct {
	Room feed.RoomRow `json:"room"`
}

type RoomRemovedPayload struct {
	RoomID string `json:"room_id"`
}

type RoomStatePayload struct {
	Room         feed.RoomRow           `json:"room"`
	Participants []ParticipantStateItem `json:"participants"`
}

type ParticipantStateItem struct {
	UserID   string `json:"user_id"`
	Label    string `json:"label"`
	JoinedAt int64  `json:"joined_at_unix"`
}

type PeerEventPayload struct {
	RoomID string `json:"room_id"`
	UserID string `json:"user_id"`
}

type StatusChangedPayload struct {
	RoomID string `json:"room_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}
