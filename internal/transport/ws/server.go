package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
	httpmw "github.com/quickmatch/lobby-service/internal/transport/http/middleware"
	"github.com/quickmatch/lobby-service/internal/view"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

type RoomSvc interface {
	GetRoom(ctx context.Context, id string) (*domain.Room, error)
	ListOpenRooms(ctx context.Context, limit int, cursor string) ([]domain.Room, string, error)
}

type MemberSvc interface {
	ListParticipantsDetailed(ctx context.Context, roomID string) ([]domain.ParticipantDetailed, error)
}

type Server struct {
	upgrader  websocket.Upgrader
	hub       *Hub
	roomSvc   RoomSvc
	memberSvc MemberSvc
	tokens    httpmw.TokenParser
	bus       *feed.Bus

	lobby *view.RoomList

	// вью комнат с активными подписчиками; живёт, пока топик не опустеет
	roomMu    sync.Mutex
	roomViews map[string]*roomView

	pingEvery time.Duration
}

// roomView — серверное состояние одной комнаты: участники и статус,
// свёрнутые из событий шины. Снапшоты room_state отдаются из него,
// status_changed рассылает callback RoomWatch.
type roomView struct {
	parts *view.ParticipantList
	watch *view.RoomWatch
}

func NewServer(hub *Hub, bus *feed.Bus, rooms RoomSvc, members MemberSvc, tokens httpmw.TokenParser) *Server {
	return &Server{
		hub:       hub,
		bus:       bus,
		roomSvc:   rooms,
		memberSvc: members,
		tokens:    tokens,
		lobby:     view.NewRoomList(),
		roomViews: make(map[string]*roomView),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// Run качает события из шины в топики хаба. Блокируется до ctx.Done()
// или закрытия шины; запускать одной горутиной из main.
func (s *Server) Run(ctx context.Context) {
	sub := s.bus.Subscribe(feed.Filter{})
	defer sub.Unsubscribe()

	// подписка строго раньше снапшота: комната, созданная во время
	// refetch, доедет событием из канала, пересечение редьюсер поглотит
	if err := s.primeLobby(ctx); err != nil {
		slog.Warn("ws prime lobby failed", "err", err)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C():
			if !ok {
				return
			}
			s.dispatch(e)
		}
	}
}

func (s *Server) primeLobby(ctx context.Context) error {
	rooms, _, err := s.roomSvc.ListOpenRooms(ctx, 50, "")
	if err != nil {
		return err
	}
	rows := make([]feed.RoomRow, 0, len(rooms))
	for _, rm := range rooms {
		rows = append(rows, roomToRow(rm))
	}
	s.lobby.Reset(rows)
	return nil
}

func (s *Server) dispatch(e feed.ChangeEvent) {
	switch e.Table {
	case feed.TableRooms:
		s.lobby.Apply(e)
		s.dispatchRoomEvent(e)
	case feed.TableParticipants:
		s.dispatchParticipantEvent(e)
	}
}

func (s *Server) dispatchRoomEvent(e feed.ChangeEvent) {
	newRow, oldRow, err := e.DecodeRoom()
	if err != nil {
		slog.Warn("ws bad room event", "err", err)
		return
	}

	switch e.Type {
	case feed.EventInsert:
		s.hub.Broadcast(TopicLobby, Message{
			Type:    TypeRoomCreated,
			Payload: RoomEventPayload{Room: newRow},
		})
	case feed.EventUpdate:
		s.hub.Broadcast(TopicLobby, Message{
			Type:    TypeRoomUpdated,
			Payload: RoomEventPayload{Room: newRow},
		})
		// RoomWatch сам решает, менялся ли статус, и шлёт status_changed
		if rv := s.roomViewFor(newRow.ID); rv != nil {
			rv.watch.Apply(e)
		}
	case feed.EventDelete:
		s.dropRoomView(oldRow.ID)
		s.hub.Broadcast(TopicLobby, Message{
			Type:    TypeRoomRemoved,
			Payload: RoomRemovedPayload{RoomID: oldRow.ID},
		})
		s.hub.Broadcast(RoomTopic(oldRow.ID), Message{
			Type:    TypeRoomRemoved,
			Payload: RoomRemovedPayload{RoomID: oldRow.ID},
		})
	}
}

func (s *Server) dispatchParticipantEvent(e feed.ChangeEvent) {
	newRow, oldRow, err := e.DecodeParticipant()
	if err != nil {
		slog.Warn("ws bad participant event", "err", err)
		return
	}

	switch e.Type {
	case feed.EventInsert:
		if rv := s.roomViewFor(newRow.RoomID); rv != nil {
			rv.parts.Apply(e)
		}
		s.hub.Broadcast(RoomTopic(newRow.RoomID), Message{
			Type:    TypePeerJoined,
			Payload: PeerEventPayload{RoomID: newRow.RoomID, UserID: newRow.UserID},
		})
	case feed.EventDelete:
		if rv := s.roomViewFor(oldRow.RoomID); rv != nil {
			rv.parts.Apply(e)
		}
		s.hub.Broadcast(RoomTopic(oldRow.RoomID), Message{
			Type:    TypePeerLeft,
			Payload: PeerEventPayload{RoomID: oldRow.RoomID, UserID: oldRow.UserID},
		})
	}
}

// ensureRoomView возвращает вью комнаты, создавая и заполняя его при
// первом подписчике. Refetch участников идёт вне мьютекса; проигравший
// параллельную инициализацию отбрасывает свою копию.
func (s *Server) ensureRoomView(ctx context.Context, room *domain.Room) (*roomView, error) {
	s.roomMu.Lock()
	if rv, ok := s.roomViews[room.ID]; ok {
		s.roomMu.Unlock()
		return rv, nil
	}
	s.roomMu.Unlock()

	entries, err := s.memberSvc.ListParticipantsDetailed(ctx, room.ID)
	if err != nil {
		return nil, err
	}
	parts := view.NewParticipantList(room.ID)
	parts.Reset(entries)

	roomID := room.ID
	rv := &roomView{
		parts: parts,
		watch: view.NewRoomWatch(roomID, room.Status, func(from, to domain.RoomStatus) {
			s.hub.Broadcast(RoomTopic(roomID), Message{
				Type: TypeStatusChanged,
				Payload: StatusChangedPayload{
					RoomID: roomID,
					From:   string(from),
					To:     string(to),
				},
			})
		}),
	}

	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	if cur, ok := s.roomViews[room.ID]; ok {
		return cur, nil
	}
	s.roomViews[room.ID] = rv
	return rv, nil
}

func (s *Server) roomViewFor(id string) *roomView {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	return s.roomViews[id]
}

func (s *Server) dropRoomView(id string) {
	s.roomMu.Lock()
	defer s.roomMu.Unlock()
	delete(s.roomViews, id)
}

// WS endpoint: GET /ws/lobby?access_token=...
func (s *Server) HandleLobby(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authorize(w, r)
	if !ok {
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		return
	}

	c := newWsConn(conn, TopicLobby, string(uid))
	s.hub.Add(c)

	if err := c.Send(Message{
		Type:    TypeLobbyState,
		Payload: LobbyStatePayload{Rooms: s.lobby.Snapshot()},
	}); err != nil {
		slog.Warn("ws send lobby state failed", "user", uid, "err", err)
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(c)

	s.hub.Remove(c)
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "user", uid, "err", err)
	}
}

// WS endpoint: GET /ws/rooms/{id}?access_token=...
// Подписка на события комнаты не меняет членство: выход из комнаты
// делается явным POST /rooms/{id}/leave, обрыв сокета его не заменяет.
func (s *Server) HandleRoom(w http.ResponseWriter, r *http.Request) {
	uid, ok := s.authorize(w, r)
	if !ok {
		return
	}
	roomID := chi.URLParam(r, "id")
	if roomID == "" {
		http.Error(w, "missing room id", http.StatusBadRequest)
		return
	}

	room, err := s.roomSvc.GetRoom(r.Context(), roomID)
	if err != nil {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	rv, err := s.ensureRoomView(r.Context(), room)
	if err != nil {
		slog.Warn("ws room view init failed", "room", roomID, "err", err)
		http.Error(w, "room state unavailable", http.StatusInternalServerError)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "room", roomID, "err", err)
		return
	}

	c := newWsConn(conn, RoomTopic(roomID), string(uid))
	s.hub.Add(c)

	if err := s.sendRoomState(c, room, rv); err != nil {
		slog.Warn("ws send room state failed", "room", roomID, "user", uid, "err", err)
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(c)

	s.hub.Remove(c)
	if s.hub.Count(RoomTopic(roomID)) == 0 {
		s.dropRoomView(roomID)
	}
	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "room", roomID, "user", uid, "err", err)
	}
}

func (s *Server) authorize(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	if token == "" {
		token = httpmw.BearerToken(r)
	}
	if token == "" {
		http.Error(w, "missing access_token", http.StatusUnauthorized)
		return "", false
	}
	uid, err := s.tokens.UserIDFromAccessToken(token)
	if err != nil {
		http.Error(w, "invalid access_token", http.StatusUnauthorized)
		return "", false
	}
	return uid, true
}

// sendRoomState отдаёт свёрнутое серверное состояние комнаты,
// а не свежий refetch: вью уже подпитано событиями шины.
func (s *Server) sendRoomState(c *wsConn, room *domain.Room, rv *roomView) error {
	parts := rv.parts.Snapshot()
	items := make([]ParticipantStateItem, 0, len(parts))
	for _, p := range parts {
		items = append(items, ParticipantStateItem{
			UserID:   string(p.UserID),
			Label:    p.DisplayLabel(),
			JoinedAt: p.JoinedAt.Unix(),
		})
	}

	row := roomToRow(*room)
	row.Status = string(rv.watch.Status())

	return c.Send(Message{
		Type: TypeRoomState,
		Payload: RoomStatePayload{
			Room:         row,
			Participants: items,
		},
	})
}

func (s *Server) readLoop(c *wsConn) {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 16)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	// Клиент ничего не шлёт, читаем только ради control-фреймов.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

func roomToRow(rm domain.Room) feed.RoomRow {
	return feed.RoomRow{
		ID:              rm.ID,
		Name:            rm.Name,
		Status:          string(rm.Status),
		CreatedBy:       string(rm.CreatedBy),
		MaxParticipants: rm.MaxParticipants,
		CreatedAt:       rm.CreatedAt,
	}
}

type wsConn struct {
	conn   *websocket.Conn
	topic  string
	userID string
	sendMu chan struct{}
	closed chan struct{}
}

func newWsConn(c *websocket.Conn, topic, userID string) *wsConn {
	return &wsConn{
		conn:   c,
		topic:  topic,
		userID: userID,
		sendMu: make(chan struct{}, 1),
		closed: make(chan struct{}),
	}
}

func (c *wsConn) Send(msg Message) error {
	c.sendMu <- struct{}{}
	defer func() { <-c.sendMu }()
	c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))

	return c.conn.WriteJSON(msg)
}

func (c *wsConn) Close() error {
	select {
	case <-c.closed:
	default:
		close(c.closed)
	}

	return c.conn.Close()
}

func (c *wsConn) UserID() string { return c.userID }
func (c *wsConn) Topic() string  { return c.topic }
