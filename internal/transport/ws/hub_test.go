package ws

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
)

type fakeConn struct {
	mu     sync.Mutex
	topic  string
	userID string
	msgs   []Message
}

func newFakeConn(topic, userID string) *fakeConn {
	return &fakeConn{topic: topic, userID: userID}
}

func (c *fakeConn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, msg)
	return nil
}

func (c *fakeConn) Close() error   { return nil }
func (c *fakeConn) UserID() string { return c.userID }
func (c *fakeConn) Topic() string  { return c.topic }

func (c *fakeConn) received() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func TestHubBroadcastScopedToTopic(t *testing.T) {
	h := NewHub()

	lobby := newFakeConn(TopicLobby, "u1")
	roomA := newFakeConn(RoomTopic("a"), "u2")
	roomB := newFakeConn(RoomTopic("b"), "u3")
	h.Add(lobby)
	h.Add(roomA)
	h.Add(roomB)

	h.Broadcast(RoomTopic("a"), Message{Type: TypePeerJoined})

	assert.Len(t, roomA.received(), 1)
	assert.Empty(t, roomB.received())
	assert.Empty(t, lobby.received())
}

func TestHubRemoveStopsDelivery(t *testing.T) {
	h := NewHub()

	c := newFakeConn(TopicLobby, "u1")
	h.Add(c)
	require.Equal(t, 1, h.Count(TopicLobby))

	h.Remove(c)
	assert.Equal(t, 0, h.Count(TopicLobby))

	h.Broadcast(TopicLobby, Message{Type: TypeRoomCreated})
	assert.Empty(t, c.received())
}

func TestHubSameTopicFanout(t *testing.T) {
	h := NewHub()

	c1 := newFakeConn(RoomTopic("r"), "u1")
	c2 := newFakeConn(RoomTopic("r"), "u2")
	h.Add(c1)
	h.Add(c2)

	h.Broadcast(RoomTopic("r"), Message{Type: TypeStatusChanged})

	assert.Len(t, c1.received(), 1)
	assert.Len(t, c2.received(), 1)
}

func roomsEvent(typ feed.EventType, newRow, oldRow *feed.RoomRow) feed.ChangeEvent {
	e := feed.ChangeEvent{Type: typ, Table: feed.TableRooms}
	if newRow != nil {
		e.RoomID = newRow.ID
		e.New = feed.MustRaw(newRow)
	}
	if oldRow != nil {
		e.RoomID = oldRow.ID
		e.Old = feed.MustRaw(oldRow)
	}
	return e
}

func TestDispatchRoomInsertReachesLobby(t *testing.T) {
	h := NewHub()
	s := NewServer(h, feed.NewBus(), nil, nil, nil)

	lobby := newFakeConn(TopicLobby, "u1")
	h.Add(lobby)

	row := feed.RoomRow{ID: "r1", Name: "casual", Status: "waiting"}
	s.dispatch(roomsEvent(feed.EventInsert, &row, nil))

	msgs := lobby.received()
	require.Len(t, msgs, 1)
	assert.Equal(t, TypeRoomCreated, msgs[0].Type)

	// событие также попало в лобби-вью для будущих снапшотов
	assert.Equal(t, 1, s.lobby.Len())
}

type stubMembers struct {
	entries []domain.ParticipantDetailed
}

func (m *stubMembers) ListParticipantsDetailed(_ context.Context, _ string) ([]domain.ParticipantDetailed, error) {
	return m.entries, nil
}

// subscribeRoom имитирует первого подписчика комнаты: создаёт вью
// и цепляет фейковое соединение на её топик.
func subscribeRoom(t *testing.T, s *Server, room *domain.Room, userID string) *fakeConn {
	t.Helper()
	_, err := s.ensureRoomView(context.Background(), room)
	require.NoError(t, err)
	c := newFakeConn(RoomTopic(room.ID), userID)
	s.hub.Add(c)
	return c
}

func TestDispatchStatusChangeReachesRoomWatchers(t *testing.T) {
	h := NewHub()
	s := NewServer(h, feed.NewBus(), nil, &stubMembers{}, nil)

	lobby := newFakeConn(TopicLobby, "u1")
	h.Add(lobby)
	watcher := subscribeRoom(t, s, &domain.Room{ID: "r1", Status: domain.StatusWaiting}, "u2")

	oldRow := feed.RoomRow{ID: "r1", Status: "waiting"}
	newRow := feed.RoomRow{ID: "r1", Status: "active"}
	s.dispatch(roomsEvent(feed.EventUpdate, &newRow, &oldRow))

	lobbyMsgs := lobby.received()
	require.Len(t, lobbyMsgs, 1)
	assert.Equal(t, TypeRoomUpdated, lobbyMsgs[0].Type)

	roomMsgs := watcher.received()
	require.Len(t, roomMsgs, 1)
	assert.Equal(t, TypeStatusChanged, roomMsgs[0].Type)
	p, ok := roomMsgs[0].Payload.(StatusChangedPayload)
	require.True(t, ok)
	assert.Equal(t, "waiting", p.From)
	assert.Equal(t, "active", p.To)

	// статус в вью тоже сдвинулся: следующий room_state отдаст active
	rv := s.roomViewFor("r1")
	require.NotNil(t, rv)
	assert.Equal(t, domain.StatusActive, rv.watch.Status())
}

func TestDispatchUpdateWithoutStatusChangeSkipsRoomTopic(t *testing.T) {
	h := NewHub()
	s := NewServer(h, feed.NewBus(), nil, &stubMembers{}, nil)

	watcher := subscribeRoom(t, s, &domain.Room{ID: "r1", Status: domain.StatusWaiting}, "u1")

	oldRow := feed.RoomRow{ID: "r1", Status: "waiting", Name: "old"}
	newRow := feed.RoomRow{ID: "r1", Status: "waiting", Name: "new"}
	s.dispatch(roomsEvent(feed.EventUpdate, &newRow, &oldRow))

	assert.Empty(t, watcher.received())
}

func TestDispatchFoldsParticipantsIntoRoomView(t *testing.T) {
	h := NewHub()
	seed := []domain.ParticipantDetailed{{RoomID: "r1", UserID: "u1"}}
	s := NewServer(h, feed.NewBus(), nil, &stubMembers{entries: seed}, nil)

	subscribeRoom(t, s, &domain.Room{ID: "r1", Status: domain.StatusWaiting}, "u1")
	rv := s.roomViewFor("r1")
	require.NotNil(t, rv)
	require.Equal(t, 1, rv.parts.Len())

	s.dispatch(feed.ChangeEvent{
		Type:   feed.EventInsert,
		Table:  feed.TableParticipants,
		RoomID: "r1",
		New:    feed.MustRaw(feed.ParticipantRow{RoomID: "r1", UserID: "u2"}),
	})
	assert.Equal(t, 2, rv.parts.Len())

	s.dispatch(feed.ChangeEvent{
		Type:   feed.EventDelete,
		Table:  feed.TableParticipants,
		RoomID: "r1",
		Old:    feed.MustRaw(feed.ParticipantRow{RoomID: "r1", UserID: "u1"}),
	})
	assert.Equal(t, 1, rv.parts.Len())
}

func TestRoomViewDroppedOnDelete(t *testing.T) {
	h := NewHub()
	s := NewServer(h, feed.NewBus(), nil, &stubMembers{}, nil)

	subscribeRoom(t, s, &domain.Room{ID: "r1", Status: domain.StatusActive}, "u1")
	require.NotNil(t, s.roomViewFor("r1"))

	row := feed.RoomRow{ID: "r1"}
	s.dispatch(roomsEvent(feed.EventDelete, nil, &row))

	assert.Nil(t, s.roomViewFor("r1"))
}

func TestDispatchParticipantEvents(t *testing.T) {
	h := NewHub()
	s := NewServer(h, feed.NewBus(), nil, nil, nil)

	watcher := newFakeConn(RoomTopic("r1"), "u1")
	other := newFakeConn(RoomTopic("r2"), "u2")
	h.Add(watcher)
	h.Add(other)

	join := feed.ChangeEvent{
		Type:   feed.EventInsert,
		Table:  feed.TableParticipants,
		RoomID: "r1",
		New:    feed.MustRaw(feed.ParticipantRow{RoomID: "r1", UserID: "u9"}),
	}
	s.dispatch(join)

	leave := feed.ChangeEvent{
		Type:   feed.EventDelete,
		Table:  feed.TableParticipants,
		RoomID: "r1",
		Old:    feed.MustRaw(feed.ParticipantRow{RoomID: "r1", UserID: "u9"}),
	}
	s.dispatch(leave)

	msgs := watcher.received()
	require.Len(t, msgs, 2)
	assert.Equal(t, TypePeerJoined, msgs[0].Type)
	assert.Equal(t, TypePeerLeft, msgs[1].Type)
	assert.Empty(t, other.received())
}

// raceRoomSvc публикует событие о новой комнате прямо во время
// первичного listing-а, как будто её создали между запросом и ответом.
type raceRoomSvc struct {
	bus *feed.Bus
}

func (r *raceRoomSvc) GetRoom(_ context.Context, _ string) (*domain.Room, error) {
	return nil, nil
}

func (r *raceRoomSvc) ListOpenRooms(_ context.Context, _ int, _ string) ([]domain.Room, string, error) {
	r.bus.Publish(feed.ChangeEvent{
		Type:   feed.EventInsert,
		Table:  feed.TableRooms,
		RoomID: "r2",
		New:    feed.MustRaw(feed.RoomRow{ID: "r2", Status: "waiting"}),
	})
	return []domain.Room{{ID: "r1", Status: domain.StatusWaiting}}, "", nil
}

func TestRunCatchesRoomCreatedDuringPrime(t *testing.T) {
	bus := feed.NewBus()
	s := NewServer(NewHub(), bus, &raceRoomSvc{bus: bus}, &stubMembers{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	// подписка оформляется до снапшота, поэтому r2 доезжает событием
	require.Eventually(t, func() bool {
		return s.lobby.Len() == 2
	}, time.Second, 10*time.Millisecond)
}

func TestDispatchRoomDeleteNotifiesBothTopics(t *testing.T) {
	h := NewHub()
	s := NewServer(h, feed.NewBus(), nil, nil, nil)

	lobby := newFakeConn(TopicLobby, "u1")
	watcher := newFakeConn(RoomTopic("r1"), "u2")
	h.Add(lobby)
	h.Add(watcher)

	row := feed.RoomRow{ID: "r1"}
	s.dispatch(roomsEvent(feed.EventDelete, nil, &row))

	require.Len(t, lobby.received(), 1)
	assert.Equal(t, TypeRoomRemoved, lobby.received()[0].Type)
	require.Len(t, watcher.received(), 1)
	assert.Equal(t, TypeRoomRemoved, watcher.received()[0].Type)
}
