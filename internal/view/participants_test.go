package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
)

func participantEvent(t feed.EventType, row feed.ParticipantRow) feed.ChangeEvent {
	e := feed.ChangeEvent{Type: t, Table: feed.TableParticipants, RoomID: row.RoomID}
	switch t {
	case feed.EventDelete:
		e.Old = feed.MustRaw(row)
	default:
		e.New = feed.MustRaw(row)
	}
	return e
}

func TestParticipantListInsertAndDelete(t *testing.T) {
	l := NewParticipantList("r1")

	l.Apply(participantEvent(feed.EventInsert, feed.ParticipantRow{RoomID: "r1", UserID: "u1"}))
	l.Apply(participantEvent(feed.EventInsert, feed.ParticipantRow{RoomID: "r1", UserID: "u2"}))
	require.Equal(t, 2, l.Len())

	l.Apply(participantEvent(feed.EventDelete, feed.ParticipantRow{RoomID: "r1", UserID: "u1"}))
	snap := l.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, domain.UserID("u2"), snap[0].UserID)
}

func TestParticipantListInsertIdempotentByUser(t *testing.T) {
	l := NewParticipantList("r1")

	l.Apply(participantEvent(feed.EventInsert, feed.ParticipantRow{RoomID: "r1", UserID: "u1"}))
	l.Apply(participantEvent(feed.EventInsert, feed.ParticipantRow{RoomID: "r1", UserID: "u1"}))

	assert.Equal(t, 1, l.Len())
}

func TestParticipantListIgnoresOtherRooms(t *testing.T) {
	l := NewParticipantList("r1")

	l.Apply(participantEvent(feed.EventInsert, feed.ParticipantRow{RoomID: "r2", UserID: "u1"}))

	assert.Equal(t, 0, l.Len())
}

func TestParticipantListDeleteUnknownIsNoop(t *testing.T) {
	l := NewParticipantList("r1")
	l.Reset([]domain.ParticipantDetailed{{RoomID: "r1", UserID: "u1"}})

	l.Apply(participantEvent(feed.EventDelete, feed.ParticipantRow{RoomID: "r1", UserID: "ghost"}))

	assert.Equal(t, 1, l.Len())
}

func TestParticipantListEnrichmentFallback(t *testing.T) {
	l := NewParticipantList("r1")
	l.Apply(participantEvent(feed.EventInsert, feed.ParticipantRow{
		RoomID: "r1",
		UserID: "9c1d4f2a-77aa-4a10-9e70-0f6f37a2b001",
	}))

	snap := l.Snapshot()
	require.Len(t, snap, 1)
	// профиль ещё не подтянут — показываем усечённый id
	assert.Equal(t, "9c1d4f2a", snap[0].DisplayLabel())

	email := "owl@example.com"
	l.Enrich(snap[0].UserID, &email, nil)
	snap = l.Snapshot()
	assert.Equal(t, email, snap[0].DisplayLabel())
}

func TestRoomWatchFiresOnStatusChangeViaRoomEvent(t *testing.T) {
	var gotFrom, gotTo domain.RoomStatus
	fired := 0
	w := NewRoomWatch("r1", domain.StatusWaiting, func(from, to domain.RoomStatus) {
		gotFrom, gotTo = from, to
		fired++
	})

	w.Apply(roomEvent(feed.EventUpdate, feed.RoomRow{ID: "r1", Status: "active"}))
	require.Equal(t, 1, fired)
	assert.Equal(t, domain.StatusWaiting, gotFrom)
	assert.Equal(t, domain.StatusActive, gotTo)

	// повтор того же статуса не дёргает callback
	w.Apply(roomEvent(feed.EventUpdate, feed.RoomRow{ID: "r1", Status: "active"}))
	assert.Equal(t, 1, fired)

	// чужая комната игнорируется
	w.Apply(roomEvent(feed.EventUpdate, feed.RoomRow{ID: "r2", Status: "ended"}))
	assert.Equal(t, 1, fired)
	assert.Equal(t, domain.StatusActive, w.Status())
}
