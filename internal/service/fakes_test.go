package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/repository"
)

// In-memory фейки репозиториев. Повторяют семантику postgres-слоя:
// guarded update статуса, атомарный Join с проверкой лимита, идемпотентный Leave.

type fakeRoomRepo struct {
	mu          sync.Mutex
	rooms       map[string]*domain.Room
	createCalls int
}

func newFakeRoomRepo() *fakeRoomRepo {
	return &fakeRoomRepo{rooms: make(map[string]*domain.Room)}
}

func (f *fakeRoomRepo) Create(_ context.Context, room *domain.Room) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	room.ID = uuid.NewString()
	room.CreatedAt = time.Now()
	cp := *room
	f.rooms[room.ID] = &cp
	return nil
}

func (f *fakeRoomRepo) Get(_ context.Context, id string) (*domain.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRoomRepo) ListOpen(_ context.Context, limit int, _ string) ([]domain.Room, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Room
	for _, r := range f.rooms {
		if r.IsOpen() {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, "", nil
}

func (f *fakeRoomRepo) UpdateStatus(_ context.Context, id string, expected, next domain.RoomStatus) (*domain.Room, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.rooms[id]
	if !ok {
		return nil, false, domain.ErrRoomNotFound
	}
	if r.Status != expected {
		return nil, false, nil
	}
	r.Status = next
	cp := *r
	return &cp, true, nil
}

func (f *fakeRoomRepo) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rooms, id)
	return nil
}

type participantKey struct {
	room string
	user domain.UserID
}

type fakeParticipantRepo struct {
	mu    sync.Mutex
	rooms *fakeRoomRepo
	parts map[participantKey]*domain.Participant
}

func newFakeParticipantRepo(rooms *fakeRoomRepo) *fakeParticipantRepo {
	return &fakeParticipantRepo{
		rooms: rooms,
		parts: make(map[participantKey]*domain.Participant),
	}
}

func (f *fakeParticipantRepo) Exists(_ context.Context, roomID string, userID domain.UserID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.parts[participantKey{roomID, userID}]
	return ok, nil
}

func (f *fakeParticipantRepo) Get(_ context.Context, roomID string, userID domain.UserID) (*domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.parts[participantKey{roomID, userID}]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeParticipantRepo) CountInRoom(_ context.Context, roomID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.countLocked(roomID), nil
}

func (f *fakeParticipantRepo) countLocked(roomID string) int64 {
	var n int64
	for k := range f.parts {
		if k.room == roomID {
			n++
		}
	}
	return n
}

func (f *fakeParticipantRepo) Join(ctx context.Context, p *domain.Participant) error {
	room, err := f.rooms.Get(ctx, p.RoomID)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if room.Status != domain.StatusWaiting {
		return domain.ErrRoomNotJoinable
	}
	key := participantKey{p.RoomID, p.UserID}
	if existing, ok := f.parts[key]; ok {
		p.JoinedAt = existing.JoinedAt
		return nil
	}
	if !room.Unbounded() && f.countLocked(p.RoomID) >= room.MaxParticipants {
		return domain.ErrRoomFull
	}

	p.JoinedAt = time.Now()
	cp := *p
	f.parts[key] = &cp
	return nil
}

func (f *fakeParticipantRepo) Leave(_ context.Context, roomID string, userID domain.UserID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := participantKey{roomID, userID}
	if _, ok := f.parts[key]; !ok {
		return 0, nil
	}
	delete(f.parts, key)
	return 1, nil
}

func (f *fakeParticipantRepo) ListByRoom(_ context.Context, roomID string) ([]domain.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Participant
	for k, p := range f.parts {
		if k.room == roomID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeParticipantRepo) ListDetailed(_ context.Context, roomID string) ([]domain.ParticipantDetailed, error) {
	plain, _ := f.ListByRoom(nil, roomID)
	out := make([]domain.ParticipantDetailed, 0, len(plain))
	for _, p := range plain {
		out = append(out, domain.ParticipantDetailed{RoomID: p.RoomID, UserID: p.UserID, JoinedAt: p.JoinedAt})
	}
	return out, nil
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[domain.UserID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[domain.UserID]*domain.User)}
}

func (f *fakeUserRepo) Create(_ context.Context, u *domain.User) (domain.UserID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.users {
		if ex.Email == u.Email {
			return "", repository.ErrAlreadyExists
		}
	}
	id := domain.UserID(uuid.NewString())
	cp := *u
	cp.ID = id
	f.users[id] = &cp
	return id, nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, id domain.UserID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := f.GetByEmail(ctx, email)
	if err != nil {
		return false, nil
	}
	return true, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id domain.UserID, displayName *string, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.SetDisplayName(displayName, now)
	return nil
}

type fakeSessionRepo struct {
	mu     sync.Mutex
	nextID domain.SessionID
	byHash map[string]*domain.Session
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byHash: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Create(_ context.Context, s *domain.Session) (domain.SessionID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *s
	cp.ID = f.nextID
	f.byHash[s.TokenHash] = &cp
	return cp.ID, nil
}

func (f *fakeSessionRepo) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byHash[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) DeleteByID(_ context.Context, id domain.SessionID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for h, s := range f.byHash {
		if s.ID == id {
			delete(f.byHash, h)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeSessionRepo) DeleteByUser(_ context.Context, userID domain.UserID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for h, s := range f.byHash {
		if s.UserID == userID {
			delete(f.byHash, h)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for h, s := range f.byHash {
		if s.IsExpired(now) {
			delete(f.byHash, h)
			n++
		}
	}
	return n, nil
}
