package feed

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// Filter ограничивает подписку таблицей и, опционально, room-скоупом.
// Пустое поле значит «любое значение».
type Filter struct {
	Table  string
	RoomID string
}

func (f Filter) matches(e ChangeEvent) bool {
	if f.Table != "" && f.Table != e.Table {
		return false
	}
	if f.RoomID != "" && f.RoomID != e.RoomID {
		return false
	}
	return true
}

// Subscription — живая подписка на события. C закрывается при Unsubscribe
// или Close шины; Unsubscribe обязателен и идемпотентен.
type Subscription struct {
	id     string
	filter Filter
	c      chan ChangeEvent
	bus    *Bus
	once   sync.Once
}

func (s *Subscription) C() <-chan ChangeEvent { return s.c }

func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.bus.remove(s.id)
		close(s.c)
	})
}

// Bus — in-process fan-out событий change-feed.
// Publish не блокируется: медленный подписчик теряет события, а не
// тормозит остальных; клиент сходится через полный refetch.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string]*Subscription
	closed bool
	buffer int
}

func NewBus() *Bus {
	return &Bus{
		subs:   make(map[string]*Subscription),
		buffer: 64,
	}
}

func (b *Bus) Subscribe(f Filter) *Subscription {
	sub := &Subscription{
		id:     uuid.NewString(),
		filter: f,
		c:      make(chan ChangeEvent, b.buffer),
		bus:    b,
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		// шина остановлена: подписка сразу мертва, канал закрыт
		close(sub.c)
		sub.once.Do(func() {})
		return sub
	}
	b.subs[sub.id] = sub

	return sub
}

func (b *Bus) Publish(e ChangeEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return
	}

	for _, sub := range b.subs {
		if !sub.filter.matches(e) {
			continue
		}
		select {
		case sub.c <- e:
		default:
			slog.Debug("feed: subscriber buffer full, event dropped",
				"table", e.Table, "type", e.Type)
		}
	}
}

// Close закрывает все подписки. Дальнейшие Publish — no-op.
// Каналы закрываются вне мьютекса: Unsubscribe внутри once тоже берёт
// мьютекс, и вложенный Do под локом привёл бы к дедлоку.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	subs := make([]*Subscription, 0, len(b.subs))
	for id, sub := range b.subs {
		delete(b.subs, id)
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		s := sub
		s.once.Do(func() { close(s.c) })
	}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.subs, id)
}
