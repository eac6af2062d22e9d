package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
	"github.com/quickmatch/lobby-service/internal/repository/queries"
)

type RoomRepo struct {
	db *pgxpool.Pool
}

func NewRoomRepo(db *pgxpool.Pool) *RoomRepo {
	return &RoomRepo{db: db}
}

// Create вставляет комнату и публикует INSERT-событие в той же транзакции.
func (r *RoomRepo) Create(ctx context.Context, room *domain.Room) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, queries.QueryCreateRoom,
		room.Name, string(room.Status), string(room.CreatedBy), room.MaxParticipants,
	).Scan(&room.ID, &room.CreatedAt)
	if err != nil {
		return mapPgError(err)
	}

	if err := notify(ctx, tx, feed.ChangeEvent{
		Type:   feed.EventInsert,
		Table:  feed.TableRooms,
		RoomID: room.ID,
		New:    feed.MustRaw(roomRow(room)),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *RoomRepo) Get(ctx context.Context, id string) (*domain.Room, error) {
	room, err := scanRoom(r.db.QueryRow(ctx, queries.QueryGetRoom, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, mapPgError(err)
	}
	return room, nil
}

func (r *RoomRepo) ListOpen(ctx context.Context, limit int, cursorStr string) ([]domain.Room, string, error) {
	cur, err := DecodeCursor(cursorStr)
	if err != nil {
		return nil, "", err
	}

	var createdAt any
	var id any
	if cur != nil {
		createdAt = cur.CreatedAt
		id = cur.ID
	}

	rows, err := r.db.Query(ctx, queries.QueryListOpenRooms, createdAt, id, limit)
	if err != nil {
		return nil, "", mapPgError(err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var rm domain.Room
		var status, createdBy string
		if err := rows.Scan(&rm.ID, &rm.Name, &status, &createdBy, &rm.MaxParticipants, &rm.CreatedAt); err != nil {
			return nil, "", err
		}
		rm.Status = domain.RoomStatus(status)
		rm.CreatedBy = domain.UserID(createdBy)
		rooms = append(rooms, rm)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}

	var nextCursor string
	if len(rooms) == limit {
		last := rooms[len(rooms)-1]
		nextCursor, _ = EncodeCursor(Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	return rooms, nextCursor, nil
}

// UpdateStatus — guarded update: WHERE status=expected. Проигранная гонка
// возвращает ok=false без ошибки; несуществующая комната — ErrRoomNotFound.
func (r *RoomRepo) UpdateStatus(ctx context.Context, id string, expected, next domain.RoomStatus) (*domain.Room, bool, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, false, err
	}
	defer tx.Rollback(ctx)

	room, err := scanRoom(tx.QueryRow(ctx, queries.QueryUpdateRoomStatus, id, string(expected), string(next)))
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, false, mapPgError(err)
		}
		// ни одна строка не подошла: либо комнаты нет, либо статус уже другой
		var one int
		if err := tx.QueryRow(ctx, `SELECT 1 FROM rooms WHERE id = $1`, id).Scan(&one); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, false, domain.ErrRoomNotFound
			}
			return nil, false, mapPgError(err)
		}
		return nil, false, nil
	}

	oldRow := roomRow(room)
	oldRow.Status = string(expected)
	if err := notify(ctx, tx, feed.ChangeEvent{
		Type:   feed.EventUpdate,
		Table:  feed.TableRooms,
		RoomID: room.ID,
		New:    feed.MustRaw(roomRow(room)),
		Old:    feed.MustRaw(oldRow),
	}); err != nil {
		return nil, false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, err
	}
	return room, true, nil
}

func (r *RoomRepo) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, queries.QueryDeleteRoom, id)
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() > 0 {
		if err := notify(ctx, tx, feed.ChangeEvent{
			Type:   feed.EventDelete,
			Table:  feed.TableRooms,
			RoomID: id,
			Old:    feed.MustRaw(feed.RoomRow{ID: id}),
		}); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func scanRoom(row pgx.Row) (*domain.Room, error) {
	var rm domain.Room
	var status, createdBy string
	err := row.Scan(&rm.ID, &rm.Name, &status, &createdBy, &rm.MaxParticipants, &rm.CreatedAt)
	if err != nil {
		return nil, err
	}
	rm.Status = domain.RoomStatus(status)
	rm.CreatedBy = domain.UserID(createdBy)
	return &rm, nil
}

func roomRow(r *domain.Room) feed.RoomRow {
	return feed.RoomRow{
		ID:              r.ID,
		Name:            r.Name,
		Status:          string(r.Status),
		CreatedBy:       string(r.CreatedBy),
		MaxParticipants: r.MaxParticipants,
		CreatedAt:       r.CreatedAt,
	}
}
