package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
	"github.com/quickmatch/lobby-service/internal/repository"
	"github.com/quickmatch/lobby-service/internal/repository/queries"
)

type ParticipantRepo struct {
	db *pgxpool.Pool
}

func NewParticipantRepo(db *pgxpool.Pool) *ParticipantRepo {
	return &ParticipantRepo{db: db}
}

func (r *ParticipantRepo) Exists(ctx context.Context, roomID string, userID domain.UserID) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, queries.QueryParticipantExists, roomID, string(userID)).Scan(&exists)
	return exists, err
}

func (r *ParticipantRepo) Get(ctx context.Context, roomID string, userID domain.UserID) (*domain.Participant, error) {
	var p domain.Participant
	var uid string
	err := r.db.QueryRow(ctx, queries.QueryGetParticipant, roomID, string(userID)).
		Scan(&p.RoomID, &uid, &p.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}
	p.UserID = domain.UserID(uid)
	return &p, nil
}

func (r *ParticipantRepo) CountInRoom(ctx context.Context, roomID string) (int64, error) {
	var count int64
	err := r.db.QueryRow(ctx, queries.QueryCountParticipants, roomID).Scan(&count)
	return count, err
}

// Join — защищён от гонок по max_participants: строка комнаты берётся
// FOR UPDATE, параллельные Join по той же комнате ждут. Проверка статуса
// повторяется под локом, чтобы вставка не проскочила мимо перехода в active.
func (r *ParticipantRepo) Join(ctx context.Context, p *domain.Participant) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var status string
	var maxParticipants int64
	if err := tx.QueryRow(ctx, queries.QueryLockRoomForJoin, p.RoomID).Scan(&status, &maxParticipants); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrRoomNotFound
		}
		return mapPgError(err)
	}
	if domain.RoomStatus(status) != domain.StatusWaiting {
		return domain.ErrRoomNotJoinable
	}

	if maxParticipants > 0 {
		var count int64
		if err := tx.QueryRow(ctx, queries.QueryCountParticipants, p.RoomID).Scan(&count); err != nil {
			return err
		}
		if count >= maxParticipants {
			return domain.ErrRoomFull
		}
	}

	err = tx.QueryRow(ctx, queries.QueryInsertParticipant, p.RoomID, string(p.UserID)).Scan(&p.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// ON CONFLICT DO NOTHING: запись уже есть — идемпотентный успех
			// с joined_at существующей строки, а не нулевым временем
			var uid string
			if err := tx.QueryRow(ctx, queries.QueryGetParticipant, p.RoomID, string(p.UserID)).
				Scan(&p.RoomID, &uid, &p.JoinedAt); err != nil {
				return mapPgError(err)
			}
			return tx.Commit(ctx)
		}
		return mapPgError(err)
	}

	if err := notify(ctx, tx, feed.ChangeEvent{
		Type:   feed.EventInsert,
		Table:  feed.TableParticipants,
		RoomID: p.RoomID,
		New:    feed.MustRaw(participantRow(p)),
	}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Leave идемпотентен: отсутствие строки не ошибка.
func (r *ParticipantRepo) Leave(ctx context.Context, roomID string, userID domain.UserID) (int64, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, queries.QueryDeleteParticipant, roomID, string(userID))
	if err != nil {
		return 0, mapPgError(err)
	}

	if tag.RowsAffected() > 0 {
		if err := notify(ctx, tx, feed.ChangeEvent{
			Type:   feed.EventDelete,
			Table:  feed.TableParticipants,
			RoomID: roomID,
			Old:    feed.MustRaw(feed.ParticipantRow{RoomID: roomID, UserID: string(userID)}),
		}); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *ParticipantRepo) ListByRoom(ctx context.Context, roomID string) ([]domain.Participant, error) {
	rows, err := r.db.Query(ctx, queries.QueryListParticipants, roomID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	var list []domain.Participant
	for rows.Next() {
		var p domain.Participant
		var uid string
		if err := rows.Scan(&p.RoomID, &uid, &p.JoinedAt); err != nil {
			return nil, err
		}
		p.UserID = domain.UserID(uid)
		list = append(list, p)
	}
	return list, rows.Err()
}

// ListDetailed — LEFT JOIN с users: профиль может отсутствовать,
// тогда email/display_name приходят NULL и клиент показывает усечённый id.
func (r *ParticipantRepo) ListDetailed(ctx context.Context, roomID string) ([]domain.ParticipantDetailed, error) {
	rows, err := r.db.Query(ctx, queries.QueryListParticipantsDetailed, roomID)
	if err != nil {
		return nil, mapPgError(err)
	}
	defer rows.Close()

	out := make([]domain.ParticipantDetailed, 0, 16)
	for rows.Next() {
		var p domain.ParticipantDetailed
		var uid string
		if err := rows.Scan(&p.RoomID, &uid, &p.Email, &p.DisplayName, &p.JoinedAt); err != nil {
			return nil, err
		}
		p.UserID = domain.UserID(uid)
		out = append(out, p)
	}
	return out, rows.Err()
}

func participantRow(p *domain.Participant) feed.ParticipantRow {
	return feed.ParticipantRow{
		RoomID:   p.RoomID,
		UserID:   string(p.UserID),
		JoinedAt: p.JoinedAt,
	}
}
