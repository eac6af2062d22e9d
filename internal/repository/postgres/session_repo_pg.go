package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/repository"
	"github.com/quickmatch/lobby-service/internal/repository/queries"
)

type SessionRepo struct {
	q querier
}

func NewSessionRepoFromPool(q querier) *SessionRepo {
	return &SessionRepo{q: q}
}

func NewSessionRepoFromTx(tx pgx.Tx) *SessionRepo {
	return &SessionRepo{q: tx}
}

// Create — создает новую refresh-сессию и возвращает её ID.
func (r *SessionRepo) Create(ctx context.Context, s *domain.Session) (domain.SessionID, error) {
	var id int64
	err := r.q.QueryRow(ctx, queries.QueryCreateSession,
		string(s.UserID),
		strings.TrimSpace(s.TokenHash),
		s.ExpiresAt,
		s.CreatedAt,
		s.UpdatedAt,
		toNullStringPtr(s.UserAgent),
	).Scan(&id)
	if err != nil {
		return 0, mapPgError(err)
	}
	return domain.SessionID(id), nil
}

// GetByTokenHash — ищет сессию по точному хешу refresh-токена.
func (r *SessionRepo) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var (
		id        int64
		userID    string
		hash      string
		expiresAt time.Time
		createdAt time.Time
		updatedAt time.Time
		userAgent *string
	)

	err := r.q.QueryRow(ctx, queries.QueryGetSessionByTokenHash, strings.TrimSpace(tokenHash)).Scan(
		&id,
		&userID,
		&hash,
		&expiresAt,
		&createdAt,
		&updatedAt,
		&userAgent,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, mapPgError(err)
	}

	return &domain.Session{
		ID:        domain.SessionID(id),
		UserID:    domain.UserID(userID),
		TokenHash: hash,
		ExpiresAt: expiresAt,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		UserAgent: userAgent,
	}, nil
}

func (r *SessionRepo) DeleteByID(ctx context.Context, id domain.SessionID) error {
	tag, err := r.q.Exec(ctx, queries.QueryDeleteSessionByID, int64(id))
	if err != nil {
		return mapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *SessionRepo) DeleteByUser(ctx context.Context, userID domain.UserID) (int64, error) {
	tag, err := r.q.Exec(ctx, queries.QueryDeleteSessionsByUser, string(userID))
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}

func (r *SessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.q.Exec(ctx, queries.QueryDeleteSessionsExpiredByTime, now)
	if err != nil {
		return 0, mapPgError(err)
	}
	return tag.RowsAffected(), nil
}
