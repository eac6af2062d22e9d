package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/feed"
	"github.com/quickmatch/lobby-service/internal/repository"
	"github.com/quickmatch/lobby-service/internal/security"
)

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

type RefreshResult struct {
	UserID       domain.UserID
	AccessToken  string
	RefreshToken string
}

// AuthService владеет identity: регистрация, вход, refresh-сессии.
// События входа/выхода публикуются в шину как auth_state change-feed,
// чтобы подписчики (session shell на клиенте) переключали вью.
type AuthService struct {
	users      repository.UserRepository
	sessions   repository.SessionRepository
	jwt        *security.JWTSigner
	bus        *feed.Bus
	refreshTTL time.Duration
	passPolicy security.BcryptConfig
	now        func() time.Time
}

func NewAuthService(
	users repository.UserRepository,
	sessions repository.SessionRepository,
	jwt *security.JWTSigner,
	bus *feed.Bus,
	refreshTTL time.Duration,
	passPolicy security.BcryptConfig,
	now func() time.Time,
) *AuthService {
	if now == nil {
		now = time.Now
	}

	return &AuthService{
		users:      users,
		sessions:   sessions,
		jwt:        jwt,
		bus:        bus,
		refreshTTL: refreshTTL,
		passPolicy: passPolicy,
		now:        now,
	}
}

func (s *AuthService) Register(ctx context.Context, email, password string, displayName *string) (*AuthResult, error) {
	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, repository.ErrAlreadyExists
	}

	hash, err := security.HashPassword(password, &s.passPolicy)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var opts []domain.UserOption
	if displayName != nil {
		opts = append(opts, domain.WithDisplayName(*displayName))
	}

	u, err := domain.NewUser(email, hash, now, opts...)
	if err != nil {
		return nil, err
	}

	id, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, err
	}
	u.ID = id

	access, refresh, err := s.issueTokens(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	s.publishAuthState(feed.EventInsert, u)

	return &AuthResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Login аутентифицирует по email+пароль и выпускает пару токенов.
// Несуществующий email и неверный пароль неразличимы для вызывающего.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := security.ComparePassword(u.PasswordHash, password); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	access, refresh, err := s.issueTokens(ctx, u, nil)
	if err != nil {
		return nil, err
	}

	s.publishAuthState(feed.EventInsert, u)

	return &AuthResult{
		User:         u,
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

// Refresh по refresh-токену выдает новую пару; старую запись удаляет.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	hash := security.SHA256HexOfString(refreshToken)
	sess, err := s.sessions.GetByTokenHash(ctx, hash)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if sess.IsExpired(now) {
		_ = s.sessions.DeleteByID(ctx, sess.ID)
		return nil, domain.ErrSessionExpired
	}

	u, err := s.users.GetByID(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}

	access, newRefresh, err := s.issueTokens(ctx, u, &sess.ID)
	if err != nil {
		return nil, err
	}

	return &RefreshResult{
		UserID:       sess.UserID,
		AccessToken:  access,
		RefreshToken: newRefresh,
	}, nil
}

// Logout удаляет все refresh-сессии пользователя и публикует signed_out.
func (s *AuthService) Logout(ctx context.Context, userID domain.UserID) error {
	if _, err := s.sessions.DeleteByUser(ctx, userID); err != nil {
		return err
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		// сессии уже сняты; событие без email лучше, чем ничего
		slog.Debug("logout: user lookup failed", "user", userID, "err", err)
		u = &domain.User{ID: userID}
	}
	s.publishAuthState(feed.EventDelete, u)

	return nil
}

// Me возвращает профиль пользователя.
func (s *AuthService) Me(ctx context.Context, userID domain.UserID) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

// UpdateProfile меняет display_name; nil снимает имя (фолбэк на email).
func (s *AuthService) UpdateProfile(ctx context.Context, userID domain.UserID, displayName *string) (*domain.User, error) {
	if err := s.users.UpdateProfile(ctx, userID, displayName, s.now()); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// PurgeExpiredSessions удаляет протухшие refresh-сессии; дергается
// фоновым тикером из main.
func (s *AuthService) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessions.DeleteExpired(ctx, s.now())
}

// UserIDFromAccessToken парсит access JWT и возвращает userID.
func (s *AuthService) UserIDFromAccessToken(token string) (domain.UserID, error) {
	claims, err := s.jwt.ParseAndValidate(token)
	if err != nil {
		return "", err
	}

	return security.SubjectAsUserID(claims)
}

func (s *AuthService) AccessTTL() time.Duration { return s.jwt.TTL() }

// issueTokens: создает refresh-сессию и подписывает access-токен.
// Если oldSessionID != nil — сначала удаляет старую запись.
func (s *AuthService) issueTokens(ctx context.Context, u *domain.User, oldSessionID *domain.SessionID) (access string, refresh string, err error) {
	now := s.now()

	access, err = s.jwt.SignAccessToken(u.ID, u.Email, now)
	if err != nil {
		return "", "", err
	}

	// refresh opaque + запись в БД
	refresh, err = security.RandomStringURLSafe(32)
	if err != nil {
		return "", "", err
	}

	hash := security.SHA256HexOfString(refresh)
	expires := now.Add(s.refreshTTL)

	sess, err := domain.NewSession(u.ID, hash, expires, now)
	if err != nil {
		return "", "", err
	}

	if oldSessionID != nil {
		_ = s.sessions.DeleteByID(ctx, *oldSessionID)
	}

	if _, err := s.sessions.Create(ctx, sess); err != nil {
		return "", "", err
	}

	return access, refresh, nil
}

// publishAuthState — INSERT = signed_in, DELETE = signed_out.
func (s *AuthService) publishAuthState(t feed.EventType, u *domain.User) {
	if s.bus == nil {
		return
	}
	row := feed.MustRaw(feed.AuthStateRow{UserID: string(u.ID), Email: u.Email})
	ev := feed.ChangeEvent{Type: t, Table: feed.TableAuthState}
	if t == feed.EventDelete {
		ev.Old = row
	} else {
		ev.New = row
	}
	s.bus.Publish(ev)
}
