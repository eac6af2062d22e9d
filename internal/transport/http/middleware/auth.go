package httpmw

import (
	"context"
	"net/http"
	"strings"

	"github.com/quickmatch/lobby-service/internal/domain"
)

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

// TokenParser проверяет access-токен и возвращает владельца.
type TokenParser interface {
	UserIDFromAccessToken(token string) (domain.UserID, error)
}

// AuthMiddleware требует Bearer access-токен и кладёт userID в контекст.
func AuthMiddleware(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				http.Error(w, `{"error":"missing bearer token"}`, http.StatusUnauthorized)
				return
			}

			uid, err := parser.UserIDFromAccessToken(token)
			if err != nil {
				http.Error(w, `{"error":"invalid access token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUserID, uid)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func BearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func UserIDFromCtx(ctx context.Context) domain.UserID {
	if v := ctx.Value(ctxKeyUserID); v != nil {
		if id, ok := v.(domain.UserID); ok {
			return id
		}
	}
	return ""
}
