package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	middlewareChi "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	httpmw "github.com/quickmatch/lobby-service/internal/transport/http/middleware"
	"github.com/quickmatch/lobby-service/internal/transport/ws"
)

func NewRouter(h *Handler, ah *AuthHandler, tokens httpmw.TokenParser, wsServer *ws.Server, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middlewareChi.RequestID)
	r.Use(middlewareChi.RealIP)
	r.Use(middlewareChi.Recoverer)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// WS endpoints авторизуются сами (access_token в query)
	r.Get("/ws/lobby", wsServer.HandleLobby)
	r.Get("/ws/rooms/{id}", wsServer.HandleRoom)

	r.Route("/auth", func(ar chi.Router) {
		ar.Use(middlewareChi.Timeout(10 * time.Second))
		ar.Post("/register", ah.Register)
		ar.Post("/login", ah.Login)
		ar.Post("/refresh", ah.Refresh)

		ar.Group(func(pr chi.Router) {
			pr.Use(httpmw.AuthMiddleware(tokens))
			pr.Post("/logout", ah.Logout)
			pr.Get("/me", ah.Me)
			pr.Patch("/me", ah.UpdateMe)
		})
	})

	r.Group(func(pr chi.Router) {
		pr.Use(httpmw.AuthMiddleware(tokens))
		pr.Use(middlewareChi.Timeout(30 * time.Second))

		pr.Route("/rooms", func(rm chi.Router) {
			rm.Post("/", h.CreateRoom)
			rm.Get("/", h.ListRooms)

			rm.Route("/{id}", func(rr chi.Router) {
				rr.Get("/", h.GetRoom)
				rr.Post("/join", h.JoinRoom)
				rr.Post("/leave", h.LeaveRoom)
				rr.Post("/status", h.TransitionRoom)
				rr.Get("/participants", h.GetParticipants)
			})
		})
	})

	// health
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	return r
}
