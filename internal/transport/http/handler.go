package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quickmatch/lobby-service/internal/domain"
	"github.com/quickmatch/lobby-service/internal/repository/postgres"
	"github.com/quickmatch/lobby-service/internal/service"
	httpmw "github.com/quickmatch/lobby-service/internal/transport/http/middleware"
)

type Handler struct {
	roomSvc   *service.RoomService
	memberSvc *service.MemberService
}

func NewHandler(room *service.RoomService, member *service.MemberService) *Handler {
	return &Handler{
		roomSvc:   room,
		memberSvc: member,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDomainError — единый маппинг ошибок бизнес-слоя на статусы.
// Сообщение отдаётся как есть: фронт показывает его пользователю.
func writeDomainError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyRoomName), errors.Is(err, domain.ErrBadCapacity):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrRoomNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "room not found"})
	case errors.Is(err, domain.ErrRoomFull),
		errors.Is(err, domain.ErrRoomNotJoinable),
		domain.IsInvalidTransition(err):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: err.Error()})
	default:
		slog.Error("handler."+op, slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
	}
}

// POST /rooms
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	room, err := h.roomSvc.CreateRoom(r.Context(), req.Name, userID, req.MaxParticipants)
	if err != nil {
		writeDomainError(w, "CreateRoom", err)
		return
	}

	writeJSON(w, http.StatusCreated, toRoomItem(room))
}

// GET /rooms?limit=&cursor=
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			limit = n
		}
	}
	cursor := r.URL.Query().Get("cursor")

	rooms, next, err := h.roomSvc.ListOpenRooms(r.Context(), limit, cursor)
	if err != nil {
		if errors.Is(err, postgres.ErrInvalidCursor) {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid_cursor"})
			return
		}
		writeDomainError(w, "ListRooms", err)
		return
	}

	resp := RoomsListResponse{Items: make([]RoomItem, 0, len(rooms)), NextCursor: next}
	for i := range rooms {
		resp.Items = append(resp.Items, toRoomItem(&rooms[i]))
	}

	writeJSON(w, http.StatusOK, resp)
}

// GET /rooms/{id}
func (h *Handler) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.GetRoom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "GetRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// POST /rooms/{id}/join
func (h *Handler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	p, err := h.memberSvc.JoinRoom(r.Context(), roomID, userID)
	if err != nil {
		writeDomainError(w, "JoinRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, JoinRoomResponse{
		RoomID:   p.RoomID,
		UserID:   string(p.UserID),
		JoinedAt: p.JoinedAt,
	})
}

// POST /rooms/{id}/leave
func (h *Handler) LeaveRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")
	userID := httpmw.UserIDFromCtx(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "missing user id"})
		return
	}

	if err := h.memberSvc.LeaveRoom(r.Context(), roomID, userID); err != nil {
		writeDomainError(w, "LeaveRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// POST /rooms/{id}/status
func (h *Handler) TransitionRoom(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	var req TransitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid json"})
		return
	}

	target := domain.RoomStatus(req.Status)
	if !target.Valid() {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "unknown status: " + req.Status})
		return
	}

	room, err := h.roomSvc.Transition(r.Context(), roomID, target)
	if err != nil {
		writeDomainError(w, "TransitionRoom", err)
		return
	}

	writeJSON(w, http.StatusOK, toRoomItem(room))
}

// GET /rooms/{id}/participants
func (h *Handler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	roomID := chi.URLParam(r, "id")

	items, err := h.memberSvc.ListParticipantsDetailed(r.Context(), roomID)
	if err != nil {
		writeDomainError(w, "GetParticipants", err)
		return
	}

	resp := ParticipantsResponse{Items: make([]ParticipantItem, 0, len(items))}
	for _, it := range items {
		resp.Items = append(resp.Items, ParticipantItem{
			UserID:   string(it.UserID),
			Label:    it.DisplayLabel(),
			Email:    it.Email,
			JoinedAt: it.JoinedAt,
		})
	}

	writeJSON(w, http.StatusOK, resp)
}

func toRoomItem(r *domain.Room) RoomItem {
	return RoomItem{
		ID:              r.ID,
		Name:            r.Name,
		Status:          string(r.Status),
		CreatedBy:       string(r.CreatedBy),
		MaxParticipants: r.MaxParticipants,
		CreatedAt:       r.CreatedAt,
	}
}
