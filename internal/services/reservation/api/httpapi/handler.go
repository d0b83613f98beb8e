// Package httpapi serves the reservation JSON API.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/httpx"
	"github.com/roomdesk/roomdesk/internal/platform/requestctx"
	"github.com/roomdesk/roomdesk/internal/services/reservation/api/wire"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"

	authhttp "github.com/roomdesk/roomdesk/internal/services/auth/api/httpapi"
)

// Service is the reservation surface used by the handlers.
type Service interface {
	CreateRoom(ctx context.Context, actor domain.Actor, input domain.RoomInput) (domain.Room, error)
	GetRoom(ctx context.Context, roomID string) (domain.Room, error)
	ListRooms(ctx context.Context) ([]domain.Room, error)
	Submit(ctx context.Context, actor domain.Actor, input domain.SubmitInput) (domain.Reservation, error)
	Get(ctx context.Context, actor domain.Actor, reservationID string) (domain.Reservation, error)
	ListAll(ctx context.Context, actor domain.Actor, input domain.ListInput) (domain.Page, error)
	ListMine(ctx context.Context, actor domain.Actor, input domain.ListInput) (domain.Page, error)
	Calendar(ctx context.Context, actor domain.Actor, input domain.CalendarInput) ([]domain.Reservation, error)
	Accept(ctx context.Context, actor domain.Actor, input domain.DecideInput) (domain.Reservation, error)
	Decline(ctx context.Context, actor domain.Actor, input domain.DecideInput) (domain.Reservation, error)
}

// Handler serves reservation and room routes.
type Handler struct {
	service Service
}

// NewHandler builds reservation handlers.
func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the reservation routes on mux. The Authenticate
// middleware must wrap mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	user := func(fn http.HandlerFunc) http.Handler { return authhttp.RequireUser(fn) }
	admin := func(fn http.HandlerFunc) http.Handler { return authhttp.RequireAdmin(fn) }

	mux.Handle("GET /api/rooms", user(h.handleListRooms))
	mux.Handle("POST /api/rooms", admin(h.handleCreateRoom))
	mux.Handle("GET /api/rooms/{id}", user(h.handleGetRoom))

	mux.Handle("POST /api/reservations", user(h.handleSubmit))
	mux.Handle("GET /api/reservations/mine", user(h.handleListMine))
	mux.Handle("GET /api/reservations/{id}", user(h.handleGet))
	mux.Handle("GET /api/calendar", user(h.handleCalendar))

	mux.Handle("GET /api/admin/reservations", admin(h.handleListAll))
	mux.Handle("POST /api/admin/reservations/{id}/accept", admin(h.handleAccept))
	mux.Handle("POST /api/admin/reservations/{id}/decline", admin(h.handleDecline))
}

func actorFrom(r *http.Request) domain.Actor {
	principal, _ := requestctx.PrincipalFromContext(r.Context())
	return domain.Actor{
		UserID: principal.UserID,
		Name:   principal.DisplayName,
		Email:  principal.Email,
		Admin:  principal.IsAdmin(),
	}
}

type listResponse struct {
	Reservations  []wire.Reservation `json:"reservations"`
	NextPageToken string             `json:"next_page_token,omitempty"`
	TotalSize     int                `json:"total_size"`
}

func (h *Handler) handleListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.service.ListRooms(r.Context())
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"rooms": wire.FromRooms(rooms)})
}

func (h *Handler) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Slug        string `json:"slug"`
		Name        string `json:"name"`
		Location    string `json:"location"`
		Capacity    int    `json:"capacity"`
		Description string `json:"description"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	room, err := h.service.CreateRoom(r.Context(), actorFrom(r), domain.RoomInput{
		Slug:        body.Slug,
		Name:        body.Name,
		Location:    body.Location,
		Capacity:    body.Capacity,
		Description: body.Description,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, wire.FromRoom(room))
}

func (h *Handler) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.service.GetRoom(r.Context(), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, wire.FromRoom(room))
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RoomID    string    `json:"room_id"`
		Title     string    `json:"title"`
		Purpose   string    `json:"purpose"`
		Attendees int       `json:"attendees"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	created, err := h.service.Submit(r.Context(), actorFrom(r), domain.SubmitInput{
		RoomID:    body.RoomID,
		Title:     body.Title,
		Purpose:   body.Purpose,
		Attendees: body.Attendees,
		StartsAt:  body.StartTime,
		EndsAt:    body.EndTime,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusCreated, wire.FromReservation(created))
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reservation, err := h.service.Get(r.Context(), actorFrom(r), r.PathValue("id"))
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, wire.FromReservation(reservation))
}

func (h *Handler) handleListMine(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListMine(r.Context(), actorFrom(r), listInputFrom(r))
	h.writePage(w, r, page, err)
}

func (h *Handler) handleListAll(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.ListAll(r.Context(), actorFrom(r), listInputFrom(r))
	h.writePage(w, r, page, err)
}

func (h *Handler) writePage(w http.ResponseWriter, r *http.Request, page domain.Page, err error) {
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponse{
		Reservations:  wire.FromReservations(page.Reservations),
		NextPageToken: page.NextPageToken,
		TotalSize:     page.TotalSize,
	})
}

func listInputFrom(r *http.Request) domain.ListInput {
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(strings.TrimSpace(query.Get("page_size")))
	return domain.ListInput{
		PageSize:  pageSize,
		PageToken: query.Get("page_token"),
		OrderBy:   query.Get("order_by"),
		Filter:    query.Get("filter"),
	}
}

func (h *Handler) handleCalendar(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from, fromErr := time.Parse(time.RFC3339, strings.TrimSpace(query.Get("from")))
	to, toErr := time.Parse(time.RFC3339, strings.TrimSpace(query.Get("to")))
	if fromErr != nil || toErr != nil {
		httpx.WriteError(w, r, domain.ErrCalendarRangeInvalid)
		return
	}
	reservations, err := h.service.Calendar(r.Context(), actorFrom(r), domain.CalendarInput{
		RoomID: query.Get("room_id"),
		From:   from,
		To:     to,
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, map[string]any{"reservations": wire.FromCalendar(reservations)})
}

type decideBody struct {
	Note string `json:"note"`
}

func decodeDecideBody(r *http.Request) (decideBody, error) {
	var body decideBody
	if r.ContentLength == 0 {
		return body, nil
	}
	if err := httpx.DecodeJSON(r, &body); err != nil {
		return decideBody{}, err
	}
	return body, nil
}

func (h *Handler) handleAccept(w http.ResponseWriter, r *http.Request) {
	body, err := decodeDecideBody(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	decided, err := h.service.Accept(r.Context(), actorFrom(r), domain.DecideInput{ReservationID: r.PathValue("id"), Note: body.Note})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, wire.FromReservation(decided))
}

func (h *Handler) handleDecline(w http.ResponseWriter, r *http.Request) {
	body, err := decodeDecideBody(r)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	decided, err := h.service.Decline(r.Context(), actorFrom(r), domain.DecideInput{ReservationID: r.PathValue("id"), Note: body.Note})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, wire.FromReservation(decided))
}
