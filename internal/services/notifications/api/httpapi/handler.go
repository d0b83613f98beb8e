// Package httpapi serves the signed-in user's notification inbox.
package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/httpx"
	"github.com/roomdesk/roomdesk/internal/platform/requestctx"
	"github.com/roomdesk/roomdesk/internal/services/notifications/domain"
	"github.com/roomdesk/roomdesk/internal/services/notifications/render"

	authhttp "github.com/roomdesk/roomdesk/internal/services/auth/api/httpapi"
)

// Inbox is the notification surface used by the handlers.
type Inbox interface {
	ListInbox(ctx context.Context, input domain.ListInboxInput) (domain.NotificationPage, error)
	UnreadCount(ctx context.Context, recipientUserID string) (int, error)
	MarkRead(ctx context.Context, input domain.MarkReadInput) (domain.Notification, error)
}

// Handler serves inbox routes.
type Handler struct {
	inbox Inbox
}

// NewHandler builds inbox handlers.
func NewHandler(inbox Inbox) *Handler {
	return &Handler{inbox: inbox}
}

// RegisterRoutes mounts the inbox routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle("GET /api/notifications", authhttp.RequireUser(http.HandlerFunc(h.handleList)))
	mux.Handle("POST /api/notifications/{id}/read", authhttp.RequireUser(http.HandlerFunc(h.handleMarkRead)))
}

type notificationView struct {
	ID         string     `json:"id"`
	Topic      string     `json:"topic"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	CreateTime time.Time  `json:"create_time"`
	ReadTime   *time.Time `json:"read_time,omitempty"`
}

type listResponse struct {
	Notifications []notificationView `json:"notifications"`
	NextPageToken string             `json:"next_page_token,omitempty"`
	UnreadCount   int                `json:"unread_count"`
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	principal, _ := requestctx.PrincipalFromContext(r.Context())
	query := r.URL.Query()
	pageSize, _ := strconv.Atoi(query.Get("page_size"))

	page, err := h.inbox.ListInbox(r.Context(), domain.ListInboxInput{
		RecipientUserID: principal.UserID,
		PageSize:        pageSize,
		PageToken:       query.Get("page_token"),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	unread, err := h.inbox.UnreadCount(r.Context(), principal.UserID)
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}

	loc := render.PrinterFor(localeFor(r, principal))
	views := make([]notificationView, 0, len(page.Notifications))
	for _, notification := range page.Notifications {
		views = append(views, viewOf(loc, notification))
	}
	_ = httpx.WriteJSON(w, http.StatusOK, listResponse{
		Notifications: views,
		NextPageToken: page.NextPageToken,
		UnreadCount:   unread,
	})
}

func (h *Handler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	principal, _ := requestctx.PrincipalFromContext(r.Context())
	notification, err := h.inbox.MarkRead(r.Context(), domain.MarkReadInput{
		RecipientUserID: principal.UserID,
		NotificationID:  r.PathValue("id"),
	})
	if err != nil {
		httpx.WriteError(w, r, err)
		return
	}
	_ = httpx.WriteJSON(w, http.StatusOK, viewOf(render.PrinterFor(localeFor(r, principal)), notification))
}

func viewOf(loc render.Localizer, notification domain.Notification) notificationView {
	out := render.Render(loc, render.Input{
		Topic:       notification.Topic,
		PayloadJSON: notification.PayloadJSON,
		Channel:     render.ChannelInApp,
	})
	return notificationView{
		ID:         notification.ID,
		Topic:      notification.Topic,
		Title:      out.Title,
		Body:       out.BodyText,
		CreateTime: notification.CreatedAt,
		ReadTime:   notification.ReadAt,
	}
}

func localeFor(r *http.Request, principal requestctx.Principal) string {
	if principal.Locale != "" {
		return principal.Locale
	}
	return r.Header.Get("Accept-Language")
}
