package domain

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/id"
	"github.com/roomdesk/roomdesk/internal/platform/pagination"
)

// Store is the persistence boundary for reservations and rooms.
type Store interface {
	CreateRoom(ctx context.Context, room Room) error
	UpsertRoomBySlug(ctx context.Context, room Room) (Room, error)
	GetRoom(ctx context.Context, roomID string) (Room, error)
	ListRooms(ctx context.Context) ([]Room, error)

	CreateReservation(ctx context.Context, reservation Reservation) error
	GetReservation(ctx context.Context, reservationID string) (Reservation, error)
	ListReservations(ctx context.Context, query ListQuery) (Page, error)
	ListCalendar(ctx context.Context, input CalendarInput) ([]Reservation, error)
	// DecideReservation moves a PENDING reservation to the decision status.
	// It returns ErrAlreadyDecided when the row already left PENDING and
	// ErrSlotUnavailable when accepting would overlap another accepted
	// reservation of the same room.
	DecideReservation(ctx context.Context, decision Decision) (Reservation, error)
}

// EventType names a reservation change pushed to live clients.
type EventType string

const (
	EventCreated EventType = "reservation.created"
	EventUpdated EventType = "reservation.updated"
)

// Publisher fans reservation changes out to live clients.
type Publisher interface {
	PublishReservation(eventType EventType, reservation Reservation)
}

// Notifier enqueues email notifications for reservation changes.
type Notifier interface {
	ReservationSubmitted(ctx context.Context, reservation Reservation) error
	ReservationDecided(ctx context.Context, reservation Reservation) error
}

// Recorder receives reservation counters.
type Recorder interface {
	ReservationSubmitted()
	ReservationDecided(status string)
}

// Service orchestrates reservation use-cases.
type Service struct {
	store     Store
	publisher Publisher
	notifier  Notifier
	recorder  Recorder
	clock     func() time.Time
	newID     func() (string, error)
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets the live event publisher.
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// WithNotifier sets the notification producer.
func WithNotifier(notifier Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder Recorder) Option {
	return func(s *Service) {
		s.recorder = recorder
	}
}

// WithClock overrides the time source.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithIDGenerator overrides ID generation.
func WithIDGenerator(newID func() (string, error)) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService constructs reservation use-cases over store.
func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store: store,
		clock: time.Now,
		newID: id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateRoom adds a room to the catalog.
func (s *Service) CreateRoom(ctx context.Context, actor Actor, input RoomInput) (Room, error) {
	if !actor.Admin {
		return Room{}, ErrAdminRequired
	}
	normalized, err := NormalizeRoomInput(input)
	if err != nil {
		return Room{}, err
	}
	roomID, err := s.newID()
	if err != nil {
		return Room{}, fmt.Errorf("generate room id: %w", err)
	}
	now := s.now()
	room := Room{
		ID:          roomID,
		Slug:        normalized.Slug,
		Name:        normalized.Name,
		Location:    normalized.Location,
		Capacity:    normalized.Capacity,
		Description: normalized.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateRoom(ctx, room); err != nil {
		return Room{}, err
	}
	return room, nil
}

// UpsertRoomBySlug creates the room or refreshes the one holding its slug.
func (s *Service) UpsertRoomBySlug(ctx context.Context, input RoomInput) (Room, error) {
	normalized, err := NormalizeRoomInput(input)
	if err != nil {
		return Room{}, err
	}
	roomID, err := s.newID()
	if err != nil {
		return Room{}, fmt.Errorf("generate room id: %w", err)
	}
	now := s.now()
	return s.store.UpsertRoomBySlug(ctx, Room{
		ID:          roomID,
		Slug:        normalized.Slug,
		Name:        normalized.Name,
		Location:    normalized.Location,
		Capacity:    normalized.Capacity,
		Description: normalized.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// GetRoom loads a room.
func (s *Service) GetRoom(ctx context.Context, roomID string) (Room, error) {
	roomID = strings.TrimSpace(roomID)
	if roomID == "" {
		return Room{}, ErrNotFound
	}
	return s.store.GetRoom(ctx, roomID)
}

// ListRooms lists the catalog by name.
func (s *Service) ListRooms(ctx context.Context) ([]Room, error) {
	return s.store.ListRooms(ctx)
}

// Submit creates a PENDING reservation for actor.
func (s *Service) Submit(ctx context.Context, actor Actor, input SubmitInput) (Reservation, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Reservation{}, fmt.Errorf("requester user id is required")
	}
	roomID := strings.TrimSpace(input.RoomID)
	if roomID == "" {
		return Reservation{}, ErrRoomRequired
	}
	room, err := s.store.GetRoom(ctx, roomID)
	if errors.Is(err, ErrNotFound) {
		return Reservation{}, ErrRoomRequired
	}
	if err != nil {
		return Reservation{}, err
	}
	now := s.now()
	normalized, err := normalizeSubmit(input, room, now)
	if err != nil {
		return Reservation{}, err
	}
	reservationID, err := s.newID()
	if err != nil {
		return Reservation{}, fmt.Errorf("generate reservation id: %w", err)
	}
	reservation := Reservation{
		ID:              reservationID,
		RoomID:          room.ID,
		RequesterUserID: actor.UserID,
		RequesterName:   strings.TrimSpace(actor.Name),
		RequesterEmail:  strings.TrimSpace(actor.Email),
		Title:           normalized.Title,
		Purpose:         normalized.Purpose,
		Attendees:       normalized.Attendees,
		StartsAt:        normalized.StartsAt,
		EndsAt:          normalized.EndsAt,
		Status:          StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateReservation(ctx, reservation); err != nil {
		return Reservation{}, err
	}

	if s.recorder != nil {
		s.recorder.ReservationSubmitted()
	}
	if s.publisher != nil {
		s.publisher.PublishReservation(EventCreated, reservation)
	}
	if s.notifier != nil {
		if err := s.notifier.ReservationSubmitted(ctx, reservation); err != nil {
			log.Printf("reservation notify failed reservation_id=%s event=submitted err=%v", reservation.ID, err)
		}
	}
	return reservation, nil
}

// Get loads a reservation. Non-admin actors only see their own.
func (s *Service) Get(ctx context.Context, actor Actor, reservationID string) (Reservation, error) {
	reservationID = strings.TrimSpace(reservationID)
	if reservationID == "" {
		return Reservation{}, ErrNotFound
	}
	reservation, err := s.store.GetReservation(ctx, reservationID)
	if err != nil {
		return Reservation{}, err
	}
	if !actor.CanRead(reservation) {
		return Reservation{}, ErrForbidden
	}
	return reservation, nil
}

// ListAll pages through every reservation.
func (s *Service) ListAll(ctx context.Context, actor Actor, input ListInput) (Page, error) {
	if !actor.Admin {
		return Page{}, ErrAdminRequired
	}
	return s.store.ListReservations(ctx, normalizeList(input, ""))
}

// ListMine pages through actor's own reservations.
func (s *Service) ListMine(ctx context.Context, actor Actor, input ListInput) (Page, error) {
	userID := strings.TrimSpace(actor.UserID)
	if userID == "" {
		return Page{}, fmt.Errorf("requester user id is required")
	}
	return s.store.ListReservations(ctx, normalizeList(input, userID))
}

// Calendar lists non-declined reservations overlapping [From, To). Rows the
// actor may not read in full are reduced to their booked slot.
func (s *Service) Calendar(ctx context.Context, actor Actor, input CalendarInput) ([]Reservation, error) {
	input.RoomID = strings.TrimSpace(input.RoomID)
	input.From = input.From.UTC()
	input.To = input.To.UTC()
	if input.From.IsZero() || input.To.IsZero() || !input.From.Before(input.To) {
		return nil, ErrCalendarRangeInvalid
	}
	if input.To.Sub(input.From) > MaxCalendarWindow {
		return nil, ErrCalendarRangeInvalid
	}
	reservations, err := s.store.ListCalendar(ctx, input)
	if err != nil {
		return nil, err
	}
	for i, reservation := range reservations {
		if !actor.CanRead(reservation) {
			reservations[i] = reservation.Slot()
		}
	}
	return reservations, nil
}

// Accept moves a PENDING reservation to ACCEPTED.
func (s *Service) Accept(ctx context.Context, actor Actor, input DecideInput) (Reservation, error) {
	return s.decide(ctx, actor, input, StatusAccepted)
}

// Decline moves a PENDING reservation to DECLINED.
func (s *Service) Decline(ctx context.Context, actor Actor, input DecideInput) (Reservation, error) {
	return s.decide(ctx, actor, input, StatusDeclined)
}

func (s *Service) decide(ctx context.Context, actor Actor, input DecideInput, status Status) (Reservation, error) {
	if !actor.Admin {
		return Reservation{}, ErrAdminRequired
	}
	reservationID := strings.TrimSpace(input.ReservationID)
	if reservationID == "" {
		return Reservation{}, ErrNotFound
	}
	note, err := normalizeNote(input.Note)
	if err != nil {
		return Reservation{}, err
	}
	decided, err := s.store.DecideReservation(ctx, Decision{
		ReservationID:   reservationID,
		Status:          status,
		DecidedByUserID: actor.UserID,
		Note:            note,
		DecidedAt:       s.now(),
	})
	if err != nil {
		return Reservation{}, err
	}

	if s.recorder != nil {
		s.recorder.ReservationDecided(string(status))
	}
	if s.publisher != nil {
		s.publisher.PublishReservation(EventUpdated, decided)
	}
	if s.notifier != nil {
		if err := s.notifier.ReservationDecided(ctx, decided); err != nil {
			log.Printf("reservation notify failed reservation_id=%s event=%s err=%v", decided.ID, strings.ToLower(string(status)), err)
		}
	}
	return decided, nil
}

func normalizeList(input ListInput, requesterUserID string) ListQuery {
	return ListQuery{
		RequesterUserID: requesterUserID,
		PageSize:        pagination.ClampPageSize(input.PageSize, pagination.DefaultPageSize),
		PageToken:       strings.TrimSpace(input.PageToken),
		OrderBy:         strings.TrimSpace(input.OrderBy),
		Filter:          strings.TrimSpace(input.Filter),
	}
}

func (s *Service) now() time.Time {
	return s.clock().UTC().Truncate(time.Millisecond)
}
