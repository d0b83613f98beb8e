// Package sqlite persists rooms and reservations in SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	apperrors "github.com/roomdesk/roomdesk/internal/platform/errors"
	"github.com/roomdesk/roomdesk/internal/platform/filter"
	"github.com/roomdesk/roomdesk/internal/platform/pagination"
	"github.com/roomdesk/roomdesk/internal/platform/storage/sqlitedb"
	"github.com/roomdesk/roomdesk/internal/services/reservation/domain"
	"github.com/roomdesk/roomdesk/internal/services/reservation/storage/sqlite/migrations"
)

var orderByConfig = pagination.OrderByConfig{
	Default: "create_time desc",
	Columns: map[string]string{
		"create_time": "created_at",
		"update_time": "updated_at",
		"start_time":  "starts_at",
		"end_time":    "ends_at",
		"status":      "status",
		"room_id":     "room_id",
	},
	TieBreaker: "id",
}

var filterSchema = filter.Schema{
	"status":            {Column: "status", Type: filter.String, Normalize: normalizeStatus},
	"room_id":           {Column: "room_id", Type: filter.String},
	"requester_user_id": {Column: "requester_user_id", Type: filter.String},
	"start_time":        {Column: "starts_at", Type: filter.Timestamp},
	"end_time":          {Column: "ends_at", Type: filter.Timestamp},
	"create_time":       {Column: "created_at", Type: filter.Timestamp},
}

const roomColumns = `id, slug, name, location, capacity, description, created_at, updated_at`

const reservationColumns = `id, room_id, requester_user_id, requester_name, requester_email, title, purpose,
attendees, starts_at, ends_at, status, decided_by_user_id, decision_note, decided_at, created_at, updated_at`

// Store implements domain.Store over SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens the reservation store at path and applies migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("open reservation store: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// CreateRoom inserts a room.
func (s *Store) CreateRoom(ctx context.Context, room domain.Room) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		room.ID, room.Slug, room.Name, room.Location, room.Capacity, room.Description,
		sqlitedb.ToMillis(room.CreatedAt), sqlitedb.ToMillis(room.UpdatedAt),
	)
	if sqlitedb.IsUniqueViolation(err) {
		return domain.ErrRoomSlugTaken
	}
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

// UpsertRoomBySlug inserts room or updates the row holding its slug. The
// existing ID and creation time are kept.
func (s *Store) UpsertRoomBySlug(ctx context.Context, room domain.Room) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO rooms (`+roomColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET
    name = excluded.name,
    location = excluded.location,
    capacity = excluded.capacity,
    description = excluded.description,
    updated_at = excluded.updated_at
`,
		room.ID, room.Slug, room.Name, room.Location, room.Capacity, room.Description,
		sqlitedb.ToMillis(room.CreatedAt), sqlitedb.ToMillis(room.UpdatedAt),
	)
	if err != nil {
		return domain.Room{}, fmt.Errorf("upsert room: %w", err)
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE slug = ?`, room.Slug)
	return scanRoom(row.Scan)
}

// GetRoom loads a room by ID.
func (s *Store) GetRoom(ctx context.Context, roomID string) (domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Room{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+roomColumns+` FROM rooms WHERE id = ?`, strings.TrimSpace(roomID))
	return scanRoom(row.Scan)
}

// ListRooms lists rooms ordered by name.
func (s *Store) ListRooms(ctx context.Context) ([]domain.Room, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+roomColumns+` FROM rooms ORDER BY name COLLATE NOCASE ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	defer rows.Close()

	rooms := make([]domain.Room, 0)
	for rows.Next() {
		room, err := scanRoom(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan room row: %w", err)
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate room rows: %w", err)
	}
	return rooms, nil
}

// CreateReservation inserts a reservation.
func (s *Store) CreateReservation(ctx context.Context, r domain.Reservation) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO reservations (`+reservationColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.RoomID, r.RequesterUserID, r.RequesterName, r.RequesterEmail, r.Title, r.Purpose,
		r.Attendees, sqlitedb.ToMillis(r.StartsAt), sqlitedb.ToMillis(r.EndsAt), string(r.Status),
		r.DecidedByUserID, r.DecisionNote, sqlitedb.NullMillis(r.DecidedAt),
		sqlitedb.ToMillis(r.CreatedAt), sqlitedb.ToMillis(r.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetReservation loads a reservation by ID.
func (s *Store) GetReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Reservation{}, err
	}
	return s.getReservation(ctx, reservationID)
}

func (s *Store) getReservation(ctx context.Context, reservationID string) (domain.Reservation, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, strings.TrimSpace(reservationID))
	return scanReservation(row.Scan)
}

// ListReservations pages through reservations matching query.
func (s *Store) ListReservations(ctx context.Context, query domain.ListQuery) (domain.Page, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Page{}, err
	}
	if query.PageSize <= 0 {
		return domain.Page{}, fmt.Errorf("page size must be greater than zero")
	}

	ordering, err := pagination.ParseOrderBy(query.OrderBy, orderByConfig)
	if err != nil {
		return domain.Page{}, apperrors.Wrap(apperrors.CodeListOrderByInvalid, err.Error(), err)
	}
	condition, err := filterSchema.Parse(query.Filter)
	if err != nil {
		return domain.Page{}, apperrors.Wrap(apperrors.CodeListFilterInvalid, err.Error(), err)
	}
	checksum := pagination.Checksum(ordering.Canonical, query.Filter, "requester="+query.RequesterUserID)
	offset, err := pagination.DecodePageToken(query.PageToken, checksum)
	if err != nil {
		return domain.Page{}, apperrors.Wrap(apperrors.CodeListPageTokenInvalid, err.Error(), err)
	}

	var clauses []string
	var params []any
	if query.RequesterUserID != "" {
		clauses = append(clauses, "requester_user_id = ?")
		params = append(params, query.RequesterUserID)
	}
	if !condition.Empty() {
		clauses = append(clauses, "("+condition.Clause+")")
		params = append(params, condition.Params...)
	}
	where := ""
	if len(clauses) > 0 {
		where = " WHERE " + strings.Join(clauses, " AND ")
	}

	page := domain.Page{Reservations: make([]domain.Reservation, 0, query.PageSize)}
	if err := s.sqlDB.QueryRowContext(ctx, `SELECT COUNT(1) FROM reservations`+where, params...).Scan(&page.TotalSize); err != nil {
		return domain.Page{}, fmt.Errorf("count reservations: %w", err)
	}

	listParams := append(append([]any{}, params...), query.PageSize+1, offset)
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+reservationColumns+` FROM reservations`+where+
			` ORDER BY `+ordering.SQL(orderByConfig.TieBreaker)+` LIMIT ? OFFSET ?`,
		listParams...,
	)
	if err != nil {
		return domain.Page{}, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		reservation, err := scanReservation(rows.Scan)
		if err != nil {
			return domain.Page{}, fmt.Errorf("scan reservation row: %w", err)
		}
		page.Reservations = append(page.Reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return domain.Page{}, fmt.Errorf("iterate reservation rows: %w", err)
	}
	if len(page.Reservations) > query.PageSize {
		page.Reservations = page.Reservations[:query.PageSize]
		page.NextPageToken = pagination.EncodePageToken(offset+query.PageSize, checksum)
	}
	return page, nil
}

// ListCalendar lists non-declined reservations overlapping [From, To).
func (s *Store) ListCalendar(ctx context.Context, input domain.CalendarInput) ([]domain.Reservation, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations
WHERE status <> ? AND starts_at < ? AND ends_at > ?`
	params := []any{string(domain.StatusDeclined), sqlitedb.ToMillis(input.To), sqlitedb.ToMillis(input.From)}
	if input.RoomID != "" {
		query += ` AND room_id = ?`
		params = append(params, input.RoomID)
	}
	query += ` ORDER BY starts_at ASC, id ASC`

	rows, err := s.sqlDB.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("list calendar: %w", err)
	}
	defer rows.Close()
	reservations := make([]domain.Reservation, 0)
	for rows.Next() {
		reservation, err := scanReservation(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan calendar row: %w", err)
		}
		reservations = append(reservations, reservation)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calendar rows: %w", err)
	}
	return reservations, nil
}

// DecideReservation applies decision with a single conditional UPDATE so
// the PENDING check and the accepted-overlap check commit atomically.
func (s *Store) DecideReservation(ctx context.Context, decision domain.Decision) (domain.Reservation, error) {
	if err := s.ready(ctx); err != nil {
		return domain.Reservation{}, err
	}
	if !decision.Status.Decided() {
		return domain.Reservation{}, domain.ErrInvalidStatus
	}
	decidedAt := sqlitedb.ToMillis(decision.DecidedAt)
	result, err := s.sqlDB.ExecContext(ctx, `
UPDATE reservations
SET status = ?, decided_by_user_id = ?, decision_note = ?, decided_at = ?, updated_at = ?
WHERE id = ?
  AND status = ?
  AND (? <> ? OR NOT EXISTS (
    SELECT 1 FROM reservations booked
    WHERE booked.room_id = reservations.room_id
      AND booked.id <> reservations.id
      AND booked.status = ?
      AND booked.starts_at < reservations.ends_at
      AND booked.ends_at > reservations.starts_at
  ))
`,
		string(decision.Status), decision.DecidedByUserID, decision.Note, decidedAt, decidedAt,
		decision.ReservationID,
		string(domain.StatusPending),
		string(decision.Status), string(domain.StatusAccepted),
		string(domain.StatusAccepted),
	)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("decide reservation: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("decide reservation rows affected: %w", err)
	}

	current, err := s.getReservation(ctx, decision.ReservationID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if affected == 1 {
		return current, nil
	}
	if current.Status != domain.StatusPending {
		return domain.Reservation{}, domain.ErrAlreadyDecided
	}
	return domain.Reservation{}, domain.ErrSlotUnavailable
}

type scanner func(dest ...any) error

func scanRoom(scan scanner) (domain.Room, error) {
	var room domain.Room
	var createdAt, updatedAt int64
	err := scan(&room.ID, &room.Slug, &room.Name, &room.Location, &room.Capacity, &room.Description, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Room{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Room{}, fmt.Errorf("scan room: %w", err)
	}
	room.CreatedAt = sqlitedb.FromMillis(createdAt)
	room.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	return room, nil
}

func scanReservation(scan scanner) (domain.Reservation, error) {
	var r domain.Reservation
	var status string
	var startsAt, endsAt, createdAt, updatedAt int64
	var decidedAt sql.NullInt64
	err := scan(
		&r.ID, &r.RoomID, &r.RequesterUserID, &r.RequesterName, &r.RequesterEmail, &r.Title, &r.Purpose,
		&r.Attendees, &startsAt, &endsAt, &status, &r.DecidedByUserID, &r.DecisionNote, &decidedAt,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Reservation{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("scan reservation: %w", err)
	}
	r.Status = domain.Status(status)
	r.StartsAt = sqlitedb.FromMillis(startsAt)
	r.EndsAt = sqlitedb.FromMillis(endsAt)
	r.DecidedAt = sqlitedb.TimeFromNull(decidedAt)
	r.CreatedAt = sqlitedb.FromMillis(createdAt)
	r.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	return r, nil
}

func normalizeStatus(raw string) (string, error) {
	status, err := domain.ParseStatus(raw)
	if err != nil {
		return "", fmt.Errorf("unknown status %q", raw)
	}
	return string(status), nil
}
