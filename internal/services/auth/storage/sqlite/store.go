package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/roomdesk/roomdesk/internal/platform/storage/sqlitedb"
	"github.com/roomdesk/roomdesk/internal/services/auth/storage"
	"github.com/roomdesk/roomdesk/internal/services/auth/storage/sqlite/migrations"
	"github.com/roomdesk/roomdesk/internal/services/auth/user"
)

// Store implements auth persistence over SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens an auth SQLite store and applies bundled migrations.
func Open(ctx context.Context, path string) (*Store, error) {
	sqlDB, err := sqlitedb.Open(ctx, path, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("open auth store: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close releases the underlying SQLite database.
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

const userColumns = `id, email, display_name, role, locale, password_hash, created_at, updated_at`

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, u user.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(u.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("email is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.DisplayName, string(u.Role), string(u.Locale), u.PasswordHash,
		sqlitedb.ToMillis(u.CreatedAt), sqlitedb.ToMillis(u.UpdatedAt),
	)
	if sqlitedb.IsUniqueViolation(err) {
		return storage.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// UpdateUser overwrites mutable account fields.
func (s *Store) UpdateUser(ctx context.Context, u user.User) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	result, err := s.sqlDB.ExecContext(ctx,
		`UPDATE users SET display_name = ?, role = ?, locale = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		u.DisplayName, string(u.Role), string(u.Locale), u.PasswordHash, sqlitedb.ToMillis(u.UpdatedAt), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetUser loads an account by ID.
func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
	return scanUser(row)
}

// GetUserByEmail loads an account by normalized email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	if err := s.ready(ctx); err != nil {
		return user.User{}, err
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

// ListUsersByRole returns every account with role, oldest first.
func (s *Store) ListUsersByRole(ctx context.Context, role user.Role) ([]user.User, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+userColumns+` FROM users WHERE role = ? ORDER BY created_at, id`, string(role))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (user.User, error) {
	var (
		u                    user.User
		role, locale         string
		createdAt, updatedAt int64
	)
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &locale, &u.PasswordHash, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return user.User{}, storage.ErrNotFound
	}
	if err != nil {
		return user.User{}, fmt.Errorf("scan user: %w", err)
	}
	u.Role = user.Role(role)
	u.Locale = user.NormalizeLocale(locale)
	u.CreatedAt = sqlitedb.FromMillis(createdAt)
	u.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	return u, nil
}

// PutProviderState stores a pending external sign-in.
func (s *Store) PutProviderState(ctx context.Context, state storage.ProviderState) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO oauth_provider_states (state, provider, redirect_path, code_verifier, expires_at) VALUES (?, ?, ?, ?, ?)`,
		state.State, state.Provider, state.RedirectPath, state.CodeVerifier, sqlitedb.ToMillis(state.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("insert provider state: %w", err)
	}
	return nil
}

// TakeProviderState loads and deletes a provider state in one transaction.
func (s *Store) TakeProviderState(ctx context.Context, state string) (storage.ProviderState, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ProviderState{}, err
	}
	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return storage.ProviderState{}, fmt.Errorf("start transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var (
		stored    storage.ProviderState
		expiresAt int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT state, provider, redirect_path, code_verifier, expires_at FROM oauth_provider_states WHERE state = ?`,
		state,
	).Scan(&stored.State, &stored.Provider, &stored.RedirectPath, &stored.CodeVerifier, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ProviderState{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ProviderState{}, fmt.Errorf("select provider state: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM oauth_provider_states WHERE state = ?`, state); err != nil {
		return storage.ProviderState{}, fmt.Errorf("delete provider state: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return storage.ProviderState{}, fmt.Errorf("commit provider state: %w", err)
	}
	stored.ExpiresAt = sqlitedb.FromMillis(expiresAt)
	return stored, nil
}

// DeleteExpiredProviderStates removes states that expired at or before now.
func (s *Store) DeleteExpiredProviderStates(ctx context.Context, now time.Time) (int64, error) {
	if err := s.ready(ctx); err != nil {
		return 0, err
	}
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM oauth_provider_states WHERE expires_at <= ?`, sqlitedb.ToMillis(now))
	if err != nil {
		return 0, fmt.Errorf("delete expired provider states: %w", err)
	}
	return result.RowsAffected()
}

// UpsertExternalIdentity links or relinks a provider account.
func (s *Store) UpsertExternalIdentity(ctx context.Context, identity storage.ExternalIdentity) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO oauth_external_identities (provider, provider_user_id, user_id, email, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(provider, provider_user_id) DO UPDATE SET
			user_id = excluded.user_id,
			email = excluded.email,
			updated_at = excluded.updated_at`,
		identity.Provider, identity.ProviderUserID, identity.UserID, identity.Email,
		sqlitedb.ToMillis(identity.CreatedAt), sqlitedb.ToMillis(identity.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upsert external identity: %w", err)
	}
	return nil
}

// GetExternalIdentity retrieves an identity by provider + provider user ID.
func (s *Store) GetExternalIdentity(ctx context.Context, provider, providerUserID string) (storage.ExternalIdentity, error) {
	if err := s.ready(ctx); err != nil {
		return storage.ExternalIdentity{}, err
	}
	var (
		identity             storage.ExternalIdentity
		createdAt, updatedAt int64
	)
	err := s.sqlDB.QueryRowContext(ctx,
		`SELECT provider, provider_user_id, user_id, email, created_at, updated_at
		FROM oauth_external_identities WHERE provider = ? AND provider_user_id = ?`,
		provider, providerUserID,
	).Scan(&identity.Provider, &identity.ProviderUserID, &identity.UserID, &identity.Email, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ExternalIdentity{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.ExternalIdentity{}, fmt.Errorf("select external identity: %w", err)
	}
	identity.CreatedAt = sqlitedb.FromMillis(createdAt)
	identity.UpdatedAt = sqlitedb.FromMillis(updatedAt)
	return identity, nil
}

var (
	_ storage.UserStore     = (*Store)(nil)
	_ storage.ProviderStore = (*Store)(nil)
)
