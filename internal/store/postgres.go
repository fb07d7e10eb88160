package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"carelink-go/internal/models"

	_ "github.com/lib/pq"
)

//go:embed schema.sql
var schemaSQL string

// ErrNoPreferences is returned when a user never saved notification
// preferences. The push sender treats it as "do not send".
var ErrNoPreferences = errors.New("preferences not found")

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(databaseURL string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// RunMigrations creates tables if they don't exist and applies schema updates
func (s *PostgresStore) RunMigrations(ctx context.Context) error {
	// Create tables
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return err
	}

	// Apply migrations for existing tables
	migrations := []string{
		`ALTER TABLE users ADD COLUMN IF NOT EXISTS full_name VARCHAR(255) NOT NULL DEFAULT '';`,
		`ALTER TABLE push_subscriptions ADD COLUMN IF NOT EXISTS subscription_data TEXT NOT NULL DEFAULT '';`,
		`ALTER TABLE notification_preferences ADD COLUMN IF NOT EXISTS idg_reminders BOOLEAN NOT NULL DEFAULT TRUE;`,
	}

	for _, migration := range migrations {
		if _, err := s.db.ExecContext(ctx, migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// User methods

func (s *PostgresStore) CreateUser(ctx context.Context, username, fullName, password, role string) (models.User, error) {
	passwordHash, err := models.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	var user models.User
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO users (username, full_name, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, NOW())
		 RETURNING id, username, full_name, password_hash, role, created_at`,
		username, fullName, passwordHash, role,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.PasswordHash, &user.Role, &user.CreatedAt)

	if err != nil {
		return models.User{}, err
	}

	return user, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id int) (models.User, error) {
	return s.getUser(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	return s.getUser(ctx, `WHERE username = $1`, username)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (models.User, error) {
	var user models.User
	var totpSecret sql.NullString
	var lastPasswordChange sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, full_name, password_hash, role, totp_secret, totp_enabled, last_password_change, created_at FROM users `+where,
		arg,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.PasswordHash, &user.Role, &totpSecret, &user.TOTPEnabled, &lastPasswordChange, &user.CreatedAt)

	if err == sql.ErrNoRows {
		return models.User{}, errors.New("user not found")
	}
	if err != nil {
		return models.User{}, err
	}

	if totpSecret.Valid {
		user.TOTPSecret = totpSecret.String
	}
	if lastPasswordChange.Valid {
		user.LastPasswordChange = lastPasswordChange.Time
	}

	return user, nil
}

func (s *PostgresStore) GetUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, full_name, password_hash, role, totp_secret, totp_enabled, last_password_change, created_at FROM users ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		var totpSecret sql.NullString
		var lastPasswordChange sql.NullTime

		if err := rows.Scan(&user.ID, &user.Username, &user.FullName, &user.PasswordHash, &user.Role, &totpSecret, &user.TOTPEnabled, &lastPasswordChange, &user.CreatedAt); err != nil {
			continue
		}

		if totpSecret.Valid {
			user.TOTPSecret = totpSecret.String
		}
		if lastPasswordChange.Valid {
			user.LastPasswordChange = lastPasswordChange.Time
		}

		users = append(users, user)
	}

	return users, nil
}

func (s *PostgresStore) UpdateUser(ctx context.Context, id int, username, fullName, role string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = $1, full_name = $2, role = $3 WHERE id = $4`,
		username, fullName, role, id,
	)
	if err != nil {
		return err
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return errors.New("user not found")
	}

	return nil
}

func (s *PostgresStore) DeleteUser(ctx context.Context, id int) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, userID int, newPasswordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, last_password_change = NOW() WHERE id = $2`,
		newPasswordHash, userID,
	)
	return err
}

// 2FA methods

func (s *PostgresStore) UpdateUser2FA(ctx context.Context, userID int, totpSecret string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = $1, totp_enabled = $2 WHERE id = $3`,
		totpSecret, enabled, userID,
	)
	return err
}

func (s *PostgresStore) Disable2FA(ctx context.Context, userID int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = NULL, totp_enabled = FALSE WHERE id = $1`,
		userID,
	)
	return err
}
