package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

var (
	// ErrUserExists is returned when registering a username that is taken.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a username is unknown.
	ErrUserNotFound = errors.New("user not found")
)

// User is a registered portal account.
type User struct {
	Username     string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// UserStore persists accounts in a local sqlite database.
type UserStore struct {
	db *sql.DB
}

// OpenUserStore opens (creating if necessary) the user database at path.
func OpenUserStore(path string) (*UserStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// modernc sqlite misbehaves with concurrent writers on one connection pool.
	db.SetMaxOpenConns(1)
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &UserStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	created_at    TEXT NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("migrate users table: %w", err)
	}
	return nil
}

// Create inserts a new account. Returns ErrUserExists on conflict.
func (s *UserStore) Create(ctx context.Context, u User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users (username, password_hash, role, created_at) VALUES (?, ?, ?, ?)`,
		u.Username, u.PasswordHash, u.Role, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if n == 0 {
		return ErrUserExists
	}
	return nil
}

// Get looks up an account by username. Returns ErrUserNotFound when absent.
func (s *UserStore) Get(ctx context.Context, username string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT username, password_hash, role, created_at FROM users WHERE username = ?`,
		username).Scan(&u.Username, &u.PasswordHash, &u.Role, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("query user: %w", err)
	}
	if t, perr := time.Parse(time.RFC3339, created); perr == nil {
		u.CreatedAt = t
	}
	return u, nil
}

// Close closes the underlying database.
func (s *UserStore) Close() error { return s.db.Close() }
