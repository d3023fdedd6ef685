package serverdb

import (
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrEmailTaken is returned by CreateUser when the email is already registered.
var ErrEmailTaken = errors.New("email already registered")

// User is a registered account.
type User struct {
	ID           string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

// tokenTTL bounds how long an issued token stays valid.
const tokenTTL = 90 * 24 * time.Hour

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// CreateUser registers a new account with a pre-hashed password.
func (db *ServerDB) CreateUser(email, passwordHash string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u := &User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	_, err := db.conn.Exec(`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		u.ID, u.Email, u.PasswordHash, u.CreatedAt.Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// GetUserByEmail looks up an account by email. Returns (nil, nil) when absent.
func (db *ServerDB) GetUserByEmail(email string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return db.scanUser(db.conn.QueryRow(
		`SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email))
}

// GetUserByID looks up an account by id. Returns (nil, nil) when absent.
func (db *ServerDB) GetUserByID(id string) (*User, error) {
	return db.scanUser(db.conn.QueryRow(
		`SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (db *ServerDB) scanUser(row *sql.Row) (*User, error) {
	var u User
	var createdAt string
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &u, nil
}

// CreateToken issues a bearer token for the user and returns its plaintext.
// Only a hash is stored.
func (db *ServerDB) CreateToken(userID string) (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := "fdr_" + hex.EncodeToString(raw)

	now := time.Now().UTC()
	_, err := db.conn.Exec(
		`INSERT INTO auth_tokens (id, user_id, token_hash, created_at, expires_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.NewString(), userID, hashToken(token),
		now.Format(time.RFC3339), now.Add(tokenTTL).Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("insert token: %w", err)
	}
	return token, nil
}

// VerifyToken resolves a bearer token to its user. Invalid, expired, and
// revoked tokens all return (nil, nil).
func (db *ServerDB) VerifyToken(token string) (*User, error) {
	var userID string
	var expiresAt, revokedAt sql.NullString
	err := db.conn.QueryRow(
		`SELECT user_id, expires_at, revoked_at FROM auth_tokens WHERE token_hash = ?`,
		hashToken(token)).Scan(&userID, &expiresAt, &revokedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup token: %w", err)
	}
	if revokedAt.Valid {
		return nil, nil
	}
	if expiresAt.Valid {
		exp, err := time.Parse(time.RFC3339, expiresAt.String)
		if err != nil || time.Now().UTC().After(exp) {
			return nil, nil
		}
	}
	return db.GetUserByID(userID)
}

// RevokeToken marks a token revoked. Revoking an unknown token is a no-op.
func (db *ServerDB) RevokeToken(token string) error {
	_, err := db.conn.Exec(
		`UPDATE auth_tokens SET revoked_at = ? WHERE token_hash = ? AND revoked_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), hashToken(token))
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	return nil
}

// CreateProfile provisions the profile row for a user. Idempotent: calling
// again for the same user succeeds without change.
func (db *ServerDB) CreateProfile(userID, email string) error {
	_, err := db.conn.Exec(
		`INSERT OR IGNORE INTO user_profiles (id, email, created_at) VALUES (?, ?, ?)`,
		userID, strings.ToLower(strings.TrimSpace(email)), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// HasProfile reports whether the user's profile row exists.
func (db *ServerDB) HasProfile(userID string) (bool, error) {
	var one int
	err := db.conn.QueryRow(`SELECT 1 FROM user_profiles WHERE id = ?`, userID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("lookup profile: %w", err)
	}
	return true, nil
}
