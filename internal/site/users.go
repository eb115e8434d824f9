package site

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// User is a platform account.
type User struct {
	ID          int64
	Login       string
	Email       string
	Password    string
	FirstName   string
	LastName    string
	DisplayName string
	Role        string
}

// UpsertUser creates the user or updates the existing account with the same
// login. The password is stored as a bcrypt hash.
func (s *Site) UpsertUser(ctx context.Context, u User) (int64, error) {
	if u.Login == "" {
		return 0, errors.New("user login is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), s.hashCost)
	if err != nil {
		return 0, fmt.Errorf("hash password for %s: %w", u.Login, err)
	}

	var id int64
	err = s.queryRow(ctx, `
		INSERT INTO users (login, email, pass_hash, display_name)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(login) DO UPDATE SET
			email = excluded.email,
			pass_hash = excluded.pass_hash,
			display_name = excluded.display_name
		RETURNING id`,
		u.Login, u.Email, string(hash), u.DisplayName,
	).Scan(&id)
	if err != nil {
		return 0, err
	}

	meta := map[string]string{
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"role":       u.Role,
	}
	for key, value := range meta {
		if _, err := s.exec(ctx, `
			INSERT INTO usermeta (user_id, meta_key, meta_value) VALUES (?, ?, ?)
			ON CONFLICT(user_id, meta_key) DO UPDATE SET meta_value = excluded.meta_value`,
			id, key, value,
		); err != nil {
			return 0, err
		}
	}

	s.cacheObject("user:"+u.Login, id)
	return id, nil
}

// UserID resolves a login to its ID.
func (s *Site) UserID(ctx context.Context, login string) (int64, error) {
	if id, ok := s.cachedObject("user:" + login); ok {
		return id, nil
	}

	var id int64
	err := s.queryRow(ctx, `SELECT id FROM users WHERE login = ?`, login).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%w: %s", ErrUserNotFound, login)
		}
		return 0, err
	}

	s.cacheObject("user:"+login, id)
	return id, nil
}

// UserMeta returns one metadata value of a user.
func (s *Site) UserMeta(ctx context.Context, id int64, key string) (string, error) {
	var value string
	err := s.queryRow(ctx, `SELECT meta_value FROM usermeta WHERE user_id = ? AND meta_key = ?`, id, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// CheckPassword reports whether password matches the stored hash of login.
func (s *Site) CheckPassword(ctx context.Context, login, password string) (bool, error) {
	var hash string
	err := s.queryRow(ctx, `SELECT pass_hash FROM users WHERE login = ?`, login).Scan(&hash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, fmt.Errorf("%w: %s", ErrUserNotFound, login)
		}
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// CountUsers counts accounts whose e-mail ends with suffix. An empty suffix
// counts all accounts.
func (s *Site) CountUsers(ctx context.Context, suffix string) (int, error) {
	var n int
	err := s.queryRow(ctx, `SELECT COUNT(*) FROM users WHERE email LIKE ?`, "%"+suffix).Scan(&n)
	return n, err
}

// DeleteUsersByEmailSuffix removes accounts whose e-mail ends with suffix
// together with their orphaned metadata.
func (s *Site) DeleteUsersByEmailSuffix(ctx context.Context, suffix string) (int64, error) {
	if suffix == "" {
		return 0, errors.New("refusing to delete users with an empty e-mail suffix")
	}

	res, err := s.exec(ctx, `DELETE FROM users WHERE email LIKE ?`, "%"+suffix)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if _, err := s.exec(ctx, `DELETE FROM usermeta WHERE user_id NOT IN (SELECT id FROM users)`); err != nil {
		return 0, err
	}

	s.dropObjects("user:")
	return n, nil
}
