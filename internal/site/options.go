package site

import (
	"context"
	"database/sql"
	"errors"
)

// Well-known option names.
const (
	OptionStylesheet      = "stylesheet"
	OptionPermalinks      = "permalink_structure"
	OptionBlogName        = "blogname"
	OptionBlogDescription = "blogdescription"
)

func (s *Site) SetOption(ctx context.Context, name, value string) error {
	_, err := s.exec(ctx, `
		INSERT INTO options (name, value) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET value = excluded.value`,
		name, value,
	)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.persistent[name] = value
	s.mu.Unlock()
	return nil
}

// Option returns the value of name. ok is false when the option is unset.
func (s *Site) Option(ctx context.Context, name string) (value string, ok bool, err error) {
	s.mu.Lock()
	value, ok = s.persistent[name]
	s.mu.Unlock()
	if ok {
		return value, true, nil
	}

	err = s.queryRow(ctx, `SELECT value FROM options WHERE name = ?`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, err
	}

	s.mu.Lock()
	s.persistent[name] = value
	s.mu.Unlock()
	return value, true, nil
}
