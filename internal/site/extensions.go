package site

import (
	"context"
	"fmt"
)

// Theme and plugin identifiers used by the seeding scenarios.
const (
	DefaultTheme    = "twentytwentyfive"
	StorefrontTheme = "storefront"

	PluginCommerce   = "woocommerce/woocommerce.php"
	PluginCourseware = "sfwd-lms/sfwd_lms.php"
)

func (s *Site) InstallTheme(ctx context.Context, name string) error {
	_, err := s.exec(ctx, `INSERT INTO themes (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name)
	return err
}

func (s *Site) ThemeExists(ctx context.Context, name string) (bool, error) {
	var n int
	if err := s.queryRow(ctx, `SELECT COUNT(*) FROM themes WHERE name = ?`, name).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SwitchTheme activates an installed theme.
func (s *Site) SwitchTheme(ctx context.Context, name string) error {
	ok, err := s.ThemeExists(ctx, name)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrThemeNotFound, name)
	}
	return s.SetOption(ctx, OptionStylesheet, name)
}

// ActiveTheme returns the active theme, or "" when none was switched to.
func (s *Site) ActiveTheme(ctx context.Context) (string, error) {
	name, _, err := s.Option(ctx, OptionStylesheet)
	return name, err
}

func (s *Site) InstallPlugin(ctx context.Context, name string) error {
	_, err := s.exec(ctx, `INSERT INTO plugins (name, active) VALUES (?, 0) ON CONFLICT(name) DO NOTHING`, name)
	return err
}

// ActivatePlugin activates an installed plugin. Activating an active plugin
// is a no-op.
func (s *Site) ActivatePlugin(ctx context.Context, name string) error {
	res, err := s.exec(ctx, `UPDATE plugins SET active = 1 WHERE name = ?`, name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return nil
}

// DeactivatePlugins deactivates the named plugins. Unknown names are
// ignored.
func (s *Site) DeactivatePlugins(ctx context.Context, names ...string) error {
	for _, name := range names {
		if _, err := s.exec(ctx, `UPDATE plugins SET active = 0 WHERE name = ?`, name); err != nil {
			return err
		}
	}
	return nil
}

func (s *Site) ActivePlugins(ctx context.Context) ([]string, error) {
	rows, err := s.query(ctx, `SELECT name FROM plugins WHERE active = 1 ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
