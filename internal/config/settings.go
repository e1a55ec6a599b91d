package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/ncruces/go-strftime"
)

// Access modes.
const (
	AccessStaff         = "staff"
	AccessAuthenticated = "authenticated"
	AccessCasbin        = "casbin"
)

// Settings holds the editor settings read from the TOML settings file.
type Settings struct {
	DisplayedItems int            `toml:"displayed_items"`
	DateFormat     string         `toml:"date_format"`
	MaxDays        int            `toml:"max_days"`
	Access         AccessSettings `toml:"access"`
}

// AccessSettings selects who may use the editor.
type AccessSettings struct {
	Mode         string `toml:"mode"`
	StaffGroup   string `toml:"staff_group"`
	CasbinModel  string `toml:"casbin_model,omitempty"`
	CasbinPolicy string `toml:"casbin_policy,omitempty"`
}

// DefaultSettings returns the default settings.
func DefaultSettings() Settings {
	return Settings{
		DisplayedItems: 14,
		DateFormat:     "%d-%m-%Y",
		MaxDays:        366,
		Access: AccessSettings{
			Mode:       AccessStaff,
			StaffGroup: "staff",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "datedvalues")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "datedvalues")
}

// SettingsPath returns the default settings file path.
func SettingsPath() string {
	return filepath.Join(Dir(), "settings.toml")
}

// LoadSettings reads the settings file at path over the defaults. A missing
// file yields the defaults. DATED_VALUES_DISPLAYED_ITEMS and
// DATED_VALUES_DATE_FORMAT override the file.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return s, fmt.Errorf("reading settings: %w", err)
	default:
		if err := toml.Unmarshal(data, &s); err != nil {
			return s, fmt.Errorf("parsing settings: %w", err)
		}
	}

	if v := os.Getenv("DATED_VALUES_DISPLAYED_ITEMS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return s, fmt.Errorf("DATED_VALUES_DISPLAYED_ITEMS: %w", err)
		}
		s.DisplayedItems = n
	}
	if v := os.Getenv("DATED_VALUES_DATE_FORMAT"); v != "" {
		s.DateFormat = v
	}

	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// SaveSettings writes s to path, creating the directory if needed.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating settings dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating settings file: %w", err)
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(s)
}

// Validate checks the settings for values the editor cannot work with.
func (s Settings) Validate() error {
	if s.DisplayedItems < 1 {
		return fmt.Errorf("displayed_items must be at least 1, got %d", s.DisplayedItems)
	}
	if s.MaxDays < 1 {
		return fmt.Errorf("max_days must be at least 1, got %d", s.MaxDays)
	}
	if s.DisplayedItems > s.MaxDays {
		return fmt.Errorf("displayed_items (%d) exceeds max_days (%d)", s.DisplayedItems, s.MaxDays)
	}
	if s.DateFormat == "" {
		return fmt.Errorf("date_format is required")
	}
	switch s.Access.Mode {
	case AccessStaff, AccessAuthenticated:
	case AccessCasbin:
		if s.Access.CasbinModel == "" || s.Access.CasbinPolicy == "" {
			return fmt.Errorf("access mode %q requires casbin_model and casbin_policy", AccessCasbin)
		}
	default:
		return fmt.Errorf("unknown access mode %q", s.Access.Mode)
	}
	return nil
}

// FormatDate renders t with the strftime date format.
func (s Settings) FormatDate(t time.Time) string {
	return strftime.Format(s.DateFormat, t)
}

// ParseDate parses a date rendered with the strftime date format.
func (s Settings) ParseDate(v string) (time.Time, error) {
	t, err := strftime.Parse(s.DateFormat, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q with format %q: %w", v, s.DateFormat, err)
	}
	return t, nil
}
