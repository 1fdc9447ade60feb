package company

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"company-chatbot/internal/domain"
)

// Store owns the currently loaded company profile. The profile is replaced
// wholesale on Reload; readers always see either the old or the new value.
type Store struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[domain.CompanyProfile]
}

// NewStore creates a Store for the profile file at path and performs the
// initial load. A missing or unreadable file leaves the store empty.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("company: profile path must not be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{path: path, logger: logger}
	s.Reload()
	return s, nil
}

// Path returns the profile file the store reads from.
func (s *Store) Path() string {
	return s.path
}

// Current returns the loaded profile, or nil when none is loaded.
func (s *Store) Current() *domain.CompanyProfile {
	return s.current.Load()
}

// Reload re-reads the profile file and replaces the in-memory value. It never
// fails: a missing or malformed file clears the profile.
func (s *Store) Reload() *domain.CompanyProfile {
	p, err := LoadFile(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Info("no company profile found", "path", s.path)
		p = nil
	case err != nil:
		s.logger.Warn("could not load company profile", "path", s.path, "err", err)
		p = nil
	default:
		s.logger.Info("loaded company profile", "path", s.path, "name", displayName(p))
	}
	s.current.Store(p)
	return p
}

// LoadFile decodes a profile from a JSON file, or a YAML file when the
// extension is .yaml or .yml.
func LoadFile(path string) (*domain.CompanyProfile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("company: read profile: %w", err)
	}
	var p domain.CompanyProfile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("company: decode yaml profile: %w", err)
		}
	default:
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("company: decode json profile: %w", err)
		}
	}
	return &p, nil
}

func displayName(p *domain.CompanyProfile) string {
	if p == nil || p.Name == "" {
		return "(unnamed)"
	}
	return p.Name
}
