// Package settings owns household preferences and the admin session flag.
package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/store"
)

var ErrInvalidTheme = errors.New("invalid theme")

type Service struct {
	mu       sync.RWMutex
	kv       store.KV
	logger   *slog.Logger
	now      func() time.Time
	settings model.Settings
}

func New(kv store.KV, logger *slog.Logger) *Service {
	s := &Service{kv: kv, logger: logger, now: time.Now}
	s.settings = s.defaults()
	return s
}

func (s *Service) defaults() model.Settings {
	now := s.now()
	return model.Settings{
		LastDailyReset:       now,
		LastWeeklyReset:      now,
		NotificationsEnabled: true,
		Theme:                model.ThemeLight,
	}
}

// Load hydrates settings. A missing slot yields defaults; a corrupt one is
// replaced with defaults and re-persisted. The admin session never survives a
// restart.
func (s *Service) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	settings := s.defaults()
	found, err := store.LoadJSON(s.kv, store.KeySettings, &settings)
	if errors.Is(err, store.ErrCorrupt) {
		s.logger.Warn("resetting corrupt settings slot", "error", err)
		return s.commit(s.defaults())
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if settings.Theme == "" {
		settings.Theme = model.ThemeLight
	}

	if found && settings.IsAuthenticated {
		settings.IsAuthenticated = false
		return s.commit(settings)
	}
	s.settings = settings
	return nil
}

func (s *Service) commit(next model.Settings) error {
	if err := store.SaveJSON(s.kv, store.KeySettings, next); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	s.settings = next
	return nil
}

// Get returns a copy of the settings with the password redacted.
func (s *Service) Get() model.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.settings
	out.AdminPassword = nil
	return out
}

type Patch struct {
	NotificationsEnabled *bool        `json:"notificationsEnabled"`
	Theme                *model.Theme `json:"theme"`
}

func (s *Service) Update(p Patch) (model.Settings, error) {
	if p.Theme != nil && *p.Theme != model.ThemeLight && *p.Theme != model.ThemeDark {
		return model.Settings{}, fmt.Errorf("%w: %q", ErrInvalidTheme, *p.Theme)
	}

	s.mu.Lock()
	next := s.settings
	if p.NotificationsEnabled != nil {
		next.NotificationsEnabled = *p.NotificationsEnabled
	}
	if p.Theme != nil {
		next.Theme = *p.Theme
	}
	err := s.commit(next)
	s.mu.Unlock()
	if err != nil {
		return model.Settings{}, err
	}
	return s.Get(), nil
}

// SetAdminPassword stores a bcrypt hash of password. An empty password
// removes admin protection entirely.
func (s *Service) SetAdminPassword(password string) error {
	var stored *string
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		stored = &h
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	next.AdminPassword = stored
	return s.commit(next)
}

func (s *Service) HasAdminPassword() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.AdminPassword != nil && *s.settings.AdminPassword != ""
}

func (s *Service) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.IsAuthenticated
}

// Login checks password against the stored admin password and opens the
// admin session on success. Legacy plaintext passwords are rehashed on the
// first successful login.
func (s *Service) Login(password string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.settings.AdminPassword == nil || *s.settings.AdminPassword == "" {
		return false, nil
	}
	stored := *s.settings.AdminPassword

	next := s.settings
	if isBcryptHash(stored) {
		if bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) != nil {
			return false, nil
		}
	} else {
		if stored != password {
			return false, nil
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return false, fmt.Errorf("hash password: %w", err)
		}
		h := string(hash)
		next.AdminPassword = &h
		s.logger.Info("upgraded plaintext admin password")
	}

	next.IsAuthenticated = true
	if err := s.commit(next); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.settings.IsAuthenticated {
		return nil
	}
	next := s.settings
	next.IsAuthenticated = false
	return s.commit(next)
}

func (s *Service) MarkDailyReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	next.LastDailyReset = s.now()
	return s.commit(next)
}

func (s *Service) MarkWeeklyReset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.settings
	next.LastWeeklyReset = s.now()
	return s.commit(next)
}

// ResetData wipes every data slot and restores default settings, keeping only
// the admin password. Callers must reload the other modules afterwards.
func (s *Service) ResetData() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.kv.Delete(store.DataKeys...); err != nil {
		return fmt.Errorf("delete data: %w", err)
	}

	next := s.defaults()
	next.AdminPassword = s.settings.AdminPassword
	return s.commit(next)
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
