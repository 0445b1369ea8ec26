package service

import (
	"sync"

	"tipjar/internal/models"
	"tipjar/internal/repository"
)

// TokenStore owns the single gateway bearer token: settings-table backed so it
// survives restarts, cached in memory so the reconciler does not hit the
// database every tick.
type TokenStore struct {
	mu       sync.RWMutex
	settings *repository.SettingRepository
	cached   string
	loaded   bool
}

func NewTokenStore(settings *repository.SettingRepository) *TokenStore {
	return &TokenStore{settings: settings}
}

func (s *TokenStore) Get() (string, error) {
	s.mu.RLock()
	if s.loaded {
		defer s.mu.RUnlock()
		return s.cached, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.cached, nil
	}
	v, err := s.settings.Get(models.SettingAccessToken)
	if err != nil {
		return "", err
	}
	s.cached = v
	s.loaded = true
	return v, nil
}

func (s *TokenStore) Set(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settings.Set(models.SettingAccessToken, token); err != nil {
		return err
	}
	s.cached = token
	s.loaded = true
	return nil
}

func (s *TokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.settings.Delete(models.SettingAccessToken); err != nil {
		return err
	}
	s.cached = ""
	s.loaded = true
	return nil
}

func (s *TokenStore) Authorized() bool {
	tok, err := s.Get()
	return err == nil && tok != ""
}
