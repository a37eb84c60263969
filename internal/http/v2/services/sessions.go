// Package services contiene la lógica de negocio de la API v2.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/cache"
	"github.com/dropDatabas3/gatejohn/internal/flow"
	tokens "github.com/dropDatabas3/gatejohn/internal/security/token"
)

const (
	sessionKeyPrefix = "flow:sess:"
	sessionTTL       = 30 * time.Minute
)

// SessionStore persiste el SessionState del flujo en cache, keyed por el
// session ID de la cookie de navegador.
type SessionStore struct {
	Cache cache.Client
}

// wire format: el ToMap del estado más el user id autenticado.
type sessionRecord struct {
	UserID string         `json:"user_id,omitempty"`
	State  map[string]any `json:"state"`
}

// NewSessionID genera un session ID opaco para la cookie.
func (s *SessionStore) NewSessionID() (string, error) {
	return tokens.GenerateOpaqueToken(32)
}

// Load recupera el estado de sesión; sesión inexistente devuelve estado
// vacío y user "".
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*flow.SessionState, string, error) {
	if sessionID == "" {
		return &flow.SessionState{}, "", nil
	}
	raw, err := s.Cache.Get(ctx, sessionKeyPrefix+sessionID)
	if err != nil {
		if cache.IsNotFound(err) {
			return &flow.SessionState{}, "", nil
		}
		return nil, "", err
	}
	var rec sessionRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		// Sesión corrupta: tratar como vacía.
		return &flow.SessionState{}, "", nil
	}
	return flow.SessionFromMap(rec.State), rec.UserID, nil
}

// Save persiste el estado con TTL renovado.
func (s *SessionStore) Save(ctx context.Context, sessionID string, state *flow.SessionState, userID string) error {
	rec := sessionRecord{UserID: userID, State: state.ToMap()}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, sessionKeyPrefix+sessionID, string(b), sessionTTL)
}

// Drop elimina la sesión (logout).
func (s *SessionStore) Drop(ctx context.Context, sessionID string) error {
	return s.Cache.Delete(ctx, sessionKeyPrefix+sessionID)
}
