package auth

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dshills/folio/internal/store"
)

// StoreKey is where the session is persisted between runs.
const StoreKey = "auth_token"

// Session is an authenticated admin session.
type Session struct {
	Token    string    `json:"token"`
	Username string    `json:"username,omitempty"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Valid reports whether the session carries a token.
func (s *Session) Valid() bool {
	return s != nil && s.Token != ""
}

// Holder owns the current session. The zero value is logged out.
type Holder struct {
	current atomic.Pointer[Session]
	store   store.Store
	logger  *slog.Logger
}

// NewHolder creates a holder and restores a persisted session from st, if any.
// st may be nil for a purely in-memory holder.
func NewHolder(st store.Store, logger *slog.Logger) *Holder {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Holder{store: st, logger: logger}
	if st == nil {
		return h
	}
	raw, ok := st.Get(StoreKey)
	if !ok {
		return h
	}
	var s Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil || s.Token == "" {
		logger.Debug("Ignoring unreadable stored session")
		return h
	}
	h.current.Store(&s)
	return h
}

// Session returns the current session or nil when logged out.
func (h *Holder) Session() *Session {
	return h.current.Load()
}

// Token returns the bearer token, or "" when logged out.
func (h *Holder) Token() string {
	if s := h.current.Load(); s.Valid() {
		return s.Token
	}
	return ""
}

// Login replaces the current session.
func (h *Holder) Login(s Session) {
	h.current.Store(&s)
	if h.store == nil {
		return
	}
	data, err := json.Marshal(s)
	if err != nil {
		return
	}
	store.SetBestEffort(h.store, h.logger, StoreKey, string(data))
}

// Logout drops the current session.
func (h *Holder) Logout() {
	h.current.Store(nil)
	if h.store == nil {
		return
	}
	if err := h.store.Remove(StoreKey); err != nil {
		h.logger.Debug("Failed to remove stored session", slog.Any("error", err))
	}
}
