package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"taleweaver/client/internal/engine"
	"taleweaver/client/internal/storage"
	"taleweaver/client/internal/story"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// StateView is the client-facing rendering of one session.
type StateView struct {
	SessionID  string              `json:"session_id"`
	Messages   []story.ChatMessage `json:"messages"`
	ImageURL   string              `json:"image_url,omitempty"`
	Choices    []string            `json:"choices"`
	CanUndo    bool                `json:"can_undo"`
	CanRedo    bool                `json:"can_redo"`
	Muted      bool                `json:"muted"`
	FontSize   int                 `json:"font_size"`
	FontFamily string              `json:"font_family"`
}

type apiResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error,omitempty"`
	State   *StateView  `json:"state,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// SessionHandlers serves the session API.
type SessionHandlers struct {
	manager      *engine.SessionManager
	orchestrator *engine.Orchestrator
	redisStore   *storage.RedisStore
	mysqlStore   *storage.MySQLStore
	hub          *EventHub
	logger       *log.Logger
}

// NewSessionHandlers creates the session handler set. redisStore and
// mysqlStore may be nil; the matching save endpoints then report unavailable.
func NewSessionHandlers(
	manager *engine.SessionManager,
	orchestrator *engine.Orchestrator,
	redisStore *storage.RedisStore,
	mysqlStore *storage.MySQLStore,
	hub *EventHub,
) *SessionHandlers {
	return &SessionHandlers{
		manager:      manager,
		orchestrator: orchestrator,
		redisStore:   redisStore,
		mysqlStore:   mysqlStore,
		hub:          hub,
		logger:       log.With("component", "web"),
	}
}

func writeJSON(w http.ResponseWriter, status int, resp apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiResponse{Success: false, Error: msg})
}

func (h *SessionHandlers) stateView(sess *engine.Session) *StateView {
	current := sess.History.Current()
	size, family := sess.FontPrefs()
	return &StateView{
		SessionID:  sess.ID,
		Messages:   sess.VisibleMessages(),
		ImageURL:   current.ImageURL,
		Choices:    current.Choices,
		CanUndo:    sess.History.Cursor() > 0,
		CanRedo:    sess.History.Cursor() < sess.History.Len()-1,
		Muted:      sess.Muted(),
		FontSize:   size,
		FontFamily: family,
	}
}

func (h *SessionHandlers) session(w http.ResponseWriter, r *http.Request) (*engine.Session, bool) {
	id := chi.URLParam(r, "session_id")
	sess, err := h.manager.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return sess, true
}

// CreateSession starts a new story session.
func (h *SessionHandlers) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess := h.manager.Create()
	h.logger.Info("session created", "session", sess.ID)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// GetState returns the session's current visible state.
func (h *SessionHandlers) GetState(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// SubmitTurnRequest carries the user's free-text action or chosen option.
type SubmitTurnRequest struct {
	Input string `json:"input"`
}

// SubmitTurn runs one story turn.
func (h *SessionHandlers) SubmitTurn(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SubmitTurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.orchestrator.SubmitTurn(r.Context(), sess, req.Input)
	switch {
	case errors.Is(err, engine.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "input is empty")
		return
	case errors.Is(err, engine.ErrTurnInFlight):
		writeError(w, http.StatusConflict, "a turn is already in flight")
		return
	case errors.Is(err, engine.ErrTurnFailed):
		h.hub.Broadcast(Event{Type: "turn_failed", SessionID: sess.ID})
		// The apology is already in the visible state; surface it.
		writeJSON(w, http.StatusBadGateway, apiResponse{
			Success: false,
			Error:   "turn failed",
			State:   h.stateView(sess),
		})
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.hub.Broadcast(Event{Type: "turn_committed", SessionID: sess.ID})
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// Undo steps the story back one snapshot.
func (h *SessionHandlers) Undo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if sess.Undo() {
		h.hub.Broadcast(Event{Type: "history_moved", SessionID: sess.ID})
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// Redo steps the story forward one snapshot.
func (h *SessionHandlers) Redo(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if sess.Redo() {
		h.hub.Broadcast(Event{Type: "history_moved", SessionID: sess.ID})
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// SetMuteRequest toggles ambiance audibility.
type SetMuteRequest struct {
	Muted bool `json:"muted"`
}

// SetMute toggles the session's ambiance mute flag.
func (h *SessionHandlers) SetMute(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetMuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.SetMuted(req.Muted)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// SetPrefsRequest updates display preferences.
type SetPrefsRequest struct {
	FontSize   int    `json:"font_size"`
	FontFamily string `json:"font_family"`
}

// SetPrefs updates the session's display preferences.
func (h *SessionHandlers) SetPrefs(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SetPrefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	sess.SetFontPrefs(req.FontSize, req.FontFamily)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// SaveRequest names a durable slot; an empty slot means the quick save.
type SaveRequest struct {
	Slot string `json:"slot"`
}

// Save persists the session: the quick slot to Redis, named slots to MySQL.
func (h *SessionHandlers) Save(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	blob, err := json.Marshal(sess.ExportBlob())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to serialize session")
		return
	}

	if req.Slot == "" {
		if h.redisStore == nil {
			writeError(w, http.StatusServiceUnavailable, "quick save storage unavailable")
			return
		}
		err = h.redisStore.SaveQuickSlot(r.Context(), sess.ID, blob)
	} else {
		if h.mysqlStore == nil {
			writeError(w, http.StatusServiceUnavailable, "save slot storage unavailable")
			return
		}
		err = h.mysqlStore.UpsertSaveSlot(sess.ID, req.Slot, blob)
	}
	if err != nil {
		h.logger.Error("save failed", "session", sess.ID, "slot", req.Slot, "err", err)
		writeError(w, http.StatusInternalServerError, "save failed")
		return
	}

	h.hub.Broadcast(Event{Type: "saved", SessionID: sess.ID, Data: req.Slot})
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// Load restores the session from a saved slot, stopping playback first.
func (h *SessionHandlers) Load(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req SaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var (
		data []byte
		err  error
	)
	if req.Slot == "" {
		if h.redisStore == nil {
			writeError(w, http.StatusServiceUnavailable, "quick save storage unavailable")
			return
		}
		data, err = h.redisStore.LoadQuickSlot(r.Context(), sess.ID)
	} else {
		if h.mysqlStore == nil {
			writeError(w, http.StatusServiceUnavailable, "save slot storage unavailable")
			return
		}
		data, err = h.mysqlStore.LoadSaveSlot(sess.ID, req.Slot)
	}
	if errors.Is(err, storage.ErrNoSave) {
		writeError(w, http.StatusNotFound, "no saved state")
		return
	}
	if err != nil {
		h.logger.Error("load failed", "session", sess.ID, "slot", req.Slot, "err", err)
		writeError(w, http.StatusInternalServerError, "load failed")
		return
	}

	var blob engine.SessionBlob
	if err := json.Unmarshal(data, &blob); err != nil {
		writeError(w, http.StatusInternalServerError, "saved state is corrupt")
		return
	}

	sess.ApplyBlob(blob)
	h.hub.Broadcast(Event{Type: "loaded", SessionID: sess.ID, Data: req.Slot})
	writeJSON(w, http.StatusOK, apiResponse{Success: true, State: h.stateView(sess)})
}

// ListSaves returns the named slots saved for the session.
func (h *SessionHandlers) ListSaves(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	if h.mysqlStore == nil {
		writeError(w, http.StatusServiceUnavailable, "save slot storage unavailable")
		return
	}

	names, err := h.mysqlStore.ListSaveSlots(sess.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list saves")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: names})
}

// ServeWS upgrades the connection and attaches the client to the hub.
func (h *SessionHandlers) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "err", err)
		return
	}

	client := &Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  h.hub,
	}
	h.hub.register <- client
	go client.readPump()
}

// HealthCheck reports service liveness.
func (h *SessionHandlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "ok",
		"service": "taleweaver",
	})
}
