package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image/png"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ziadkadry99/pageview/internal/catalog"
	"github.com/ziadkadry99/pageview/internal/document"
	"github.com/ziadkadry99/pageview/internal/logging"
	"github.com/ziadkadry99/pageview/internal/prefs"
	"github.com/ziadkadry99/pageview/internal/viewer"
)

// Default container size for sessions created without one.
const (
	defaultWidth  = 1024
	defaultHeight = 768
)

var errBadAction = errors.New("bad action")

// session is one open document bound to a renderer. Any number of
// WebSocket clients can follow it.
type session struct {
	ID         string
	DocumentID string
	Title      string
	CreatedAt  time.Time

	doc      document.Document
	renderer *viewer.Renderer

	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
	// idleGen invalidates expiry timers armed before the latest attach or
	// detach.
	idleGen   uint64
	idleTimer *time.Timer
	onIdle    func()
	idleAfter time.Duration
}

type sessionManager struct {
	idle time.Duration

	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionManager(idle time.Duration) *sessionManager {
	return &sessionManager{idle: idle, sessions: make(map[string]*session)}
}

// add registers s and starts its idle clock; a session nobody follows over
// WebSocket expires after m.idle.
func (m *sessionManager) add(s *session) {
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	s.mu.Lock()
	s.idleAfter = m.idle
	s.onIdle = func() { m.expire(s) }
	s.armIdleLocked()
	s.mu.Unlock()
}

// expire closes s if it is still registered and has no clients.
func (m *sessionManager) expire(s *session) {
	m.mu.Lock()
	if m.sessions[s.ID] != s {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	logging.Logger().Info("session expired", "session", s.ID, "document", s.DocumentID, "idle", m.idle)
	s.close()
}

func (m *sessionManager) get(id string) (*session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *sessionManager) remove(id string) (*session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	return s, ok
}

func (m *sessionManager) list() []*session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *sessionManager) closeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*session)
	m.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

// action is a viewer command sent over HTTP or WebSocket.
type action struct {
	Type           string  `json:"type"`
	Top            float64 `json:"top,omitempty"`
	Left           float64 `json:"left,omitempty"`
	DY             float64 `json:"dy,omitempty"`
	DX             float64 `json:"dx,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
	Scale          float64 `json:"scale,omitempty"`
	PreserveCenter bool    `json:"preserve_center,omitempty"`
	Page           int     `json:"page,omitempty"`
}

// event is a message pushed to WebSocket clients.
type event struct {
	Type      string               `json:"type"`
	SessionID string               `json:"session_id"`
	Page      int                  `json:"page,omitempty"`
	Scale     float64              `json:"scale,omitempty"`
	Width     int                  `json:"width,omitempty"`
	Height    int                  `json:"height,omitempty"`
	URL       string               `json:"url,omitempty"`
	Scroll    *viewer.ScrollChange `json:"scroll,omitempty"`
	Snapshot  *viewer.Snapshot     `json:"snapshot,omitempty"`
	Error     string               `json:"error,omitempty"`
}

// sessionView is the JSON form of a session.
type sessionView struct {
	ID         string           `json:"id"`
	DocumentID string           `json:"document_id"`
	Title      string           `json:"title"`
	CreatedAt  time.Time        `json:"created_at"`
	Snapshot   *viewer.Snapshot `json:"snapshot,omitempty"`
}

func (s *session) view(withSnapshot bool) sessionView {
	v := sessionView{ID: s.ID, DocumentID: s.DocumentID, Title: s.Title, CreatedAt: s.CreatedAt}
	if withSnapshot {
		snap := s.renderer.Snapshot()
		v.Snapshot = &snap
	}
	return v
}

func pageURL(sid string, page int) string {
	return fmt.Sprintf("/api/sessions/%s/pages/%d.png", sid, page)
}

// callbacks forwards renderer events to clients and persists the scale and
// current page.
func (s *session) callbacks(store *prefs.Store) viewer.Callbacks {
	return viewer.Callbacks{
		OnCurrentPageChanged: func(page int) {
			if err := store.SavePage(context.Background(), s.DocumentID, page); err != nil {
				logging.Logger().Warn("saving page", "document", s.DocumentID, "error", err)
			}
			s.broadcast(event{Type: "current_page", Page: page})
		},
		OnScaleChanged: func(scale float64) {
			if err := store.SaveScale(context.Background(), s.DocumentID, scale); err != nil {
				logging.Logger().Warn("saving scale", "document", s.DocumentID, "error", err)
			}
			s.broadcast(event{Type: "scale_changed", Scale: scale})
		},
		OnRenderError: func(index int, err error) {
			s.broadcast(event{Type: "render_error", Page: index, Error: err.Error()})
		},
		OnPageRendered: func(index int, bmp *document.Bitmap) {
			s.broadcast(event{
				Type:   "page_rendered",
				Page:   index,
				Width:  bmp.Width,
				Height: bmp.Height,
				URL:    pageURL(s.ID, index),
			})
		},
		OnScroll: func(c viewer.ScrollChange) {
			s.broadcast(event{Type: "scroll", Scroll: &c})
		},
	}
}

// attach adds c and stops the idle clock. It reports false once the
// session is closed.
func (s *session) attach(c *client) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.clients[c] = struct{}{}
	s.idleGen++
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	return true
}

// detach removes c; the last client leaving restarts the idle clock.
func (s *session) detach(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
	if len(s.clients) == 0 {
		s.armIdleLocked()
	}
}

func (s *session) armIdleLocked() {
	if s.closed || s.onIdle == nil {
		return
	}
	if s.idleTimer != nil {
		s.idleTimer.Stop()
	}
	s.idleGen++
	gen := s.idleGen
	s.idleTimer = time.AfterFunc(s.idleAfter, func() {
		s.mu.Lock()
		stale := s.idleGen != gen || len(s.clients) > 0 || s.closed
		s.mu.Unlock()
		if !stale {
			s.onIdle()
		}
	})
}

func (s *session) broadcast(ev event) {
	ev.SessionID = s.ID
	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.Unlock()

	for _, c := range clients {
		if err := c.send(ev); err != nil {
			logging.Logger().Debug("websocket send", "session", s.ID, "error", err)
		}
	}
}

func (s *session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.idleTimer != nil {
		s.idleTimer.Stop()
		s.idleTimer = nil
	}
	s.mu.Unlock()

	s.renderer.Close()
	if err := s.doc.Close(); err != nil {
		logging.Logger().Warn("closing document", "session", s.ID, "error", err)
	}
	s.mu.Lock()
	for c := range s.clients {
		c.conn.Close()
	}
	s.clients = map[*client]struct{}{}
	s.mu.Unlock()
}

// dispatch applies a to the session's renderer.
func (s *session) dispatch(ctx context.Context, a action) error {
	r := s.renderer
	switch a.Type {
	case "scroll":
		r.ScrollTo(a.Top, a.Left)
	case "scroll_by":
		r.ScrollBy(a.DY, a.DX)
	case "resize":
		if a.Width <= 0 || a.Height <= 0 {
			return fmt.Errorf("%w: resize needs a positive width and height", errBadAction)
		}
		r.Resize(a.Width, a.Height)
	case "zoom":
		if a.Scale <= 0 {
			return fmt.Errorf("%w: zoom needs a positive scale", errBadAction)
		}
		return r.SetScale(a.Scale, a.PreserveCenter)
	case "zoom_in":
		return r.ZoomIn()
	case "zoom_out":
		return r.ZoomOut()
	case "fit":
		return r.FitToPage()
	case "goto":
		return r.GoToPage(a.Page)
	case "next":
		return r.NextPage()
	case "prev":
		return r.PrevPage()
	case "render":
		return r.RenderPage(ctx, a.Page)
	case "refresh":
		r.Refresh()
	case "snapshot":
	default:
		return fmt.Errorf("%w: unknown action type %q", errBadAction, a.Type)
	}
	return nil
}

// openSession opens a catalog document and binds it to a new renderer,
// restoring the last saved scale and page.
func (s *Server) openSession(ctx context.Context, ref string, width, height float64) (*session, error) {
	doc, entry, err := s.catalog.Open(ref)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, err
		}
		return nil, &viewer.DocumentLoadError{Err: err}
	}

	cfg := s.cfg.Viewer
	if scale, ok, err := s.prefs.LastScale(ctx, entry.ID); err == nil && ok {
		cfg.InitialScale = scale
	}

	sess := &session{
		ID:         uuid.New().String(),
		DocumentID: entry.ID,
		Title:      entry.Title,
		CreatedAt:  time.Now(),
		doc:        doc,
		clients:    make(map[*client]struct{}),
	}
	r, err := viewer.New(context.Background(), doc, viewer.Size{Width: width, Height: height}, cfg,
		viewer.WithCallbacks(sess.callbacks(s.prefs)))
	if err != nil {
		doc.Close()
		return nil, err
	}
	sess.renderer = r

	if page, ok, err := s.prefs.LastPage(ctx, entry.ID); err == nil && ok && page > 1 && page <= r.PageCount() {
		if err := r.GoToPage(page); err != nil {
			logging.Logger().Warn("restoring page", "document", entry.ID, "page", page, "error", err)
		}
	}
	if err := s.prefs.RecordOpen(ctx, entry.ID, prefs.FrontendWeb); err != nil {
		logging.Logger().Warn("recording open", "document", entry.ID, "error", err)
	}

	s.sessions.add(sess)
	logging.Logger().Info("session opened", "session", sess.ID, "document", entry.RelPath, "pages", r.PageCount())
	return sess, nil
}

// statusFor maps viewer and catalog errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, viewer.ErrDocumentLoad):
		return http.StatusUnprocessableEntity
	case errors.Is(err, viewer.ErrOutOfRange), errors.Is(err, errBadAction):
		return http.StatusBadRequest
	case errors.Is(err, viewer.ErrScaleLimit):
		return http.StatusConflict
	case errors.Is(err, viewer.ErrClosed):
		return http.StatusGone
	default:
		return http.StatusInternalServerError
	}
}

type createSessionRequest struct {
	DocumentID string  `json:"document_id"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.DocumentID == "" {
		writeError(w, http.StatusBadRequest, "document_id is required")
		return
	}
	if req.Width <= 0 {
		req.Width = defaultWidth
	}
	if req.Height <= 0 {
		req.Height = defaultHeight
	}

	sess, err := s.openSession(r.Context(), req.DocumentID, req.Width, req.Height)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, sess.view(true))
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	all := s.sessions.list()
	views := make([]sessionView, len(all))
	for i, sess := range all {
		views[i] = sess.view(false)
	}
	writeJSON(w, http.StatusOK, views)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, sess.view(true))
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.remove(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	sess.close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	var a action
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := sess.dispatch(r.Context(), a); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, sess.view(true))
}

func (s *Server) handlePageImage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessions.get(chi.URLParam(r, "sid"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	file := chi.URLParam(r, "file")
	page, err := strconv.Atoi(strings.TrimSuffix(file, ".png"))
	if err != nil || !strings.HasSuffix(file, ".png") {
		writeError(w, http.StatusBadRequest, "expected <page>.png")
		return
	}
	bmp, ok := sess.renderer.Surface(page)
	if !ok || bmp == nil {
		writeError(w, http.StatusNotFound, "page not rendered")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if err := png.Encode(w, bmp.Image); err != nil {
		logging.Logger().Warn("encoding page", "session", sess.ID, "page", page, "error", err)
	}
}
