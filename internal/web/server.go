package web

import (
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

//go:embed templates/*.html static/*.js static/*.css
var assetsFS embed.FS

type ServerConfig struct {
	Addr     string
	Engine   *workspace.Engine
	Log      zerolog.Logger
	ReadOnly bool

	// AuthMode is none|token. With token, every request needs a session signed
	// with Secret (see NewSessionToken).
	AuthMode string
	Secret   []byte
}

// Server exposes one engine over HTTP. The engine is single-threaded; every handler
// runs its engine work under mu.
type Server struct {
	mu   sync.Mutex
	eng  *workspace.Engine
	cfg  ServerConfig
	log  zerolog.Logger
	tmpl *template.Template
	hub  *viewHub
}

func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Engine == nil {
		return nil, errors.New("web: missing engine")
	}
	switch strings.TrimSpace(cfg.AuthMode) {
	case "", "none":
		cfg.AuthMode = "none"
	case "token":
		if len(cfg.Secret) == 0 {
			return nil, errors.New("web: token auth needs a secret")
		}
	default:
		return nil, errors.New("web: invalid auth mode " + cfg.AuthMode + " (expected none|token)")
	}
	tmpl, err := template.New("").Funcs(templateFuncs).ParseFS(assetsFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Server{
		eng:  cfg.Engine,
		cfg:  cfg,
		log:  cfg.Log,
		tmpl: tmpl,
		hub:  newViewHub(),
	}, nil
}

func (s *Server) Addr() string {
	return strings.TrimSpace(s.cfg.Addr)
}

// Notify wakes every open stream. Wire it to the engine's OnCommit.
func (s *Server) Notify() {
	s.hub.broadcast()
}

// view derives the current view under the engine lock.
func (s *Server) view() workspace.View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng.View()
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /", s.handleIndex)
	mux.HandleFunc("GET /static/app.js", s.handleStatic("static/app.js", "text/javascript; charset=utf-8"))
	mux.HandleFunc("GET /static/app.css", s.handleStatic("static/app.css", "text/css; charset=utf-8"))

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/stream", s.handleStream)
	mux.HandleFunc("GET /ws", s.handleWS)

	mux.HandleFunc("POST /api/refresh", s.write(s.handleRefresh))
	mux.HandleFunc("POST /api/pointer", s.write(s.handlePointer))
	mux.HandleFunc("POST /api/drop", s.write(s.handleDrop))
	mux.HandleFunc("POST /api/select", s.write(s.handleSelect))
	mux.HandleFunc("POST /api/sidebar", s.write(s.handleSidebar))
	mux.HandleFunc("POST /api/notice/dismiss", s.write(s.handleDismiss))

	mux.HandleFunc("POST /api/items/{key}/move", s.write(s.handleMoveItem))
	mux.HandleFunc("DELETE /api/items/{key}", s.write(s.handleRemoveItem))

	mux.HandleFunc("POST /api/groups", s.write(s.handleCreateGroup))
	mux.HandleFunc("POST /api/ungroup", s.write(s.handleUngroup))
	mux.HandleFunc("POST /api/groups/{id}/items", s.write(s.handleMoveToGroup))
	mux.HandleFunc("POST /api/groups/{id}/sources", s.write(s.handleAddSources))
	mux.HandleFunc("POST /api/groups/{id}/reorder", s.write(s.handleReorder))
	mux.HandleFunc("POST /api/groups/{id}/rename", s.write(s.handleRenameGroup))
	mux.HandleFunc("POST /api/groups/{id}/hide", s.write(s.handleHideGroup))
	mux.HandleFunc("POST /api/groups/{id}/show", s.write(s.handleShowGroup))
	mux.HandleFunc("POST /api/groups/{id}/place", s.write(s.handlePlaceGroup))
	mux.HandleFunc("DELETE /api/groups/{id}", s.write(s.handleDeleteGroup))

	mux.HandleFunc("POST /api/annotations", s.write(s.handleAddAnnotation))
	mux.HandleFunc("PATCH /api/annotations/{id}", s.write(s.handleEditAnnotation))
	mux.HandleFunc("POST /api/annotations/{id}/resize", s.write(s.handleResizeAnnotation))
	mux.HandleFunc("POST /api/annotations/{id}/activate", s.write(s.handleActivate))
	mux.HandleFunc("DELETE /api/annotations/{id}", s.write(s.handleDeleteAnnotation))

	mux.HandleFunc("POST /api/intents", s.write(s.handleIntent))

	return s.withAuth(mux)
}

func (s *Server) handleStatic(path, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b, err := assetsFS.ReadFile(path)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	v := s.view()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", pageVM{View: v, ReadOnly: s.cfg.ReadOnly}); err != nil {
		s.log.Error().Err(err).Msg("render index")
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

type pageVM struct {
	View     workspace.View
	ReadOnly bool
}

// viewHub fans commit notifications out to open streams. Slow subscribers miss
// wakeups, never block the engine.
type viewHub struct {
	mu   sync.Mutex
	subs map[chan struct{}]struct{}
}

func newViewHub() *viewHub {
	return &viewHub{subs: map[chan struct{}]struct{}{}}
}

func (h *viewHub) subscribe() (ch chan struct{}, cancel func()) {
	ch = make(chan struct{}, 8)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

func (h *viewHub) broadcast() {
	h.mu.Lock()
	for ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.mu.Unlock()
}

func (h *viewHub) size() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}
