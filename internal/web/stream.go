package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/starfederation/datastar-go/datastar"

	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

const (
	keepAliveEvery = 25 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// handleStream is the Datastar SSE feed for the index page: the canvas and sidebar
// fragments are re-patched after every commit.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	ch, cancel := s.hub.subscribe()
	defer cancel()

	sse := datastar.NewSSE(w, r)
	keepAlive := time.NewTicker(keepAliveEvery)
	defer keepAlive.Stop()

	patch := func() {
		v := s.view()
		for _, frag := range []string{"canvas", "sidebar", "notice"} {
			html, err := s.renderFragment(frag, v)
			if err != nil {
				_ = sse.ExecuteScript("console.error(" + jsString(err.Error()) + ")")
				return
			}
			_ = sse.PatchElements(html, datastar.WithSelector("#"+frag), datastar.WithMode(datastar.ElementPatchModeOuter))
		}
		_ = sse.MarshalAndPatchSignals(map[string]any{
			"revision":    v.Revision,
			"interaction": v.Interaction,
			"selected":    len(v.Canvas.Selected),
		})
	}
	patch()

	for {
		select {
		case <-sse.Context().Done():
			return
		case <-keepAlive.C:
			_ = sse.PatchSignals([]byte(`{}`))
		case <-ch:
			patch()
		}
	}
}

func (s *Server) renderFragment(name string, v workspace.View) (string, error) {
	var b bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&b, name, v); err != nil {
		return "", err
	}
	return b.String(), nil
}

func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  32 * 1024,
	WriteBufferSize: 32 * 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := strings.TrimSpace(r.Header.Get("Origin"))
		if origin == "" {
			return true
		}
		return strings.Contains(origin, "://"+strings.TrimSpace(r.Host))
	},
}

// wsIn is one client frame: a pointer sample (same fields as POST /api/pointer).
type wsIn struct {
	Type string `json:"type"`
	pointerReq
}

type wsOut struct {
	Type  string          `json:"type"` // view|error
	View  *workspace.View `json:"view,omitempty"`
	Error *apiError       `json:"error,omitempty"`
}

// handleWS pushes the full view on connect and after every commit, and accepts
// pointer frames so a browser can drive drags without a request per sample.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, "websocket upgrade failed", http.StatusBadRequest)
		return
	}
	defer conn.Close()

	ch, cancel := s.hub.subscribe()
	defer cancel()

	out := make(chan wsOut, 8)
	done := make(chan struct{})
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		defer close(done)
		s.readWS(conn, out, stop)
	}()

	send := func(m wsOut) bool {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		return conn.WriteJSON(m) == nil
	}
	pushView := func() bool {
		v := s.view()
		return send(wsOut{Type: "view", View: &v})
	}
	if !pushView() {
		return
	}

	ping := time.NewTicker(keepAliveEvery)
	defer ping.Stop()
	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case m := <-out:
			if !send(m) {
				return
			}
		case <-ch:
			if !pushView() {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (s *Server) readWS(conn *websocket.Conn, out chan<- wsOut, stop <-chan struct{}) {
	reply := func(m wsOut) {
		select {
		case out <- m:
		case <-stop:
		}
	}
	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.TextMessage || len(data) == 0 {
			continue
		}
		var in wsIn
		if err := json.Unmarshal(data, &in); err != nil {
			reply(wsOut{Type: "error", Error: &apiError{Kind: "validation", Message: "invalid json"}})
			continue
		}
		if strings.ToLower(strings.TrimSpace(in.Type)) != "pointer" {
			continue
		}
		if s.cfg.ReadOnly {
			reply(wsOut{Type: "error", Error: &apiError{Kind: "forbidden", Message: "read-only server"}})
			continue
		}
		s.mu.Lock()
		_, err = s.applyPointer(in.pointerReq)
		s.mu.Unlock()
		if err != nil {
			_, kind := errorStatus(err)
			reply(wsOut{Type: "error", Error: &apiError{Kind: kind, Message: err.Error()}})
		}
	}
}
