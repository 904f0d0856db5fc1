package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/grouping"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
	"github.com/seong-yoon-choi/onbure-sub000/internal/selection"
	"github.com/seong-yoon-choi/onbure-sub000/internal/workspace"
)

const maxBodyBytes = 1 << 20

type apiError struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// errorStatus maps engine errors onto HTTP status codes.
func errorStatus(err error) (int, string) {
	var (
		ve mutate.ValidationError
		nf mutate.NotFoundError
		ce mutate.ConflictError
		fe mutate.ForbiddenError
		oe mutate.OwnerOnlyError
		re mutate.RemoteError
		be badRequest
	)
	switch {
	case errors.As(err, &be), errors.As(err, &ve):
		return http.StatusBadRequest, "validation"
	case errors.As(err, &nf):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &ce):
		return http.StatusConflict, "conflict"
	case errors.As(err, &fe), errors.As(err, &oe):
		return http.StatusForbidden, "forbidden"
	case errors.As(err, &re), errors.Is(err, workspace.ErrNoService):
		return http.StatusBadGateway, "remote"
	}
	return http.StatusInternalServerError, "internal"
}

type badRequest struct{ msg string }

func (e badRequest) Error() string { return e.msg }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	status, kind := errorStatus(err)
	writeJSON(w, status, map[string]any{"error": apiError{Kind: kind, Message: err.Error()}})
}

// decode reads an optional JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return badRequest{msg: "invalid json: " + err.Error()}
	}
	return nil
}

// write wraps a mutating handler: read-only gate, engine lock, envelope.
func (s *Server) write(fn func(r *http.Request) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.ReadOnly {
			writeError(w, mutate.ForbiddenError{Action: "edit (read-only server)"})
			return
		}
		s.mu.Lock()
		out, err := fn(r)
		rev := s.eng.Revision()
		s.mu.Unlock()
		if err != nil {
			s.log.Debug().Err(err).Str("path", r.URL.Path).Msg("api error")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": out, "revision": rev})
	}
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"data": s.view()})
}

func (s *Server) handleRefresh(r *http.Request) (any, error) {
	if err := s.eng.Refresh(r.Context()); err != nil {
		return nil, err
	}
	return map[string]any{"files": len(s.eng.Files()), "members": len(s.eng.Members())}, nil
}

type pointerReq struct {
	Phase     string        `json:"phase"` // down|move|up|cancel|click
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Button    int           `json:"button"`
	Modifier  bool          `json:"modifier"`
	DropGroup string        `json:"dropGroup"`
	Key       model.ItemKey `json:"key"`
}

func (s *Server) handlePointer(r *http.Request) (any, error) {
	var req pointerReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return s.applyPointer(req)
}

// applyPointer runs one pointer sample; callers hold mu.
func (s *Server) applyPointer(req pointerReq) (any, error) {
	ev := workspace.PointerEvent{
		Point:     model.Point{X: req.X, Y: req.Y},
		Button:    workspace.Button(req.Button),
		Modifier:  req.Modifier,
		DropGroup: req.DropGroup,
	}
	switch strings.ToLower(strings.TrimSpace(req.Phase)) {
	case "down":
		s.eng.PointerDown(ev)
	case "move":
		s.eng.PointerMove(ev)
	case "up":
		s.eng.PointerUp(ev)
	case "cancel":
		s.eng.PointerCancel()
	case "click":
		return map[string]any{"handled": s.eng.Click(req.Key)}, nil
	default:
		return nil, badRequest{msg: fmt.Sprintf("invalid phase %q (expected down|move|up|cancel|click)", req.Phase)}
	}
	return map[string]any{"interaction": s.eng.Interaction().Name()}, nil
}

type dropReq struct {
	Kind     model.SourceKind `json:"kind"`
	IDs      []string         `json:"ids"`
	X        float64          `json:"x"`
	Y        float64          `json:"y"`
	Modifier bool             `json:"modifier"`
	Group    string           `json:"group"`
}

func (s *Server) handleDrop(r *http.Request) (any, error) {
	var req dropReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		req.Kind = model.SourceFile
	}
	keys, err := s.eng.DropOnCanvas(workspace.Drop{
		Kind:      req.Kind,
		SourceIDs: req.IDs,
		Point:     model.Point{X: req.X, Y: req.Y},
		Modifier:  req.Modifier,
		Group:     req.Group,
	})
	if err != nil {
		return nil, err
	}
	return map[string]any{"keys": keys}, nil
}

type selectReq struct {
	Keys     []model.ItemKey `json:"keys"`
	Additive bool            `json:"additive"`
	All      bool            `json:"all"`
	Clear    bool            `json:"clear"`
	Rect     *model.Rect     `json:"rect"`
}

func (s *Server) handleSelect(r *http.Request) (any, error) {
	var req selectReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	var keys []model.ItemKey
	switch {
	case req.Clear:
		s.eng.ClearSelection()
	case req.All:
		keys = s.eng.SelectAll()
	case req.Rect != nil:
		keys = s.eng.SelectRect(req.Rect.Origin(), model.Point{X: req.Rect.Right(), Y: req.Rect.Bottom()})
	default:
		keys = s.eng.Select(req.Keys, req.Additive)
	}
	if keys == nil {
		keys = []model.ItemKey{}
	}
	return map[string]any{"selected": keys}, nil
}

type sidebarReq struct {
	Tab    string        `json:"tab"`
	List   string        `json:"list"`
	Toggle model.ItemKey `json:"toggle"`
	Folder string        `json:"folder"`
}

func (s *Server) handleSidebar(r *http.Request) (any, error) {
	var req sidebarReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.Tab != "" {
		tab, err := selection.ParseTab(req.Tab)
		if err != nil {
			return nil, badRequest{msg: err.Error()}
		}
		s.eng.SetSidebarTab(tab)
	}
	if !req.Toggle.IsZero() {
		list := selection.ListFiles
		if req.List == string(selection.ListEntries) {
			list = selection.ListEntries
		}
		s.eng.ToggleSidebarRow(list, req.Toggle)
	}
	if req.Folder != "" {
		open, err := s.eng.ToggleFolder(req.Folder)
		if err != nil {
			return nil, err
		}
		return map[string]any{"open": open}, nil
	}
	return map[string]any{"tab": s.eng.Sidebar().Tab()}, nil
}

func (s *Server) handleDismiss(r *http.Request) (any, error) {
	s.eng.DismissNotice()
	return map[string]any{"dismissed": true}, nil
}

func pathKey(r *http.Request) (model.ItemKey, error) {
	k, err := model.ParseItemKey(r.PathValue("key"))
	if err != nil {
		return model.ItemKey{}, badRequest{msg: err.Error()}
	}
	return k, nil
}

func (s *Server) handleMoveItem(r *http.Request) (any, error) {
	k, err := pathKey(r)
	if err != nil {
		return nil, err
	}
	var p model.Point
	if err := decode(r, &p); err != nil {
		return nil, err
	}
	at, err := s.eng.MoveItem(k, p)
	if err != nil {
		return nil, err
	}
	return map[string]any{"key": k, "at": at}, nil
}

func (s *Server) handleRemoveItem(r *http.Request) (any, error) {
	k, err := pathKey(r)
	if err != nil {
		return nil, err
	}
	if err := s.eng.RemoveItem(k); err != nil {
		return nil, err
	}
	return map[string]any{"removed": k}, nil
}

type keysReq struct {
	Keys []model.ItemKey `json:"keys"`
}

func (s *Server) handleCreateGroup(r *http.Request) (any, error) {
	var req keysReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if len(req.Keys) == 0 {
		return s.eng.GroupSelection()
	}
	return s.eng.CreateGroup(req.Keys)
}

func (s *Server) handleUngroup(r *http.Request) (any, error) {
	var req keysReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	keys := req.Keys
	if len(keys) == 0 {
		keys = s.eng.Selected()
	}
	if err := s.eng.Ungroup(keys); err != nil {
		return nil, err
	}
	return map[string]any{"ungrouped": keys}, nil
}

func (s *Server) handleMoveToGroup(r *http.Request) (any, error) {
	var req keysReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	id := r.PathValue("id")
	if err := s.eng.MoveToGroup(id, req.Keys); err != nil {
		return nil, err
	}
	return map[string]any{"group": id, "keys": req.Keys}, nil
}

func (s *Server) handleAddSources(r *http.Request) (any, error) {
	var req struct {
		Kind model.SourceKind `json:"kind"`
		IDs  []string         `json:"ids"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	if req.Kind == "" {
		req.Kind = model.SourceFile
	}
	return s.eng.AddSourcesToGroup(r.PathValue("id"), req.Kind, req.IDs)
}

func (s *Server) handleReorder(r *http.Request) (any, error) {
	var req struct {
		Source   model.ItemKey `json:"source"`
		Target   model.ItemKey `json:"target"`
		Position string        `json:"position"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	pos, err := grouping.ParsePosition(req.Position)
	if err != nil {
		return nil, badRequest{msg: err.Error()}
	}
	moved, err := s.eng.ReorderGroup(r.PathValue("id"), req.Source, req.Target, pos)
	if err != nil {
		return nil, err
	}
	return map[string]any{"moved": moved}, nil
}

func (s *Server) handleRenameGroup(r *http.Request) (any, error) {
	var req struct {
		Name string `json:"name"`
	}
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	id := r.PathValue("id")
	if err := s.eng.RenameGroup(id, req.Name); err != nil {
		return nil, err
	}
	return map[string]any{"group": id, "name": strings.TrimSpace(req.Name)}, nil
}

func (s *Server) handleHideGroup(r *http.Request) (any, error) {
	id := r.PathValue("id")
	if err := s.eng.HideGroup(id); err != nil {
		return nil, err
	}
	return map[string]any{"hidden": id}, nil
}

func (s *Server) handleShowGroup(r *http.Request) (any, error) {
	id := r.PathValue("id")
	if err := s.eng.ShowGroup(id); err != nil {
		return nil, err
	}
	return map[string]any{"shown": id}, nil
}

func (s *Server) handlePlaceGroup(r *http.Request) (any, error) {
	l := s.eng.Layout()
	anchor := model.Point{X: l.Width / 2, Y: l.Height / 2}
	if err := decode(r, &anchor); err != nil {
		return nil, err
	}
	keys, err := s.eng.PlaceGroupOnCanvas(r.PathValue("id"), anchor)
	if err != nil {
		return nil, err
	}
	return map[string]any{"placed": keys}, nil
}

func (s *Server) handleDeleteGroup(r *http.Request) (any, error) {
	id := r.PathValue("id")
	if err := s.eng.DeleteGroup(id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}

type annotationReq struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Title *string `json:"title"`
	Text  *string `json:"text"`
}

func (s *Server) handleAddAnnotation(r *http.Request) (any, error) {
	var req annotationReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	var title, text string
	if req.Title != nil {
		title = *req.Title
	}
	if req.Text != nil {
		text = *req.Text
	}
	return s.eng.AddAnnotation(model.Point{X: req.X, Y: req.Y}, title, text)
}

func (s *Server) handleEditAnnotation(r *http.Request) (any, error) {
	var req annotationReq
	if err := decode(r, &req); err != nil {
		return nil, err
	}
	return s.eng.EditAnnotation(r.PathValue("id"), workspace.AnnotationEdit{Title: req.Title, Text: req.Text})
}

func (s *Server) handleResizeAnnotation(r *http.Request) (any, error) {
	var sz canvas.Size
	if err := decode(r, &sz); err != nil {
		return nil, err
	}
	return s.eng.ResizeAnnotation(r.PathValue("id"), sz)
}

func (s *Server) handleActivate(r *http.Request) (any, error) {
	id := r.PathValue("id")
	if err := s.eng.Activate(id); err != nil {
		return nil, err
	}
	return map[string]any{"active": id}, nil
}

func (s *Server) handleDeleteAnnotation(r *http.Request) (any, error) {
	id := r.PathValue("id")
	if err := s.eng.DeleteAnnotation(id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}

func (s *Server) handleIntent(r *http.Request) (any, error) {
	var in workspace.Intent
	if err := decode(r, &in); err != nil {
		return nil, err
	}
	return s.eng.Dispatch(r.Context(), in)
}
