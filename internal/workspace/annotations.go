package workspace

import (
	"strings"

	"github.com/seong-yoon-choi/onbure-sub000/internal/canvas"
	"github.com/seong-yoon-choi/onbure-sub000/internal/model"
	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
)

// AddAnnotation creates an annotation of the mode's kind at p with the default expanded
// size and makes it the active one.
func (e *Engine) AddAnnotation(p model.Point, title, text string) (model.Annotation, error) {
	kind := model.AnnotationKindFor(e.scope.Mode)
	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultTitle(kind)
	}
	sz := e.layout.Annotation(kind).Default
	pos := e.layout.Clamp(p, sz.W, sz.H)
	sz = e.layout.ClampSize(kind, pos, sz)

	author := e.scope.ViewerID
	if m, ok := e.member(author); ok && m.Name != "" {
		author = m.Name
	}
	now := e.now().UTC()
	a := model.Annotation{
		ID:         e.newID("ann"),
		Kind:       kind,
		Title:      title,
		AuthorID:   e.scope.ViewerID,
		AuthorName: author,
		X:          pos.X,
		Y:          pos.Y,
		Width:      sz.W,
		Height:     sz.H,
		Text:       text,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	e.annotations = append(e.annotations, a)
	e.active = a.ID
	e.commit()
	return a, nil
}

func defaultTitle(kind model.AnnotationKind) string {
	if kind == model.AnnotationComment {
		return "Comment"
	}
	return "Memo"
}

// AnnotationEdit carries the fields to change; nil leaves a field as is.
type AnnotationEdit struct {
	Title *string
	Text  *string
}

func (e *Engine) EditAnnotation(id string, edit AnnotationEdit) (model.Annotation, error) {
	i, ok := e.annotationIndex(id)
	if !ok {
		return model.Annotation{}, mutate.NotFoundError{Kind: "annotation", ID: id}
	}
	a := &e.annotations[i]
	if edit.Title != nil {
		t := strings.TrimSpace(*edit.Title)
		if t == "" {
			return model.Annotation{}, mutate.ValidationError{Field: "title", Reason: "empty"}
		}
		a.Title = t
	}
	if edit.Text != nil {
		a.Text = *edit.Text
	}
	a.UpdatedAt = e.now().UTC()
	out := *a
	e.commit()
	return out, nil
}

// ResizeAnnotation sets the expanded size, bounded to the kind's limits and the canvas.
func (e *Engine) ResizeAnnotation(id string, want canvas.Size) (canvas.Size, error) {
	i, ok := e.annotationIndex(id)
	if !ok {
		return canvas.Size{}, mutate.NotFoundError{Kind: "annotation", ID: id}
	}
	a := &e.annotations[i]
	sz := e.layout.ClampSize(a.Kind, model.Point{X: a.X, Y: a.Y}, want)
	a.Width, a.Height = sz.W, sz.H
	e.commit()
	return sz, nil
}

func (e *Engine) DeleteAnnotation(id string) error {
	i, ok := e.annotationIndex(id)
	if !ok {
		return mutate.NotFoundError{Kind: "annotation", ID: id}
	}
	e.annotations = append(e.annotations[:i], e.annotations[i+1:]...)
	if e.active == id {
		e.active = ""
	}
	e.groups.Forget([]model.ItemKey{model.AnnotationKey(id)})
	e.commit()
	return nil
}

// Activate expands an annotation. Only one annotation is active per scope.
func (e *Engine) Activate(id string) error {
	if _, ok := e.annotationIndex(id); !ok {
		return mutate.NotFoundError{Kind: "annotation", ID: id}
	}
	e.activate(id)
	e.commit()
	return nil
}

func (e *Engine) Deactivate() {
	if e.active == "" {
		return
	}
	e.active = ""
	e.changed()
}

// activate refits the annotation so its expanded footprint stays on the canvas.
func (e *Engine) activate(id string) {
	i, ok := e.annotationIndex(id)
	if !ok {
		return
	}
	a := &e.annotations[i]
	sz := e.layout.AnnotationSize(*a, true)
	pos := e.layout.Clamp(model.Point{X: a.X, Y: a.Y}, sz.W, sz.H)
	sz = e.layout.ClampSize(a.Kind, pos, sz)
	a.X, a.Y = pos.X, pos.Y
	a.Width, a.Height = sz.W, sz.H
	e.active = id
}
