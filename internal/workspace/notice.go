package workspace

import (
	"errors"
	"time"

	"github.com/seong-yoon-choi/onbure-sub000/internal/mutate"
)

type NoticeKind string

const (
	NoticeValidation NoticeKind = "validation"
	NoticeConflict   NoticeKind = "conflict"
	NoticeRemote     NoticeKind = "remote"
	NoticeNotFound   NoticeKind = "not_found"
	NoticeForbidden  NoticeKind = "forbidden"
)

// Notice is a dismissable message about the last failed operation. Retry is set for
// conflicts the host may confirm (a duplicate share offers a resend).
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
	Retry   *Intent    `json:"retry,omitempty"`
}

// DropAck acknowledges a modifier drop into a group until Until.
type DropAck struct {
	GroupID string    `json:"groupId"`
	Name    string    `json:"name"`
	Count   int       `json:"count"`
	Until   time.Time `json:"until"`
}

func noticeFor(err error) *Notice {
	n := &Notice{Kind: NoticeRemote, Message: err.Error()}
	var (
		ve mutate.ValidationError
		ce mutate.ConflictError
		nf mutate.NotFoundError
		fe mutate.ForbiddenError
		oe mutate.OwnerOnlyError
	)
	switch {
	case errors.As(err, &ve):
		n.Kind = NoticeValidation
	case errors.As(err, &ce):
		n.Kind = NoticeConflict
	case errors.As(err, &nf):
		n.Kind = NoticeNotFound
	case errors.As(err, &fe), errors.As(err, &oe):
		n.Kind = NoticeForbidden
	}
	return n
}

func (e *Engine) Notice() *Notice { return e.notice }

func (e *Engine) DismissNotice() {
	if e.notice == nil {
		return
	}
	e.notice = nil
	e.changed()
}
