// Package access decides whether an authenticated principal may act on an
// employee record or a recording. Decisions are pure: no I/O, no side effects.
package access

import (
	autherrors "callsync/internal/auth/errors"
	"callsync/internal/shared/contextutil"
)

type Kind string

const (
	KindEmployee  Kind = "employee"
	KindRecording Kind = "recording"
)

type Action string

const (
	ActionRead      Action = "read"
	ActionList      Action = "list"
	ActionUpload    Action = "upload"
	ActionIssueCode Action = "issue_code"
	ActionPurge     Action = "purge"
	ActionManage    Action = "manage"
)

type Reason string

const (
	ReasonAllowed         Reason = "allowed"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
)

// Resource is what the principal wants to touch. OwnerID is the id of the
// employee the resource belongs to; empty for resources nobody owns.
type Resource struct {
	Kind    Kind
	OwnerID string
}

type Decision struct {
	Allowed bool
	Reason  Reason
}

func Allow() Decision { return Decision{Allowed: true, Reason: ReasonAllowed} }

func Deny(reason Reason) Decision { return Decision{Reason: reason} }

// Err maps a denial onto the HTTP-facing error taxonomy; nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return autherrors.ErrTokenMissing
	default:
		return autherrors.ErrForbidden
	}
}

//go:generate mockgen -source=access.go -destination=mock/access_mock.go -package=mock
type Guard interface {
	Authorize(principal contextutil.Principal, action Action, resource Resource) Decision
}
