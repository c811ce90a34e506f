package service

import "github.com/quillpost/internal/db"

// PostEvent is something that can happen to a post in the moderation workflow.
type PostEvent string

const (
	EventSubmit  PostEvent = "submit"
	EventApprove PostEvent = "approve"
	EventReject  PostEvent = "reject"
	EventEdit    PostEvent = "edit"
	EventHide    PostEvent = "hide"
	EventUnhide  PostEvent = "unhide"

	// Engagement events are gated on status but never change it.
	EventLike    PostEvent = "like"
	EventComment PostEvent = "comment on"
)

// transitions is the full moderation workflow. A missing entry means the event is
// not allowed from that status.
var transitions = map[PostEvent]map[db.PostStatus]db.PostStatus{
	EventSubmit: {
		db.StatusDraft:    db.StatusPending,
		db.StatusPending:  db.StatusPending,
		db.StatusRejected: db.StatusPending,
	},
	EventApprove: {
		db.StatusPending: db.StatusPublished,
	},
	EventReject: {
		db.StatusPending: db.StatusRejected,
	},
	EventEdit: {
		db.StatusDraft:     db.StatusDraft,
		db.StatusPending:   db.StatusPending,
		db.StatusRejected:  db.StatusRejected,
		db.StatusPublished: db.StatusPending,
		db.StatusHidden:    db.StatusPending,
	},
	EventHide: {
		db.StatusPublished: db.StatusHidden,
	},
	EventUnhide: {
		db.StatusHidden: db.StatusPublished,
	},
}

// NextStatus returns the status a post in from moves to when event happens.
func NextStatus(from db.PostStatus, event PostEvent) (db.PostStatus, error) {
	to, ok := transitions[event][from]
	if !ok {
		return from, &TransitionError{Event: event, Status: string(from)}
	}
	return to, nil
}
