package service

import (
	"errors"
	"testing"

	"github.com/quillpost/internal/db"
)

func TestNextStatusTable(t *testing.T) {
	type want struct {
		to db.PostStatus
		ok bool
	}

	table := map[PostEvent]map[db.PostStatus]want{
		EventSubmit: {
			db.StatusDraft:     {db.StatusPending, true},
			db.StatusPending:   {db.StatusPending, true},
			db.StatusRejected:  {db.StatusPending, true},
			db.StatusPublished: {ok: false},
			db.StatusHidden:    {ok: false},
		},
		EventApprove: {
			db.StatusDraft:     {ok: false},
			db.StatusPending:   {db.StatusPublished, true},
			db.StatusRejected:  {ok: false},
			db.StatusPublished: {ok: false},
			db.StatusHidden:    {ok: false},
		},
		EventReject: {
			db.StatusDraft:     {ok: false},
			db.StatusPending:   {db.StatusRejected, true},
			db.StatusRejected:  {ok: false},
			db.StatusPublished: {ok: false},
			db.StatusHidden:    {ok: false},
		},
		EventEdit: {
			db.StatusDraft:     {db.StatusDraft, true},
			db.StatusPending:   {db.StatusPending, true},
			db.StatusRejected:  {db.StatusRejected, true},
			db.StatusPublished: {db.StatusPending, true},
			db.StatusHidden:    {db.StatusPending, true},
		},
		EventHide: {
			db.StatusDraft:     {ok: false},
			db.StatusPending:   {ok: false},
			db.StatusRejected:  {ok: false},
			db.StatusPublished: {db.StatusHidden, true},
			db.StatusHidden:    {ok: false},
		},
		EventUnhide: {
			db.StatusDraft:     {ok: false},
			db.StatusPending:   {ok: false},
			db.StatusRejected:  {ok: false},
			db.StatusPublished: {ok: false},
			db.StatusHidden:    {db.StatusPublished, true},
		},
	}

	for event, rows := range table {
		for from, expected := range rows {
			got, err := NextStatus(from, event)
			if expected.ok {
				if err != nil {
					t.Fatalf("%s from %s: unexpected error %v", event, from, err)
				}
				if got != expected.to {
					t.Fatalf("%s from %s: expected %s, got %s", event, from, expected.to, got)
				}
				continue
			}

			if err == nil {
				t.Fatalf("%s from %s: expected rejection, got %s", event, from, got)
			}
			if !errors.Is(err, ErrInvalidState) {
				t.Fatalf("%s from %s: expected ErrInvalidState, got %v", event, from, err)
			}
			if got != from {
				t.Fatalf("%s from %s: status should stay put, got %s", event, from, got)
			}
		}
	}
}

func TestTransitionErrorMessage(t *testing.T) {
	_, err := NextStatus(db.StatusDraft, EventApprove)

	var transitionErr *TransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected *TransitionError, got %T", err)
	}
	if got := err.Error(); got != "cannot approve a draft post" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestNextStatusUnknownStatus(t *testing.T) {
	if _, err := NextStatus(db.PostStatus("archived"), EventSubmit); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for unknown status, got %v", err)
	}
}
