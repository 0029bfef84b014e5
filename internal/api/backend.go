package api

import (
	"context"

	"github.com/dshills/folio/internal/optimistic"
	"github.com/dshills/folio/internal/portfolio"
)

// WriteupBackend exposes writeups as an optimistic.Backend.
type WriteupBackend struct {
	Client *Client
}

var _ optimistic.Backend[portfolio.Writeup] = WriteupBackend{}

// List always bypasses the read cache so reloads see the server's state.
func (b WriteupBackend) List(ctx context.Context) ([]portfolio.Writeup, error) {
	return b.Client.ListWriteups(ctx, true)
}

func (b WriteupBackend) Create(ctx context.Context, draft portfolio.Writeup) (portfolio.Writeup, error) {
	return b.Client.CreateWriteup(ctx, InputFromWriteup(draft))
}

func (b WriteupBackend) Update(ctx context.Context, id int64, w portfolio.Writeup) (portfolio.Writeup, error) {
	return b.Client.UpdateWriteup(ctx, id, InputFromWriteup(w))
}

func (b WriteupBackend) Delete(ctx context.Context, id int64) error {
	return b.Client.DeleteWriteup(ctx, id)
}

// NewWriteupList creates an optimistic writeup list, newest first.
func NewWriteupList(c *Client, cfg optimistic.Config[portfolio.Writeup]) (*optimistic.List[portfolio.Writeup], error) {
	cfg.Backend = WriteupBackend{Client: c}
	cfg.IDOf = func(w portfolio.Writeup) int64 { return w.ID }
	cfg.WithID = func(w portfolio.Writeup, id int64) portfolio.Writeup {
		w.ID = id
		return w
	}
	cfg.Placement = optimistic.PlaceHead
	return optimistic.New(cfg)
}

// CommentBackend exposes the moderation queue as an optimistic.Backend.
// Comments can only be created on a writeup, so Create posts draft to the
// writeup it names.
type CommentBackend struct {
	Client *Client
}

var (
	_ optimistic.Backend[portfolio.Comment]  = CommentBackend{}
	_ optimistic.Approver[portfolio.Comment] = CommentBackend{}
)

func (b CommentBackend) List(ctx context.Context) ([]portfolio.Comment, error) {
	return b.Client.PendingComments(ctx)
}

func (b CommentBackend) Create(ctx context.Context, draft portfolio.Comment) (portfolio.Comment, error) {
	if draft.ReplyToID != nil {
		return b.Client.ReplyToComment(ctx, *draft.ReplyToID, draft.Draft())
	}
	return b.Client.PostComment(ctx, draft.Draft())
}

// Update only carries the approval flag; comment text is immutable.
func (b CommentBackend) Update(ctx context.Context, id int64, c portfolio.Comment) (portfolio.Comment, error) {
	return b.Client.SetCommentApproval(ctx, id, c.IsApproved)
}

func (b CommentBackend) Delete(ctx context.Context, id int64) error {
	return b.Client.DeleteComment(ctx, id)
}

func (b CommentBackend) Approve(ctx context.Context, id int64, approved bool) (portfolio.Comment, error) {
	return b.Client.SetCommentApproval(ctx, id, approved)
}

// NewCommentList creates an optimistic moderation queue.
func NewCommentList(c *Client, cfg optimistic.Config[portfolio.Comment]) (*optimistic.List[portfolio.Comment], error) {
	cfg.Backend = CommentBackend{Client: c}
	cfg.IDOf = func(c portfolio.Comment) int64 { return c.ID }
	cfg.WithID = func(c portfolio.Comment, id int64) portfolio.Comment {
		c.ID = id
		return c
	}
	cfg.SetApproved = func(c portfolio.Comment, approved bool) portfolio.Comment {
		c.IsApproved = approved
		return c
	}
	cfg.Placement = optimistic.PlaceTail
	return optimistic.New(cfg)
}
