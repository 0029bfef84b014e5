package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/dshills/folio/internal/portfolio"
)

// ListComments returns the approved comments of a writeup.
func (c *Client) ListComments(ctx context.Context, writeupID string) ([]portfolio.Comment, error) {
	key := commentsCacheKey(writeupID)
	if data, ok := c.cache.get(key); ok {
		var list []portfolio.Comment
		if err := json.Unmarshal(data, &list); err == nil {
			return list, nil
		}
	}

	data, err := c.do(ctx, http.MethodGet, "/comments/"+writeupID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	var list []portfolio.Comment
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parsing comments: %w", err)
	}
	c.cache.set(key, data)
	return list, nil
}

// PostComment submits a comment for moderation.
func (c *Client) PostComment(ctx context.Context, draft portfolio.CommentDraft) (portfolio.Comment, error) {
	var out portfolio.Comment
	if err := c.doJSON(ctx, http.MethodPost, "/comments/", nil, draft, &out); err != nil {
		return portfolio.Comment{}, fmt.Errorf("posting comment: %w", err)
	}
	c.cache.invalidate(commentsCacheKey(draft.WriteupID))
	return out, nil
}

// ReplyToComment posts a reply to an existing comment.
func (c *Client) ReplyToComment(ctx context.Context, commentID int64, draft portfolio.CommentDraft) (portfolio.Comment, error) {
	var out portfolio.Comment
	path := "/comments/" + strconv.FormatInt(commentID, 10) + "/reply"
	if err := c.doJSON(ctx, http.MethodPost, path, nil, draft, &out); err != nil {
		return portfolio.Comment{}, fmt.Errorf("replying to comment %d: %w", commentID, err)
	}
	c.cache.invalidate(commentsCacheKey(draft.WriteupID))
	return out, nil
}

// PendingComments returns comments awaiting moderation. Requires a session.
func (c *Client) PendingComments(ctx context.Context) ([]portfolio.Comment, error) {
	var list []portfolio.Comment
	if err := c.doJSON(ctx, http.MethodGet, "/comments/admin/pending", nil, nil, &list); err != nil {
		return nil, fmt.Errorf("listing pending comments: %w", err)
	}
	return list, nil
}

// SetCommentApproval approves or rejects a comment.
func (c *Client) SetCommentApproval(ctx context.Context, id int64, approved bool) (portfolio.Comment, error) {
	var out portfolio.Comment
	body := map[string]bool{"is_approved": approved}
	if err := c.doJSON(ctx, http.MethodPatch, "/comments/"+strconv.FormatInt(id, 10), nil, body, &out); err != nil {
		return portfolio.Comment{}, fmt.Errorf("moderating comment %d: %w", id, err)
	}
	return out, nil
}

// DeleteComment deletes a comment.
func (c *Client) DeleteComment(ctx context.Context, id int64) error {
	if _, err := c.do(ctx, http.MethodDelete, "/comments/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return fmt.Errorf("deleting comment %d: %w", id, err)
	}
	return nil
}
