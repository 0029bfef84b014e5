package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/folio/internal/auth"
	"github.com/dshills/folio/internal/envelope"
	"github.com/dshills/folio/internal/folioerr"
	"github.com/dshills/folio/internal/optimistic"
	"github.com/dshills/folio/internal/portfolio"
	"github.com/dshills/folio/internal/store"
)

func newTestClient(t *testing.T, h http.HandlerFunc, st store.Store, holder *auth.Holder) *Client {
	t.Helper()
	server := httptest.NewServer(h)
	t.Cleanup(server.Close)
	c := NewClient(Config{
		BaseURL:    server.URL + "/",
		HTTPClient: server.Client(),
		Auth:       holder,
		Store:      st,
	})
	c.retryDelay = time.Millisecond
	t.Cleanup(c.Close)
	return c
}

const pageBody = `{"items":[{"id":2,"title":"Blue"},{"id":1,"title":"Lame"}],"total":2,"page":1,"page_size":50}`

func TestListWriteups_RetriesThenCaches(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/writeups", r.URL.Path)
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(pageBody))
	}, store.NewMemory(), nil)

	list, err := c.ListWriteups(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Blue", list[0].Title)
	assert.EqualValues(t, 3, hits.Load())

	_, err = c.ListWriteups(context.Background(), false)
	require.NoError(t, err)
	assert.EqualValues(t, 3, hits.Load(), "second call should be served from cache")

	_, err = c.ListWriteups(context.Background(), true)
	require.NoError(t, err)
	assert.EqualValues(t, 4, hits.Load())
}

func TestListWriteups_GivesUpAfterThreeAttempts(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, nil, nil)

	_, err := c.ListWriteups(context.Background(), false)
	require.Error(t, err)
	assert.EqualValues(t, 3, hits.Load())
}

func TestListWriteups_ClientErrorNotRetried(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"gone"}`))
	}, nil, nil)

	_, err := c.ListWriteups(context.Background(), false)
	require.ErrorIs(t, err, ErrNotFound)
	assert.EqualValues(t, 1, hits.Load())
}

func TestListWriteups_BareArray(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":7,"title":"Seven"}]`))
	}, nil, nil)

	list, err := c.ListWriteups(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.EqualValues(t, 7, list[0].ID)
}

func TestReadCache_PersistentTierSurvivesClients(t *testing.T) {
	st := store.NewMemory()
	var hits atomic.Int32
	h := func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`{"id":3,"title":"Cap"}`))
	}

	first := newTestClient(t, h, st, nil)
	_, err := first.GetWriteup(context.Background(), 3, false)
	require.NoError(t, err)

	second := newTestClient(t, h, st, nil)
	w, err := second.GetWriteup(context.Background(), 3, false)
	require.NoError(t, err)
	assert.Equal(t, "Cap", w.Title)
	assert.EqualValues(t, 1, hits.Load())

	raw, ok := st.Get("writeup_3")
	require.True(t, ok)
	env, ok := envelope.Decode[json.RawMessage](raw)
	require.True(t, ok)
	assert.Len(t, env.Payload, 1)
}

func TestReadCache_ExpiredEntryIsMiss(t *testing.T) {
	st := store.NewMemory()
	raw, err := envelope.Encode(envelope.New([]json.RawMessage{json.RawMessage(pageBody)}, time.Now().Add(-6*time.Minute)))
	require.NoError(t, err)
	require.NoError(t, st.Set(listCacheKey, raw))

	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte(`[]`))
	}, st, nil)

	list, err := c.ListWriteups(context.Background(), false)
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.EqualValues(t, 1, hits.Load())
}

func TestReadCache_CorruptEntryIsMiss(t *testing.T) {
	st := store.NewMemory()
	require.NoError(t, st.Set("writeup_9", "{not json"))

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":9,"title":"Fresh"}`))
	}, st, nil)

	w, err := c.GetWriteup(context.Background(), 9, false)
	require.NoError(t, err)
	assert.Equal(t, "Fresh", w.Title)
}

func TestUpdateWriteup_InvalidatesCache(t *testing.T) {
	st := store.NewMemory()
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			gets.Add(1)
			w.Write([]byte(`{"id":4,"title":"Old"}`))
		case http.MethodPut:
			assert.Equal(t, "/writeups/4", r.URL.Path)
			var in WriteupInput
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			assert.Equal(t, "New", in.Title)
			w.Write([]byte(`{"id":4,"title":"New"}`))
		}
	}, st, nil)
	ctx := context.Background()

	_, err := c.GetWriteup(ctx, 4, false)
	require.NoError(t, err)
	_, err = c.UpdateWriteup(ctx, 4, WriteupInput{Title: "New"})
	require.NoError(t, err)

	_, ok := st.Get("writeup_4")
	assert.False(t, ok)
	_, err = c.GetWriteup(ctx, 4, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gets.Load())
}

func TestDeleteWriteup_InvalidatesList(t *testing.T) {
	st := store.NewMemory()
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodDelete {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		gets.Add(1)
		w.Write([]byte(pageBody))
	}, st, nil)
	ctx := context.Background()

	_, err := c.ListWriteups(ctx, false)
	require.NoError(t, err)
	require.NoError(t, c.DeleteWriteup(ctx, 2))
	_, err = c.ListWriteups(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gets.Load())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantIs     error
		wantDetail string
	}{
		{name: "not found", status: 404, body: `{"detail":"Writeup not found"}`, wantIs: ErrNotFound, wantDetail: "Writeup not found"},
		{name: "conflict", status: 409, body: `{"detail":"Email already subscribed to newsletter"}`, wantIs: ErrConflict, wantDetail: "Email already subscribed to newsletter"},
		{name: "validation", status: 422, body: `{"detail":[{"loc":["body","email"]}]}`, wantDetail: `[{"loc":["body","email"]}]`},
		{name: "plain", status: 500, body: "boom\n", wantDetail: "boom"},
		{name: "credentials scrubbed", status: 400, body: `{"detail":"bad login for password=hunter22"}`, wantDetail: `bad login for password="[REDACTED]"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}, nil, nil)

			_, err := c.Subscribe(context.Background(), "a@b.c")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.wantDetail, apiErr.Detail)
			if tt.wantIs != nil {
				assert.ErrorIs(t, err, tt.wantIs)
			}
		})
	}
}

func TestUnauthorizedEndsSession(t *testing.T) {
	holder := auth.NewHolder(store.NewMemory(), nil)
	holder.Login(auth.Session{Token: "tok"})

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"Could not validate credentials"}`))
	}, nil, holder)

	_, err := c.PendingComments(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.Nil(t, holder.Session())
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/login", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "admin", body["username"])
		w.Write([]byte(`{"access_token":"jwt","token_type":"bearer"}`))
	}, nil, nil)

	s, err := c.Login(context.Background(), "admin", "pw")
	require.NoError(t, err)
	assert.Equal(t, "jwt", s.Token)
	assert.Equal(t, "admin", s.Username)
	assert.False(t, s.IssuedAt.IsZero())
}

func TestNewsletter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/newsletter/subscribe":
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":"6f1c7a4e-3b2d-4c5e-9f80-1a2b3c4d5e6f","email":"a@b.c","is_active":true}`))
		case "/newsletter/unsubscribe":
			assert.Equal(t, "a@b.c", r.URL.Query().Get("email"))
			w.Write([]byte(`{"success":true}`))
		case "/newsletter/subscribers/count":
			w.Write([]byte(`{"active_subscribers":12}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}, nil, nil)
	ctx := context.Background()

	sub, err := c.Subscribe(ctx, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "6f1c7a4e-3b2d-4c5e-9f80-1a2b3c4d5e6f", sub.ID.String())
	assert.True(t, sub.IsActive)

	require.NoError(t, c.Unsubscribe(ctx, "a@b.c"))

	n, err := c.SubscriberCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12, n)
}

func TestSendNewsletter(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/newsletter/send", r.URL.Path)
		var issue NewsletterIssue
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&issue))
		assert.Equal(t, "October", issue.Subject)
		assert.Equal(t, "<p>hi</p>", issue.HTMLContent)
		w.Write([]byte(`{"success":true,"sent_count":11,"failed_count":1,"total_subscribers":12}`))
	}, nil, nil)

	rep, err := c.SendNewsletter(context.Background(), NewsletterIssue{Subject: "October", HTMLContent: "<p>hi</p>"})
	require.NoError(t, err)
	assert.True(t, rep.Success)
	assert.Equal(t, 11, rep.SentCount)
	assert.Equal(t, 1, rep.FailedCount)
	assert.Equal(t, 12, rep.TotalSubscribers)
}

func TestSendNewsletter_NoSubscribers(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":"No active subscribers"}`))
	}, nil, nil)

	_, err := c.SendNewsletter(context.Background(), NewsletterIssue{Subject: "x", HTMLContent: "y"})
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "No active subscribers", apiErr.Detail)
}

func TestSubmitContact_ValidatesLocally(t *testing.T) {
	var hits atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"captchaToken":"tok"`)
	}, nil, nil)

	err := c.SubmitContact(context.Background(), portfolio.ContactMessage{Name: "x"})
	require.Error(t, err)
	assert.Zero(t, hits.Load())

	err = c.SubmitContact(context.Background(), portfolio.ContactMessage{
		Name:         "Ada",
		Email:        "ada@example.com",
		Subject:      "Hello there",
		Message:      "I enjoyed the writeup.",
		CaptchaToken: "tok",
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, hits.Load())
}

func TestComments(t *testing.T) {
	var posted portfolio.CommentDraft
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/comments/5":
			w.Write([]byte(`[{"id":1,"writeup_id":"5","user_name":"ann","content":"hi","is_approved":true}]`))
		case r.Method == http.MethodPost && r.URL.Path == "/comments/":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&posted))
			w.Write([]byte(`{"id":2,"writeup_id":"5","user_name":"bob","content":"yo"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/comments/1/reply":
			w.Write([]byte(`{"id":3,"writeup_id":"5","reply_to_id":1}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}, nil, nil)
	ctx := context.Background()

	list, err := c.ListComments(ctx, "5")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ann", list[0].UserName)

	out, err := c.PostComment(ctx, portfolio.CommentDraft{WriteupID: "5", UserName: "bob", Content: "yo"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, out.ID)
	assert.Equal(t, "5", posted.WriteupID)

	reply, err := c.ReplyToComment(ctx, 1, portfolio.CommentDraft{WriteupID: "5"})
	require.NoError(t, err)
	require.NotNil(t, reply.ReplyToID)
	assert.EqualValues(t, 1, *reply.ReplyToID)
}

func TestCommentList_ApprovalFailureReloads(t *testing.T) {
	var lists atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			lists.Add(1)
			w.Write([]byte(`[{"id":11,"content":"first","is_approved":false},{"id":12,"content":"second","is_approved":false}]`))
		case http.MethodPatch:
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte(`{"detail":"db down"}`))
		}
	}, nil, nil)
	ctx := context.Background()

	l, err := NewCommentList(c, optimistic.Config[portfolio.Comment]{})
	require.NoError(t, err)
	require.NoError(t, l.Load(ctx))

	_, err = l.Approve(ctx, 11, true)
	require.Error(t, err)
	assert.True(t, folioerr.IsMutationFailed(err))
	assert.Equal(t, "Failed to approve comment", folioerr.UserMessage(err))

	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 500, apiErr.Status)

	items := l.Items()
	require.Len(t, items, 2)
	assert.False(t, items[0].IsApproved)
	assert.EqualValues(t, 2, lists.Load())
}

func TestWriteupList_CreateReplacesTemporaryID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			w.Write([]byte(pageBody))
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			w.Write([]byte(`{"id":3,"title":"Sau"}`))
		}
	}, nil, nil)
	ctx := context.Background()

	l, err := NewWriteupList(c, optimistic.Config[portfolio.Writeup]{})
	require.NoError(t, err)
	require.NoError(t, l.Load(ctx))

	created, err := l.Create(ctx, portfolio.Writeup{Title: "Sau"})
	require.NoError(t, err)
	assert.EqualValues(t, 3, created.ID)

	items := l.Items()
	require.Len(t, items, 3)
	assert.EqualValues(t, 3, items[0].ID)
	for _, w := range items {
		assert.False(t, optimistic.IsTemporary(w.ID))
	}
}

func TestInputFromWriteup(t *testing.T) {
	in := InputFromWriteup(portfolio.Writeup{
		Title:       "Blue",
		Methodology: []string{"scan", "exploit"},
		ToolsUsed:   []string{"nmap"},
	})
	assert.Equal(t, "scan\nexploit", in.Methodology)
	assert.Equal(t, "nmap", in.ToolsUsed)
}

func TestGenerateContent_InvalidatesDetail(t *testing.T) {
	st := store.NewMemory()
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			gets.Add(1)
			w.Write([]byte(`{"id":4,"title":"Lame"}`))
		case r.Method == http.MethodPost && r.URL.Path == "/writeups/4/generate":
			w.Write([]byte(`{"id":4,"title":"Lame","summary":"SMB usermap script"}`))
		default:
			t.Errorf("unexpected %s %s", r.Method, r.URL.Path)
		}
	}, st, nil)
	ctx := context.Background()

	_, err := c.GetWriteup(ctx, 4, false)
	require.NoError(t, err)
	w, err := c.GenerateContent(ctx, 4)
	require.NoError(t, err)
	assert.Equal(t, "SMB usermap script", w.Summary)

	_, ok := st.Get("writeup_4")
	assert.False(t, ok)
	_, err = c.GetWriteup(ctx, 4, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gets.Load())
}

func TestUploadWriteupFile_SendsMultipart(t *testing.T) {
	st := store.NewMemory()
	var gets atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			gets.Add(1)
			w.Write([]byte(pageBody))
			return
		}
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/writeups/2/upload", r.URL.Path)
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Blue", r.FormValue("title"))
		assert.Equal(t, []string{"title"}, formKeys(r))
		f, hdr, err := r.FormFile("file")
		if assert.NoError(t, err) {
			defer f.Close()
			assert.Equal(t, "blue.md", hdr.Filename)
			data, _ := io.ReadAll(f)
			assert.Equal(t, "# Blue\n", string(data))
		}
		w.Write([]byte(`{"id":2,"title":"Blue","file_path":"uploads/blue.md"}`))
	}, st, nil)
	ctx := context.Background()

	_, err := c.ListWriteups(ctx, false)
	require.NoError(t, err)
	w, err := c.UploadWriteupFile(ctx, 2, WriteupInput{Title: "Blue"}, Document{Name: "blue.md", Body: strings.NewReader("# Blue\n")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, w.ID)

	_, err = c.ListWriteups(ctx, false)
	require.NoError(t, err)
	assert.EqualValues(t, 2, gets.Load(), "upload should invalidate the list")
}

func TestCreateWriteupWithFile_AsksForTagSuggestions(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Sau", r.FormValue("title"))
		assert.Equal(t, "Easy", r.FormValue("difficulty"))
		tags, ok := r.MultipartForm.Value["tags"]
		assert.True(t, ok)
		assert.Equal(t, []string{""}, tags)
		_, _, err := r.FormFile("file")
		assert.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":9,"title":"Sau","tags":[{"id":1,"name":"ssrf"}]}`))
	}, nil, nil)

	w, err := c.CreateWriteupWithFile(context.Background(),
		WriteupInput{Title: "Sau", Difficulty: "Easy"},
		Document{Name: "sau.pdf", Body: strings.NewReader("%PDF")})
	require.NoError(t, err)
	assert.EqualValues(t, 9, w.ID)
	assert.Equal(t, []string{"ssrf"}, w.TagNames())
}

func formKeys(r *http.Request) []string {
	var keys []string
	for k := range r.MultipartForm.Value {
		keys = append(keys, k)
	}
	return keys
}
