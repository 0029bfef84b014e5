package optimistic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/folio/internal/folioerr"
)

type comment struct {
	ID       int64
	Content  string
	Approved bool
}

type fakeBackend struct {
	mu       sync.Mutex
	items    []comment
	nextID   int64
	gate     chan struct{}
	entered  chan struct{}
	failList error
	failOp   error
}

func newFake(items ...comment) *fakeBackend {
	return &fakeBackend{items: items, nextID: 100}
}

func (f *fakeBackend) wait() {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}
}

func (f *fakeBackend) List(ctx context.Context) ([]comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failList != nil {
		return nil, f.failList
	}
	return append([]comment(nil), f.items...), nil
}

func (f *fakeBackend) Create(ctx context.Context, draft comment) (comment, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp != nil {
		return comment{}, f.failOp
	}
	draft.ID = f.nextID
	f.nextID++
	f.items = append([]comment{draft}, f.items...)
	return draft, nil
}

func (f *fakeBackend) Update(ctx context.Context, id int64, item comment) (comment, error) {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp != nil {
		return comment{}, f.failOp
	}
	for i := range f.items {
		if f.items[i].ID == id {
			item.Content += " (saved)"
			f.items[i] = item
			return item, nil
		}
	}
	return comment{}, errors.New("not found")
}

func (f *fakeBackend) Delete(ctx context.Context, id int64) error {
	f.wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOp != nil {
		return f.failOp
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

type approvingBackend struct {
	*fakeBackend
	calls int
}

func (a *approvingBackend) Approve(ctx context.Context, id int64, approved bool) (comment, error) {
	a.calls++
	a.wait()
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.failOp != nil {
		return comment{}, a.failOp
	}
	for i := range a.items {
		if a.items[i].ID == id {
			a.items[i].Approved = approved
			return a.items[i], nil
		}
	}
	return comment{}, errors.New("not found")
}

type seqIDs struct{ n int64 }

func (s *seqIDs) NextID() int64 { s.n--; return s.n }

func newList(t *testing.T, b Backend[comment], placement Placement) *List[comment] {
	t.Helper()
	l, err := New(Config[comment]{
		Backend:     b,
		IDOf:        func(c comment) int64 { return c.ID },
		WithID:      func(c comment, id int64) comment { c.ID = id; return c },
		SetApproved: func(c comment, v bool) comment { c.Approved = v; return c },
		Placement:   placement,
		IDs:         &seqIDs{},
	})
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background()))
	return l
}

func threeComments() []comment {
	return []comment{{ID: 1, Content: "first"}, {ID: 2, Content: "second"}, {ID: 3, Content: "third"}}
}

func TestCreate_RoundTrip(t *testing.T) {
	b := newFake(threeComments()...)
	b.gate = make(chan struct{})
	b.entered = make(chan struct{})
	l := newList(t, b, PlaceHead)

	type result struct {
		c   comment
		err error
	}
	done := make(chan result)
	go func() {
		c, err := l.Create(context.Background(), comment{Content: "hello"})
		done <- result{c, err}
	}()

	<-b.entered
	pending := l.Items()
	require.Len(t, pending, 4)
	assert.Equal(t, comment{ID: -1, Content: "hello"}, pending[0])
	assert.Equal(t, 1, l.Pending())

	close(b.gate)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, comment{ID: 100, Content: "hello"}, res.c)

	got := l.Items()
	require.Len(t, got, 4)
	assert.Equal(t, res.c, got[0], "server entity takes the temporary entity's position")
	for _, c := range got {
		assert.NotEqual(t, int64(-1), c.ID, "no entity keeps the temporary id")
	}

	ops := l.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, Operation{Kind: folioerr.OpCreate, LocalID: -1, ID: 100, State: Confirmed}, ops[0])
}

func TestCreate_TailPlacement(t *testing.T) {
	l := newList(t, newFake(threeComments()...), PlaceTail)
	_, err := l.Create(context.Background(), comment{Content: "last"})
	require.NoError(t, err)
	got := l.Items()
	assert.Equal(t, int64(100), got[3].ID)
}

func TestCreate_Rollback(t *testing.T) {
	b := newFake(threeComments()...)
	l := newList(t, b, PlaceHead)
	before := l.Items()

	b.failOp = errors.New("network down")
	_, err := l.Create(context.Background(), comment{Content: "hello"})

	require.Error(t, err)
	assert.True(t, folioerr.IsMutationFailed(err))
	assert.Equal(t, before, l.Items())
	assert.Zero(t, l.Pending())
	ops := l.Operations()
	require.Len(t, ops, 1)
	assert.Equal(t, RolledBack, ops[0].State)
}

func TestApprove_FailureReloads(t *testing.T) {
	b := newFake(threeComments()...)
	b.gate = make(chan struct{})
	b.entered = make(chan struct{})
	l := newList(t, b, PlaceHead)

	errc := make(chan error)
	go func() {
		_, err := l.Approve(context.Background(), 2, true)
		errc <- err
	}()

	<-b.entered
	assert.True(t, l.Items()[1].Approved, "flag flipped before the backend answers")

	b.failOp = errors.New("connection reset")
	close(b.gate)
	err := <-errc

	require.Error(t, err)
	assert.True(t, errors.Is(err, folioerr.ErrMutationFailed))
	var me *folioerr.MutationError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, folioerr.OpApprove, me.Op)
	assert.Equal(t, int64(2), me.ID)

	assert.Equal(t, threeComments(), l.Items(), "comment 2 reverted, 1 and 3 untouched")
}

func TestApprove_UsesApprover(t *testing.T) {
	b := &approvingBackend{fakeBackend: newFake(threeComments()...)}
	l := newList(t, b, PlaceHead)

	got, err := l.Approve(context.Background(), 3, true)
	require.NoError(t, err)
	assert.True(t, got.Approved)
	assert.Equal(t, 1, b.calls)
	assert.Equal(t, "third", l.Items()[2].Content, "approver result is not passed through Update")
	assert.True(t, l.Items()[2].Approved)
}

func TestApprove_Unconfigured(t *testing.T) {
	l, err := New(Config[comment]{
		Backend: newFake(),
		IDOf:    func(c comment) int64 { return c.ID },
		WithID:  func(c comment, id int64) comment { c.ID = id; return c },
	})
	require.NoError(t, err)
	_, err = l.Approve(context.Background(), 1, true)
	assert.EqualError(t, err, "optimistic: SetApproved is not configured")
}

func TestUpdate_Success(t *testing.T) {
	l := newList(t, newFake(threeComments()...), PlaceHead)
	got, err := l.Update(context.Background(), 2, func(c comment) comment {
		c.Content = "edited"
		return c
	})
	require.NoError(t, err)
	assert.Equal(t, "edited (saved)", got.Content)
	assert.Equal(t, got, l.Items()[1])
}

func TestUpdate_FailureReloads(t *testing.T) {
	b := newFake(threeComments()...)
	l := newList(t, b, PlaceHead)
	b.failOp = errors.New("500")

	_, err := l.Update(context.Background(), 1, func(c comment) comment {
		c.Content = "edited"
		return c
	})
	require.Error(t, err)
	assert.Equal(t, threeComments(), l.Items())
}

func TestUpdate_FailureWithReloadFailureRestores(t *testing.T) {
	b := newFake(threeComments()...)
	l := newList(t, b, PlaceHead)
	b.failOp = errors.New("500")
	b.failList = errors.New("offline")

	_, err := l.Update(context.Background(), 1, func(c comment) comment {
		c.Content = "edited"
		return c
	})
	require.Error(t, err)
	assert.Equal(t, threeComments(), l.Items())
}

func TestUpdate_UnknownID(t *testing.T) {
	l := newList(t, newFake(threeComments()...), PlaceHead)
	_, err := l.Update(context.Background(), 42, func(c comment) comment { return c })
	require.Error(t, err)
	assert.True(t, folioerr.IsMutationFailed(err))
	assert.Equal(t, threeComments(), l.Items())
}

func TestDelete_Success(t *testing.T) {
	l := newList(t, newFake(threeComments()...), PlaceHead)
	require.NoError(t, l.Delete(context.Background(), 2))
	assert.Equal(t, []comment{{ID: 1, Content: "first"}, {ID: 3, Content: "third"}}, l.Items())
	assert.Equal(t, Confirmed, l.Operations()[0].State)
}

func TestDelete_FailureReloads(t *testing.T) {
	b := newFake(threeComments()...)
	b.gate = make(chan struct{})
	b.entered = make(chan struct{})
	l := newList(t, b, PlaceHead)

	errc := make(chan error)
	go func() { errc <- l.Delete(context.Background(), 2) }()
	<-b.entered
	assert.Len(t, l.Items(), 2, "removed before the backend answers")

	b.failOp = errors.New("409")
	close(b.gate)
	err := <-errc
	require.Error(t, err)
	assert.Equal(t, threeComments(), l.Items())
}

func TestDelete_FailureWithReloadFailureReinserts(t *testing.T) {
	b := newFake(threeComments()...)
	l := newList(t, b, PlaceHead)
	b.failOp = errors.New("500")
	b.failList = errors.New("offline")

	require.Error(t, l.Delete(context.Background(), 2))
	assert.Equal(t, threeComments(), l.Items())
}

func TestLoad_Failure(t *testing.T) {
	b := newFake()
	b.failList = errors.New("offline")
	l, err := New(Config[comment]{
		Backend: b,
		IDOf:    func(c comment) int64 { return c.ID },
		WithID:  func(c comment, id int64) comment { c.ID = id; return c },
	})
	require.NoError(t, err)
	err = l.Load(context.Background())
	assert.ErrorIs(t, err, folioerr.ErrFetchFailed)
}

func TestOnChange(t *testing.T) {
	var snapshots [][]comment
	l, err := New(Config[comment]{
		Backend:  newFake(threeComments()...),
		IDOf:     func(c comment) int64 { return c.ID },
		WithID:   func(c comment, id int64) comment { c.ID = id; return c },
		IDs:      &seqIDs{},
		OnChange: func(items []comment) { snapshots = append(snapshots, items) },
	})
	require.NoError(t, err)
	require.NoError(t, l.Load(context.Background()))
	_, err = l.Create(context.Background(), comment{Content: "x"})
	require.NoError(t, err)

	require.Len(t, snapshots, 3)
	assert.Len(t, snapshots[0], 3)
	assert.Equal(t, int64(-1), snapshots[1][0].ID)
	assert.Equal(t, int64(100), snapshots[2][0].ID)
}

func TestNew_Validation(t *testing.T) {
	_, err := New(Config[comment]{})
	assert.EqualError(t, err, "optimistic: backend is required")
	_, err = New(Config[comment]{Backend: newFake()})
	assert.EqualError(t, err, "optimistic: IDOf and WithID are required")
}

func TestFlakeIDs(t *testing.T) {
	ids := NewFlakeIDs()
	seen := make(map[int64]bool)
	for range 1000 {
		id := ids.NextID()
		require.True(t, IsTemporary(id), "id %d must be negative", id)
		require.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.False(t, IsTemporary(1))
}

func TestOpState_String(t *testing.T) {
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "confirmed", Confirmed.String())
	assert.Equal(t, "rolled-back", RolledBack.String())
}
