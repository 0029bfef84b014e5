package optimistic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/dshills/folio/internal/folioerr"
)

// Backend is the authoritative source for a collection.
type Backend[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, draft T) (T, error)
	Update(ctx context.Context, id int64, item T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// Approver is implemented by backends with a dedicated approval call.
type Approver[T any] interface {
	Approve(ctx context.Context, id int64, approved bool) (T, error)
}

// Placement decides where a newly created entity is inserted.
type Placement int

const (
	// PlaceHead inserts new entities first (most recent first lists).
	PlaceHead Placement = iota
	// PlaceTail appends new entities.
	PlaceTail
)

// OpState is the lifecycle of one optimistic operation.
type OpState int

const (
	Pending OpState = iota
	Confirmed
	RolledBack
)

func (s OpState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Confirmed:
		return "confirmed"
	case RolledBack:
		return "rolled-back"
	default:
		return fmt.Sprintf("opstate(%d)", int(s))
	}
}

// Operation records one mutation. For creates LocalID is the temporary id and
// ID becomes the server id once confirmed.
type Operation struct {
	Kind    folioerr.Op
	LocalID int64
	ID      int64
	State   OpState
	Err     error
}

// Config wires a List to its entity type and backend.
type Config[T any] struct {
	Backend Backend[T]
	IDOf    func(T) int64
	WithID  func(T, int64) T
	// SetApproved flips the approval flag. Required for Approve.
	SetApproved func(T, bool) T
	Placement   Placement
	IDs         IDSource
	// OnChange receives a copy of the list after every visible change.
	OnChange func(items []T)
	Logger   *slog.Logger
}

// List is an ordered entity collection with optimistic mutations.
type List[T any] struct {
	cfg Config[T]

	mu    sync.Mutex
	items []T
	ops   []*Operation
}

// New creates an empty list.
func New[T any](cfg Config[T]) (*List[T], error) {
	if cfg.Backend == nil {
		return nil, errors.New("optimistic: backend is required")
	}
	if cfg.IDOf == nil || cfg.WithID == nil {
		return nil, errors.New("optimistic: IDOf and WithID are required")
	}
	if cfg.IDs == nil {
		cfg.IDs = NewFlakeIDs()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &List[T]{cfg: cfg}, nil
}

// Load replaces the list with the backend's collection.
func (l *List[T]) Load(ctx context.Context) error {
	items, err := l.cfg.Backend.List(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", folioerr.ErrFetchFailed, err)
	}
	l.mu.Lock()
	l.items = slices.Clone(items)
	l.mu.Unlock()
	l.changed()
	return nil
}

// Items returns a copy of the list.
func (l *List[T]) Items() []T {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.items)
}

// Operations returns a snapshot of every operation issued so far.
func (l *List[T]) Operations() []Operation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Operation, len(l.ops))
	for i, op := range l.ops {
		out[i] = *op
	}
	return out
}

// Pending returns the number of operations still awaiting the backend.
func (l *List[T]) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, op := range l.ops {
		if op.State == Pending {
			n++
		}
	}
	return n
}

// Create shows draft immediately under a temporary id, then creates it on the
// backend. On success the temporary entity is replaced in place by the
// server's entity. On failure it is removed and a MutationError returned.
func (l *List[T]) Create(ctx context.Context, draft T) (T, error) {
	localID := l.cfg.IDs.NextID()
	temp := l.cfg.WithID(draft, localID)
	op := l.begin(folioerr.OpCreate, localID, localID)

	l.mu.Lock()
	if l.cfg.Placement == PlaceHead {
		l.items = slices.Insert(l.items, 0, temp)
	} else {
		l.items = append(l.items, temp)
	}
	l.mu.Unlock()
	l.changed()

	created, err := l.cfg.Backend.Create(ctx, draft)
	if err != nil {
		l.mu.Lock()
		if i := l.indexLocked(localID); i >= 0 {
			l.items = slices.Delete(l.items, i, i+1)
		}
		l.mu.Unlock()
		l.changed()
		var zero T
		return zero, l.fail(op, err)
	}

	l.mu.Lock()
	if i := l.indexLocked(localID); i >= 0 {
		l.items[i] = created
	}
	op.ID = l.cfg.IDOf(created)
	op.State = Confirmed
	l.mu.Unlock()
	l.changed()
	return created, nil
}

// Update patches the entity with id in place, then sends it to the backend.
// On success the server's entity replaces it. On failure the list is reloaded.
func (l *List[T]) Update(ctx context.Context, id int64, patch func(T) T) (T, error) {
	return l.mutateInPlace(ctx, folioerr.OpUpdate, id, patch, func(ctx context.Context, patched T) (T, error) {
		return l.cfg.Backend.Update(ctx, id, patched)
	})
}

// Approve flips the approval flag of the entity with id, using the backend's
// Approver when it has one and Update otherwise.
func (l *List[T]) Approve(ctx context.Context, id int64, approved bool) (T, error) {
	if l.cfg.SetApproved == nil {
		var zero T
		return zero, errors.New("optimistic: SetApproved is not configured")
	}
	patch := func(t T) T { return l.cfg.SetApproved(t, approved) }
	call := func(ctx context.Context, patched T) (T, error) {
		return l.cfg.Backend.Update(ctx, id, patched)
	}
	if approver, ok := l.cfg.Backend.(Approver[T]); ok {
		call = func(ctx context.Context, _ T) (T, error) {
			return approver.Approve(ctx, id, approved)
		}
	}
	return l.mutateInPlace(ctx, folioerr.OpApprove, id, patch, call)
}

func (l *List[T]) mutateInPlace(ctx context.Context, kind folioerr.Op, id int64, patch func(T) T, call func(context.Context, T) (T, error)) (T, error) {
	var zero T
	op := l.begin(kind, 0, id)

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return zero, l.fail(op, fmt.Errorf("item %d not in list", id))
	}
	prev := l.items[i]
	patched := patch(prev)
	l.items[i] = patched
	l.mu.Unlock()
	l.changed()

	updated, err := call(ctx, patched)
	if err != nil {
		l.recover(ctx, func() {
			if j := l.indexLocked(id); j >= 0 {
				l.items[j] = prev
			}
		})
		return zero, l.fail(op, err)
	}
	l.confirm(op, id, updated)
	return updated, nil
}

// Delete removes the entity with id, then deletes it on the backend. On
// failure the list is reloaded.
func (l *List[T]) Delete(ctx context.Context, id int64) error {
	op := l.begin(folioerr.OpDelete, 0, id)

	l.mu.Lock()
	i := l.indexLocked(id)
	if i < 0 {
		l.mu.Unlock()
		return l.fail(op, fmt.Errorf("item %d not in list", id))
	}
	prev := l.items[i]
	l.items = slices.Delete(l.items, i, i+1)
	l.mu.Unlock()
	l.changed()

	if err := l.cfg.Backend.Delete(ctx, id); err != nil {
		l.recover(ctx, func() {
			if l.indexLocked(id) < 0 {
				l.items = slices.Insert(l.items, min(i, len(l.items)), prev)
			}
		})
		return l.fail(op, err)
	}

	l.mu.Lock()
	op.State = Confirmed
	l.mu.Unlock()
	return nil
}

// recover reloads the authoritative list. If the reload fails too, undo runs
// under the lock so the optimistic change does not outlive the failure.
func (l *List[T]) recover(ctx context.Context, undo func()) {
	if err := l.Load(ctx); err != nil {
		l.cfg.Logger.Warn("Reload after failed mutation failed, restoring previous item",
			slog.Any("error", err))
		l.mu.Lock()
		undo()
		l.mu.Unlock()
		l.changed()
	}
}

func (l *List[T]) begin(kind folioerr.Op, localID, id int64) *Operation {
	op := &Operation{Kind: kind, LocalID: localID, ID: id, State: Pending}
	l.mu.Lock()
	l.ops = append(l.ops, op)
	l.mu.Unlock()
	return op
}

func (l *List[T]) confirm(op *Operation, id int64, updated T) {
	l.mu.Lock()
	if i := l.indexLocked(id); i >= 0 {
		l.items[i] = updated
	}
	op.State = Confirmed
	l.mu.Unlock()
	l.changed()
}

func (l *List[T]) fail(op *Operation, err error) error {
	l.mu.Lock()
	op.State = RolledBack
	op.Err = err
	l.mu.Unlock()
	l.cfg.Logger.Info("Mutation rolled back",
		slog.String("op", string(op.Kind)),
		slog.Int64("id", op.ID),
		slog.Any("error", err))
	return &folioerr.MutationError{Op: op.Kind, ID: op.ID, Err: err}
}

func (l *List[T]) indexLocked(id int64) int {
	return slices.IndexFunc(l.items, func(t T) bool { return l.cfg.IDOf(t) == id })
}

func (l *List[T]) changed() {
	if l.cfg.OnChange == nil {
		return
	}
	l.cfg.OnChange(l.Items())
}
