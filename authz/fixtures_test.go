package authz

import (
	"context"
	"sync/atomic"
)

type noteError struct {
	msg string
}

func (e *noteError) Error() string { return e.msg }

type note struct {
	ID    int
	Owner *string
}

type listNotes struct{}

type deleteNote struct {
	ID int
}

type notesService interface {
	List(ctx context.Context, in listNotes) ([]note, error)
	Delete(ctx context.Context, in deleteNote) (bool, error)
	Create(ctx context.Context, title string) (note, error)
}

var (
	opList   = NewOperation[listNotes, []note, *noteError]("notes", "List", Hints{"readonly": true})
	opDelete = NewOperation[deleteNote, bool, *noteError]("notes", "Delete", nil)
	opCreate = NewOperation[string, note, *noteError]("notes", "Create", nil)
)

type funcNotes struct {
	list   Endpoint[listNotes, []note]
	delete Endpoint[deleteNote, bool]
	create Endpoint[string, note]
}

func (f *funcNotes) List(ctx context.Context, in listNotes) ([]note, error) {
	return f.list(ctx, in)
}

func (f *funcNotes) Delete(ctx context.Context, in deleteNote) (bool, error) {
	return f.delete(ctx, in)
}

func (f *funcNotes) Create(ctx context.Context, title string) (note, error) {
	return f.create(ctx, title)
}

var notesDescriptor = ServiceDescriptor[notesService]{
	ID:         "notes",
	Operations: []EndpointInfo{opList.Info(), opDelete.Info(), opCreate.Info()},
	Wrap: func(impl notesService, ic Interceptor) notesService {
		return &funcNotes{
			list:   Intercept(ic, opList, impl.List),
			delete: Intercept(ic, opDelete, impl.Delete),
			create: Intercept(ic, opCreate, impl.Create),
		}
	},
}

// session is the authentication context used in tests; an empty user is anonymous.
type session struct {
	user string
}

// fakeNotes counts business calls.
type fakeNotes struct {
	notes   []note
	listed  atomic.Int32
	deleted atomic.Int32
	created atomic.Int32
	failure error
}

func (f *fakeNotes) List(context.Context, listNotes) ([]note, error) {
	f.listed.Add(1)
	if f.failure != nil {
		return nil, f.failure
	}
	out := make([]note, len(f.notes))
	copy(out, f.notes)
	return out, nil
}

func (f *fakeNotes) Delete(_ context.Context, in deleteNote) (bool, error) {
	f.deleted.Add(1)
	if f.failure != nil {
		return false, f.failure
	}
	return true, nil
}

func (f *fakeNotes) Create(_ context.Context, title string) (note, error) {
	f.created.Add(1)
	if f.failure != nil {
		return note{}, f.failure
	}
	return note{ID: 99}, nil
}

// countingGetter returns a getter that always yields s and counts reads.
func countingGetter(s session, reads *atomic.Int32) ContextGetter[session] {
	return func(context.Context) session {
		reads.Add(1)
		return s
	}
}

func strPtr(s string) *string { return &s }

// callLog records callback invocations.
type callLog struct {
	entries []string
}

func (c *callLog) callback(_ context.Context, info EndpointInfo, auth session) error {
	c.entries = append(c.entries, info.OperationID()+"|"+auth.user)
	return nil
}
