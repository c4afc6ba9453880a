package controller

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/notify"
	"github.com/userdesk/userdesk/internal/remote"
)

var ana = model.User{ID: 1, Name: "Ana", Email: "ana@x.com"}

func newTestController(api *fakeAPI) (*Controller, *notify.Queue) {
	q := notify.New(notify.WithTTL(0))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(api, q, logger), q
}

func kinds(q *notify.Queue) []notify.Kind {
	var out []notify.Kind
	for _, n := range q.List() {
		out = append(out, n.Kind)
	}
	return out
}

func TestFilter_SubsetAndMatches(t *testing.T) {
	users := []model.User{
		ana,
		{ID: 2, Name: "Bob", Email: "bob@example.org"},
		{ID: 3, Name: "Dana", Email: "D@X.COM"},
	}

	for _, term := range []string{"", "an", "AN", "x.com", "example", "zz", "b"} {
		t.Run(term, func(t *testing.T) {
			got := Filter(users, term)
			assert.LessOrEqual(t, len(got), len(users))
			for _, u := range got {
				assert.Contains(t, users, u)
				lower := strings.ToLower(term)
				assert.True(t,
					strings.Contains(strings.ToLower(u.Name), lower) ||
						strings.Contains(strings.ToLower(u.Email), lower),
					"%+v does not match %q", u, term)
			}
		})
	}
}

func TestFilter_Scenario(t *testing.T) {
	users := []model.User{ana}
	assert.Len(t, Filter(users, "an"), 1)
	assert.Len(t, Filter(users, "zz"), 0)
}

func TestComputeStats(t *testing.T) {
	tests := []struct {
		n    int
		want Stats
	}{
		{0, Stats{}},
		{1, Stats{Total: 1, Active: 1, NewThisMonth: 0}},
		{4, Stats{Total: 4, Active: 4, NewThisMonth: 1}},
		{10, Stats{Total: 10, Active: 10, NewThisMonth: 3}},
	}
	for _, test := range tests {
		users := make([]model.User, test.n)
		assert.Equal(t, test.want, ComputeStats(users), "n=%d", test.n)
	}
}

func TestRefresh_ReplacesListAndNotifies(t *testing.T) {
	api := newFakeAPI(ana)
	c, q := newTestController(api)

	require.NoError(t, c.Refresh(context.Background()))

	state := c.Snapshot()
	assert.Equal(t, []model.User{ana}, state.Users)
	assert.False(t, state.Refreshing)
	assert.Equal(t, []notify.Kind{notify.KindSuccess}, kinds(q))
	assert.Equal(t, MsgRefreshed, q.List()[0].Message)
}

func TestRefresh_FailureKeepsListAndNotifiesError(t *testing.T) {
	api := newFakeAPI(ana)
	c, q := newTestController(api)
	require.NoError(t, c.Refresh(context.Background()))

	api.listErr = errBoom
	require.Error(t, c.Refresh(context.Background()))

	assert.Equal(t, []model.User{ana}, c.Snapshot().Users)
	list := q.List()
	require.Len(t, list, 2)
	assert.Equal(t, notify.KindError, list[1].Kind)
	assert.Equal(t, MsgRefreshError, list[1].Message)
	assert.False(t, c.Snapshot().Refreshing)
}

func TestEmptyListIsValidState(t *testing.T) {
	c, q := newTestController(newFakeAPI())
	require.NoError(t, c.Refresh(context.Background()))

	state := c.Snapshot()
	assert.True(t, state.Empty())
	assert.Equal(t, Stats{}, state.Stats)
	assert.Equal(t, []notify.Kind{notify.KindSuccess}, kinds(q))
}

func TestAddUser_GrowsByOneWithOneNotification(t *testing.T) {
	api := newFakeAPI(ana)
	c, q := newTestController(api)
	require.NoError(t, c.Refresh(context.Background()))
	before := len(c.Snapshot().Users)
	q.Dismiss(q.List()[0].ID)

	require.NoError(t, c.AddUser(context.Background(), model.Draft{Name: "Bob", Email: "bob@x.com"}))

	state := c.Snapshot()
	assert.Len(t, state.Users, before+1)
	assert.Equal(t, "Bob", state.Users[len(state.Users)-1].Name)
	assert.False(t, state.Loading)

	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.KindSuccess, list[0].Kind)
	assert.Equal(t, MsgAdded, list[0].Message)
}

func TestAddUser_FailureDoesNotReload(t *testing.T) {
	api := newFakeAPI(ana)
	api.createErr = errBoom
	c, q := newTestController(api)

	err := c.AddUser(context.Background(), model.Draft{Name: "Bob", Email: "bob@x.com"})
	require.Error(t, err)

	assert.Equal(t, 0, api.count("list"))
	assert.False(t, c.Snapshot().Loading)
	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, MsgAddError, list[0].Message)
	assert.Equal(t, notify.KindError, list[0].Kind)
}

func TestUpdateUser(t *testing.T) {
	api := newFakeAPI(ana)
	c, q := newTestController(api)

	require.NoError(t, c.UpdateUser(context.Background(), model.User{ID: 1, Name: "Ana Maria", Email: "ana@x.com"}))

	u, ok := c.Find(1)
	require.True(t, ok)
	assert.Equal(t, "Ana Maria", u.Name)
	assert.Equal(t, []notify.Kind{notify.KindSuccess}, kinds(q))
	assert.Equal(t, MsgUpdated, q.List()[0].Message)
	assert.Empty(t, c.Snapshot().Pending)
}

func TestUpdateUser_MissingRecordFails(t *testing.T) {
	c, q := newTestController(newFakeAPI(ana))

	require.Error(t, c.UpdateUser(context.Background(), model.User{ID: 42, Name: "x", Email: "y"}))
	assert.Equal(t, []notify.Kind{notify.KindError}, kinds(q))
	assert.Equal(t, MsgUpdateError, q.List()[0].Message)
}

func TestDeleteUser_Scenario(t *testing.T) {
	api := newFakeAPI(ana, model.User{ID: 2, Name: "Bob", Email: "bob@x.com"})
	c, q := newTestController(api)

	require.NoError(t, c.DeleteUser(context.Background(), 1))

	for _, u := range c.Snapshot().Users {
		assert.NotEqual(t, int64(1), u.ID)
	}
	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.KindSuccess, list[0].Kind)
	assert.Equal(t, MsgDeleted, list[0].Message)
}

func TestDeleteUser_Failure(t *testing.T) {
	api := newFakeAPI(ana)
	api.deleteErr = errBoom
	c, q := newTestController(api)

	require.Error(t, c.DeleteUser(context.Background(), 1))
	assert.Equal(t, 0, api.count("list"))
	assert.Equal(t, []notify.Kind{notify.KindError}, kinds(q))
	assert.Equal(t, MsgDeleteError, q.List()[0].Message)
}

func TestMutation_ReloadFailureIsSingleError(t *testing.T) {
	api := newFakeAPI(ana)
	api.listErr = errBoom
	c, q := newTestController(api)

	err := c.DeleteUser(context.Background(), 1)
	require.ErrorIs(t, err, ErrStale)
	assert.ErrorIs(t, err, remote.ErrRemote)
	var serr *remote.ServerError
	assert.ErrorAs(t, err, &serr)

	list := q.List()
	require.Len(t, list, 1)
	assert.Equal(t, notify.KindError, list[0].Kind)
	assert.Contains(t, list[0].Message, "failed to refresh")
}

func TestSearchTerm(t *testing.T) {
	api := newFakeAPI(ana, model.User{ID: 2, Name: "Bob", Email: "bob@y.org"})
	c, _ := newTestController(api)
	require.NoError(t, c.Refresh(context.Background()))

	c.SetSearchTerm("BO")
	state := c.Snapshot()
	assert.Equal(t, "BO", state.SearchTerm)
	require.Len(t, state.Filtered, 1)
	assert.Equal(t, int64(2), state.Filtered[0].ID)
	assert.Len(t, state.Users, 2, "filtering never touches the canonical list")

	c.ClearSearch()
	assert.Len(t, c.Snapshot().Filtered, 2)
}

func TestSnapshotIsACopy(t *testing.T) {
	c, _ := newTestController(newFakeAPI(ana))
	require.NoError(t, c.Refresh(context.Background()))

	state := c.Snapshot()
	state.Users[0].Name = "mutated"

	u, _ := c.Find(1)
	assert.Equal(t, "Ana", u.Name)
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestController(newFakeAPI(ana))

	var mu sync.Mutex
	var states []State
	c.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	require.NoError(t, c.Refresh(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, states)
	assert.True(t, states[0].Refreshing, "first publish marks refreshing")
	last := states[len(states)-1]
	assert.False(t, last.Refreshing)
	assert.Len(t, last.Users, 1)
}

func TestSameRecordMutationsAreSerialized(t *testing.T) {
	api := newFakeAPI(ana)
	api.gate = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	c, q := newTestController(api)

	var g errgroup.Group
	g.Go(func() error {
		return c.UpdateUser(context.Background(), model.User{ID: 1, Name: "Ana 2", Email: "ana@x.com"})
	})

	<-api.entered
	assert.True(t, c.Snapshot().IsPending(1))
	assert.True(t, c.Snapshot().Loading)

	err := c.DeleteUser(context.Background(), 1)
	require.ErrorIs(t, err, ErrRecordBusy)
	assert.Equal(t, 0, api.count("delete"), "busy record never reaches the API")

	close(api.gate)
	require.NoError(t, g.Wait())

	assert.False(t, c.Snapshot().IsPending(1))
	assert.False(t, c.Snapshot().Loading)

	var errorsSeen, successSeen int
	for _, n := range q.List() {
		switch n.Kind {
		case notify.KindError:
			errorsSeen++
		case notify.KindSuccess:
			successSeen++
		}
	}
	assert.Equal(t, 1, errorsSeen)
	assert.Equal(t, 1, successSeen)
}

func TestConcurrentAddsAllLand(t *testing.T) {
	api := newFakeAPI()
	c, q := newTestController(api)

	var g errgroup.Group
	for i := 0; i < 10; i++ {
		g.Go(func() error {
			return c.AddUser(context.Background(), model.Draft{Name: "u", Email: "u@x.com"})
		})
	}
	require.NoError(t, g.Wait())

	require.NoError(t, c.Refresh(context.Background()))
	assert.Len(t, c.Snapshot().Users, 10)
	assert.Equal(t, 11, q.Len(), "ten adds plus one refresh")
	assert.False(t, c.Snapshot().Loading)
}
