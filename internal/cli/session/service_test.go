package session

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() (*Service, *Store) {
	store, _, _ := newTestStore()
	return New(store, zerolog.Nop()), store
}

func TestService_InitialState(t *testing.T) {
	svc, _ := newTestService()

	state := svc.State()
	assert.True(t, state.Loading)
	assert.Nil(t, state.Identity)

	select {
	case <-svc.Ready():
		t.Fatal("service should not be ready before hydration")
	default:
	}
}

func TestService_HydrateWithoutSession(t *testing.T) {
	svc, _ := newTestService()

	require.NotPanics(t, func() {
		require.NoError(t, svc.Hydrate(context.Background()))
	})

	state := svc.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Identity)
	<-svc.Ready()
}

func TestService_HydrateWithSession(t *testing.T) {
	svc, store := newTestService()
	identity := Identity{ID: "1", Name: "A", Email: "a@x.com"}
	require.NoError(t, store.Save(identity, "tok123"))

	require.NoError(t, svc.Hydrate(context.Background()))

	state := svc.State()
	assert.False(t, state.Loading)
	require.NotNil(t, state.Identity)
	assert.Equal(t, identity, *state.Identity)

	header, err := svc.AuthorizationHeader()
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", header)
}

func TestService_HydrateWithCorruptIdentity(t *testing.T) {
	identities := NewMemoryBackend()
	tokens := NewMemoryBackend()
	require.NoError(t, identities.Set(identityKey, "{{{"))
	require.NoError(t, tokens.Set(tokenKey, "tok123"))
	svc := New(NewStore(identities, tokens, zerolog.Nop()), zerolog.Nop())

	require.NotPanics(t, func() {
		require.NoError(t, svc.Hydrate(context.Background()))
	})

	state := svc.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Identity)
}

func TestService_HydrateRunsOnce(t *testing.T) {
	svc, store := newTestService()

	var loadingTransitions int
	svc.Subscribe(func(state State) {
		if !state.Loading {
			loadingTransitions++
		}
	})

	require.NoError(t, svc.Hydrate(context.Background()))

	// A session saved after hydration is not picked up by a second call
	require.NoError(t, store.Save(Identity{ID: "2", Name: "B", Email: "b@x.com"}, "tok456"))
	require.NoError(t, svc.Hydrate(context.Background()))

	assert.Nil(t, svc.State().Identity)
	assert.Equal(t, 1, loadingTransitions)
}

func TestService_HydrateWithCancelledContext(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, store.Save(Identity{ID: "1", Name: "A", Email: "a@x.com"}, "tok123"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.Hydrate(ctx)
	assert.True(t, errors.Is(err, context.Canceled))

	state := svc.State()
	assert.False(t, state.Loading, "loading must end even when hydration is cancelled")
	assert.Nil(t, state.Identity)
	<-svc.Ready()
}

func TestService_LoginBeforeHydrationWins(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, store.Save(Identity{ID: "old", Name: "Old", Email: "old@x.com"}, "old-token"))

	require.NoError(t, svc.Login(Identity{ID: "new", Name: "New", Email: "new@x.com"}, "new-token"))
	assert.True(t, svc.State().Loading)

	require.NoError(t, svc.Hydrate(context.Background()))

	state := svc.State()
	assert.False(t, state.Loading)
	require.NotNil(t, state.Identity)
	assert.Equal(t, "new", state.Identity.ID)
}

func TestService_LogoutBeforeHydrationWins(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, store.Save(Identity{ID: "old", Name: "Old", Email: "old@x.com"}, "old-token"))

	require.NoError(t, svc.Logout())
	require.NoError(t, svc.Hydrate(context.Background()))

	assert.False(t, svc.State().Authenticated())
	assert.False(t, store.Read().Present())
}

func TestService_LoginScenario(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, svc.Hydrate(context.Background()))

	var observed []State
	svc.Subscribe(func(state State) { observed = append(observed, state) })

	identity := Identity{ID: "1", Name: "A", Email: "a@x.com"}
	require.NoError(t, svc.Login(identity, "tok123"))

	// Subscribers saw the change before Login returned
	require.Len(t, observed, 1)
	require.NotNil(t, observed[0].Identity)
	assert.Equal(t, "1", observed[0].Identity.ID)

	state := svc.State()
	assert.False(t, state.Loading)
	require.NotNil(t, state.Identity)
	assert.Equal(t, "1", state.Identity.ID)

	snapshot := store.Read()
	require.True(t, snapshot.Present())
	assert.Equal(t, "1", snapshot.Identity.ID)
	assert.Equal(t, "tok123", snapshot.Token)
}

func TestService_LogoutScenario(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, svc.Hydrate(context.Background()))
	require.NoError(t, svc.Login(Identity{ID: "1", Name: "A", Email: "a@x.com"}, "tok123"))

	require.NoError(t, svc.Logout())

	state := svc.State()
	assert.False(t, state.Loading)
	assert.Nil(t, state.Identity)
	assert.False(t, store.Read().Present())

	_, err := svc.AuthorizationHeader()
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}

func TestService_LoginLogoutSequences(t *testing.T) {
	sequences := [][]string{
		{"login", "logout"},
		{"login", "login", "logout"},
		{"logout", "login", "logout"},
		{"login", "logout", "login", "logout"},
	}

	for _, seq := range sequences {
		svc, store := newTestService()
		require.NoError(t, svc.Hydrate(context.Background()))

		for i, op := range seq {
			switch op {
			case "login":
				id := string(rune('a' + i))
				require.NoError(t, svc.Login(Identity{ID: id, Name: id, Email: id + "@x.com"}, "tok-"+id))
			case "logout":
				require.NoError(t, svc.Logout())
			}
		}

		assert.False(t, svc.State().Authenticated(), "sequence %v", seq)
		assert.False(t, store.Read().Present(), "sequence %v", seq)
	}
}

func TestService_LoginPersistFailureKeepsState(t *testing.T) {
	store := NewStore(NewMemoryBackend(), &failingBackend{NewMemoryBackend()}, zerolog.Nop())
	svc := New(store, zerolog.Nop())
	require.NoError(t, svc.Hydrate(context.Background()))

	err := svc.Login(Identity{ID: "1", Name: "A", Email: "a@x.com"}, "tok123")
	require.Error(t, err)
	assert.Nil(t, svc.State().Identity)
}

func TestService_Unsubscribe(t *testing.T) {
	svc, _ := newTestService()

	calls := 0
	unsubscribe := svc.Subscribe(func(State) { calls++ })
	require.NoError(t, svc.Hydrate(context.Background()))
	unsubscribe()
	require.NoError(t, svc.Login(Identity{ID: "1", Name: "A", Email: "a@x.com"}, "tok123"))

	assert.Equal(t, 1, calls)
}

func TestService_Expire(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, svc.Hydrate(context.Background()))
	require.NoError(t, svc.Login(Identity{ID: "1", Name: "A", Email: "a@x.com"}, "tok123"))

	require.NoError(t, svc.Expire())

	assert.False(t, svc.State().Authenticated())
	assert.False(t, store.Read().Present())
}

func TestService_Dispose(t *testing.T) {
	svc, store := newTestService()
	require.NoError(t, svc.Hydrate(context.Background()))
	require.NoError(t, svc.Login(Identity{ID: "1", Name: "A", Email: "a@x.com"}, "tok123"))

	calls := 0
	svc.Subscribe(func(State) { calls++ })
	svc.Dispose()

	assert.ErrorIs(t, svc.Login(Identity{ID: "2"}, "tok"), ErrDisposed)
	assert.ErrorIs(t, svc.Logout(), ErrDisposed)
	assert.Equal(t, 0, calls)

	// The durable session survives the service
	assert.True(t, store.Read().Present())
}

func TestContext(t *testing.T) {
	svc, _ := newTestService()

	_, ok := FromContext(context.Background())
	assert.False(t, ok)

	assert.PanicsWithValue(t,
		"session: Service must be attached to the context with session.WithService",
		func() { MustFromContext(context.Background()) },
	)

	ctx := WithService(context.Background(), svc)
	assert.Same(t, svc, MustFromContext(ctx))
}
