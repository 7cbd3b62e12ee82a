package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"collaborax/database"
	"collaborax/models"
	"collaborax/utils"
)

type flakyBlobStore struct {
	*database.MemoryBlobStore
	failPuts atomic.Bool
}

func (f *flakyBlobStore) Put(ctx context.Context, key string, value []byte) error {
	if f.failPuts.Load() {
		return errors.New("quota exceeded")
	}
	return f.MemoryBlobStore.Put(ctx, key, value)
}

func newTestService(t *testing.T, blobs database.BlobStore) *WorkspaceService {
	t.Helper()
	store, err := database.NewStore(blobs, "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	svc := NewWorkspaceService(store)
	require.NoError(t, svc.Init(context.Background()))
	return svc
}

func signup(t *testing.T, svc *WorkspaceService, name, email string) models.User {
	t.Helper()
	user, err := svc.Signup(context.Background(), SignupRequest{Name: name, Email: email, Password: "pw-" + name})
	require.NoError(t, err)
	return user
}

func TestSignupRejectsDuplicateEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())

	first := signup(t, svc, "Ana", "ana@x.io")
	assert.Equal(t, utils.PrefixUser, utils.IDPrefix(first.ID))

	_, err := svc.Signup(ctx, SignupRequest{Name: "Other", Email: "ana@x.io", Password: "zzz"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "Ana", users[0].Name)
}

func TestSignupValidation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())

	_, err := svc.Signup(ctx, SignupRequest{Email: "a@x.io", Password: "p"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, SignupRequest{Name: "A", Email: "not-an-email", Password: "p"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = svc.Signup(ctx, SignupRequest{Name: "A", Email: "a@x.io"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")

	got, err := svc.Authenticate(ctx, "ana@x.io", "pw-Ana")
	require.NoError(t, err)
	assert.Equal(t, ana.ID, got.ID)

	_, err = svc.Authenticate(ctx, "ana@x.io", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "nobody@x.io", "pw-Ana")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Authenticate(ctx, "ANA@x.io", "pw-Ana")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestPasswordsAreHashed(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")

	var row database.UserRow
	require.NoError(t, svc.store.DB(ctx).Take(&row, "id = ?", ana.ID).Error)
	assert.NotEqual(t, "pw-Ana", row.Password)
	assert.True(t, utils.CheckPassword(row.Password, "pw-Ana"))
}

func TestMutationsSurviveRestart(t *testing.T) {
	ctx := context.Background()
	blobs := database.NewMemoryBlobStore()

	svc := newTestService(t, blobs)
	ana := signup(t, svc, "Ana", "ana@x.io")
	team, err := svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)

	restarted := newTestService(t, blobs)
	users, err := restarted.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)

	teams, err := restarted.ListTeams(ctx)
	require.NoError(t, err)
	require.Len(t, teams, 1)
	assert.Equal(t, team, teams[0])
}

func TestPersistFailureIsNotFatal(t *testing.T) {
	ctx := context.Background()
	blobs := &flakyBlobStore{MemoryBlobStore: database.NewMemoryBlobStore()}
	svc := newTestService(t, blobs)

	blobs.failPuts.Store(true)
	ana := signup(t, svc, "Ana", "ana@x.io")
	assert.True(t, svc.Unsaved())

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, ana.ID, users[0].ID)

	blobs.failPuts.Store(false)
	_, err = svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)
	assert.False(t, svc.Unsaved())
}

func TestListOrderIsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())

	names := []string{"Zed", "Amy", "Max"}
	for _, n := range names {
		signup(t, svc, n, n+"@x.io")
	}

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	for i, n := range names {
		assert.Equal(t, n, users[i].Name)
	}
}

func TestAddMessageStoresUTC(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, database.NewMemoryBlobStore())
	ana := signup(t, svc, "Ana", "ana@x.io")
	team, err := svc.CreateTeam(ctx, "Alpha", ana)
	require.NoError(t, err)

	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.FixedZone("BRT", -3*3600))
	_, err = svc.AddMessage(ctx, MessageRequest{
		TeamID: team.ID, ChannelID: models.PublicChannel, SenderID: ana.ID, Content: "hi", Timestamp: at,
	})
	require.NoError(t, err)

	messages, err := svc.ListMessages(ctx)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.True(t, messages[0].Timestamp.Equal(at))
}
