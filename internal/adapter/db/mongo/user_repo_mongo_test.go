package mongo

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap/zaptest"

	domain "user-service/internal/domain/user"
	pkgerrors "user-service/pkg/errors"
)

// setupTestRepo connects to the instance named by MONGO_TEST_URI and builds
// a repository over a throwaway database that is dropped when the test ends.
// Tests are skipped when the variable is unset.
func setupTestRepo(t *testing.T) *UserRepoMongo {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set, skipping mongo integration tests")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	require.NoError(t, err)

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, client.Ping(pingCtx, nil))

	db := client.Database(fmt.Sprintf("user_service_test_%d", time.Now().UnixNano()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	repo := NewUserRepoMongo(db, zaptest.NewLogger(t))
	require.NoError(t, repo.EnsureIndexes(context.Background()))
	return repo
}

func newUser(email string) *domain.User {
	return &domain.User{
		Name:     "John",
		Surname:  "Doe",
		Email:    email,
		JobTitle: "Engineer",
	}
}

func TestUserRepoMongo_Create_RoundTrip(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("john.doe@example.com"))
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)

	// The record read back must match the record returned by create exactly
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Name, fetched.Name)
	assert.Equal(t, created.Surname, fetched.Surname)
	assert.Equal(t, created.Email, fetched.Email)
	assert.Equal(t, created.JobTitle, fetched.JobTitle)
	assert.True(t, created.CreatedAt.Equal(fetched.CreatedAt))
	assert.True(t, created.UpdatedAt.Equal(fetched.UpdatedAt))
}

func TestUserRepoMongo_Create_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("john.doe@example.com"))
	require.NoError(t, err)

	// The unique index must reject the second insert as a conflict
	_, err = repo.Create(ctx, newUser("john.doe@example.com"))
	require.Error(t, err)

	var exists *pkgerrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestUserRepoMongo_GetByID_MalformedID(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), "definitely-not-an-object-id")
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoMongo_GetByID_Missing(t *testing.T) {
	repo := setupTestRepo(t)

	_, err := repo.GetByID(context.Background(), "64f000000000000000000000")
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoMongo_GetByEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("john.doe@example.com"))
	require.NoError(t, err)

	found, err := repo.GetByEmail(ctx, "john.doe@example.com")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, created.ID, found.ID)

	// Absence is nil, not an error
	missing, err := repo.GetByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserRepoMongo_GetByEmailExcludingID(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	john, err := repo.Create(ctx, newUser("john.doe@example.com"))
	require.NoError(t, err)

	// Excluding the record that holds the email finds nothing
	found, err := repo.GetByEmailExcludingID(ctx, "john.doe@example.com", john.ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	// Excluding a different record still finds the holder
	found, err = repo.GetByEmailExcludingID(ctx, "john.doe@example.com", "64f000000000000000000000")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, john.ID, found.ID)

	// A malformed exclusion id excludes nothing
	found, err = repo.GetByEmailExcludingID(ctx, "john.doe@example.com", "not-an-id")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, john.ID, found.ID)
}

func TestUserRepoMongo_Update(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("john.doe@example.com"))
	require.NoError(t, err)

	updated, err := repo.Update(ctx, &domain.User{
		ID:       created.ID,
		Name:     "Johnny",
		Surname:  "Doe",
		Email:    "johnny.doe@example.com",
		JobTitle: "Staff Engineer",
	})
	require.NoError(t, err)

	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Johnny", updated.Name)
	assert.Equal(t, "johnny.doe@example.com", updated.Email)
	assert.Equal(t, "Staff Engineer", updated.JobTitle)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(updated.CreatedAt) || updated.UpdatedAt.Equal(updated.CreatedAt))

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Johnny", fetched.Name)
}

func TestUserRepoMongo_Update_NotFound(t *testing.T) {
	repo := setupTestRepo(t)

	u := newUser("ghost@example.com")
	u.ID = "64f000000000000000000000"

	_, err := repo.Update(context.Background(), u)
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoMongo_Update_MalformedID(t *testing.T) {
	repo := setupTestRepo(t)

	u := newUser("ghost@example.com")
	u.ID = "nope"

	_, err := repo.Update(context.Background(), u)
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoMongo_Update_DuplicateEmail(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, newUser("taken@example.com"))
	require.NoError(t, err)

	jane := newUser("jane.doe@example.com")
	jane.Name = "Jane"
	created, err := repo.Create(ctx, jane)
	require.NoError(t, err)

	created.Email = "taken@example.com"
	_, err = repo.Update(ctx, created)
	require.Error(t, err)

	var exists *pkgerrors.AlreadyExistsError
	assert.ErrorAs(t, err, &exists)
}

func TestUserRepoMongo_Delete(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, newUser("john.doe@example.com"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, created.ID))

	// A second delete finds nothing
	err = repo.Delete(ctx, created.ID)
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)

	// And so does a get
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoMongo_Delete_MalformedID(t *testing.T) {
	repo := setupTestRepo(t)

	err := repo.Delete(context.Background(), "not-an-id")
	require.Error(t, err)

	var nf *pkgerrors.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestUserRepoMongo_List_OrderedByCreation(t *testing.T) {
	repo := setupTestRepo(t)
	ctx := context.Background()

	emails := []string{"a@example.com", "b@example.com", "c@example.com"}
	for _, email := range emails {
		_, err := repo.Create(ctx, newUser(email))
		require.NoError(t, err)
		time.Sleep(5 * time.Millisecond)
	}

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)

	for i, email := range emails {
		assert.Equal(t, email, users[i].Email)
	}
}

func TestUserRepoMongo_List_Empty(t *testing.T) {
	repo := setupTestRepo(t)

	users, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, users)
	assert.Len(t, users, 0)
}
