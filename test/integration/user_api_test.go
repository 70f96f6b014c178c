package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"user-service/internal/adapter/events"
	ginhandler "user-service/internal/adapter/gin/handler"
	ginrouter "user-service/internal/adapter/gin/router"
	"user-service/internal/config"
	domain "user-service/internal/domain/user"
	"user-service/internal/usecase/user"
	pkgerrors "user-service/pkg/errors"
)

// memoryRepo is an in-memory user.Repository used to exercise the full HTTP
// stack without a running document store. It mirrors the mongo adapter's
// contract: absence from email lookups is nil, absence from id lookups is a
// NotFoundError, and duplicate emails at write time are conflicts.
type memoryRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]domain.User
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[string]domain.User)}
}

func (r *memoryRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Email == u.Email {
			return nil, pkgerrors.NewAlreadyExistsError("user", "user with this email already exists")
		}
	}

	r.seq++
	now := time.Now().UTC().Truncate(time.Millisecond)
	stored := domain.User{
		ID:        fmt.Sprintf("%024x", r.seq),
		Name:      u.Name,
		Surname:   u.Surname,
		Email:     u.Email,
		JobTitle:  u.JobTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.users[stored.ID] = stored
	return &stored, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user", "user not found")
	}
	return &u, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) GetByEmailExcludingID(_ context.Context, email, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Email == email && u.ID != id {
			u := u
			return &u, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) Update(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.users[u.ID]
	if !ok {
		return nil, pkgerrors.NewNotFoundError("user", "user not found")
	}

	stored.Name = u.Name
	stored.Surname = u.Surname
	stored.Email = u.Email
	stored.JobTitle = u.JobTitle
	stored.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	r.users[u.ID] = stored
	return &stored, nil
}

func (r *memoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return pkgerrors.NewNotFoundError("user", "user not found")
	}
	delete(r.users, id)
	return nil
}

func (r *memoryRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	users := make([]domain.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	return users, nil
}

func setupAPI(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := zaptest.NewLogger(t)
	uc := user.New(newMemoryRepo(), events.NewNoopPublisher(), log)
	h := ginhandler.NewUserHandler(uc, log)

	cfg := &config.Config{}
	cfg.App.FrontendOrigin = "http://localhost:3000"
	cfg.Logger.ServiceName = "user-service"

	return ginrouter.SetupRouter(h, cfg, log)
}

type errorBody struct {
	Message string                 `json:"message"`
	Errors  []pkgerrors.FieldError `json:"errors"`
	Error   string                 `json:"error"`
}

func call(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, r *gin.Engine, name, surname, email, jobTitle string) user.User {
	t.Helper()
	w := call(r, http.MethodPost, "/sign-up", map[string]string{
		"name": name, "surname": surname, "email": email, "jobTitle": jobTitle,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created user.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created
}

func TestLiveness(t *testing.T) {
	r := setupAPI(t)

	w := call(r, http.MethodGet, "/", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "up and running")
}

func TestHealth(t *testing.T) {
	r := setupAPI(t)

	w := call(r, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "user-service", body["service"])
}

func TestSignUp_NormalizesEmail(t *testing.T) {
	r := setupAPI(t)

	created := signUp(t, r, "Jane", "Doe", "  Jane.Doe@Example.COM  ", "Engineer")

	assert.Equal(t, "jane.doe@example.com", created.Email)
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
}

func TestSignUp_MissingFields_ReportsOnePerField(t *testing.T) {
	r := setupAPI(t)

	w := call(r, http.MethodPost, "/sign-up", map[string]string{"email": "not-an-email"})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 4)
	assert.Equal(t, "name", body.Errors[0].Field)
	assert.Equal(t, "surname", body.Errors[1].Field)
	assert.Equal(t, "email", body.Errors[2].Field)
	assert.Equal(t, "email must be a valid email address", body.Errors[2].Message)
	assert.Equal(t, "jobTitle", body.Errors[3].Field)
}

func TestSignUp_NoBody_ReportsAllFields(t *testing.T) {
	r := setupAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/sign-up", nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Errors, 4)
	assert.Equal(t, "name is required", body.Errors[0].Message)
	assert.Equal(t, "surname is required", body.Errors[1].Message)
	assert.Equal(t, "email is required", body.Errors[2].Message)
	assert.Equal(t, "jobTitle is required", body.Errors[3].Message)
}

func TestUpdateUser_NoBody_ReportsAllFields(t *testing.T) {
	r := setupAPI(t)
	created := signUp(t, r, "Jane", "Doe", "jane.doe@example.com", "Engineer")

	req := httptest.NewRequest(http.MethodPut, "/users/"+created.ID, nil)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Errors, 4)
}

func TestSignUp_DuplicateEmail_CaseAndWhitespaceInsensitive(t *testing.T) {
	r := setupAPI(t)
	signUp(t, r, "Jane", "Doe", "jane.doe@example.com", "Engineer")

	w := call(r, http.MethodPost, "/sign-up", map[string]string{
		"name": "Janet", "surname": "Doette", "email": " JANE.DOE@example.com ", "jobTitle": "Manager",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "already exists")
	assert.Empty(t, body.Errors)

	// No second record was persisted
	list := call(r, http.MethodGet, "/users", nil)
	var users []user.User
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestRoundTrip_CreateThenGet(t *testing.T) {
	r := setupAPI(t)
	created := signUp(t, r, "Jane", "Doe", "jane.doe@example.com", "Engineer")

	w := call(r, http.MethodGet, "/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched user.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, created, fetched)
}

func TestListUsers_EmptyIsArray(t *testing.T) {
	r := setupAPI(t)

	w := call(r, http.MethodGet, "/users", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())
}

func TestUpdateUser_OwnEmailAllowed(t *testing.T) {
	r := setupAPI(t)
	created := signUp(t, r, "Jane", "Doe", "jane.doe@example.com", "Engineer")

	w := call(r, http.MethodPut, "/users/"+created.ID, map[string]string{
		"name": "Jane", "surname": "Doe", "email": "jane.doe@example.com", "jobTitle": "Principal Engineer",
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated user.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Principal Engineer", updated.JobTitle)
	assert.Equal(t, created.CreatedAt, updated.CreatedAt)
}

func TestUpdateUser_TakenEmailRejected(t *testing.T) {
	r := setupAPI(t)
	signUp(t, r, "Jane", "Doe", "jane.doe@example.com", "Engineer")
	other := signUp(t, r, "John", "Smith", "john.smith@example.com", "Designer")

	w := call(r, http.MethodPut, "/users/"+other.ID, map[string]string{
		"name": "John", "surname": "Smith", "email": "Jane.Doe@example.com", "jobTitle": "Designer",
	})

	require.Equal(t, http.StatusBadRequest, w.Code)

	var body errorBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Message, "already exists")
}

func TestUpdateUser_NotFound(t *testing.T) {
	r := setupAPI(t)

	w := call(r, http.MethodPut, "/users/ffffffffffffffffffffffff", map[string]string{
		"name": "Jane", "surname": "Doe", "email": "jane.doe@example.com", "jobTitle": "Engineer",
	})

	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteUser_ThenGetIs404(t *testing.T) {
	r := setupAPI(t)
	created := signUp(t, r, "Jane", "Doe", "jane.doe@example.com", "Engineer")

	w := call(r, http.MethodDelete, "/users/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.NotEmpty(t, body["message"])

	get := call(r, http.MethodGet, "/users/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, get.Code)

	del := call(r, http.MethodDelete, "/users/"+created.ID, nil)
	require.Equal(t, http.StatusNotFound, del.Code)
}

func TestCORS_Preflight(t *testing.T) {
	r := setupAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCORS_UnknownOriginRejected(t *testing.T) {
	r := setupAPI(t)

	req := httptest.NewRequest(http.MethodOptions, "/users", nil)
	req.Header.Set("Origin", "http://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}
