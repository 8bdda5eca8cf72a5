package http_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/velomarket/rental-api/internal/domain"
	api "github.com/velomarket/rental-api/internal/http"
	"github.com/velomarket/rental-api/internal/queue"
	"github.com/velomarket/rental-api/internal/security"
	"github.com/velomarket/rental-api/internal/session"
)

// fakeStore is an in-memory stand-in for repo.Store so the handlers
// run against the real router without a mongod.
type fakeStore struct {
	mu      sync.Mutex
	users   map[primitive.ObjectID]*domain.User
	bikes   map[primitive.ObjectID]*domain.Bike
	pingErr error
	opErr   error

	// failBikeDeleteOn makes the nth DeleteBike call fail (1-based,
	// 0 disables), so a cascade can break partway through.
	failBikeDeleteOn int
	bikeDeleteCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users: make(map[primitive.ObjectID]*domain.User),
		bikes: make(map[primitive.ObjectID]*domain.Bike),
	}
}

func cloneUser(u *domain.User) *domain.User {
	cp := *u
	cp.Reviews = append([]string(nil), u.Reviews...)
	cp.Bikes = append([]primitive.ObjectID(nil), u.Bikes...)
	return &cp
}

func (f *fakeStore) Ping(ctx context.Context) error { return f.pingErr }

func (f *fakeStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return nil, f.opErr
	}
	out := []domain.User{}
	for _, u := range f.users {
		out = append(out, *cloneUser(u))
	}
	return out, nil
}

func (f *fakeStore) CreateUser(ctx context.Context, u *domain.User, password string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return f.opErr
	}
	for _, have := range f.users {
		if have.Email == u.Email {
			return errors.New("E11000 duplicate key error")
		}
	}
	hash, err := security.HashPassword(password)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.ID = primitive.NewObjectID()
	f.users[u.ID] = cloneUser(u)
	return nil
}

func (f *fakeStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return nil, f.opErr
	}
	for _, u := range f.users {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return nil, f.opErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (f *fakeStore) SaveUser(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return f.opErr
	}
	f.users[u.ID] = cloneUser(u)
	return nil
}

func (f *fakeStore) SetUserFields(ctx context.Context, id primitive.ObjectID, fields map[string]any) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return nil, f.opErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	if v, ok := fields["image_id"].(string); ok {
		u.ImageID = v
	}
	if v, ok := fields["image_url"].(string); ok {
		u.ImageURL = v
	}
	return cloneUser(u), nil
}

func (f *fakeStore) DeleteUser(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return nil, f.opErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	delete(f.users, id)
	return u, nil
}

func (f *fakeStore) DeleteBike(ctx context.Context, id primitive.ObjectID) (*domain.Bike, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.opErr != nil {
		return nil, f.opErr
	}
	f.bikeDeleteCalls++
	if f.failBikeDeleteOn != 0 && f.bikeDeleteCalls == f.failBikeDeleteOn {
		return nil, errors.New("connection reset by peer")
	}
	b, ok := f.bikes[id]
	if !ok {
		return nil, nil
	}
	delete(f.bikes, id)
	return b, nil
}

type testEnv struct {
	T      *testing.T
	Store  *fakeStore
	Router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	st := newFakeStore()
	h := api.NewHandler(st, session.NewMemory(time.Hour), queue.NewNoop(), "session_id", false, time.Hour)
	return &testEnv{T: t, Store: st, Router: api.NewRouter(h)}
}

func (e *testEnv) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	e.T.Helper()
	w := httptest.NewRecorder()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	e.Router.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, ck := range w.Result().Cookies() {
		if ck.Name == "session_id" {
			return ck
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}
