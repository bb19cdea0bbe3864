package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hridesh-bharati/jibzo-sub000/internal/domain/directory"
	"github.com/hridesh-bharati/jibzo-sub000/internal/middleware"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/jwt"
	"github.com/hridesh-bharati/jibzo-sub000/internal/pkg/relstore"
)

type testAPI struct {
	router  http.Handler
	jwt     *jwt.Service
	engine  *Engine
	store   *relstore.MemoryStore
}

func newTestAPI(t *testing.T, uids ...string) *testAPI {
	t.Helper()

	store := relstore.NewMemoryStore()
	ctx := context.Background()
	for _, uid := range uids {
		p := directory.Profile{UID: uid, Username: uid + "-name"}
		if err := store.Write(ctx, relstore.WriteSet{directory.ProfilePath(uid): p}); err != nil {
			t.Fatalf("seed profile %s: %v", uid, err)
		}
	}

	engine := NewEngine(store, directory.New(store, time.Minute), nil)
	jwtService := jwt.NewService("test-secret", time.Hour)
	router := NewHandler(engine).Routes(middleware.Auth(jwtService))

	return &testAPI{router: router, jwt: jwtService, engine: engine, store: store}
}

func (a *testAPI) request(t *testing.T, method, path, asUID, role string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if asUID != "" {
		token, err := a.jwt.GenerateAccessToken(asUID, role)
		if err != nil {
			t.Fatalf("generate token: %v", err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func TestFollowEndpoint(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	rec := api.request(t, http.MethodPost, "/users/b/follow", "a", "user", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Success bool           `json:"success"`
		Data    FollowResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success || envelope.Data.Outcome != OutcomeRequested {
		t.Errorf("response = %+v", envelope)
	}
}

func TestFollowRequiresAuth(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	rec := api.request(t, http.MethodPost, "/users/b/follow", "", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestFollowQueryTokenFallback(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	token, err := api.jwt.GenerateAccessToken("a", "user")
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/users/b/follow?token="+token, nil)
	rec := httptest.NewRecorder()
	api.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Errorf("status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestFollowSelfRejected(t *testing.T) {
	api := newTestAPI(t, "a")

	rec := api.request(t, http.MethodPost, "/users/a/follow", "a", "user", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFollowUnknownTargetEndpoint(t *testing.T) {
	api := newTestAPI(t, "a")

	rec := api.request(t, http.MethodPost, "/users/ghost/follow", "a", "user", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestFollowMalformedTarget(t *testing.T) {
	api := newTestAPI(t, "a")

	rec := api.request(t, http.MethodPost, "/users/not%20a%20uid/follow", "a", "user", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestFollowBlockedReturnsForbidden(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	if rec := api.request(t, http.MethodPost, "/users/a/block", "b", "user", nil); rec.Code != http.StatusOK {
		t.Fatalf("block status = %d", rec.Code)
	}

	rec := api.request(t, http.MethodPost, "/users/b/follow", "a", "user", nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestRequestLifecycleEndpoints(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	if rec := api.request(t, http.MethodPost, "/users/b/follow", "a", "user", nil); rec.Code != http.StatusCreated {
		t.Fatalf("follow status = %d", rec.Code)
	}
	if rec := api.request(t, http.MethodPost, "/users/a/request/accept", "b", "user", nil); rec.Code != http.StatusOK {
		t.Fatalf("accept status = %d, body = %s", rec.Code, rec.Body)
	}

	ctx := context.Background()
	raw, err := api.store.Read(ctx, friendsPath("a", "b"))
	if err != nil || raw == nil {
		t.Errorf("friendship missing after acceptance (err=%v)", err)
	}

	if rec := api.request(t, http.MethodDelete, "/users/b/follow", "a", "user", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("unfollow status = %d", rec.Code)
	}
	raw, err = api.store.Read(ctx, friendsPath("a", "b"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if raw != nil {
		t.Error("friendship must end on unfollow")
	}
}

func TestBlockEndpoints(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	if rec := api.request(t, http.MethodPost, "/users/b/block", "a", "user", nil); rec.Code != http.StatusOK {
		t.Fatalf("block status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := api.request(t, http.MethodDelete, "/users/b/block", "a", "user", nil); rec.Code != http.StatusNoContent {
		t.Fatalf("unblock status = %d", rec.Code)
	}
}

func TestRelationsEndpoint(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	if rec := api.request(t, http.MethodPost, "/users/a/follow", "b", "user", nil); rec.Code != http.StatusCreated {
		t.Fatalf("follow status = %d", rec.Code)
	}

	rec := api.request(t, http.MethodGet, "/users/me/relations", "a", "user", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var envelope struct {
		Data RelationList `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.RequestsReceived) != 1 || envelope.Data.RequestsReceived[0].UID != "b" {
		t.Errorf("requestsReceived = %+v", envelope.Data.RequestsReceived)
	}
}

func TestPurgeRequiresAdmin(t *testing.T) {
	api := newTestAPI(t, "a", "b")

	rec := api.request(t, http.MethodDelete, "/admin/users/b/relations", "a", "user", PurgeRequest{UID: "b"})
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestPurgeAsAdmin(t *testing.T) {
	api := newTestAPI(t, "a", "b", "root")

	if rec := api.request(t, http.MethodPost, "/users/b/follow", "a", "user", nil); rec.Code != http.StatusCreated {
		t.Fatalf("follow status = %d", rec.Code)
	}

	rec := api.request(t, http.MethodDelete, "/admin/users/a/relations", "root", "admin", PurgeRequest{UID: "a"})
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	entries, err := api.store.ReadBranch(context.Background(), sentRequestsBranch("a"))
	if err != nil {
		t.Fatalf("ReadBranch: %v", err)
	}
	if len(entries) != 0 {
		t.Error("relations must be gone after purge")
	}
}

func TestPurgeConfirmationMismatch(t *testing.T) {
	api := newTestAPI(t, "a", "root")

	rec := api.request(t, http.MethodDelete, "/admin/users/a/relations", "root", "admin", PurgeRequest{UID: "someone-else"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestPutProfileEndpoint(t *testing.T) {
	api := newTestAPI(t, "root")

	rec := api.request(t, http.MethodPut, "/admin/users/newcomer/profile", "root", "admin",
		PutProfileRequest{Username: "brand-new"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	raw, err := api.store.Read(context.Background(), directory.ProfilePath("newcomer"))
	if err != nil || raw == nil {
		t.Fatalf("profile missing after put (err=%v)", err)
	}
	var p directory.Profile
	if err := json.Unmarshal(raw, &p); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if p.Username != "brand-new" {
		t.Errorf("username = %q", p.Username)
	}
}

func TestPutProfileValidation(t *testing.T) {
	api := newTestAPI(t, "root")

	rec := api.request(t, http.MethodPut, "/admin/users/newcomer/profile", "root", "admin",
		PutProfileRequest{Username: ""})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}
