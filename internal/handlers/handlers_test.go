package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/tariel-x/guestlist/internal/config"
	"github.com/tariel-x/guestlist/internal/database"
	"github.com/tariel-x/guestlist/internal/store"
)

func newTestHandlers(t *testing.T, cfg *config.Config) *Handlers {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Initialize: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	return New(cfg, store.New(db), NewEventHub(), websocket.Upgrader{})
}

func newTestRouter(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	return routerFor(newTestHandlers(t, cfg))
}

func routerFor(h *Handlers) *gin.Engine {
	router := gin.New()
	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.POST("/login", h.Login)
		api.GET("/events", h.HandleEvents)

		api.GET("/guests", h.ListGuests)
		api.GET("/guests/export", h.ExportGuests)
		api.GET("/guests/:id", h.GetGuest)
		api.GET("/guest-groups", h.ListGroups)
	}
	protected := router.Group("/api")
	protected.Use(h.AuthMiddleware())
	{
		protected.POST("/guests", h.CreateGuest)
		protected.PUT("/guests/:id", h.UpdateGuest)
		protected.DELETE("/guests/:id", h.DeleteGuest)
		protected.POST("/guest-groups", h.CreateGroup)
		protected.PUT("/guest-groups/:id", h.RenameGroup)
		protected.DELETE("/guest-groups/:id", h.DeleteGroup)
	}
	return router
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)
	rec := doJSON(router, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestCreateGuest(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi","guestGroup":"Family"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["name"] != "Budi" {
		t.Fatalf("name = %v, want Budi", body["name"])
	}
	if body["guestGroup"] != "Family" {
		t.Fatalf("guestGroup = %v, want Family", body["guestGroup"])
	}
	if body["id"] == nil {
		t.Fatalf("response has no id: %s", rec.Body.String())
	}
}

func TestCreateGuestValidation(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodPost, "/api/guests", `{"address":"somewhere"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing name: status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "name is required" {
		t.Fatalf("error = %v, want name is required", body["error"])
	}

	rec = doJSON(router, http.MethodPost, "/api/guests", `{"name":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed JSON: status = %d, want 400", rec.Code)
	}

	// Missing JSON content type.
	req := httptest.NewRequest(http.MethodPost, "/api/guests", strings.NewReader(`{"name":"Budi"}`))
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusBadRequest {
		t.Fatalf("no content type: status = %d, want 400", rec2.Code)
	}
}

func TestListGuestsEnvelope(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi","weddingLocation":"Semarang","guestGroup":"Family"}`)

	rec := doJSON(router, http.MethodGet, "/api/guests?search=budi", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	for _, key := range []string{"data", "total", "totalAll", "uniqueLocations", "guestGroupNames"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("envelope missing %q: %s", key, rec.Body.String())
		}
	}
	if body["total"].(float64) != 1 {
		t.Fatalf("total = %v, want 1", body["total"])
	}
}

func TestGetGuestErrors(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodGet, "/api/guests/abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("non-numeric id: status = %d, want 400", rec.Code)
	}
	rec = doJSON(router, http.MethodGet, "/api/guests/999", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id: status = %d, want 404", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Guest not found" {
		t.Fatalf("error = %v, want Guest not found", body["error"])
	}
}

func TestUpdateGuestNullClears(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi","address":"Jalan Mawar 1"}`)

	// Absent key leaves the address alone.
	rec := doJSON(router, http.MethodPut, "/api/guests/1", `{"name":"Budi Santoso"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["address"] != "Jalan Mawar 1" {
		t.Fatalf("address = %v, want untouched", body["address"])
	}

	// Explicit null clears it.
	rec = doJSON(router, http.MethodPut, "/api/guests/1", `{"address":null}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body = decodeBody(t, rec)
	if body["address"] != nil {
		t.Fatalf("address = %v, want null", body["address"])
	}

	// Empty name is rejected.
	rec = doJSON(router, http.MethodPut, "/api/guests/1", `{"name":""}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("empty name: status = %d, want 400", rec.Code)
	}
}

func TestDeleteGuest(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi"}`)

	rec := doJSON(router, http.MethodDelete, "/api/guests/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	rec = doJSON(router, http.MethodDelete, "/api/guests/1", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status = %d, want 404", rec.Code)
	}
}

func TestGroupLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)

	rec := doJSON(router, http.MethodPost, "/api/guest-groups", `{"name":"Family"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201", rec.Code)
	}

	rec = doJSON(router, http.MethodPost, "/api/guest-groups", `{"name":"Family"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("duplicate: status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Nama grup sudah digunakan" {
		t.Fatalf("error = %v, want Nama grup sudah digunakan", body["error"])
	}

	doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi","guestGroup":"Family"}`)

	rec = doJSON(router, http.MethodGet, "/api/guest-groups", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want 200", rec.Code)
	}
	var groups []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &groups); err != nil {
		t.Fatalf("decode groups: %v", err)
	}
	if len(groups) != 1 || groups[0]["guestCount"].(float64) != 1 {
		t.Fatalf("groups = %v, want one with guestCount 1", groups)
	}

	rec = doJSON(router, http.MethodPut, "/api/guest-groups/1", `{"name":"Relatives"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("rename: status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	// The guest carries the new name.
	rec = doJSON(router, http.MethodGet, "/api/guests/1", "")
	if body := decodeBody(t, rec); body["guestGroup"] != "Relatives" {
		t.Fatalf("guestGroup = %v after rename, want Relatives", body["guestGroup"])
	}

	rec = doJSON(router, http.MethodDelete, "/api/guest-groups/1", "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: status = %d, want 204", rec.Code)
	}
	rec = doJSON(router, http.MethodGet, "/api/guests/1", "")
	if body := decodeBody(t, rec); body["guestGroup"] != nil {
		t.Fatalf("guestGroup = %v after group delete, want null", body["guestGroup"])
	}
}

func TestRenameGroupShiftValidation(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(router, http.MethodPost, "/api/guest-groups", `{"name":"Family"}`)

	rec := doJSON(router, http.MethodPut, "/api/guest-groups/1", `{"name":"Family","shift":"shift9"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid shift: status = %d, want 400", rec.Code)
	}

	rec = doJSON(router, http.MethodPut, "/api/guest-groups/1", `{"name":"Family","shift":"shift2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("valid shift: status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(router, http.MethodPut, "/api/guest-groups/999", `{"name":"Nobody"}`)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown group: status = %d, want 404", rec.Code)
	}
}

func TestExportGuests(t *testing.T) {
	router := newTestRouter(t, nil)
	doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi","invitationTime":"2026-07-25T11:00"}`)
	doJSON(router, http.MethodPost, "/api/guests", `{"name":"Sari"}`)

	rec := doJSON(router, http.MethodGet, "/api/guests/export", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := decodeBody(t, rec)
	data, ok := body["data"].([]any)
	if !ok || len(data) != 2 {
		t.Fatalf("data = %v, want 2 guests", body["data"])
	}

	rec = doJSON(router, http.MethodGet, "/api/guests/export?format=csv", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("csv: status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("csv content type = %q", ct)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header + 2 rows: %q", len(lines), rec.Body.String())
	}
	if !strings.Contains(lines[1], "Shift 2") && !strings.Contains(lines[2], "Shift 2") {
		t.Fatalf("csv missing shift label for 11:00 guest: %q", rec.Body.String())
	}
}

func TestEventsBroadcast(t *testing.T) {
	h := newTestHandlers(t, nil)
	router := routerFor(h)
	srv := httptest.NewServer(router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/events"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", wsURL, err)
	}
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Wait until the hub has registered the connection before mutating.
	deadline := time.Now().Add(2 * time.Second)
	for h.hub.Count() == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("client never registered with the hub")
		}
		time.Sleep(10 * time.Millisecond)
	}

	post, err := http.Post(srv.URL+"/api/guests", "application/json", strings.NewReader(`{"name":"Budi","guestGroup":"Family"}`))
	if err != nil {
		t.Fatalf("create guest: %v", err)
	}
	post.Body.Close()
	if post.StatusCode != http.StatusCreated {
		t.Fatalf("create guest: status = %d, want 201", post.StatusCode)
	}

	// Creating a guest touches both catalogs: both events arrive, in order.
	readEvent := func(want string) {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var msg eventMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read %s event: %v", want, err)
		}
		if msg.Type != want {
			t.Fatalf("event = %q, want %q", msg.Type, want)
		}
	}
	readEvent("guests_changed")
	readEvent("groups_changed")

	// A client that went away must not block later mutations.
	conn.Close()
	rec := doJSON(router, http.MethodPut, "/api/guests/1", `{"name":"Budi Santoso"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("mutation after disconnect: status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
}

func TestAuthDisabledAllowsMutations(t *testing.T) {
	router := newTestRouter(t, &config.Config{})

	rec := doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 with auth disabled", rec.Code)
	}

	rec = doJSON(router, http.MethodPost, "/api/login", `{"password":"x"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("login with auth disabled: status = %d, want 400", rec.Code)
	}
}

func TestAuthEnabled(t *testing.T) {
	cfg := &config.Config{AdminPassword: "hunter2", JWTSecret: "test-secret"}
	router := newTestRouter(t, cfg)

	// Reads stay open.
	rec := doJSON(router, http.MethodGet, "/api/guests", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("read: status = %d, want 200", rec.Code)
	}

	// Mutations need a token.
	rec = doJSON(router, http.MethodPost, "/api/guests", `{"name":"Budi"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status = %d, want 401", rec.Code)
	}

	rec = doJSON(router, http.MethodPost, "/api/login", `{"password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password: status = %d, want 401", rec.Code)
	}

	// Malformed body gets the same generic message as every other handler.
	rec = doJSON(router, http.MethodPost, "/api/login", `{"password":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("malformed login body: status = %d, want 400", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] != "Invalid JSON body" {
		t.Fatalf("error = %v, want Invalid JSON body", body["error"])
	}

	rec = doJSON(router, http.MethodPost, "/api/login", `{"password":"hunter2"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, want 200, body %s", rec.Code, rec.Body.String())
	}
	token, _ := decodeBody(t, rec)["token"].(string)
	if token == "" {
		t.Fatalf("login response has no token: %s", rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodPost, "/api/guests", strings.NewReader(`{"name":"Budi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	rec2 := httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusCreated {
		t.Fatalf("with token: status = %d, want 201, body %s", rec2.Code, rec2.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/guests", strings.NewReader(`{"name":"Budi"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer garbage")
	rec2 = httptest.NewRecorder()
	router.ServeHTTP(rec2, req)
	if rec2.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status = %d, want 401", rec2.Code)
	}
}
