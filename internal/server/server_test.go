package server

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukerupert/kidpoints/internal/backup"
	"github.com/dukerupert/kidpoints/internal/household"
	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/store"
	"github.com/dukerupert/kidpoints/internal/push"
	ws "github.com/dukerupert/kidpoints/internal/websocket"
)

func setupServer(t *testing.T) (http.Handler, *household.Household) {
	t.Helper()
	logger := slog.Default()
	kv := store.NewMemoryKV()
	hh := household.Open(kv, household.Options{Logger: logger})
	if err := hh.Load(); err != nil {
		t.Fatalf("load household: %v", err)
	}
	mgr := backup.NewManager(backup.Config{}, kv, hh.Reload, nil, logger)
	srv := New(hh, ws.NewHub(logger), mgr, Push{}, nil, logger)
	return srv.Router(), hh
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func login(t *testing.T, h http.Handler) {
	t.Helper()
	if rec := do(t, h, "PUT", "/api/settings/password", map[string]string{"password": "1234"}); rec.Code != http.StatusOK {
		t.Fatalf("set password: status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "POST", "/api/login", map[string]string{"password": "1234"}); rec.Code != http.StatusOK {
		t.Fatalf("login: status = %d, body = %s", rec.Code, rec.Body)
	}
}

func TestHealth(t *testing.T) {
	h, _ := setupServer(t)
	rec := do(t, h, "GET", "/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if got := decode[map[string]string](t, rec)["status"]; got != "ok" {
		t.Errorf("status = %q, want %q", got, "ok")
	}
}

func TestAdminRoutesRequireLogin(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, "POST", "/api/members", map[string]string{"name": "Alex"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec = do(t, h, "POST", "/api/login", map[string]string{"password": "anything"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("login without password: status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestPasswordChangeRequiresSession(t *testing.T) {
	h, _ := setupServer(t)
	login(t, h)
	do(t, h, "POST", "/api/logout", nil)

	rec := do(t, h, "PUT", "/api/settings/password", map[string]string{"password": "9999"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
	rec = do(t, h, "POST", "/api/login", map[string]string{"password": "1234"})
	if rec.Code != http.StatusOK {
		t.Errorf("old password should still work: status = %d", rec.Code)
	}
}

func TestCompleteAndRedeemFlow(t *testing.T) {
	h, _ := setupServer(t)
	login(t, h)

	rec := do(t, h, "POST", "/api/members", map[string]string{"name": "Alex", "avatarColor": "#3b82f6"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create member: status = %d, body = %s", rec.Code, rec.Body)
	}
	alex := decode[model.Member](t, rec)
	if !alex.IsAdmin {
		t.Error("first member should be admin")
	}

	rec = do(t, h, "POST", "/api/tasks", map[string]any{"title": "Feed the cat", "points": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create task: status = %d, body = %s", rec.Code, rec.Body)
	}
	tk := decode[model.Task](t, rec)

	rec = do(t, h, "POST", "/api/rewards", map[string]any{"title": "Sticker", "points": 10})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create reward: status = %d, body = %s", rec.Code, rec.Body)
	}
	rw := decode[model.Reward](t, rec)

	rec = do(t, h, "POST", "/api/tasks/"+tk.ID+"/complete", map[string]string{"memberId": alex.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("complete: status = %d, body = %s", rec.Code, rec.Body)
	}
	completed := decode[struct {
		Member model.Member        `json:"member"`
		Earned []model.Achievement `json:"earned"`
	}](t, rec)
	if completed.Member.Points != 10 {
		t.Errorf("points = %d, want 10", completed.Member.Points)
	}
	if len(completed.Earned) != 1 {
		t.Errorf("earned = %d, want 1", len(completed.Earned))
	}

	rec = do(t, h, "POST", "/api/tasks/"+tk.ID+"/complete", map[string]string{"memberId": alex.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("second complete: status = %d, want %d", rec.Code, http.StatusConflict)
	}

	rec = do(t, h, "POST", "/api/rewards/"+rw.ID+"/redeem", map[string]string{"memberId": alex.ID})
	if rec.Code != http.StatusOK {
		t.Fatalf("redeem: status = %d, body = %s", rec.Code, rec.Body)
	}

	rec = do(t, h, "POST", "/api/rewards/"+rw.ID+"/redeem", map[string]string{"memberId": alex.ID})
	if rec.Code != http.StatusConflict {
		t.Errorf("redeem with no balance: status = %d, want %d", rec.Code, http.StatusConflict)
	}

	history := decode[[]model.PointHistoryEntry](t, do(t, h, "GET", "/api/members/"+alex.ID+"/history", nil))
	if len(history) != 2 {
		t.Fatalf("history = %d entries, want 2", len(history))
	}
	if history[1].Points != -10 {
		t.Errorf("debit = %d, want -10", history[1].Points)
	}

	redemptions := decode[[]model.Redemption](t, do(t, h, "GET", "/api/members/"+alex.ID+"/redemptions", nil))
	if len(redemptions) != 1 {
		t.Errorf("redemptions = %d, want 1", len(redemptions))
	}
}

func TestTaskListForMember(t *testing.T) {
	h, hh := setupServer(t)
	login(t, h)

	a := decode[model.Member](t, do(t, h, "POST", "/api/members", map[string]string{"name": "A"}))
	b := decode[model.Member](t, do(t, h, "POST", "/api/members", map[string]string{"name": "B"}))
	do(t, h, "POST", "/api/tasks", map[string]any{"title": "For B", "points": 1, "memberId": b.ID})
	do(t, h, "POST", "/api/tasks", map[string]any{"title": "Everyone", "points": 1, "memberId": "everyone"})

	all := len(hh.Tasks.List())
	forA := decode[[]map[string]any](t, do(t, h, "GET", "/api/tasks?member="+a.ID, nil))
	if len(forA) != all-1 {
		t.Errorf("tasks for A = %d, want %d", len(forA), all-1)
	}
	for _, tk := range forA {
		if tk["status"] != "pending" {
			t.Errorf("status = %v, want pending", tk["status"])
		}
	}
}

func TestValidation(t *testing.T) {
	h, _ := setupServer(t)
	login(t, h)

	tests := []struct {
		name string
		path string
		body any
	}{
		{"member without name", "/api/members", map[string]string{"name": "  "}},
		{"task with bad frequency", "/api/tasks", map[string]any{"title": "x", "frequency": "hourly"}},
		{"task with negative points", "/api/tasks", map[string]any{"title": "x", "points": -1}},
		{"reward without title", "/api/rewards", map[string]any{"points": 5}},
		{"achievement with unknown requirement", "/api/achievements", map[string]any{"title": "x", "requirement": map[string]any{"type": "streak"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, "POST", tt.path, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

func TestResetData(t *testing.T) {
	h, hh := setupServer(t)
	login(t, h)
	do(t, h, "POST", "/api/members", map[string]string{"name": "Alex"})

	rec := do(t, h, "POST", "/api/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status = %d, body = %s", rec.Code, rec.Body)
	}
	if n := len(hh.Members.List()); n != 0 {
		t.Errorf("members = %d, want 0", n)
	}
	if !hh.Settings.HasAdminPassword() {
		t.Error("password should survive reset")
	}
}

func TestBackupsNotConfigured(t *testing.T) {
	h, _ := setupServer(t)
	login(t, h)

	rec := do(t, h, "POST", "/api/backups", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestPushNotConfigured(t *testing.T) {
	h, _ := setupServer(t)

	rec := do(t, h, "GET", "/api/push/vapid-key", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestPushSubscriptions(t *testing.T) {
	logger := slog.Default()
	kv := store.NewMemoryKV()
	hh := household.Open(kv, household.Options{Logger: logger})
	if err := hh.Load(); err != nil {
		t.Fatalf("load household: %v", err)
	}
	keys, err := push.LoadOrCreateKeys(kv)
	if err != nil {
		t.Fatalf("vapid keys: %v", err)
	}
	subs := push.NewSubscriptions(kv, logger)
	if err := subs.Load(); err != nil {
		t.Fatalf("load subscriptions: %v", err)
	}
	mgr := backup.NewManager(backup.Config{}, kv, hh.Reload, nil, logger)
	h := New(hh, ws.NewHub(logger), mgr, Push{Service: push.NewService(keys, ""), Subscriptions: subs}, nil, logger).Router()

	rec := do(t, h, "GET", "/api/push/vapid-key", nil)
	if got := decode[map[string]string](t, rec)["publicKey"]; got != keys.PublicKey {
		t.Errorf("publicKey = %q, want %q", got, keys.PublicKey)
	}

	body := map[string]any{
		"endpoint":   "https://push.example/abc",
		"keys":       map[string]string{"p256dh": "p", "auth": "a"},
		"deviceName": "Kitchen tablet",
	}
	if rec := do(t, h, "POST", "/api/push/subscriptions", body); rec.Code != http.StatusCreated {
		t.Fatalf("subscribe: status = %d, body = %s", rec.Code, rec.Body)
	}
	if rec := do(t, h, "POST", "/api/push/subscriptions", map[string]any{"endpoint": "http://insecure"}); rec.Code != http.StatusBadRequest {
		t.Errorf("bad subscribe: status = %d, want 400", rec.Code)
	}

	if rec := do(t, h, "GET", "/api/push/subscriptions", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("list without login: status = %d, want 401", rec.Code)
	}
	login(t, h)
	list := decode[[]model.PushSubscription](t, do(t, h, "GET", "/api/push/subscriptions", nil))
	if len(list) != 1 || list[0].DeviceName != "Kitchen tablet" {
		t.Errorf("subscriptions = %+v", list)
	}

	if rec := do(t, h, "DELETE", "/api/push/subscriptions", map[string]string{"endpoint": "https://push.example/abc"}); rec.Code != http.StatusNoContent {
		t.Errorf("unsubscribe: status = %d", rec.Code)
	}
	if n := len(subs.List()); n != 0 {
		t.Errorf("subscriptions after delete = %d, want 0", n)
	}
}
