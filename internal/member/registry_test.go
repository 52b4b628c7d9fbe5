package member

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/kidpoints/internal/store"
)

type failingKV struct {
	*store.MemoryKV
	fail bool
}

func (f *failingKV) Set(key string, value []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryKV.Set(key, value)
}

func setupRegistry(t *testing.T) (*Registry, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	r := New(kv, slog.Default())
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return r, kv
}

func TestAddFirstMemberIsAdmin(t *testing.T) {
	r, _ := setupRegistry(t)

	alice, err := r.Add("Alice", "#FF0000")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	bob, _ := r.Add("Bob", "#0000FF")

	if !alice.IsAdmin {
		t.Error("first member should be admin")
	}
	if bob.IsAdmin {
		t.Error("second member should not be admin")
	}
	if alice.Points != 0 || len(alice.PointsHistory) != 0 {
		t.Errorf("new member points = %d, history = %d, want 0, 0", alice.Points, len(alice.PointsHistory))
	}
	if alice.ID >= bob.ID {
		t.Errorf("ids should be generation ordered: %q >= %q", alice.ID, bob.ID)
	}
}

func TestAddPersistsAndReloads(t *testing.T) {
	r, kv := setupRegistry(t)
	m, _ := r.Add("Alice", "#FF0000")
	r.AddPoints(m.ID, 15, "chores", "task-1")

	reloaded := New(kv, slog.Default())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Get(m.ID)
	if got == nil {
		t.Fatal("expected member after reload")
	}
	if got.Points != 15 {
		t.Errorf("points = %d, want 15", got.Points)
	}
	if len(got.PointsHistory) != 1 || got.PointsHistory[0].TaskID != "task-1" {
		t.Errorf("history = %+v, want one entry for task-1", got.PointsHistory)
	}
}

func TestUpdateMergesProfileFields(t *testing.T) {
	r, _ := setupRegistry(t)
	m, _ := r.Add("Alice", "#FF0000")

	name := "Alicia"
	updated, err := r.Update(m.ID, Patch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Alicia" {
		t.Errorf("name = %q, want %q", updated.Name, "Alicia")
	}
	if updated.AvatarColor != "#FF0000" {
		t.Errorf("avatar color = %q, want %q", updated.AvatarColor, "#FF0000")
	}
}

func TestUpdateUnknownIsNoop(t *testing.T) {
	r, _ := setupRegistry(t)
	name := "Ghost"

	got, err := r.Update("missing", Patch{Name: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown member, got %+v", got)
	}
}

func TestDeleteMember(t *testing.T) {
	r, _ := setupRegistry(t)
	a, _ := r.Add("Alice", "#FF0000")
	b, _ := r.Add("Bob", "#0000FF")

	if err := r.Delete(a.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if r.Get(a.ID) != nil {
		t.Error("expected nil after delete")
	}
	if got := r.CurrentMember(); got == nil || got.ID != b.ID {
		t.Errorf("current member = %v, want %s", got, b.ID)
	}
	if err := r.Delete("missing"); err != nil {
		t.Errorf("delete unknown: %v", err)
	}
}

func TestRemovePointsClampsAtZero(t *testing.T) {
	r, _ := setupRegistry(t)
	m, _ := r.Add("Alice", "#FF0000")
	r.AddPoints(m.ID, 7, "task", "t1")

	if err := r.RemovePoints(m.ID, 20, "reward", "r1"); err != nil {
		t.Fatalf("remove points: %v", err)
	}

	got := r.Get(m.ID)
	if got.Points != 0 {
		t.Errorf("points = %d, want 0", got.Points)
	}
	last := got.PointsHistory[len(got.PointsHistory)-1]
	if last.Points != -7 {
		t.Errorf("ledger entry = %d, want -7", last.Points)
	}
	if last.RewardID != "r1" {
		t.Errorf("reward id = %q, want %q", last.RewardID, "r1")
	}
}

func TestNegativeAddPointsClamps(t *testing.T) {
	r, _ := setupRegistry(t)
	m, _ := r.Add("Alice", "#FF0000")
	r.AddPoints(m.ID, 3, "bonus", "")
	r.AddPoints(m.ID, -10, "penalty", "")

	got := r.Get(m.ID)
	if got.Points != 0 {
		t.Errorf("points = %d, want 0", got.Points)
	}
	if got.LedgerTotal() != got.Points {
		t.Errorf("ledger total = %d, points = %d", got.LedgerTotal(), got.Points)
	}
}

func TestLedgerMatchesBalance(t *testing.T) {
	r, _ := setupRegistry(t)
	m, _ := r.Add("Alice", "#FF0000")

	ops := []struct {
		add    bool
		amount int
	}{
		{true, 10}, {false, 4}, {false, 30}, {true, 5}, {true, 0}, {false, 5}, {true, 12}, {false, 1},
	}
	for _, op := range ops {
		if op.add {
			r.AddPoints(m.ID, op.amount, "credit", "")
		} else {
			r.RemovePoints(m.ID, op.amount, "debit", "")
		}
		got := r.Get(m.ID)
		if got.Points < 0 {
			t.Fatalf("points went negative: %d", got.Points)
		}
		if got.LedgerTotal() != got.Points {
			t.Fatalf("ledger total = %d, points = %d", got.LedgerTotal(), got.Points)
		}
	}
	if got := r.Get(m.ID).Points; got != 11 {
		t.Errorf("final points = %d, want 11", got)
	}
}

func TestReversePointsMarksEntry(t *testing.T) {
	r, _ := setupRegistry(t)
	m, _ := r.Add("Alice", "#FF0000")
	r.AddPoints(m.ID, 10, "Completed: dishes", "t1")
	r.ReversePoints(m.ID, 10, "Reverted: dishes", "t1")

	history := r.PointsHistory(m.ID)
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if !history[1].Reversal || history[1].TaskID != "t1" || history[1].Points != -10 {
		t.Errorf("reversal entry = %+v", history[1])
	}
}

func TestPointsForUnknownMember(t *testing.T) {
	r, kv := setupRegistry(t)

	if err := r.AddPoints("missing", 10, "x", ""); err != nil {
		t.Errorf("add points: %v", err)
	}
	if err := r.RemovePoints("missing", 10, "x", ""); err != nil {
		t.Errorf("remove points: %v", err)
	}
	if _, ok, _ := kv.Get(store.KeyMembers); ok {
		t.Error("unknown member should not trigger a write")
	}
	if h := r.PointsHistory("missing"); len(h) != 0 {
		t.Errorf("history = %v, want empty", h)
	}
}

func TestLeaderboardStableDescending(t *testing.T) {
	r, _ := setupRegistry(t)
	a, _ := r.Add("Alice", "#1")
	b, _ := r.Add("Bob", "#2")
	c, _ := r.Add("Cara", "#3")
	d, _ := r.Add("Dan", "#4")

	r.AddPoints(b.ID, 10, "", "")
	r.AddPoints(d.ID, 10, "", "")
	r.AddPoints(c.ID, 20, "", "")

	board := r.Leaderboard()
	want := []string{c.ID, b.ID, d.ID, a.ID}
	for i, id := range want {
		if board[i].ID != id {
			t.Errorf("board[%d] = %s, want %s", i, board[i].Name, id)
		}
	}
}

func TestCurrentMemberFallback(t *testing.T) {
	r, kv := setupRegistry(t)
	if r.CurrentMember() != nil {
		t.Error("expected nil current member on empty roster")
	}

	a, _ := r.Add("Alice", "#1")
	b, _ := r.Add("Bob", "#2")
	if got := r.CurrentMember(); got == nil || got.ID != a.ID {
		t.Fatalf("current = %v, want %s", got, a.ID)
	}

	if err := r.SetCurrentMember(b.ID); err != nil {
		t.Fatalf("set current: %v", err)
	}
	r.SetCurrentMember("missing")
	if got := r.CurrentMember(); got.ID != b.ID {
		t.Errorf("current = %s, want %s", got.ID, b.ID)
	}

	store.SaveJSON(kv, store.KeyCurrentMember, "stale-id")
	reloaded := New(kv, slog.Default())
	if err := reloaded.Load(); err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got := reloaded.CurrentMember(); got == nil || got.ID != a.ID {
		t.Errorf("current after stale reload = %v, want %s", got, a.ID)
	}
}

func TestLoadCorruptResetsSlot(t *testing.T) {
	kv := store.NewMemoryKV()
	kv.Set(store.KeyMembers, []byte(`{{{`))

	r := New(kv, slog.Default())
	if err := r.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if got := r.List(); len(got) != 0 {
		t.Errorf("members = %d, want 0", len(got))
	}
	data, _, _ := kv.Get(store.KeyMembers)
	if string(data) != "[]" {
		t.Errorf("slot = %q, want %q", data, "[]")
	}
}

func TestFailedWriteLeavesStateUnchanged(t *testing.T) {
	kv := &failingKV{MemoryKV: store.NewMemoryKV()}
	r := New(kv, slog.Default())
	r.Load()
	m, _ := r.Add("Alice", "#1")

	kv.fail = true
	if err := r.AddPoints(m.ID, 5, "x", ""); err == nil {
		t.Fatal("expected error from failing store")
	}
	got := r.Get(m.ID)
	if got.Points != 0 || len(got.PointsHistory) != 0 {
		t.Errorf("points = %d, history = %d, want unchanged", got.Points, len(got.PointsHistory))
	}
}

func TestLedgerEntriesAreDated(t *testing.T) {
	r, _ := setupRegistry(t)
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	m, _ := r.Add("Alice", "#1")
	r.AddPoints(m.ID, 1, "x", "")

	got := r.Get(m.ID)
	if !got.CreatedAt.Equal(fixed) {
		t.Errorf("created_at = %v, want %v", got.CreatedAt, fixed)
	}
	if !got.PointsHistory[0].Date.Equal(fixed) {
		t.Errorf("entry date = %v, want %v", got.PointsHistory[0].Date, fixed)
	}
}
