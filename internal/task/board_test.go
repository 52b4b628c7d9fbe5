package task

import (
	"log/slog"
	"testing"
	"time"

	"github.com/dukerupert/kidpoints/internal/model"
	"github.com/dukerupert/kidpoints/internal/store"
)

func setupBoard(t *testing.T) (*Board, *store.MemoryKV) {
	t.Helper()
	kv := store.NewMemoryKV()
	// Start from an empty board rather than the starter tasks.
	store.SaveJSON(kv, store.KeyTasks, []model.Task{})
	b := New(kv, slog.Default())
	if err := b.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	return b, kv
}

func ptr[T any](v T) *T { return &v }

func TestLoadSeedsStarterTasks(t *testing.T) {
	kv := store.NewMemoryKV()
	b := New(kv, slog.Default())
	if err := b.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}

	tasks := b.List()
	if len(tasks) != len(starterTasks) {
		t.Fatalf("expected %d seed tasks, got %d", len(starterTasks), len(tasks))
	}
	for _, task := range tasks {
		if !task.IsOpen() {
			t.Errorf("seed task %q should be open", task.Title)
		}
		if task.IsComplete {
			t.Errorf("seed task %q should be incomplete", task.Title)
		}
	}
	if _, ok, _ := kv.Get(store.KeyTasks); !ok {
		t.Error("seed tasks should be persisted")
	}
}

func TestLoadCorruptResetsToEmpty(t *testing.T) {
	kv := store.NewMemoryKV()
	kv.Set(store.KeyTasks, []byte(`[{"id": 12`))

	b := New(kv, slog.Default())
	if err := b.Load(); err != nil {
		t.Fatalf("load: %v", err)
	}
	if n := len(b.List()); n != 0 {
		t.Errorf("tasks = %d, want 0", n)
	}
	data, _, _ := kv.Get(store.KeyTasks)
	if string(data) != "[]" {
		t.Errorf("slot = %q, want %q", data, "[]")
	}
}

func TestAddTask(t *testing.T) {
	b, _ := setupBoard(t)

	task, err := b.Add(Input{Title: "Feed the cat", Points: 3, MemberID: ptr(model.Everyone), Frequency: model.FrequencyDaily})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if task.MemberID != nil {
		t.Errorf("member id = %v, want nil for everyone", *task.MemberID)
	}
	if task.IsComplete || task.CompletedAt != nil || task.CompletedBy != nil {
		t.Error("new task should have an empty completion triple")
	}

	once, _ := b.Add(Input{Title: "Build the shelf"})
	if once.Frequency != model.FrequencyOnce {
		t.Errorf("frequency = %q, want %q", once.Frequency, model.FrequencyOnce)
	}
}

func TestUpdateAndDeleteTask(t *testing.T) {
	b, _ := setupBoard(t)
	task, _ := b.Add(Input{Title: "Feed the cat", Points: 3, MemberID: ptr("m1")})

	updated, err := b.Update(task.ID, Patch{Points: ptr(4), MemberID: ptr("")})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Points != 4 {
		t.Errorf("points = %d, want 4", updated.Points)
	}
	if updated.MemberID != nil {
		t.Error("expected task opened to everyone")
	}

	if got, _ := b.Update("missing", Patch{Points: ptr(1)}); got != nil {
		t.Error("update of unknown task should return nil")
	}

	if err := b.Delete(task.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if b.Get(task.ID) != nil {
		t.Error("expected nil after delete")
	}
}

func TestMemberAndAvailableTasks(t *testing.T) {
	b, _ := setupBoard(t)
	open, _ := b.Add(Input{Title: "Open"})
	mine, _ := b.Add(Input{Title: "Mine", MemberID: ptr("m1")})
	b.Add(Input{Title: "Theirs", MemberID: ptr("m2")})
	done, _ := b.Add(Input{Title: "Done", MemberID: ptr("m1")})
	b.Complete(done.ID, "m1")

	tasks := b.MemberTasks("m1")
	if len(tasks) != 3 {
		t.Fatalf("member tasks = %d, want 3", len(tasks))
	}
	if tasks[0].ID != open.ID || tasks[1].ID != mine.ID || tasks[2].ID != done.ID {
		t.Error("member tasks should keep board order")
	}

	available := b.AvailableTasks("m1")
	if len(available) != 2 {
		t.Fatalf("available tasks = %d, want 2", len(available))
	}
	for _, task := range available {
		if task.IsComplete {
			t.Errorf("task %q should not be available", task.Title)
		}
	}
}

func TestCompleteTask(t *testing.T) {
	b, _ := setupBoard(t)
	fixed := time.Date(2026, 2, 5, 17, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return fixed }

	assigned, _ := b.Add(Input{Title: "Assigned", MemberID: ptr("m1")})

	ok, err := b.Complete(assigned.ID, "m2")
	if err != nil || ok {
		t.Fatalf("complete by non-assignee = %v, %v; want false", ok, err)
	}

	ok, err = b.Complete(assigned.ID, "m1")
	if err != nil || !ok {
		t.Fatalf("complete = %v, %v; want true", ok, err)
	}
	got := b.Get(assigned.ID)
	if !got.IsComplete || got.CompletedAt == nil || !got.CompletedAt.Equal(fixed) || got.CompletedBy == nil || *got.CompletedBy != "m1" {
		t.Errorf("completion triple = %v %v %v", got.IsComplete, got.CompletedAt, got.CompletedBy)
	}

	if ok, _ := b.Complete(assigned.ID, "m1"); ok {
		t.Error("completing twice should fail")
	}
	if ok, _ := b.Complete("missing", "m1"); ok {
		t.Error("completing unknown task should fail")
	}
}

func TestRevertTaskCompletion(t *testing.T) {
	b, _ := setupBoard(t)
	task, _ := b.Add(Input{Title: "Open"})
	b.Complete(task.ID, "m1")

	if ok, _ := b.Revert(task.ID, "m2"); ok {
		t.Error("revert by another member should fail")
	}

	ok, err := b.Revert(task.ID, "m1")
	if err != nil || !ok {
		t.Fatalf("revert = %v, %v; want true", ok, err)
	}
	got := b.Get(task.ID)
	if got.IsComplete || got.CompletedAt != nil || got.CompletedBy != nil {
		t.Errorf("triple after revert = %v %v %v, want all cleared", got.IsComplete, got.CompletedAt, got.CompletedBy)
	}

	if ok, _ := b.Revert(task.ID, "m1"); ok {
		t.Error("reverting an incomplete task should fail")
	}
}

func TestResetDailyOnlyTouchesDaily(t *testing.T) {
	b, _ := setupBoard(t)
	daily, _ := b.Add(Input{Title: "Daily", Frequency: model.FrequencyDaily})
	weekly, _ := b.Add(Input{Title: "Weekly", Frequency: model.FrequencyWeekly})
	once, _ := b.Add(Input{Title: "Once", Frequency: model.FrequencyOnce})
	idle, _ := b.Add(Input{Title: "Idle daily", Frequency: model.FrequencyDaily})
	for _, id := range []string{daily.ID, weekly.ID, once.ID} {
		b.Complete(id, "m1")
	}

	n, err := b.ResetDaily()
	if err != nil {
		t.Fatalf("reset daily: %v", err)
	}
	if n != 1 {
		t.Errorf("reset count = %d, want 1", n)
	}
	if b.Get(daily.ID).IsComplete {
		t.Error("daily task should be reset")
	}
	if !b.Get(weekly.ID).IsComplete {
		t.Error("weekly task should stay complete")
	}
	if !b.Get(once.ID).IsComplete {
		t.Error("once task should stay complete")
	}
	if b.Get(idle.ID).IsComplete {
		t.Error("incomplete daily task should stay incomplete")
	}

	n, _ = b.ResetWeekly()
	if n != 1 || b.Get(weekly.ID).IsComplete {
		t.Errorf("weekly reset count = %d, complete = %v", n, b.Get(weekly.ID).IsComplete)
	}
	if !b.Get(once.ID).IsComplete {
		t.Error("once task should survive weekly reset")
	}
}

func TestResetAllRestoresSeed(t *testing.T) {
	b, _ := setupBoard(t)
	b.Add(Input{Title: "Custom"})

	if err := b.ResetAll(); err != nil {
		t.Fatalf("reset all: %v", err)
	}
	tasks := b.List()
	if len(tasks) != len(starterTasks) {
		t.Fatalf("tasks = %d, want %d", len(tasks), len(starterTasks))
	}
	if tasks[0].Title != starterTasks[0].title {
		t.Errorf("tasks[0] = %q, want %q", tasks[0].Title, starterTasks[0].title)
	}
}

func TestCounts(t *testing.T) {
	b, _ := setupBoard(t)
	a, _ := b.Add(Input{Title: "A"})
	b.Add(Input{Title: "B"})
	b.Add(Input{Title: "C"})
	b.Complete(a.ID, "m1")

	if got := b.PendingCount(); got != 2 {
		t.Errorf("pending = %d, want 2", got)
	}
	if got := b.CompletedCount(); got != 1 {
		t.Errorf("completed = %d, want 1", got)
	}
}
