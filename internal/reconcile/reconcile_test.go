package reconcile

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/metrics"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/storage"
)

const today = "2026-02-21"

func tenTasks(completed int) []models.WorshipTask {
	tasks := make([]models.WorshipTask, 10)
	for i := range tasks {
		id := string(rune('a' + i))
		tasks[i] = models.WorshipTask{ID: id, Label: id, Category: models.CategorySunnah, Completed: i < completed}
	}
	return tasks
}

type fixture struct {
	mem     *storage.MemoryStore
	journal *journal.Journal
	remote  *remote.Memory
	engine  *Engine
}

func setup(t *testing.T) *fixture {
	t.Helper()
	mem := storage.NewMemoryStore()
	j := journal.New(mem, catalog.Default())
	r := remote.NewMemory()
	fixed := time.Date(2026, 2, 21, 9, 0, 0, 0, time.UTC)
	r.Now = func() time.Time { return fixed }
	e := New(j, r,
		WithToday(func() string { return today }),
		WithClock(func() time.Time { return fixed }),
		WithMetrics(metrics.New()),
	)
	return &fixture{mem: mem, journal: j, remote: r, engine: e}
}

func (f *fixture) saveDay(t *testing.T, date string, completed int) {
	t.Helper()
	if _, err := f.journal.Days.Save(models.NewDayRecord(date, tenTasks(completed))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
}

func TestLocalHigherProgressWins(t *testing.T) {
	f := setup(t)
	f.saveDay(t, "2026-02-20", 3)
	f.remote.PutUser(remote.UserDocument{UID: "u1", WorshipHistory: models.SummaryMap{"2026-02-20": 10}})

	res, err := f.engine.Reconcile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Summary["2026-02-20"] != 30 {
		t.Errorf("expected merged value 30, got %d", res.Summary["2026-02-20"])
	}
	doc, _ := f.remote.GetUser(context.Background(), "u1")
	if doc.WorshipHistory["2026-02-20"] != 30 {
		t.Errorf("expected remote value 30, got %d", doc.WorshipHistory["2026-02-20"])
	}
	if !res.RemoteChanged {
		t.Error("expected remote document to be written")
	}
	if res.Pushed != 1 {
		t.Errorf("expected 1 pushed log, got %d", res.Pushed)
	}
	if got := f.journal.Summary.Load()["2026-02-20"]; got != 30 {
		t.Errorf("expected local summary 30, got %d", got)
	}
}

func TestRemoteLogSeedsMissingDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	_ = f.remote.SaveDailyLog(ctx, "u1", remote.DailyLog{Date: "2026-02-15", Tasks: tenTasks(8), Progress: 80})

	res, err := f.engine.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Seeded != 1 || res.Pulled != 1 {
		t.Errorf("expected 1 seeded and 1 pulled, got %d and %d", res.Seeded, res.Pulled)
	}
	stored, ok := f.journal.Days.Stored("2026-02-15")
	if !ok {
		t.Fatal("expected local entry to be seeded")
	}
	if !reflect.DeepEqual(stored, tenTasks(8)) {
		t.Errorf("seeded tasks differ from log: %+v", stored)
	}
	if got := f.journal.Summary.Load()["2026-02-15"]; got != 80 {
		t.Errorf("expected summary 80, got %d", got)
	}
	if res.Pushed != 0 {
		t.Errorf("seeded day must not be pushed back, got %d pushes", res.Pushed)
	}
}

func TestRemoteLogDoesNotOverwriteLocalDay(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.saveDay(t, "2026-02-16", 2)
	_ = f.remote.SaveDailyLog(ctx, "u1", remote.DailyLog{Date: "2026-02-16", Tasks: tenTasks(5), Progress: 50})

	res, err := f.engine.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	stored, _ := f.journal.Days.Stored("2026-02-16")
	if models.CountCompleted(stored) != 2 {
		t.Errorf("local edits must win, got %d completed", models.CountCompleted(stored))
	}
	if res.Summary["2026-02-16"] != 50 {
		t.Errorf("expected highest progress 50, got %d", res.Summary["2026-02-16"])
	}
	if res.Pushed != 0 || res.Seeded != 0 {
		t.Errorf("expected no push or seed, got %d/%d", res.Pushed, res.Seeded)
	}
}

func TestLocalDayAboveRemoteLogIsPushed(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.saveDay(t, "2026-02-17", 9)
	_ = f.remote.SaveDailyLog(ctx, "u1", remote.DailyLog{Date: "2026-02-17", Tasks: tenTasks(4), Progress: 40})

	res, err := f.engine.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Pushed != 1 {
		t.Errorf("expected 1 push, got %d", res.Pushed)
	}
	l, _ := f.remote.GetDailyLog(ctx, "u1", "2026-02-17")
	if l.Progress != 90 {
		t.Errorf("expected remote log 90, got %d", l.Progress)
	}
}

func TestZeroProgressDaysAreNotPushed(t *testing.T) {
	f := setup(t)
	f.saveDay(t, "2026-02-18", 0)

	res, err := f.engine.Reconcile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if res.Pushed != 0 {
		t.Errorf("expected no push, got %d", res.Pushed)
	}
}

func TestMergeIsMonotonic(t *testing.T) {
	f := setup(t)
	local := map[string]int{"2026-02-01": 3, "2026-02-02": 5, "2026-02-03": 9}
	for date, completed := range local {
		f.saveDay(t, date, completed)
	}
	remoteHistory := models.SummaryMap{"2026-02-01": 50, "2026-02-02": 20, "2026-02-04": 70}
	f.remote.PutUser(remote.UserDocument{UID: "u1", WorshipHistory: remoteHistory.Clone()})

	res, err := f.engine.Reconcile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	for date, completed := range local {
		if res.Summary[date] < completed*10 {
			t.Errorf("%s: merged %d below local %d", date, res.Summary[date], completed*10)
		}
	}
	for date, v := range remoteHistory {
		if res.Summary[date] < v {
			t.Errorf("%s: merged %d below remote %d", date, res.Summary[date], v)
		}
	}
}

func TestFastingUnionAndStreak(t *testing.T) {
	f := setup(t)
	if err := f.journal.Fasting.Write([]string{"2026-02-19", "2026-02-20"}); err != nil {
		t.Fatal(err)
	}
	f.remote.PutUser(remote.UserDocument{UID: "u1", FastingHistory: []string{"2026-02-10", "2026-02-19"}})

	res, err := f.engine.Reconcile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	want := []string{"2026-02-10", "2026-02-19", "2026-02-20"}
	if !reflect.DeepEqual(res.Fasting, want) {
		t.Errorf("expected %v, got %v", want, res.Fasting)
	}
	if !reflect.DeepEqual(f.journal.Fasting.Dates(), want) {
		t.Errorf("expected local ledger %v, got %v", want, f.journal.Fasting.Dates())
	}
	doc, _ := f.remote.GetUser(context.Background(), "u1")
	if !reflect.DeepEqual(doc.FastingHistory, want) {
		t.Errorf("expected remote ledger %v, got %v", want, doc.FastingHistory)
	}
	if res.Streak != 2 || doc.FastingStreak != 2 {
		t.Errorf("expected streak 2, got %d (remote %d)", res.Streak, doc.FastingStreak)
	}
}

func TestStaleStoredStreakIsRewritten(t *testing.T) {
	f := setup(t)
	f.remote.PutUser(remote.UserDocument{UID: "u1", FastingHistory: []string{"2026-01-01"}, FastingStreak: 5})

	res, err := f.engine.Reconcile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if !res.RemoteChanged || res.Streak != 0 {
		t.Errorf("expected streak reset to 0 and written, got %d changed=%v", res.Streak, res.RemoteChanged)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	f.saveDay(t, "2026-02-20", 3)
	_ = f.journal.Fasting.Write([]string{"2026-02-20"})
	_ = f.remote.SaveDailyLog(ctx, "u1", remote.DailyLog{Date: "2026-02-15", Tasks: tenTasks(8), Progress: 80})

	first, err := f.engine.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("first Reconcile failed: %v", err)
	}
	writes := f.remote.Writes
	second, err := f.engine.Reconcile(ctx, "u1")
	if err != nil {
		t.Fatalf("second Reconcile failed: %v", err)
	}
	if second.RemoteChanged || second.Pushed != 0 || second.Seeded != 0 || second.Pulled != 0 {
		t.Errorf("expected no-op second run, got %+v", second)
	}
	if f.remote.Writes != writes {
		t.Errorf("expected no remote writes, got %d more", f.remote.Writes-writes)
	}
	if !first.Summary.Equal(second.Summary) {
		t.Errorf("summary changed between runs: %v vs %v", first.Summary, second.Summary)
	}
}

func TestRemoteReadFailureLeavesLocalUntouched(t *testing.T) {
	f := setup(t)
	if _, err := f.journal.Days.Seed("2026-02-20", tenTasks(3)); err != nil {
		t.Fatal(err)
	}
	f.remote.FailReads = errors.New("offline")

	if _, err := f.engine.Reconcile(context.Background(), "u1"); err == nil {
		t.Fatal("expected error from failed remote read")
	}
	if _, err := f.mem.Get(constants.SummaryKey); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected summary untouched, got %v", err)
	}
}

func TestPushFailuresAreCounted(t *testing.T) {
	f := setup(t)
	f.saveDay(t, "2026-02-20", 3)
	_ = f.journal.Fasting.Write([]string{"2026-02-20"})
	f.remote.FailWrites = errors.New("quota exceeded")

	res, err := f.engine.Reconcile(context.Background(), "u1")
	if err != nil {
		t.Fatalf("push failures must not fail the run: %v", err)
	}
	if res.PushFailures != 2 {
		t.Errorf("expected 2 failures (log and document), got %d", res.PushFailures)
	}
	if res.RemoteChanged {
		t.Error("expected RemoteChanged false after failed write")
	}
	if !reflect.DeepEqual(f.journal.Fasting.Dates(), []string{"2026-02-20"}) {
		t.Errorf("local ledger lost: %v", f.journal.Fasting.Dates())
	}
}

func TestBookmarkNewestWins(t *testing.T) {
	f := setup(t)
	older := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	_ = f.journal.Bookmark.Save(models.Bookmark{Surah: 2, Ayah: 255, UpdatedAt: older})
	f.remote.PutUser(remote.UserDocument{UID: "u1", LastRead: &models.Bookmark{Surah: 18, Ayah: 10, UpdatedAt: newer}})
	if _, err := f.engine.Reconcile(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	bm, _ := f.journal.Bookmark.Load()
	if bm.Surah != 18 {
		t.Errorf("expected remote bookmark to win, got surah %d", bm.Surah)
	}

	_ = f.journal.Bookmark.Save(models.Bookmark{Surah: 36, Ayah: 1, UpdatedAt: newer.Add(time.Hour)})
	if _, err := f.engine.Reconcile(context.Background(), "u1"); err != nil {
		t.Fatal(err)
	}
	doc, _ := f.remote.GetUser(context.Background(), "u1")
	if doc.LastRead == nil || doc.LastRead.Surah != 36 {
		t.Errorf("expected local bookmark pushed, got %+v", doc.LastRead)
	}
}

func TestSignOutThenOtherUser(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	deviceID := f.journal.Session.DeviceID()

	f.remote.PutUser(remote.UserDocument{UID: "alice", WorshipHistory: models.SummaryMap{"2026-02-10": 60}, FastingHistory: []string{"2026-02-10"}})
	_ = f.remote.SaveDailyLog(ctx, "alice", remote.DailyLog{Date: "2026-02-10", Tasks: tenTasks(6), Progress: 60})
	_ = f.journal.Session.Save(models.Session{UID: "alice"})
	if _, err := f.engine.Reconcile(ctx, "alice"); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.SignOut(); err != nil {
		t.Fatalf("SignOut failed: %v", err)
	}
	keys, _ := f.mem.Keys()
	if !reflect.DeepEqual(keys, []string{constants.DeviceIDKey}) {
		t.Errorf("expected only the device id to survive, got %v", keys)
	}
	if f.journal.Session.DeviceID() != deviceID {
		t.Error("device id changed across sign-out")
	}

	f.remote.PutUser(remote.UserDocument{UID: "bob", WorshipHistory: models.SummaryMap{"2026-02-12": 40}})
	res, err := f.engine.Reconcile(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := res.Summary["2026-02-10"]; ok {
		t.Error("previous user's history leaked into the new session")
	}
	if len(res.Fasting) != 0 {
		t.Errorf("expected empty ledger, got %v", res.Fasting)
	}
	if f.journal.Days.Has("2026-02-10") {
		t.Error("previous user's day record survived sign-out")
	}
	alice, _ := f.remote.GetUser(ctx, "alice")
	if alice.WorshipHistory["2026-02-10"] != 60 {
		t.Error("sign-out must not touch remote data")
	}
}

func TestReconcileRequiresUID(t *testing.T) {
	f := setup(t)
	if _, err := f.engine.Reconcile(context.Background(), ""); err == nil {
		t.Error("expected error for empty uid")
	}
}
