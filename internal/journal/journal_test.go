package journal

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/storage"
)

func tenTasks(completed int) []models.WorshipTask {
	ids := []string{"t0", "t1", "t2", "t3", "t4", "t5", "t6", "t7", "t8", "t9"}
	tasks := make([]models.WorshipTask, len(ids))
	for i, id := range ids {
		tasks[i] = models.WorshipTask{ID: id, Label: id, Category: models.CategorySunnah, Completed: i < completed}
	}
	return tasks
}

func setupJournal(t *testing.T) (*Journal, *storage.MemoryStore) {
	t.Helper()
	mem := storage.NewMemoryStore()
	return New(mem, catalog.Default()), mem
}

func TestLoadFreshDayUsesCatalog(t *testing.T) {
	j, _ := setupJournal(t)

	rec := j.Days.Load("2026-02-20")
	if len(rec.Tasks) != 21 {
		t.Fatalf("expected 21 tasks, got %d", len(rec.Tasks))
	}
	if rec.Progress != 0 || rec.Completed() != 0 {
		t.Errorf("expected empty day, got progress %d", rec.Progress)
	}
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	j, _ := setupJournal(t)

	rec := j.Days.Load("2026-02-20")
	rec.Toggle("fajr")
	rec.Toggle("dhuhr")
	rec.Progress = 99 // stale value must be recomputed

	saved, err := j.Days.Save(rec)
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if saved.Progress != 10 {
		t.Errorf("expected recomputed progress 10, got %d", saved.Progress)
	}

	loaded := j.Days.Load("2026-02-20")
	if loaded.Completed() != 2 || loaded.Progress != 10 {
		t.Errorf("expected 2 completed/10%%, got %d/%d", loaded.Completed(), loaded.Progress)
	}
	if got := j.Summary.Load()["2026-02-20"]; got != 10 {
		t.Errorf("expected summary upsert to 10, got %d", got)
	}
}

func TestSaveRejectsUnpaddedDate(t *testing.T) {
	j, _ := setupJournal(t)
	if _, err := j.Days.Save(models.NewDayRecord("2026-2-20", catalog.Default())); err == nil {
		t.Error("expected error for unpadded date")
	}
}

func TestSaveFailureIsReported(t *testing.T) {
	j, mem := setupJournal(t)
	mem.FailWrites = errors.New("quota exceeded")

	rec := j.Days.Load("2026-02-20")
	rec.Toggle("fajr")
	saved, err := j.Days.Save(rec)
	if err == nil {
		t.Fatal("expected write error")
	}
	if saved.Progress != 5 {
		t.Errorf("expected progress to be computed even on failure, got %d", saved.Progress)
	}
}

func TestLoadMergesStoredFlagsByID(t *testing.T) {
	j, mem := setupJournal(t)
	_ = mem.Set(constants.DayKeyPrefix+"2026-02-20",
		`[{"id":"isha","completed":true},{"id":"retired_task","completed":true}]`)

	rec := j.Days.Load("2026-02-20")
	if len(rec.Tasks) != 21 {
		t.Fatalf("expected catalog length, got %d", len(rec.Tasks))
	}
	if rec.Completed() != 1 {
		t.Errorf("expected only isha completed, got %d", rec.Completed())
	}
}

func TestCorruptDayIsTreatedAsAbsent(t *testing.T) {
	j, mem := setupJournal(t)
	_ = mem.Set(constants.DayKeyPrefix+"2026-02-20", "{broken")

	rec := j.Days.Load("2026-02-20")
	if rec.Completed() != 0 || len(rec.Tasks) != 21 {
		t.Error("expected fresh catalog for corrupt record")
	}
	if j.Days.Has("2026-02-20") {
		t.Error("corrupt record should not count as present")
	}

	// The next save overwrites the corrupt value.
	rec.Toggle("fajr")
	if _, err := j.Days.Save(rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if !j.Days.Has("2026-02-20") {
		t.Error("expected record after save")
	}
}

func TestSeedDoesNotOverwrite(t *testing.T) {
	j, _ := setupJournal(t)

	wrote, err := j.Days.Seed("2026-02-15", tenTasks(8))
	if err != nil || !wrote {
		t.Fatalf("expected first seed to write, got %v, %v", wrote, err)
	}
	wrote, _ = j.Days.Seed("2026-02-15", tenTasks(1))
	if wrote {
		t.Error("expected second seed to be skipped")
	}
	stored, _ := j.Days.Stored("2026-02-15")
	if models.Progress(stored) != 80 {
		t.Errorf("expected seeded progress 80, got %d", models.Progress(stored))
	}
}

func TestDatesSkipsForeignKeys(t *testing.T) {
	j, mem := setupJournal(t)
	_ = mem.Set(constants.DayKeyPrefix+"2026-02-21", "[]")
	_ = mem.Set(constants.DayKeyPrefix+"2026-02-09", "[]")
	_ = mem.Set(constants.DayKeyPrefix+"garbage", "[]")
	_ = mem.Set(constants.SummaryKey, "{}")

	dates, err := j.Days.Dates()
	if err != nil {
		t.Fatalf("Dates failed: %v", err)
	}
	if !reflect.DeepEqual(dates, []string{"2026-02-09", "2026-02-21"}) {
		t.Errorf("unexpected dates: %v", dates)
	}
}

func TestRebuildFromAllDays(t *testing.T) {
	j, mem := setupJournal(t)

	_, _ = j.Days.Seed("2026-02-20", tenTasks(3))
	_, _ = j.Days.Seed("2026-02-21", tenTasks(10))
	_, _ = j.Days.Seed("2026-02-22", nil)
	_ = j.Summary.Write(models.SummaryMap{"2026-02-20": 90, "2026-01-01": 40})

	first, err := j.Summary.RebuildFromAllDays(j.Days)
	if err != nil {
		t.Fatalf("Rebuild failed: %v", err)
	}
	want := models.SummaryMap{"2026-02-20": 30, "2026-02-21": 100, "2026-01-01": 40}
	if !first.Equal(want) {
		t.Errorf("expected %v, got %v", want, first)
	}

	raw, _ := mem.Get(constants.SummaryKey)
	second, err := j.Summary.RebuildFromAllDays(j.Days)
	if err != nil {
		t.Fatalf("second Rebuild failed: %v", err)
	}
	if !second.Equal(first) {
		t.Errorf("rebuild not idempotent: %v vs %v", first, second)
	}
	raw2, _ := mem.Get(constants.SummaryKey)
	if raw != raw2 {
		t.Error("second rebuild should not rewrite an unchanged summary")
	}
}

func TestCorruptSummaryLoadsEmpty(t *testing.T) {
	j, mem := setupJournal(t)
	_ = mem.Set(constants.SummaryKey, "[1,2,3]")
	if len(j.Summary.Load()) != 0 {
		t.Error("expected empty summary for corrupt value")
	}
}

func TestFastingToggleIsIdempotent(t *testing.T) {
	j, _ := setupJournal(t)

	once, err := j.Fasting.Toggle("2026-02-20", true)
	if err != nil {
		t.Fatalf("Toggle failed: %v", err)
	}
	twice, _ := j.Fasting.Toggle("2026-02-20", true)
	if !reflect.DeepEqual(once, twice) || len(twice) != 1 {
		t.Errorf("expected single entry after double add, got %v", twice)
	}

	_, _ = j.Fasting.Toggle("2026-02-18", true)
	if !reflect.DeepEqual(j.Fasting.Dates(), []string{"2026-02-18", "2026-02-20"}) {
		t.Errorf("expected sorted ledger, got %v", j.Fasting.Dates())
	}

	_, _ = j.Fasting.Toggle("2026-02-20", false)
	after, _ := j.Fasting.Toggle("2026-02-20", false)
	if !reflect.DeepEqual(after, []string{"2026-02-18"}) {
		t.Errorf("expected removal to be idempotent, got %v", after)
	}
	if j.Fasting.Contains("2026-02-20") {
		t.Error("expected 2026-02-20 removed")
	}
}

func TestFastingToggleAcceptsPastDates(t *testing.T) {
	j, _ := setupJournal(t)
	if _, err := j.Fasting.Toggle("2020-01-01", true); err != nil {
		t.Errorf("ledger should accept any valid date: %v", err)
	}
	if _, err := j.Fasting.Toggle("2020-1-1", true); err == nil {
		t.Error("expected error for unpadded date")
	}
}

func TestFastingLedgerDropsDuplicatesAndJunk(t *testing.T) {
	j, mem := setupJournal(t)
	_ = mem.Set(constants.FastingKey, `["2026-02-20","2026-02-19","2026-02-20","nope"]`)
	if got := j.Fasting.Dates(); !reflect.DeepEqual(got, []string{"2026-02-19", "2026-02-20"}) {
		t.Errorf("unexpected normalized ledger: %v", got)
	}
}

func TestClearUserDataKeepsDeviceID(t *testing.T) {
	j, mem := setupJournal(t)

	device := j.Session.DeviceID()
	rec := j.Days.Load("2026-02-20")
	rec.Toggle("fajr")
	_, _ = j.Days.Save(rec)
	_, _ = j.Fasting.Toggle("2026-02-20", true)
	_ = mem.Set(constants.LegacyFastingKey, "true")
	_ = j.Bookmark.Save(models.Bookmark{Surah: 2, Ayah: 255, UpdatedAt: time.Now()})
	_ = j.Session.Save(models.Session{UID: "user-a"})

	if err := j.ClearUserData(); err != nil {
		t.Fatalf("ClearUserData failed: %v", err)
	}

	keys, _ := mem.Keys()
	if !reflect.DeepEqual(keys, []string{constants.DeviceIDKey}) {
		t.Errorf("expected only device id to remain, got %v", keys)
	}
	if j.Session.DeviceID() != device {
		t.Error("device id changed across sign-out")
	}
	if _, ok := j.Session.Current(); ok {
		t.Error("expected no session after clear")
	}
}

func TestBookmarkValidation(t *testing.T) {
	j, _ := setupJournal(t)
	if err := j.Bookmark.Save(models.Bookmark{Surah: 115, Ayah: 1}); err == nil {
		t.Error("expected error for surah out of range")
	}
	if err := j.Bookmark.Save(models.Bookmark{Surah: 18, Ayah: 10}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	bm, ok := j.Bookmark.Load()
	if !ok || bm.Surah != 18 || bm.Ayah != 10 {
		t.Errorf("unexpected bookmark %+v", bm)
	}
}
