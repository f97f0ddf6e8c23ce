package catalog

import (
	"testing"

	"github.com/julianstephens/ibadah/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	tasks := Default()
	if len(tasks) != 21 {
		t.Fatalf("expected 21 tasks, got %d", len(tasks))
	}

	seen := make(map[string]bool)
	wajib := 0
	for _, task := range tasks {
		if seen[task.ID] {
			t.Errorf("duplicate task id %q", task.ID)
		}
		seen[task.ID] = true
		if task.Completed {
			t.Errorf("task %q should start unchecked", task.ID)
		}
		if task.Category == models.CategoryWajib {
			wajib++
		}
	}
	if wajib != 5 {
		t.Errorf("expected 5 wajib tasks, got %d", wajib)
	}
}

func TestDefaultReturnsCopy(t *testing.T) {
	a := Default()
	a[0].Completed = true
	if Default()[0].Completed {
		t.Error("Default must return an independent copy")
	}
}

func TestIsFivePrayers(t *testing.T) {
	for _, id := range []string{"fajr", "dhuhr", "asr", "maghrib", "isha"} {
		if !IsFivePrayers(id) {
			t.Errorf("expected %q to be one of the five prayers", id)
		}
	}
	for _, id := range []string{"tahajud", "quran", "unknown"} {
		if IsFivePrayers(id) {
			t.Errorf("expected %q not to be one of the five prayers", id)
		}
	}
}

func TestMergeByID(t *testing.T) {
	base := []models.WorshipTask{
		{ID: "fajr", Label: "Sholat Subuh", Category: models.CategoryWajib},
		{ID: "dhuha", Label: "Sholat Dhuha", Category: models.CategorySunnah},
		{ID: "new_task", Label: "Added later", Category: models.CategorySunnah},
	}
	stored := []models.WorshipTask{
		{ID: "dhuha", Label: "old label", Completed: true},
		{ID: "fajr", Completed: true},
		{ID: "removed_task", Completed: true},
	}

	got := Merge(base, stored)
	if len(got) != 3 {
		t.Fatalf("expected 3 tasks, got %d", len(got))
	}
	if !got[0].Completed || !got[1].Completed {
		t.Error("expected stored completion flags to carry over")
	}
	if got[1].Label != "Sholat Dhuha" {
		t.Errorf("expected catalog label to win, got %q", got[1].Label)
	}
	if got[2].Completed {
		t.Error("expected newly added catalog task to be unchecked")
	}
	if base[0].Completed {
		t.Error("Merge must not mutate base")
	}
}
