// Package catalog holds the fixed list of daily worship tasks.
package catalog

import "github.com/julianstephens/ibadah/internal/models"

var definitions = []models.WorshipTask{
	{ID: "fajr", Label: "Sholat Subuh", Category: models.CategoryWajib},
	{ID: "tahajud", Label: "Sholat Tahajud", Category: models.CategorySunnah},
	{ID: "sahur", Label: "Makan Sahur", Category: models.CategorySunnah},
	{ID: "qobliyah_subuh", Label: "Sunnah Qobliyah Subuh", Category: models.CategorySunnah},
	{ID: "sedekah_subuh", Label: "Sedekah Subuh", Category: models.CategorySunnah},
	{ID: "dhikr_pagi", Label: "Dzikir Pagi", Category: models.CategorySunnah},
	{ID: "dhuha", Label: "Sholat Dhuha", Category: models.CategorySunnah},
	{ID: "dhuhr", Label: "Sholat Dzuhur", Category: models.CategoryWajib},
	{ID: "qobliyah_dzuhur", Label: "Sunnah Qobliyah Dzuhur", Category: models.CategorySunnah},
	{ID: "badiyah_dzuhur", Label: "Sunnah Ba'diyah Dzuhur", Category: models.CategorySunnah},
	{ID: "asr", Label: "Sholat Ashar", Category: models.CategoryWajib},
	{ID: "qobliyah_ashar", Label: "Sunnah Qobliyah Ashar", Category: models.CategorySunnah},
	{ID: "dhikr_petang", Label: "Dzikir Petang", Category: models.CategorySunnah},
	{ID: "maghrib", Label: "Sholat Maghrib", Category: models.CategoryWajib},
	{ID: "qobliyah_maghrib", Label: "Sunnah Qobliyah Maghrib", Category: models.CategorySunnah},
	{ID: "badiyah_maghrib", Label: "Sunnah Ba'diyah Maghrib", Category: models.CategorySunnah},
	{ID: "isha", Label: "Sholat Isya", Category: models.CategoryWajib},
	{ID: "qobliyah_isya", Label: "Sunnah Qobliyah Isya", Category: models.CategorySunnah},
	{ID: "badiyah_isya", Label: "Sunnah Ba'diyah Isya", Category: models.CategorySunnah},
	{ID: "tarawih", Label: "Sholat Tarawih", Category: models.CategorySunnah},
	{ID: "quran", Label: "Tadarus Al-Qur'an", Category: models.CategorySunnah},
}

// Default returns a fresh copy of the catalog with every task unchecked.
func Default() []models.WorshipTask {
	return models.CloneTasks(definitions)
}

// Lookup returns the catalog definition for id.
func Lookup(id string) (models.WorshipTask, bool) {
	for _, t := range definitions {
		if t.ID == id {
			return t, true
		}
	}
	return models.WorshipTask{}, false
}

// IsFivePrayers reports whether id is one of the five obligatory daily prayers.
func IsFivePrayers(id string) bool {
	t, ok := Lookup(id)
	return ok && t.Category == models.CategoryWajib
}

// Merge overlays stored completion flags onto base by task id. Tasks missing
// from stored stay unchecked and stored ids that base does not know are dropped.
func Merge(base, stored []models.WorshipTask) []models.WorshipTask {
	done := make(map[string]bool, len(stored))
	for _, t := range stored {
		done[t.ID] = t.Completed
	}
	out := models.CloneTasks(base)
	for i := range out {
		out[i].Completed = done[out[i].ID]
	}
	return out
}
