// Package recap summarises a user's worship and fasting history.
package recap

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/julianstephens/ibadah/internal/catalog"
	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/journal"
	"github.com/julianstephens/ibadah/internal/logger"
	"github.com/julianstephens/ibadah/internal/models"
	"github.com/julianstephens/ibadah/internal/remote"
	"github.com/julianstephens/ibadah/internal/streak"
	"github.com/julianstephens/ibadah/internal/utils"
)

type TaskCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Recap is the season overview built from local records.
type Recap struct {
	FastingDays   int         `json:"fastingDays"`
	AvgWorship    int         `json:"avgWorship"`
	CurrentStreak int         `json:"currentStreak"`
	LongestStreak int         `json:"longestStreak"`
	TopTasks      []TaskCount `json:"topTasks"`
}

// Build computes the recap from the local journal as of today.
func Build(j *journal.Journal, today string) (Recap, error) {
	fasting := j.Fasting.Dates()
	r := Recap{
		FastingDays:   len(fasting),
		AvgWorship:    Average(j.Summary.Load()),
		CurrentStreak: streak.CurrentFromDates(fasting, today),
		LongestStreak: streak.Longest(fasting),
	}

	dates, err := j.Days.Dates()
	if err != nil {
		return r, err
	}
	var days [][]models.WorshipTask
	for _, d := range dates {
		if tasks, ok := j.Days.Stored(d); ok {
			days = append(days, tasks)
		}
	}
	r.TopTasks = TopTasks(days, constants.TopTaskCount)
	return r, nil
}

// Average returns the rounded mean progress, 0 for an empty map.
func Average(m models.SummaryMap) int {
	if len(m) == 0 {
		return 0
	}
	total := 0
	for _, v := range m {
		total += v
	}
	return int(math.Round(float64(total) / float64(len(m))))
}

// TopTasks counts completions across days and returns the n most frequent
// labels. The five daily prayers share one bucket. Ties sort by label.
func TopTasks(days [][]models.WorshipTask, n int) []TaskCount {
	counts := make(map[string]int)
	for _, tasks := range days {
		for _, t := range tasks {
			if !t.Completed {
				continue
			}
			counts[bucketLabel(t)]++
		}
	}

	out := make([]TaskCount, 0, len(counts))
	for label, c := range counts {
		out = append(out, TaskCount{Label: label, Count: c})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Label < out[j].Label
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func bucketLabel(t models.WorshipTask) string {
	if catalog.IsFivePrayers(t.ID) {
		return constants.FivePrayersLabel
	}
	if t.Label != "" {
		return t.Label
	}
	if def, ok := catalog.Lookup(t.ID); ok {
		return def.Label
	}
	return t.ID
}

// MonthTask is one row of the monthly breakdown.
type MonthTask struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
	// Percent is Count over the number of days in the month.
	Percent int `json:"percent"`
}

// Profile is the signed-in overview.
type Profile struct {
	TodayProgress    int         `json:"todayProgress"`
	FastingStreak    int         `json:"fastingStreak"`
	TotalFastingDays int         `json:"totalFastingDays"`
	Month            string      `json:"month"`
	DaysInMonth      int         `json:"daysInMonth"`
	Breakdown        []MonthTask `json:"breakdown"`
	// Source is "remote" or "local".
	Source string `json:"source"`
}

// BuildProfile prefers the remote document and logs when r and uid are
// set, falling back to local records when they are missing or unreachable.
// month is a YYYY-MM prefix.
func BuildProfile(ctx context.Context, j *journal.Journal, r remote.Provider, uid, today, month string) (Profile, error) {
	if _, err := utils.ParseMonth(month); err != nil {
		return Profile{}, err
	}
	start, _ := time.Parse(constants.MonthFormat, month)
	p := Profile{
		Month:       month,
		DaysInMonth: start.AddDate(0, 1, -1).Day(),
		Source:      "local",
	}

	var days [][]models.WorshipTask
	if r != nil && uid != "" {
		if ok := fillRemote(ctx, r, uid, today, month, &p, &days); ok {
			p.Source = "remote"
		}
	}
	if p.Source == "local" {
		fillLocal(j, today, month, &p, &days)
	}

	p.Breakdown = Breakdown(days, p.DaysInMonth)
	return p, nil
}

func fillRemote(ctx context.Context, r remote.Provider, uid, today, month string, p *Profile, days *[][]models.WorshipTask) bool {
	ctx, cancel := context.WithTimeout(ctx, constants.RemoteTimeout)
	defer cancel()

	doc, err := r.GetUser(ctx, uid)
	if err != nil {
		if !errors.Is(err, remote.ErrNotFound) {
			logger.Warn("profile falling back to local data", "error", err)
		}
		return false
	}
	logs, err := remote.MonthlyLogs(ctx, r, uid, month)
	if err != nil {
		logger.Warn("profile falling back to local data", "error", err)
		return false
	}

	if v, ok := doc.WorshipHistory[today]; ok {
		p.TodayProgress = v
	} else if l, ok := remote.IndexLogs(logs)[today]; ok {
		p.TodayProgress = models.Progress(l.Tasks)
	}
	p.FastingStreak = streak.CurrentFromDates(doc.FastingHistory, today)
	p.TotalFastingDays = len(streak.ToSet(doc.FastingHistory))
	for _, l := range logs {
		*days = append(*days, l.Tasks)
	}
	return true
}

func fillLocal(j *journal.Journal, today, month string, p *Profile, days *[][]models.WorshipTask) {
	if tasks, ok := j.Days.Stored(today); ok {
		p.TodayProgress = models.Progress(tasks)
	}
	fasting := j.Fasting.Dates()
	p.FastingStreak = streak.CurrentFromDates(fasting, today)
	p.TotalFastingDays = len(fasting)

	dates, err := j.Days.Dates()
	if err != nil {
		logger.Warn("failed to list local days", "error", err)
		return
	}
	for _, d := range dates {
		if !strings.HasPrefix(d, month+"-") {
			continue
		}
		if tasks, ok := j.Days.Stored(d); ok {
			*days = append(*days, tasks)
		}
	}
}

// Breakdown counts completions per catalog task, in catalog order.
func Breakdown(days [][]models.WorshipTask, daysInMonth int) []MonthTask {
	counts := make(map[string]int)
	for _, tasks := range days {
		for _, t := range tasks {
			if t.Completed {
				counts[t.ID]++
			}
		}
	}
	defs := catalog.Default()
	out := make([]MonthTask, 0, len(defs))
	for _, d := range defs {
		row := MonthTask{ID: d.ID, Label: d.Label, Category: d.Category, Count: counts[d.ID]}
		if daysInMonth > 0 {
			row.Percent = int(math.Round(100 * float64(row.Count) / float64(daysInMonth)))
		}
		out = append(out, row)
	}
	return out
}
