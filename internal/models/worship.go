package models

import "math"

// Category groups worship tasks into obligatory and voluntary practice.
type Category string

const (
	CategoryWajib  Category = "wajib"
	CategorySunnah Category = "sunnah"
)

// WorshipTask is one checklist item for a single day.
type WorshipTask struct {
	ID        string   `json:"id" firestore:"id"`
	Label     string   `json:"label" firestore:"label"`
	Category  Category `json:"category" firestore:"category"`
	Completed bool     `json:"completed" firestore:"completed"`
}

// DayRecord is the full checklist for one calendar day.
// Progress is always derived from Tasks; use NewDayRecord or Toggle to keep
// the two in step.
type DayRecord struct {
	Date     string        `json:"date"` // YYYY-MM-DD format
	Tasks    []WorshipTask `json:"tasks"`
	Progress int           `json:"progress"`
}

// Progress returns round(100 * completed / total), or 0 for an empty list.
func Progress(tasks []WorshipTask) int {
	if len(tasks) == 0 {
		return 0
	}
	done := CountCompleted(tasks)
	return int(math.Round(100 * float64(done) / float64(len(tasks))))
}

// CountCompleted returns how many tasks are checked.
func CountCompleted(tasks []WorshipTask) int {
	n := 0
	for _, t := range tasks {
		if t.Completed {
			n++
		}
	}
	return n
}

// CloneTasks returns a copy that does not share the backing array.
func CloneTasks(tasks []WorshipTask) []WorshipTask {
	if tasks == nil {
		return nil
	}
	out := make([]WorshipTask, len(tasks))
	copy(out, tasks)
	return out
}

// NewDayRecord builds a record for date with progress computed from tasks.
func NewDayRecord(date string, tasks []WorshipTask) DayRecord {
	tasks = CloneTasks(tasks)
	return DayRecord{
		Date:     date,
		Tasks:    tasks,
		Progress: Progress(tasks),
	}
}

// Toggle flips the task with the given id and recomputes Progress.
// It reports false when no task has that id.
func (d *DayRecord) Toggle(id string) bool {
	for i := range d.Tasks {
		if d.Tasks[i].ID == id {
			d.Tasks[i].Completed = !d.Tasks[i].Completed
			d.Progress = Progress(d.Tasks)
			return true
		}
	}
	return false
}

// Completed returns the number of checked tasks.
func (d DayRecord) Completed() int {
	return CountCompleted(d.Tasks)
}

// Clone returns a deep copy of the record.
func (d DayRecord) Clone() DayRecord {
	d.Tasks = CloneTasks(d.Tasks)
	return d
}
