package remote

import (
	"context"
	"sync"
	"time"

	"github.com/julianstephens/ibadah/internal/constants"
	"github.com/julianstephens/ibadah/internal/models"
)

// Memory is an in-process Provider with the same merge semantics as the
// cloud backends. It serves tests and offline demos.
type Memory struct {
	mu    sync.Mutex
	users map[string]*UserDocument
	logs  map[string]map[string]DailyLog

	// Now stamps createdAt on new documents.
	Now func() time.Time
	// FailReads and FailWrites, when set, are returned by the matching calls.
	FailReads  error
	FailWrites error
	// Writes counts successful mutating calls.
	Writes int
}

func NewMemory() *Memory {
	return &Memory{
		users: make(map[string]*UserDocument),
		logs:  make(map[string]map[string]DailyLog),
		Now:   time.Now,
	}
}

// PutUser stores doc as-is, replacing any existing document. Test setup only.
func (m *Memory) PutUser(doc UserDocument) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[doc.UID] = CloneDocument(&doc)
}

func (m *Memory) GetUser(ctx context.Context, uid string) (*UserDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	doc, ok := m.users[uid]
	if !ok {
		return nil, ErrNotFound
	}
	return CloneDocument(doc), nil
}

func (m *Memory) EnsureUser(ctx context.Context, uid string, profile models.Profile) (*UserDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return nil, m.FailWrites
	}
	doc, ok := m.users[uid]
	if !ok {
		doc = NewUserDocument(uid, profile, constants.DefaultCity, m.Now())
		m.users[uid] = doc
	} else {
		ApplyProfile(doc, profile)
	}
	m.Writes++
	return CloneDocument(doc), nil
}

func (m *Memory) MergeUser(ctx context.Context, uid string, patch UserPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	doc, ok := m.users[uid]
	if !ok {
		// Merge writes create the document, like a set-with-merge.
		doc = &UserDocument{UID: uid, WorshipHistory: models.SummaryMap{}, FastingHistory: []string{}}
		m.users[uid] = doc
	}
	ApplyPatch(doc, patch)
	m.Writes++
	return nil
}

func (m *Memory) SetFasting(ctx context.Context, uid, date string, fasted bool, streak int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	doc, ok := m.users[uid]
	if !ok {
		doc = &UserDocument{UID: uid, WorshipHistory: models.SummaryMap{}}
		m.users[uid] = doc
	}
	ApplyFasting(doc, date, fasted, streak)
	m.Writes++
	return nil
}

func (m *Memory) SaveDailyLog(ctx context.Context, uid string, log DailyLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrites != nil {
		return m.FailWrites
	}
	if m.logs[uid] == nil {
		m.logs[uid] = make(map[string]DailyLog)
	}
	log.Tasks = models.CloneTasks(log.Tasks)
	m.logs[uid][log.Date] = log
	m.Writes++
	return nil
}

func (m *Memory) GetDailyLog(ctx context.Context, uid, date string) (*DailyLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	l, ok := m.logs[uid][date]
	if !ok {
		return nil, ErrNotFound
	}
	l.Tasks = models.CloneTasks(l.Tasks)
	return &l, nil
}

func (m *Memory) ListDailyLogs(ctx context.Context, uid string) ([]DailyLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailReads != nil {
		return nil, m.FailReads
	}
	out := make([]DailyLog, 0, len(m.logs[uid]))
	for _, l := range m.logs[uid] {
		l.Tasks = models.CloneTasks(l.Tasks)
		out = append(out, l)
	}
	return out, nil
}

func (m *Memory) Close() error { return nil }
