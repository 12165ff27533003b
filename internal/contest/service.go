package contest

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AHsytraka/concours-app/internal/deliberation"
)

var (
	ErrContestNotFound     = errors.New("contest not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrSheetNotFound       = errors.New("grade sheet not found")
	ErrContestPublished    = errors.New("contest already published")
	ErrContestNotPublished = errors.New("contest not published")
	ErrAlreadyApplied      = errors.New("candidate already applied")
	ErrUnknownSubject      = errors.New("grade for unknown subject")
	ErrNotValidated        = errors.New("application not validated")
)

type Store interface {
	PutContest(ctx context.Context, c Contest) error
	GetContest(ctx context.Context, id string) (Contest, error)
	ListContests(ctx context.Context) ([]Contest, error)
	Publish(ctx context.Context, id string) (Contest, error)

	CreateApplication(ctx context.Context, contestID, candidateID string) (Application, error)
	GetApplication(ctx context.Context, id string) (Application, error)
	SetApplicationStatus(ctx context.Context, id string, status ApplicationStatus) (Application, error)
	AttachTranscript(ctx context.Context, id, key string) (Application, error)
	ListApplications(ctx context.Context, contestID string) ([]Application, error)

	SaveGrades(ctx context.Context, contestID, candidateID string, grades deliberation.Grades) (GradeSheet, error)
	GetGradeSheet(ctx context.Context, contestID, candidateID string) (GradeSheet, error)
	ListGradeSheets(ctx context.Context, contestID string) ([]GradeSheet, error)
}

type sheetKey struct{ contestID, candidateID string }

type memoryStore struct {
	mu           sync.RWMutex
	contests     map[string]Contest
	applications map[string]Application
	sheets       map[sheetKey]GradeSheet
}

func NewInMemoryStore() Store {
	return &memoryStore{
		contests:     map[string]Contest{},
		applications: map[string]Application{},
		sheets:       map[sheetKey]GradeSheet{},
	}
}

func (m *memoryStore) PutContest(_ context.Context, c Contest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	m.contests[c.ID] = c
	return nil
}

func (m *memoryStore) GetContest(_ context.Context, id string) (Contest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.contests[id]
	if !ok {
		return Contest{}, ErrContestNotFound
	}
	return c, nil
}

func (m *memoryStore) ListContests(_ context.Context) ([]Contest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Contest, 0, len(m.contests))
	for _, c := range m.contests {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) Publish(_ context.Context, id string) (Contest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contests[id]
	if !ok {
		return Contest{}, ErrContestNotFound
	}
	if c.Status == StatusPublished {
		return c, nil
	}
	c.Status = StatusPublished
	c.PublishedAt = time.Now().Unix()
	m.contests[id] = c
	return c, nil
}

func (m *memoryStore) CreateApplication(_ context.Context, contestID, candidateID string) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contests[contestID]
	if !ok {
		return Application{}, ErrContestNotFound
	}
	if c.Status == StatusPublished {
		return Application{}, ErrContestPublished
	}
	for _, a := range m.applications {
		if a.ContestID == contestID && a.CandidateID == candidateID {
			return Application{}, ErrAlreadyApplied
		}
	}
	a := Application{
		ID:          uuid.NewString(),
		ContestID:   contestID,
		CandidateID: candidateID,
		Status:      ApplicationPending,
		SubmittedAt: time.Now().Unix(),
	}
	m.applications[a.ID] = a
	return a, nil
}

func (m *memoryStore) GetApplication(_ context.Context, id string) (Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.applications[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	return a, nil
}

func (m *memoryStore) SetApplicationStatus(_ context.Context, id string, status ApplicationStatus) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	a.Status = status
	a.DecidedAt = time.Now().Unix()
	m.applications[id] = a
	return a, nil
}

func (m *memoryStore) AttachTranscript(_ context.Context, id, key string) (Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.applications[id]
	if !ok {
		return Application{}, ErrApplicationNotFound
	}
	a.TranscriptKey = key
	m.applications[id] = a
	return a, nil
}

func (m *memoryStore) ListApplications(_ context.Context, contestID string) ([]Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Application{}
	for _, a := range m.applications {
		if a.ContestID == contestID {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SaveGrades merges the given grades into the candidate's sheet, one subject
// at a time. Grades are rejected wholesale on the first unknown subject so a
// typo never half-applies. Values are assumed already clamped at entry.
func (m *memoryStore) SaveGrades(_ context.Context, contestID, candidateID string, grades deliberation.Grades) (GradeSheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contests[contestID]
	if !ok {
		return GradeSheet{}, ErrContestNotFound
	}
	if c.Status == StatusPublished {
		return GradeSheet{}, ErrContestPublished
	}
	if err := m.requireValidatedLocked(contestID, candidateID); err != nil {
		return GradeSheet{}, err
	}
	if err := checkSubjects(c, grades); err != nil {
		return GradeSheet{}, err
	}
	k := sheetKey{contestID, candidateID}
	sheet, ok := m.sheets[k]
	if !ok {
		sheet = GradeSheet{ContestID: contestID, CandidateID: candidateID, Grades: deliberation.Grades{}}
	}
	for name, v := range grades {
		sheet.Grades[name] = v
	}
	sheet.UpdatedAt = time.Now().Unix()
	m.sheets[k] = sheet
	return sheet, nil
}

func (m *memoryStore) requireValidatedLocked(contestID, candidateID string) error {
	for _, a := range m.applications {
		if a.ContestID == contestID && a.CandidateID == candidateID {
			if a.Status != ApplicationValidated {
				return ErrNotValidated
			}
			return nil
		}
	}
	return ErrApplicationNotFound
}

func (m *memoryStore) GetGradeSheet(_ context.Context, contestID, candidateID string) (GradeSheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sheet, ok := m.sheets[sheetKey{contestID, candidateID}]
	if !ok {
		return GradeSheet{}, ErrSheetNotFound
	}
	return sheet, nil
}

func (m *memoryStore) ListGradeSheets(_ context.Context, contestID string) ([]GradeSheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []GradeSheet{}
	for k, s := range m.sheets {
		if k.contestID == contestID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CandidateID < out[j].CandidateID })
	return out, nil
}

func checkSubjects(c Contest, grades deliberation.Grades) error {
	known := make(map[string]struct{}, len(c.Subjects))
	for _, s := range c.Subjects {
		known[s.Name] = struct{}{}
	}
	for name := range grades {
		if _, ok := known[name]; !ok {
			return ErrUnknownSubject
		}
	}
	return nil
}
