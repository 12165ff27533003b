package contest

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/AHsytraka/concours-app/internal/deliberation"
)

// SQLStore persists contests, applications and grade sheets. Subjects, rules
// and grades are JSON blobs in TEXT columns, so the same statements work on
// both sqlite and postgres.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) PutContest(ctx context.Context, c Contest) error {
	if c.Status == "" {
		c.Status = StatusOpen
	}
	if c.CreatedAt == 0 {
		c.CreatedAt = time.Now().Unix()
	}
	sj, err := json.Marshal(c.Subjects)
	if err != nil {
		return err
	}
	rj, err := json.Marshal(c.Rules)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contests (id,title,institution_id,status,subjects_json,rules_json,created_at,published_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		 ON CONFLICT (id) DO UPDATE SET title=EXCLUDED.title, subjects_json=EXCLUDED.subjects_json, rules_json=EXCLUDED.rules_json`,
		c.ID, c.Title, c.InstitutionID, string(c.Status), string(sj), string(rj), c.CreatedAt, c.PublishedAt)
	return err
}

func (s *SQLStore) GetContest(ctx context.Context, id string) (Contest, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,title,institution_id,status,subjects_json,rules_json,created_at,published_at FROM contests WHERE id=$1`, id)
	return scanContest(row)
}

func scanContest(row *sql.Row) (Contest, error) {
	var c Contest
	var status, sj, rj string
	if err := row.Scan(&c.ID, &c.Title, &c.InstitutionID, &status, &sj, &rj, &c.CreatedAt, &c.PublishedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Contest{}, ErrContestNotFound
		}
		return Contest{}, err
	}
	c.Status = Status(status)
	if err := json.Unmarshal([]byte(sj), &c.Subjects); err != nil {
		return Contest{}, err
	}
	if err := json.Unmarshal([]byte(rj), &c.Rules); err != nil {
		return Contest{}, err
	}
	return c, nil
}

func (s *SQLStore) ListContests(ctx context.Context) ([]Contest, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,title,institution_id,status,subjects_json,rules_json,created_at,published_at FROM contests ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Contest{}
	for rows.Next() {
		var c Contest
		var status, sj, rj string
		if err := rows.Scan(&c.ID, &c.Title, &c.InstitutionID, &status, &sj, &rj, &c.CreatedAt, &c.PublishedAt); err != nil {
			return nil, err
		}
		c.Status = Status(status)
		if err := json.Unmarshal([]byte(sj), &c.Subjects); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(rj), &c.Rules); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLStore) Publish(ctx context.Context, id string) (Contest, error) {
	c, err := s.GetContest(ctx, id)
	if err != nil {
		return Contest{}, err
	}
	if c.Status == StatusPublished {
		return c, nil
	}
	now := time.Now().Unix()
	if _, err := s.db.ExecContext(ctx,
		`UPDATE contests SET status=$1, published_at=$2 WHERE id=$3`,
		string(StatusPublished), now, id); err != nil {
		return Contest{}, err
	}
	c.Status = StatusPublished
	c.PublishedAt = now
	return c, nil
}

func (s *SQLStore) CreateApplication(ctx context.Context, contestID, candidateID string) (Application, error) {
	c, err := s.GetContest(ctx, contestID)
	if err != nil {
		return Application{}, err
	}
	if c.Status == StatusPublished {
		return Application{}, ErrContestPublished
	}
	var exist int
	err = s.db.QueryRowContext(ctx,
		`SELECT 1 FROM applications WHERE contest_id=$1 AND candidate_id=$2`, contestID, candidateID).Scan(&exist)
	if err == nil {
		return Application{}, ErrAlreadyApplied
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Application{}, err
	}
	a := Application{
		ID:          uuid.NewString(),
		ContestID:   contestID,
		CandidateID: candidateID,
		Status:      ApplicationPending,
		SubmittedAt: time.Now().Unix(),
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO applications (id,contest_id,candidate_id,status,transcript_key,submitted_at,decided_at)
		 VALUES ($1,$2,$3,$4,'',$5,0)`,
		a.ID, a.ContestID, a.CandidateID, string(a.Status), a.SubmittedAt)
	if err != nil {
		return Application{}, err
	}
	return a, nil
}

func (s *SQLStore) GetApplication(ctx context.Context, id string) (Application, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,contest_id,candidate_id,status,transcript_key,submitted_at,decided_at FROM applications WHERE id=$1`, id)
	var a Application
	var status string
	if err := row.Scan(&a.ID, &a.ContestID, &a.CandidateID, &status, &a.TranscriptKey, &a.SubmittedAt, &a.DecidedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Application{}, ErrApplicationNotFound
		}
		return Application{}, err
	}
	a.Status = ApplicationStatus(status)
	return a, nil
}

func (s *SQLStore) SetApplicationStatus(ctx context.Context, id string, status ApplicationStatus) (Application, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE applications SET status=$1, decided_at=$2 WHERE id=$3`,
		string(status), time.Now().Unix(), id)
	if err != nil {
		return Application{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Application{}, ErrApplicationNotFound
	}
	return s.GetApplication(ctx, id)
}

func (s *SQLStore) AttachTranscript(ctx context.Context, id, key string) (Application, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE applications SET transcript_key=$1 WHERE id=$2`, key, id)
	if err != nil {
		return Application{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Application{}, ErrApplicationNotFound
	}
	return s.GetApplication(ctx, id)
}

func (s *SQLStore) ListApplications(ctx context.Context, contestID string) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,contest_id,candidate_id,status,transcript_key,submitted_at,decided_at FROM applications WHERE contest_id=$1 ORDER BY submitted_at, id`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Application{}
	for rows.Next() {
		var a Application
		var status string
		if err := rows.Scan(&a.ID, &a.ContestID, &a.CandidateID, &status, &a.TranscriptKey, &a.SubmittedAt, &a.DecidedAt); err != nil {
			return nil, err
		}
		a.Status = ApplicationStatus(status)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLStore) SaveGrades(ctx context.Context, contestID, candidateID string, grades deliberation.Grades) (GradeSheet, error) {
	c, err := s.GetContest(ctx, contestID)
	if err != nil {
		return GradeSheet{}, err
	}
	if c.Status == StatusPublished {
		return GradeSheet{}, ErrContestPublished
	}
	var status string
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM applications WHERE contest_id=$1 AND candidate_id=$2`, contestID, candidateID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return GradeSheet{}, ErrApplicationNotFound
	}
	if err != nil {
		return GradeSheet{}, err
	}
	if ApplicationStatus(status) != ApplicationValidated {
		return GradeSheet{}, ErrNotValidated
	}
	if err := checkSubjects(c, grades); err != nil {
		return GradeSheet{}, err
	}

	sheet, err := s.GetGradeSheet(ctx, contestID, candidateID)
	if errors.Is(err, ErrSheetNotFound) {
		sheet = GradeSheet{ContestID: contestID, CandidateID: candidateID, Grades: deliberation.Grades{}}
	} else if err != nil {
		return GradeSheet{}, err
	}
	for name, v := range grades {
		sheet.Grades[name] = v
	}
	sheet.UpdatedAt = time.Now().Unix()
	gj, err := json.Marshal(sheet.Grades)
	if err != nil {
		return GradeSheet{}, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO gradesheets (contest_id,candidate_id,grades_json,updated_at)
		 VALUES ($1,$2,$3,$4)
		 ON CONFLICT (contest_id,candidate_id) DO UPDATE SET grades_json=EXCLUDED.grades_json, updated_at=EXCLUDED.updated_at`,
		contestID, candidateID, string(gj), sheet.UpdatedAt)
	if err != nil {
		return GradeSheet{}, err
	}
	return sheet, nil
}

func (s *SQLStore) GetGradeSheet(ctx context.Context, contestID, candidateID string) (GradeSheet, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT contest_id,candidate_id,grades_json,updated_at FROM gradesheets WHERE contest_id=$1 AND candidate_id=$2`,
		contestID, candidateID)
	var sheet GradeSheet
	var gj string
	if err := row.Scan(&sheet.ContestID, &sheet.CandidateID, &gj, &sheet.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GradeSheet{}, ErrSheetNotFound
		}
		return GradeSheet{}, err
	}
	if err := json.Unmarshal([]byte(gj), &sheet.Grades); err != nil {
		return GradeSheet{}, err
	}
	return sheet, nil
}

func (s *SQLStore) ListGradeSheets(ctx context.Context, contestID string) ([]GradeSheet, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT contest_id,candidate_id,grades_json,updated_at FROM gradesheets WHERE contest_id=$1 ORDER BY candidate_id`, contestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []GradeSheet{}
	for rows.Next() {
		var sheet GradeSheet
		var gj string
		if err := rows.Scan(&sheet.ContestID, &sheet.CandidateID, &gj, &sheet.UpdatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(gj), &sheet.Grades); err != nil {
			return nil, err
		}
		out = append(out, sheet)
	}
	return out, rows.Err()
}
