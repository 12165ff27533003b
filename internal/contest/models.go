package contest

import (
	"github.com/AHsytraka/concours-app/internal/deliberation"
)

type Status string

const (
	StatusOpen      Status = "open"      // accepting applications and grade entry
	StatusPublished Status = "published" // results frozen, ranking visible
)

type Contest struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	InstitutionID string                 `json:"institution_id"`
	Status        Status                 `json:"status"`
	Subjects      []deliberation.Subject `json:"subjects"`
	Rules         deliberation.Rules     `json:"rules"`
	CreatedAt     int64                  `json:"created_at,omitempty"`
	PublishedAt   int64                  `json:"published_at,omitempty"`
}

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationValidated ApplicationStatus = "validated"
	ApplicationRejected  ApplicationStatus = "rejected"
)

// Application is one candidate's registration for one contest. TranscriptKey
// points into the blob store once the candidate has uploaded a transcript.
type Application struct {
	ID            string            `json:"id"`
	ContestID     string            `json:"contest_id"`
	CandidateID   string            `json:"candidate_id"`
	Status        ApplicationStatus `json:"status"`
	TranscriptKey string            `json:"transcript_key,omitempty"`
	SubmittedAt   int64             `json:"submitted_at,omitempty"`
	DecidedAt     int64             `json:"decided_at,omitempty"`
}

// GradeSheet holds the raw per-subject grades for one (candidate, contest)
// pair. Derived evaluation results are never stored; they are recomputed
// from this sheet on demand.
type GradeSheet struct {
	ContestID   string              `json:"contest_id"`
	CandidateID string              `json:"candidate_id"`
	Grades      deliberation.Grades `json:"grades"`
	UpdatedAt   int64               `json:"updated_at,omitempty"`
}
