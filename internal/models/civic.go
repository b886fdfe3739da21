package models

import "time"

// JurisdictionLevel is the level of government an office belongs to.
type JurisdictionLevel string

const (
	JurisdictionLocal   JurisdictionLevel = "local"
	JurisdictionState   JurisdictionLevel = "state"
	JurisdictionFederal JurisdictionLevel = "federal"
)

// Issue is a civic topic a user can select interest in.
//
// RelatedOffices and RelatedMeasures are relation lists: foreign identifiers
// that are not guaranteed to resolve against the currently loaded collections.
// Consumers drop dangling identifiers instead of failing.
type Issue struct {
	ID              string   `json:"id" db:"id"`
	Name            string   `json:"name" db:"name"`
	Description     string   `json:"description" db:"description"`
	Icon            string   `json:"icon" db:"icon"`
	Count           int64    `json:"count" db:"count"`
	RelatedOffices  []string `json:"related_offices"`
	RelatedMeasures []string `json:"related_measures"`
}

// Office is an elected position on the ballot.
type Office struct {
	ID            string            `json:"id" db:"id"`
	Name          string            `json:"name" db:"name"`
	Description   string            `json:"description" db:"description"`
	Explanation   string            `json:"explanation" db:"explanation"`
	Level         JurisdictionLevel `json:"level" db:"level"`
	RelatedIssues []string          `json:"related_issues"`
}

// BallotMeasure is a proposition the user can vote on.
type BallotMeasure struct {
	ID            string   `json:"id" db:"id"`
	Title         string   `json:"title" db:"title"`
	Description   string   `json:"description" db:"description"`
	Category      string   `json:"category" db:"category"`
	Impact        string   `json:"impact" db:"impact"`
	RelatedIssues []string `json:"related_issues"`
}

// Candidate runs for a single office and addresses issues through its platform.
type Candidate struct {
	ID            string   `json:"id" db:"id"`
	Name          string   `json:"name" db:"name"`
	Party         string   `json:"party" db:"party"`
	Positions     []string `json:"positions"`
	OfficeID      string   `json:"office_id" db:"office_id"`
	RelatedIssues []string `json:"related_issues"`
}

// Completion is the snapshot of a finished user journey stored for analytics.
type Completion struct {
	SessionID         string    `json:"session_id"`
	SelectedIssues    []string  `json:"selected_issues"`
	AgeBracket        string    `json:"age_bracket"`
	CommunityRoles    []string  `json:"community_roles"`
	ZipCode           string    `json:"zip_code"`
	StarredCandidates []string  `json:"starred_candidates"`
	StarredMeasures   []string  `json:"starred_measures"`
	ReadinessResponse string    `json:"readiness_response"`
	Feedback          string    `json:"feedback"`
	CompletedAt       time.Time `json:"completed_at"`
}

// Signup is an email signup captured on one of the final screens.
type Signup struct {
	Email        string    `json:"email"`
	Source       string    `json:"source"`
	WantsUpdates bool      `json:"wants_updates"`
	SessionID    string    `json:"session_id"`
	Timestamp    time.Time `json:"timestamp"`
}
