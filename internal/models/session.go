package models

// Terminal records which of the two mutually exclusive final screens a session
// ended on. Both screens share the same step number, so the branch is carried
// explicitly instead of being inferred from the step.
type Terminal string

const (
	TerminalNone     Terminal = ""
	TerminalCast     Terminal = "cast"
	TerminalThankYou Terminal = "thank-you"
)

// Readiness is the user's answer at the readiness step.
type Readiness string

const (
	ReadinessYes           Readiness = "yes"
	ReadinessNo            Readiness = "no"
	ReadinessStillThinking Readiness = "still-thinking"
)

// MaxSelectedIssues caps how many issues a user may select. Adding beyond the
// cap is a no-op, not an error.
const MaxSelectedIssues = 3

// Session is the canonical per-user state of the guided flow.
//
// Entity collections are deliberately absent: they live in the loader and are
// re-fetched rather than trusted across restores.
type Session struct {
	Step              int       `json:"step"`
	History           []int     `json:"history"`
	SelectedIssues    []string  `json:"selected_issues"`
	AgeBracket        string    `json:"age_bracket"`
	CommunityRoles    []string  `json:"community_roles"`
	ZipCode           string    `json:"zip_code"`
	StarredCandidates []string  `json:"starred_candidates"`
	StarredMeasures   []string  `json:"starred_measures"`
	Feedback          string    `json:"feedback"`
	Readiness         Readiness `json:"readiness"`
	Terminal          Terminal  `json:"terminal"`
}

// NewSession returns a session at the first step with empty selections.
func NewSession() Session {
	return Session{
		Step:              1,
		History:           []int{},
		SelectedIssues:    []string{},
		CommunityRoles:    []string{},
		StarredCandidates: []string{},
		StarredMeasures:   []string{},
	}
}
