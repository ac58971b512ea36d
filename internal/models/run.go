package models

import "time"

// Policy configures the classifier for a run.
type Policy struct {
	MinExperienceYears   int      `json:"min_experience_years"`
	MaxExperienceYears   int      `json:"max_experience_years"`
	BlacklistedCompanies []string `json:"blacklisted_companies,omitempty"`
}

// RunConfig is the immutable per-run snapshot of everything the orchestrator
// needs.
type RunConfig struct {
	Policy                   Policy        `json:"policy"`
	MaxApplicationsPerRun    int           `json:"max_applications_per_run"`
	DelayBetweenApplications time.Duration `json:"delay_between_applications"`
	SearchQueries            []string      `json:"search_queries"`
	Locations                []string      `json:"locations,omitempty"`
}

// RunSummary accumulates the outcome of one execution. Counts reflect only
// transitions made during this run, not the whole store.
type RunSummary struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Applied     int       `json:"applied"`
	Shortlisted int       `json:"shortlisted"`
	Skipped     int       `json:"skipped"`
	Failed      int       `json:"failed"`
	Observed    int       `json:"observed"`
	Candidates  int       `json:"candidates"`
	Aborted     bool      `json:"aborted"`
	AbortReason string    `json:"abort_reason,omitempty"`
	Config      RunConfig `json:"config"`
}
