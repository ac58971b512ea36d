package models

import (
	"net/url"
	"strings"
)

// JobIdentifier is the stable key for a posting across runs. The same job
// surfaced by different keyword searches must resolve to the same identifier.
type JobIdentifier string

// CanonicalID derives a JobIdentifier from a posting URL: lowercased
// scheme/host, "www." stripped, query string and fragment dropped, trailing
// slash removed. Unparseable input falls back to the trimmed raw string.
func CanonicalID(raw string) JobIdentifier {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return JobIdentifier(strings.TrimRight(raw, "/"))
	}

	host := strings.ToLower(parsed.Host)
	host = strings.TrimPrefix(host, "www.")
	path := strings.TrimRight(parsed.Path, "/")

	scheme := strings.ToLower(parsed.Scheme)
	if scheme == "" {
		scheme = "https"
	}

	return JobIdentifier(scheme + "://" + host + path)
}

// Posting is the card-level result returned by search.
type Posting struct {
	ID      JobIdentifier `json:"id"`
	Title   string        `json:"title"`
	Company string        `json:"company"`
	URL     string        `json:"url"`
}

// FieldDescriptor describes one input on an apply form.
type FieldDescriptor struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Required bool   `json:"required"`
}

// Observation is a one-shot snapshot of a posting's application requirements.
// Observations are never persisted; they only feed the classifier for the
// current attempt.
type Observation struct {
	Title                 string
	Company               string
	IsExternalRedirect    bool
	RequiresQuestionnaire bool
	ExperienceMin         int
	ExperienceMax         int
	FormFields            []FieldDescriptor
}

// Profile holds the standard-profile defaults used to fill quick-apply forms.
type Profile struct {
	Resume         string `json:"resume"`
	CoverLetter    string `json:"cover_letter,omitempty"`
	NoticePeriod   string `json:"notice_period"`
	CurrentSalary  string `json:"current_salary"`
	ExpectedSalary string `json:"expected_salary"`
}
