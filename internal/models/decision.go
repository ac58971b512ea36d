package models

// Action is what the classifier decided to do with a posting.
type Action string

const (
	ActionAutoApply Action = "auto-apply"
	ActionShortlist Action = "shortlist"
	ActionSkip      Action = "skip"
)

// Stable reason vocabulary used in records and reports.
const (
	ReasonExperienceMismatch   = "experience-mismatch"
	ReasonBlacklistedCompany   = "blacklisted-company"
	ReasonExternalRedirect     = "external-redirect"
	ReasonExtraDetailsRequired = "extra-details-required"
)

// Decision pairs an action with the reason it was taken. AutoApply carries no
// reason.
type Decision struct {
	Action Action
	Reason string
}

func AutoApply() Decision {
	return Decision{Action: ActionAutoApply}
}

func Shortlist(reason string) Decision {
	return Decision{Action: ActionShortlist, Reason: reason}
}

func Skip(reason string) Decision {
	return Decision{Action: ActionSkip, Reason: reason}
}
