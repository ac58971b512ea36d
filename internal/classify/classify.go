package classify

import (
	"strings"

	"github.com/MrJJimenez/applycli/internal/models"
)

// autoFillable lists the form fields the standard profile can satisfy. Any
// other required field means a human has to finish the application.
var autoFillable = map[string]struct{}{
	"resume":                {},
	"cover-letter-optional": {},
	"notice-period":         {},
	"current-salary":        {},
	"expected-salary":       {},
}

// Classify maps an observation and a policy to a decision. It is a pure
// function: no side effects, deterministic for identical inputs. Rules are
// evaluated in order and the first match wins; the ordering is a deliberate
// tie-break (a blacklisted company with an external redirect is skipped, not
// shortlisted).
func Classify(obs models.Observation, policy models.Policy) models.Decision {
	if !experienceOverlaps(obs, policy) {
		return models.Skip(models.ReasonExperienceMismatch)
	}
	if companyBlacklisted(obs.Company, policy.BlacklistedCompanies) {
		return models.Skip(models.ReasonBlacklistedCompany)
	}
	if obs.IsExternalRedirect {
		return models.Shortlist(models.ReasonExternalRedirect)
	}
	if obs.RequiresQuestionnaire || hasUnfillableRequiredField(obs.FormFields) {
		return models.Shortlist(models.ReasonExtraDetailsRequired)
	}
	return models.AutoApply()
}

// experienceOverlaps reports whether the posting's stated band intersects the
// policy band. An open-ended band ("10+ yrs" → min 10, max 0) still carries a
// floor and respects the policy ceiling; only a fully absent band (0,0) is
// treated as matching any policy, because skipping is terminal and a parser
// gap must not burn it.
func experienceOverlaps(obs models.Observation, policy models.Policy) bool {
	if policy.MaxExperienceYears > 0 && obs.ExperienceMin > policy.MaxExperienceYears {
		return false
	}
	if obs.ExperienceMax <= 0 {
		return true
	}
	if obs.ExperienceMax < policy.MinExperienceYears {
		return false
	}
	return true
}

func companyBlacklisted(company string, blacklist []string) bool {
	key := Normalize(company)
	if key == "" {
		return false
	}
	for _, entry := range blacklist {
		if Normalize(entry) == key {
			return true
		}
	}
	return false
}

func hasUnfillableRequiredField(fields []models.FieldDescriptor) bool {
	for _, field := range fields {
		if !field.Required {
			continue
		}
		if _, ok := autoFillable[Normalize(field.Name)]; !ok {
			return true
		}
	}
	return false
}

// Normalize collapses whitespace and lowercases a name so company and field
// comparisons survive markup noise.
func Normalize(value string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(value)))
	return strings.Join(fields, " ")
}
