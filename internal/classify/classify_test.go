package classify

import (
	"math/rand"
	"testing"

	"github.com/MrJJimenez/applycli/internal/models"
)

var defaultPolicy = models.Policy{
	MinExperienceYears: 3,
	MaxExperienceYears: 8,
}

func TestClassifyExperienceMismatch(t *testing.T) {
	obs := models.Observation{Company: "Acme", ExperienceMin: 0, ExperienceMax: 2}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionSkip {
		t.Fatalf("expected skip, got %s", decision.Action)
	}
	if decision.Reason != models.ReasonExperienceMismatch {
		t.Fatalf("unexpected reason: %q", decision.Reason)
	}
}

func TestClassifyExperienceBandAboveRange(t *testing.T) {
	obs := models.Observation{Company: "Acme", ExperienceMin: 10, ExperienceMax: 15}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionSkip || decision.Reason != models.ReasonExperienceMismatch {
		t.Fatalf("expected experience skip, got %+v", decision)
	}
}

func TestClassifyUnspecifiedExperienceBandMatches(t *testing.T) {
	obs := models.Observation{Company: "Acme"}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionAutoApply {
		t.Fatalf("expected auto-apply for unspecified band, got %+v", decision)
	}
}

// An open-ended band keeps its floor: "10+ yrs" is not "unspecified" and must
// not slip past a policy capped below it.
func TestClassifyOpenEndedBandAbovePolicyMax(t *testing.T) {
	obs := models.Observation{Company: "Acme", ExperienceMin: 10, ExperienceMax: 0}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionSkip || decision.Reason != models.ReasonExperienceMismatch {
		t.Fatalf("expected experience skip for 10+ band, got %+v", decision)
	}
}

func TestClassifyOpenEndedBandWithinPolicy(t *testing.T) {
	obs := models.Observation{Company: "Acme", ExperienceMin: 5, ExperienceMax: 0}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionAutoApply {
		t.Fatalf("expected auto-apply for 5+ band under policy max 8, got %+v", decision)
	}
}

func TestClassifyBlacklistedCompany(t *testing.T) {
	policy := defaultPolicy
	policy.BlacklistedCompanies = []string{"Evil  Corp"}

	obs := models.Observation{Company: "evil corp", ExperienceMin: 3, ExperienceMax: 6}
	decision := Classify(obs, policy)
	if decision.Action != models.ActionSkip || decision.Reason != models.ReasonBlacklistedCompany {
		t.Fatalf("expected blacklist skip, got %+v", decision)
	}
}

func TestClassifyExternalRedirect(t *testing.T) {
	obs := models.Observation{
		Company:            "Acme",
		ExperienceMin:      3,
		ExperienceMax:      6,
		IsExternalRedirect: true,
	}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionShortlist || decision.Reason != models.ReasonExternalRedirect {
		t.Fatalf("expected external-redirect shortlist, got %+v", decision)
	}
}

func TestClassifyQuestionnaire(t *testing.T) {
	obs := models.Observation{
		Company:               "Acme",
		ExperienceMin:         3,
		ExperienceMax:         6,
		RequiresQuestionnaire: true,
	}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionShortlist || decision.Reason != models.ReasonExtraDetailsRequired {
		t.Fatalf("expected extra-details shortlist, got %+v", decision)
	}
}

func TestClassifyRequiredFieldOutsideAllowList(t *testing.T) {
	obs := models.Observation{
		Company:       "Acme",
		ExperienceMin: 3,
		ExperienceMax: 6,
		FormFields: []models.FieldDescriptor{
			{Name: "resume", Type: "file", Required: true},
			{Name: "portfolio-url", Type: "text", Required: true},
		},
	}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionShortlist || decision.Reason != models.ReasonExtraDetailsRequired {
		t.Fatalf("expected extra-details shortlist, got %+v", decision)
	}
}

func TestClassifyOptionalUnknownFieldStillAutoApplies(t *testing.T) {
	obs := models.Observation{
		Company:       "Acme",
		ExperienceMin: 3,
		ExperienceMax: 6,
		FormFields: []models.FieldDescriptor{
			{Name: "resume", Type: "file", Required: true},
			{Name: "notice-period", Type: "text", Required: true},
			{Name: "portfolio-url", Type: "text", Required: false},
		},
	}

	decision := Classify(obs, defaultPolicy)
	if decision.Action != models.ActionAutoApply {
		t.Fatalf("expected auto-apply, got %+v", decision)
	}
}

// Rule order is a deliberate tie-break: an out-of-band posting is skipped
// even when it also redirects externally.
func TestClassifyRuleOrder(t *testing.T) {
	policy := defaultPolicy
	policy.BlacklistedCompanies = []string{"Evil Corp"}

	obs := models.Observation{
		Company:               "Evil Corp",
		ExperienceMin:         0,
		ExperienceMax:         1,
		IsExternalRedirect:    true,
		RequiresQuestionnaire: true,
	}
	if decision := Classify(obs, policy); decision.Reason != models.ReasonExperienceMismatch {
		t.Fatalf("expected experience rule to win, got %+v", decision)
	}

	obs.ExperienceMin, obs.ExperienceMax = 3, 6
	if decision := Classify(obs, policy); decision.Reason != models.ReasonBlacklistedCompany {
		t.Fatalf("expected blacklist rule to win, got %+v", decision)
	}

	obs.Company = "Fine Corp"
	if decision := Classify(obs, policy); decision.Reason != models.ReasonExternalRedirect {
		t.Fatalf("expected external rule to win, got %+v", decision)
	}
}

// Classify is pure: identical inputs always produce identical decisions.
func TestClassifyDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	fieldNames := []string{"resume", "notice-period", "portfolio-url", "references", "expected-salary"}

	for i := 0; i < 500; i++ {
		obs := models.Observation{
			Company:               []string{"Acme", "Evil Corp", ""}[rng.Intn(3)],
			ExperienceMin:         rng.Intn(12),
			ExperienceMax:         rng.Intn(15),
			IsExternalRedirect:    rng.Intn(2) == 0,
			RequiresQuestionnaire: rng.Intn(2) == 0,
		}
		for j := rng.Intn(4); j > 0; j-- {
			obs.FormFields = append(obs.FormFields, models.FieldDescriptor{
				Name:     fieldNames[rng.Intn(len(fieldNames))],
				Type:     "text",
				Required: rng.Intn(2) == 0,
			})
		}
		policy := models.Policy{
			MinExperienceYears:   rng.Intn(6),
			MaxExperienceYears:   3 + rng.Intn(10),
			BlacklistedCompanies: []string{"Evil Corp"},
		}

		first := Classify(obs, policy)
		for k := 0; k < 3; k++ {
			if again := Classify(obs, policy); again != first {
				t.Fatalf("classification not deterministic: %+v then %+v for %+v", first, again, obs)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize("  Evil   Corp\tHoldings ")
	want := "evil corp holdings"
	if got != want {
		t.Fatalf("Normalize() = %q, want %q", got, want)
	}
}
