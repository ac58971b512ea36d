package naukri

import (
	"errors"
	"testing"

	"github.com/MrJJimenez/applycli/internal/portal"
)

const quickApplyFixture = `
<html><body>
<h1>Senior Golang Developer</h1>
<div class="jd-header-comp-name"><a>Acme Software</a></div>
<span class="exp">3-6 Yrs</span>
<form>
  <input type="file" name="resume" required>
  <input type="text" name="notice_period">
  <input type="hidden" name="csrf">
  <select id="expected_ctc" aria-required="true"><option>10</option></select>
</form>
<button>Apply</button>
</body></html>`

const externalFixture = `
<html><body>
<h1>Platform Engineer</h1>
<div class="jd-header-comp-name"><a>Globex</a></div>
<span class="exp">5+ years</span>
<a href="https://boards.greenhouse.io/globex/jobs/42">Apply</a>
</body></html>`

const questionnaireFixture = `
<html><body>
<h1>Backend Engineer</h1>
<span class="exp">2-4 yrs</span>
<p>You will be asked to answer the following screening questions before applying.</p>
<button>Apply</button>
</body></html>`

func TestObservationFromQuickApplyPage(t *testing.T) {
	obs := observationFromDoc(mustDoc(t, quickApplyFixture))

	if obs.Title != "Senior Golang Developer" || obs.Company != "Acme Software" {
		t.Fatalf("unexpected header: %+v", obs)
	}
	if obs.IsExternalRedirect || obs.RequiresQuestionnaire {
		t.Fatalf("quick-apply page misclassified: %+v", obs)
	}
	if obs.ExperienceMin != 3 || obs.ExperienceMax != 6 {
		t.Fatalf("experience band = (%d,%d), want (3,6)", obs.ExperienceMin, obs.ExperienceMax)
	}

	if len(obs.FormFields) != 3 {
		t.Fatalf("form fields = %+v, want 3 (hidden input dropped)", obs.FormFields)
	}
	byName := map[string]bool{}
	for _, field := range obs.FormFields {
		byName[field.Name] = field.Required
	}
	if required, ok := byName["resume"]; !ok || !required {
		t.Fatalf("resume field missing or optional: %+v", obs.FormFields)
	}
	if required, ok := byName["notice-period"]; !ok || required {
		t.Fatalf("notice_period not canonicalized: %+v", obs.FormFields)
	}
	if required, ok := byName["expected-salary"]; !ok || !required {
		t.Fatalf("aria-required select not honored: %+v", obs.FormFields)
	}
}

func TestObservationDetectsExternalRedirect(t *testing.T) {
	obs := observationFromDoc(mustDoc(t, externalFixture))
	if !obs.IsExternalRedirect {
		t.Fatalf("ATS apply link not detected: %+v", obs)
	}
	if obs.ExperienceMin != 5 || obs.ExperienceMax != 0 {
		t.Fatalf("open-ended band = (%d,%d), want (5,0)", obs.ExperienceMin, obs.ExperienceMax)
	}
}

func TestObservationDetectsQuestionnaire(t *testing.T) {
	obs := observationFromDoc(mustDoc(t, questionnaireFixture))
	if !obs.RequiresQuestionnaire {
		t.Fatalf("screening questions not detected: %+v", obs)
	}
	if obs.ExperienceMin != 2 || obs.ExperienceMax != 4 {
		t.Fatalf("experience band = (%d,%d), want (2,4)", obs.ExperienceMin, obs.ExperienceMax)
	}
}

func TestObservationFallsBackToJSONLD(t *testing.T) {
	doc := mustDoc(t, `<html><head>
<script type="application/ld+json">
{"@context":"https://schema.org","@type":"JobPosting","title":"Data Engineer",
 "hiringOrganization":{"@type":"Organization","name":"Initech"},
 "experienceRequirements":"6-10 years"}
</script>
</head><body><p>Loading...</p></body></html>`)

	obs := observationFromDoc(doc)
	if obs.Title != "Data Engineer" || obs.Company != "Initech" {
		t.Fatalf("JSON-LD not used: %+v", obs)
	}
	if obs.ExperienceMin != 6 || obs.ExperienceMax != 10 {
		t.Fatalf("band = (%d,%d), want (6,10)", obs.ExperienceMin, obs.ExperienceMax)
	}
}

func TestJSONLDPostingArray(t *testing.T) {
	doc := mustDoc(t, `<html><head>
<script type="application/ld+json">
[{"@type":"BreadcrumbList"},{"@type":"JobPosting","title":"SRE"}]
</script>
</head><body></body></html>`)

	ld, ok := jsonLDPosting(doc)
	if !ok || ld.Title != "SRE" {
		t.Fatalf("JobPosting not found in array: %+v ok=%v", ld, ok)
	}
}

func TestExperienceBandFromBodyText(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>Experience: 4 to 9 years in backend development.</p></body></html>`)
	obs := observationFromDoc(doc)
	if obs.ExperienceMin != 4 || obs.ExperienceMax != 9 {
		t.Fatalf("band = (%d,%d), want (4,9)", obs.ExperienceMin, obs.ExperienceMax)
	}
}

func TestExperienceBandUnspecified(t *testing.T) {
	doc := mustDoc(t, `<html><body><p>Great role for anyone.</p></body></html>`)
	obs := observationFromDoc(doc)
	if obs.ExperienceMin != 0 || obs.ExperienceMax != 0 {
		t.Fatalf("band = (%d,%d), want (0,0)", obs.ExperienceMin, obs.ExperienceMax)
	}
}

func TestCanonicalFieldName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"resume", "resume"},
		{"resumeFile", "resume"},
		{"CV", "resume"},
		{"notice-period", "notice-period"},
		{"noticePeriod", "notice-period"},
		{"expected_ctc", "expected-salary"},
		{"current CTC", "current-salary"},
		{"portfolioUrl", "portfoliourl"},
	}
	for _, tc := range cases {
		if got := canonicalFieldName(tc.in); got != tc.want {
			t.Fatalf("canonicalFieldName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestObserveErrorMapping(t *testing.T) {
	if err := observeError("https://naukri.com/job-1", portal.ErrSessionExpired); !errors.Is(err, portal.ErrSessionExpired) {
		t.Fatalf("session expiry must pass through, got %v", err)
	}

	var obsErr *portal.ObserverError
	err := observeError("https://naukri.com/job-2", &httpError{status: 404, target: "x"})
	if !errors.As(err, &obsErr) || obsErr.Kind != portal.ObserverNotFound {
		t.Fatalf("404 not mapped to not-found: %v", err)
	}

	err = observeError("https://naukri.com/job-3", &httpError{status: 500, target: "x"})
	if !errors.As(err, &obsErr) || obsErr.Kind != portal.ObserverTimeout {
		t.Fatalf("transient error not mapped to timeout: %v", err)
	}
}

func TestIsLoginWall(t *testing.T) {
	wall := mustDoc(t, `<html><head><title>Jobseeker Login | Naukri.com</title></head><body>
		<input id="usernameField"><input id="passwordField"></body></html>`)
	if !isLoginWall(wall) {
		t.Fatalf("login wall not detected")
	}

	posting := mustDoc(t, quickApplyFixture)
	if isLoginWall(posting) {
		t.Fatalf("posting page misdetected as login wall")
	}
}
