package naukri

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/portal"
	"github.com/PuerkitoBio/goquery"
)

// Phrases the portal renders when the application happens off-site or needs
// answers beyond the standard profile. Lifted from observed page copy.
var (
	externalIndicators = []string{
		"apply on company site",
		"apply on company website",
		"external site",
		"redirected to",
		"company career page",
		"external job board",
	}
	questionnaireIndicators = []string{
		"answer the following",
		"additional questions",
		"questionnaire",
		"screening questions",
		"please provide",
		"tell us about",
		"why do you want",
	}
	// ATS hosts that always mean an external application.
	externalDomains = []string{
		"workday.com", "myworkdayjobs.com", "greenhouse.io", "bamboohr.com",
		"lever.co", "ashbyhq.com", "smartrecruiters.com", "jobvite.com",
		"icims.com", "taleo.net", "successfactors.com",
	}
)

var experiencePattern = regexp.MustCompile(`(\d+)\s*[-–to]+\s*(\d+)\s*(?:yrs|years)`)
var experienceMinPattern = regexp.MustCompile(`(\d+)\s*\+\s*(?:yrs|years)`)

// Observe fetches the posting page and distills the classification signals.
// Missing postings and slow fetches map to the observer error taxonomy; an
// expired session is passed through untouched.
func (c *Client) Observe(ctx context.Context, id models.JobIdentifier) (models.Observation, error) {
	doc, err := c.fetchDocument(ctx, string(id))
	if err != nil {
		return models.Observation{}, observeError(id, err)
	}
	return observationFromDoc(doc), nil
}

func observeError(id models.JobIdentifier, err error) error {
	if errors.Is(err, portal.ErrSessionExpired) {
		return err
	}
	var httpErr *httpError
	if errors.As(err, &httpErr) && (httpErr.status == 404 || httpErr.status == 410) {
		return &portal.ObserverError{ID: id, Kind: portal.ObserverNotFound, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		return &portal.ObserverError{ID: id, Kind: portal.ObserverTimeout, Err: err}
	}
	return &portal.ObserverError{ID: id, Kind: portal.ObserverTimeout, Err: err}
}

func isTimeout(err error) bool {
	var timeoutErr interface{ Timeout() bool }
	return errors.As(err, &timeoutErr) && timeoutErr.Timeout()
}

// observationFromDoc derives the Observation from posting markup alone, so it
// can be exercised against captured fixtures. The embedded JSON-LD JobPosting
// block fills anything the visible markup doesn't carry.
func observationFromDoc(doc *goquery.Document) models.Observation {
	bodyText := strings.ToLower(cleanText(doc.Find("body").Text()))
	ld, hasLD := jsonLDPosting(doc)

	obs := models.Observation{
		Title:                 cleanText(doc.Find("h1").First().Text()),
		Company:               companyFromDoc(doc),
		IsExternalRedirect:    detectExternal(doc, bodyText),
		RequiresQuestionnaire: containsAny(bodyText, questionnaireIndicators),
		FormFields:            formFieldsFromDoc(doc),
	}
	if hasLD {
		if obs.Title == "" {
			obs.Title = cleanText(ld.Title)
		}
		if obs.Company == "" {
			obs.Company = cleanText(ld.HiringOrganization.Name)
		}
	}

	obs.ExperienceMin, obs.ExperienceMax = experienceBand(doc, bodyText)
	if obs.ExperienceMin == 0 && obs.ExperienceMax == 0 && hasLD {
		obs.ExperienceMin, obs.ExperienceMax = bandFromText(strings.ToLower(ld.ExperienceRequirements))
	}
	return obs
}

// jobPostingLD is the slice of schema.org JobPosting the observer reads.
type jobPostingLD struct {
	Type               string `json:"@type"`
	Title              string `json:"title"`
	HiringOrganization struct {
		Name string `json:"name"`
	} `json:"hiringOrganization"`
	ExperienceRequirements string `json:"experienceRequirements"`
}

// jsonLDPosting finds the first JobPosting ld+json block, whether the script
// holds a single object or an array of them.
func jsonLDPosting(doc *goquery.Document) (jobPostingLD, bool) {
	var found jobPostingLD
	ok := false
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return true
		}

		var single jobPostingLD
		if err := json.Unmarshal([]byte(raw), &single); err == nil && single.Type == "JobPosting" {
			found, ok = single, true
			return false
		}
		var many []jobPostingLD
		if err := json.Unmarshal([]byte(raw), &many); err == nil {
			for _, entry := range many {
				if entry.Type == "JobPosting" {
					found, ok = entry, true
					return false
				}
			}
		}
		return true
	})
	return found, ok
}

func companyFromDoc(doc *goquery.Document) string {
	for _, selector := range []string{
		"div.styles_jd-header-comp-name__MvqAI a",
		"a.comp-dtls-wrap",
		"div.jd-header-comp-name a",
		"a.subTitle",
	} {
		if name := cleanText(doc.Find(selector).First().Text()); name != "" {
			return name
		}
	}
	return ""
}

func detectExternal(doc *goquery.Document, bodyText string) bool {
	if containsAny(bodyText, externalIndicators) {
		return true
	}

	external := false
	doc.Find("a, button").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		label := strings.ToLower(cleanText(s.Text()))
		if !strings.Contains(label, "apply") {
			return true
		}
		href, _ := s.Attr("href")
		onclick, _ := s.Attr("onclick")
		target := strings.ToLower(href + " " + onclick)
		if strings.Contains(target, "external") || strings.Contains(target, "redirect") {
			external = true
			return false
		}
		for _, domain := range externalDomains {
			if strings.Contains(target, domain) {
				external = true
				return false
			}
		}
		return true
	})
	return external
}

// experienceBand reads the stated band, preferring the header widget over
// free text. "3-6 Yrs" gives (3,6); "5+ years" gives (5,0) meaning open-ended
// upward, which classifies as overlapping anything at or above 5.
func experienceBand(doc *goquery.Document, bodyText string) (int, int) {
	header := strings.ToLower(cleanText(doc.Find("div.styles_jhc__exp__k_giM, span.exp, div.exp").First().Text()))
	for _, text := range []string{header, bodyText} {
		if min, max := bandFromText(text); min != 0 || max != 0 {
			return min, max
		}
	}
	return 0, 0
}

func bandFromText(text string) (int, int) {
	if text == "" {
		return 0, 0
	}
	if match := experiencePattern.FindStringSubmatch(text); match != nil {
		min, _ := strconv.Atoi(match[1])
		max, _ := strconv.Atoi(match[2])
		return min, max
	}
	if match := experienceMinPattern.FindStringSubmatch(text); match != nil {
		min, _ := strconv.Atoi(match[1])
		return min, 0
	}
	return 0, 0
}

// formFieldsFromDoc lists the inputs a quick apply would have to fill.
// Field names are canonicalized to the classifier's vocabulary where the
// markup allows it.
func formFieldsFromDoc(doc *goquery.Document) []models.FieldDescriptor {
	var fields []models.FieldDescriptor
	doc.Find("form input, form textarea, form select").Each(func(_ int, s *goquery.Selection) {
		fieldType, _ := s.Attr("type")
		if fieldType == "hidden" || fieldType == "submit" || fieldType == "button" {
			return
		}
		name, _ := s.Attr("name")
		if name == "" {
			name, _ = s.Attr("id")
		}
		name = canonicalFieldName(name)
		if name == "" {
			return
		}
		_, required := s.Attr("required")
		if !required {
			if aria, _ := s.Attr("aria-required"); aria == "true" {
				required = true
			}
		}
		if fieldType == "" {
			fieldType = goquery.NodeName(s)
		}
		fields = append(fields, models.FieldDescriptor{Name: name, Type: fieldType, Required: required})
	})
	return fields
}

var fieldAliases = map[string]string{
	"resume":         "resume",
	"resumefile":     "resume",
	"cv":             "resume",
	"coverletter":    "cover-letter-optional",
	"cover_letter":   "cover-letter-optional",
	"noticeperiod":   "notice-period",
	"notice_period":  "notice-period",
	"currentsalary":  "current-salary",
	"current_ctc":    "current-salary",
	"currentctc":     "current-salary",
	"expectedsalary": "expected-salary",
	"expected_ctc":   "expected-salary",
	"expectedctc":    "expected-salary",
}

func canonicalFieldName(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	key = strings.NewReplacer("-", "", " ", "").Replace(key)
	if canonical, ok := fieldAliases[key]; ok {
		return canonical
	}
	return strings.ToLower(strings.TrimSpace(name))
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
