package naukri

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/MrJJimenez/applycli/internal/models"
	"github.com/MrJJimenez/applycli/internal/portal"
	fhttp "github.com/bogdanfinn/fhttp"
)

const quickApplyURL = "https://www.naukri.com/cloudgateway-workflow/workflow-services/apply-workflow/v1/apply"

var jobIDPattern = regexp.MustCompile(`-(\d{9,})(?:\?|$)`)

// Submit performs the quick apply for one posting. Errors carry the failure
// kind the executor's retry policy keys on.
func (c *Client) Submit(ctx context.Context, id models.JobIdentifier, profile models.Profile) error {
	payload, err := json.Marshal(map[string]any{
		"jobs":        []string{siteJobID(id)},
		"applySource": "drj",
		"profile": map[string]string{
			"noticePeriod":   profile.NoticePeriod,
			"currentSalary":  profile.CurrentSalary,
			"expectedSalary": profile.ExpectedSalary,
		},
	})
	if err != nil {
		return &portal.ExecutionError{ID: id, Kind: portal.FailureUnknown, Err: err}
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, quickApplyURL, bytes.NewReader(payload))
	if err != nil {
		return &portal.ExecutionError{ID: id, Kind: portal.FailureUnknown, Err: err}
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("appid", "121")
	req.Header.Set("systemid", "jobseeker")
	req.Header.Set("referer", string(id))

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return &portal.ExecutionError{ID: id, Kind: portal.FailureTimeout, Err: err}
		}
		return &portal.ExecutionError{ID: id, Kind: portal.FailureUnknown, Err: err}
	}
	defer resp.Body.Close()

	return submitOutcome(id, resp.StatusCode, resp.Body)
}

// submitOutcome maps the apply response onto the failure taxonomy. A 2xx with
// no rejection marker is a successful application.
func submitOutcome(id models.JobIdentifier, status int, body io.Reader) error {
	raw, _ := io.ReadAll(io.LimitReader(body, 1<<16))
	text := strings.ToLower(string(raw))

	switch {
	case status == 401 || status == 403:
		return &portal.ExecutionError{ID: id, Kind: portal.FailureSessionExpired, Err: portal.ErrSessionExpired}
	case status == 408 || status == 504:
		return &portal.ExecutionError{ID: id, Kind: portal.FailureTimeout, Err: fmt.Errorf("http %d", status)}
	case status == 400 || status == 422:
		return &portal.ExecutionError{ID: id, Kind: portal.FailureFormRejected, Err: fmt.Errorf("http %d: %s", status, firstLine(text))}
	case status >= 400:
		return &portal.ExecutionError{ID: id, Kind: portal.FailureUnknown, Err: fmt.Errorf("http %d", status)}
	case strings.Contains(text, "already applied"):
		return &portal.ExecutionError{ID: id, Kind: portal.FailureFormRejected, Err: errors.New("already applied")}
	case strings.Contains(text, `"error"`) && !strings.Contains(text, `"error":null`):
		return &portal.ExecutionError{ID: id, Kind: portal.FailureFormRejected, Err: errors.New(firstLine(text))}
	default:
		return nil
	}
}

// siteJobID pulls the numeric posting id off the canonical URL; the apply
// endpoint wants the site id, not the URL.
func siteJobID(id models.JobIdentifier) string {
	if match := jobIDPattern.FindStringSubmatch(string(id)); match != nil {
		return match[1]
	}
	return string(id)
}

func firstLine(text string) string {
	if idx := strings.IndexByte(text, '\n'); idx >= 0 {
		text = text[:idx]
	}
	if len(text) > 200 {
		text = text[:200]
	}
	return strings.TrimSpace(text)
}
