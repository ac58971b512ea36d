package naukri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/MrJJimenez/applycli/internal/config"
	"github.com/MrJJimenez/applycli/internal/network"
	"github.com/MrJJimenez/applycli/internal/portal"
	"github.com/PuerkitoBio/goquery"
	fhttp "github.com/bogdanfinn/fhttp"
	"github.com/rs/zerolog"
)

const (
	baseURL  = "https://www.naukri.com"
	loginURL = "https://www.naukri.com/central-login-services/v1/login"
)

// Client is the single authenticated portal session. One Client backs search,
// observation and submission; callers must not use it concurrently for
// submissions.
type Client struct {
	http   *network.Client
	creds  config.Credentials
	logger zerolog.Logger

	mu       sync.Mutex
	loggedIn bool
}

func NewClient(httpClient *network.Client, creds config.Credentials, logger zerolog.Logger) *Client {
	return &Client{
		http:   httpClient,
		creds:  creds,
		logger: logger,
	}
}

// Login authenticates against the central login service. The session cookie
// lands in the underlying client's jar.
func (c *Client) Login(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loggedIn {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"username": c.creds.Email,
		"password": c.creds.Password,
	})
	if err != nil {
		return err
	}

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, loginURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("content-type", "application/json")
	req.Header.Set("appid", "103")
	req.Header.Set("systemid", "jobseeker")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("login rejected (http %d): check NAUKRI_EMAIL/NAUKRI_PASSWORD", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("login failed: http %d", resp.StatusCode)
	}

	c.loggedIn = true
	c.logger.Info().Msg("logged in")
	return nil
}

// fetchDocument GETs target and parses the response body. Authentication
// failures surface as portal.ErrSessionExpired so callers can abort the run.
func (c *Client) fetchDocument(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	applyHeaders(req, nil)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return nil, portal.ErrSessionExpired
	}
	if resp.StatusCode >= 400 {
		return nil, &httpError{status: resp.StatusCode, target: target}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, err
	}
	if isLoginWall(doc) {
		return nil, portal.ErrSessionExpired
	}
	return doc, nil
}

type httpError struct {
	status int
	target string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("http %d: %s", e.status, e.target)
}

func applyHeaders(req *fhttp.Request, headers map[string]string) {
	if headers == nil {
		headers = map[string]string{}
	}
	if _, ok := headers["accept"]; !ok {
		headers["accept"] = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	}
	if _, ok := headers["accept-language"]; !ok {
		headers["accept-language"] = "en-US,en;q=0.9"
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
}

// isLoginWall detects the anonymous login page served in place of content
// when the session cookie is gone.
func isLoginWall(doc *goquery.Document) bool {
	if doc.Find("#usernameField").Length() > 0 && doc.Find("#passwordField").Length() > 0 {
		return true
	}
	title := strings.ToLower(doc.Find("title").Text())
	return strings.Contains(title, "login") && strings.Contains(title, "naukri")
}

func cleanText(value string) string {
	return strings.Join(strings.Fields(value), " ")
}
