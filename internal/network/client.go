package network

import (
	"math/rand"
	"net/url"
	"sync"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"
	fhttpcookiejar "github.com/bogdanfinn/fhttp/cookiejar"
	tls_client "github.com/bogdanfinn/tls-client"
	"github.com/bogdanfinn/tls-client/profiles"
)

const defaultTimeoutSeconds = 30

// httpDoer is the slice of the underlying client Do needs. Narrowed from
// tls_client.HttpClient so tests can substitute the transport.
type httpDoer interface {
	Do(req *fhttp.Request) (*fhttp.Response, error)
	SetProxy(proxy string) error
}

// Client wraps a browser-fingerprint HTTP client with a shared cookie jar,
// per-request user-agent rotation and optional proxy rotation. The cookie jar
// carries the portal session across search, observe and apply calls.
type Client struct {
	http       httpDoer
	rotator    *Rotator
	userAgents []string

	mu  sync.Mutex
	rng *rand.Rand
}

func NewClient(rotator *Rotator) (*Client, error) {
	jar, _ := fhttpcookiejar.New(nil)

	client, err := tls_client.NewHttpClient(
		tls_client.NewNoopLogger(),
		tls_client.WithClientProfile(profiles.Chrome_120),
		tls_client.WithTimeoutSeconds(defaultTimeoutSeconds),
		tls_client.WithCookieJar(jar),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		http:       client,
		rotator:    rotator,
		userAgents: append([]string{}, userAgents...),
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

// Do sends the request through the next usable proxy, if any, and reports the
// response status back to the rotator so blocked proxies get sidelined.
// SetProxy mutates the shared transport, so the proxy pick and the send hold
// one critical section; concurrent callers cannot swap the proxy under an
// in-flight request.
func (c *Client) Do(req *fhttp.Request) (*fhttp.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.randomUA())
	}
	if c.rotator == nil {
		return c.http.Do(req)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	proxy := c.pickProxy()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	if proxy != nil {
		c.rotator.Report(proxy, resp.StatusCode)
	}
	return resp, nil
}

// pickProxy installs the next usable proxy on the transport. When the whole
// pool is cooling down the request goes out direct rather than failing the
// run. Callers must hold c.mu.
func (c *Client) pickProxy() *url.URL {
	proxy, err := c.rotator.Next()
	if err != nil || proxy == nil {
		return nil
	}
	_ = c.http.SetProxy(proxy.String())
	return proxy
}

func (c *Client) randomUA() string {
	if len(c.userAgents) == 0 {
		return ""
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userAgents[c.rng.Intn(len(c.userAgents))]
}
