package network

import (
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"
)

var ErrNoProxies = errors.New("no proxies available")

// Rotator cycles through upstream proxies round-robin, sidelining any the
// portal rate-limits. A sidelined proxy rejoins the pool once its cooldown
// elapses. All methods are safe for concurrent use.
type Rotator struct {
	mu        sync.Mutex
	proxies   []*url.URL
	cooldown  time.Duration
	sidelined map[string]time.Time
	next      int
	now       func() time.Time
}

func NewRotator(raw []string, cooldown time.Duration) (*Rotator, error) {
	r := &Rotator{
		cooldown:  cooldown,
		sidelined: make(map[string]time.Time),
		now:       time.Now,
	}
	for _, value := range raw {
		u, err := url.Parse(value)
		if err != nil {
			return nil, fmt.Errorf("proxy %q: %w", value, err)
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("proxy %q: scheme and host are required", value)
		}
		r.proxies = append(r.proxies, u)
	}
	return r, nil
}

func (r *Rotator) Size() int {
	return len(r.proxies)
}

// Next returns the next usable proxy. ErrNoProxies means the pool is empty or
// every proxy is cooling down.
func (r *Rotator) Next() (*url.URL, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.proxies) == 0 {
		return nil, ErrNoProxies
	}

	for i := 0; i < len(r.proxies); i++ {
		proxy := r.proxies[r.next]
		r.next = (r.next + 1) % len(r.proxies)
		if r.usable(proxy) {
			return proxy, nil
		}
	}
	return nil, ErrNoProxies
}

// Report sidelines the proxy when the response looks like a block. Other
// statuses leave the pool untouched.
func (r *Rotator) Report(proxy *url.URL, status int) {
	if proxy == nil {
		return
	}
	if status != 403 && status != 429 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.sidelined[proxy.String()] = r.now().Add(r.cooldown)
}

func (r *Rotator) usable(proxy *url.URL) bool {
	until, ok := r.sidelined[proxy.String()]
	if !ok {
		return true
	}
	if r.now().After(until) {
		delete(r.sidelined, proxy.String())
		return true
	}
	return false
}
