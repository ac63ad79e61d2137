// Package ratelimit implements the layered admission gate in front of the
// storage coordinator. A request must pass the global budget, its
// resource-class budget, and its (resource, verb) budget; rejection by any
// layer rejects the request with a retry-after hint.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ebelanger/pastecove/internal/common"
	"github.com/ebelanger/pastecove/internal/server/metrics"
)

// Resource classifies the target of a request.
type Resource string

const (
	ResourcePaste    Resource = "paste"
	ResourceDocument Resource = "document"
	ResourceConfig   Resource = "config"
)

// Verb is the request method gated per resource.
type Verb string

const (
	VerbGet    Verb = "GET"
	VerbPost   Verb = "POST"
	VerbPatch  Verb = "PATCH"
	VerbDelete Verb = "DELETE"
)

// window is the budget period: budgets are expressed as requests per minute,
// with tokens replenishing continuously.
const window = time.Minute

// burstWindows is the fraction of the window a client may consume at once.
// A budget of N per 60s allows bursts of N/5, i.e. one 12s sub-window.
const burstWindows = 5

// Budgets holds the per-layer request budgets (requests per window). Budgets
// cannot be disabled; operators set a very large value instead.
type Budgets struct {
	Global int

	Paste    int
	Document int
	Config   int

	GetPaste    int
	PostPaste   int
	PatchPaste  int
	DeletePaste int

	GetDocument    int
	PostDocument   int
	PatchDocument  int
	DeleteDocument int

	GetConfig int
}

func (b Budgets) resource(r Resource) int {
	switch r {
	case ResourcePaste:
		return b.Paste
	case ResourceDocument:
		return b.Document
	default:
		return b.Config
	}
}

func (b Budgets) verb(r Resource, v Verb) int {
	switch r {
	case ResourcePaste:
		switch v {
		case VerbGet:
			return b.GetPaste
		case VerbPost:
			return b.PostPaste
		case VerbPatch:
			return b.PatchPaste
		default:
			return b.DeletePaste
		}
	case ResourceDocument:
		switch v {
		case VerbGet:
			return b.GetDocument
		case VerbPost:
			return b.PostDocument
		case VerbPatch:
			return b.PatchDocument
		default:
			return b.DeleteDocument
		}
	default:
		return b.GetConfig
	}
}

// Decision is the outcome of an admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is a positive wait hint when Allowed is false.
	RetryAfter time.Duration
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Limiter is the layered admission gate. It holds one token bucket per
// (layer, client) pair; idle client state is evicted after ttl.
type Limiter struct {
	budgets Budgets
	ttl     time.Duration
	metrics *metrics.Metrics

	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// New constructs a Limiter. ttl bounds how long idle per-client buckets are
// kept; metrics may be nil.
func New(budgets Budgets, ttl time.Duration, m *metrics.Metrics) *Limiter {
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &Limiter{
		budgets: budgets,
		ttl:     ttl,
		metrics: m,
		clients: make(map[string]*clientLimiter),
	}
}

// Check admits or rejects a request from clientKey against every layer whose
// scope it falls under. On rejection, reservations taken by earlier layers
// are returned so a denied request consumes no budget.
func (l *Limiter) Check(clientKey string, resource Resource, verb Verb) Decision {
	if clientKey == "" {
		clientKey = "unknown"
	}

	layers := []struct {
		name   string
		key    string
		budget int
	}{
		{"global", clientKey, l.budgets.Global},
		{"resource", clientKey + "|" + string(resource), l.budgets.resource(resource)},
		{"verb", clientKey + "|" + string(resource) + "|" + string(verb), l.budgets.verb(resource, verb)},
	}

	now := time.Now()
	reservations := make([]*rate.Reservation, 0, len(layers))
	for _, layer := range layers {
		res := l.bucket(layer.key, layer.budget, now).ReserveN(now, 1)
		if delay := res.DelayFrom(now); delay > 0 {
			res.CancelAt(now)
			for _, prev := range reservations {
				prev.CancelAt(now)
			}
			l.metrics.IncRateLimitRejected(layer.name)
			return Decision{Allowed: false, RetryAfter: delay}
		}
		reservations = append(reservations, res)
	}

	return Decision{Allowed: true}
}

// Allow is Check as an error: nil on admission, an error wrapping
// common.ErrRateLimited carrying the retry-after hint otherwise.
func (l *Limiter) Allow(clientKey string, resource Resource, verb Verb) error {
	d := l.Check(clientKey, resource, verb)
	if d.Allowed {
		return nil
	}
	return fmt.Errorf("%w: retry after %s", common.ErrRateLimited, d.RetryAfter.Round(time.Millisecond))
}

// bucket returns the token bucket for key, creating it with the given budget
// on first use. Stale entries are pruned opportunistically while the lock is
// held.
func (l *Limiter) bucket(key string, budget int, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.clients[key]
	if !ok {
		burst := budget / burstWindows
		if burst < 1 {
			burst = 1
		}
		entry = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(float64(budget)/window.Seconds()), burst),
		}
		l.clients[key] = entry
	}
	entry.lastSeen = now

	for k, v := range l.clients {
		if now.Sub(v.lastSeen) > l.ttl {
			delete(l.clients, k)
		}
	}

	return entry.limiter
}
