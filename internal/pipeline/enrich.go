package pipeline

import (
	"context"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/leadradar/leadradar-cli/internal/config"
	"github.com/leadradar/leadradar-cli/internal/model"
)

// Outcome describes what enrichment achieved for a single lead. The caller
// never sees enrichment failures (they surface only as missing contact
// fields) but the outcome is logged for monitoring.
type Outcome string

const (
	// OutcomeFilled means at least one contact field was newly populated.
	OutcomeFilled Outcome = "filled"
	// OutcomePartial means pages were reached but yielded no new contacts.
	OutcomePartial Outcome = "partial"
	// OutcomeSkipped means the lead had no website and nothing to look up.
	OutcomeSkipped Outcome = "skipped"
	// OutcomeFailed means every page fetch for the lead failed.
	OutcomeFailed Outcome = "failed"
)

// Enricher crawls lead websites for contact data. All failures are swallowed
// per lead; a lead that cannot be enriched keeps its existing fields.
type Enricher struct {
	http         *http.Client
	userAgent    string
	pageTimeout  time.Duration
	probeTimeout time.Duration
	countryCode  string
	concurrency  int
	perHostRPS   float64

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewEnricher creates an Enricher from config, applying defaults for any
// zero values.
func NewEnricher(cfg config.EnrichConfig, userAgent string) *Enricher {
	pageTimeout := time.Duration(cfg.PageTimeoutSecs) * time.Second
	if pageTimeout <= 0 {
		pageTimeout = 10 * time.Second
	}
	probeTimeout := time.Duration(cfg.ProbeTimeoutSecs) * time.Second
	if probeTimeout <= 0 {
		probeTimeout = 5 * time.Second
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}
	perHostRPS := cfg.PerHostRPS
	if perHostRPS <= 0 {
		perHostRPS = 1.0
	}
	countryCode := cfg.CountryCode
	if countryCode == "" {
		countryCode = "+49"
	}
	if userAgent == "" {
		userAgent = "Mozilla/5.0 (compatible; leadradar/1.0)"
	}

	return &Enricher{
		http: &http.Client{
			Timeout: pageTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		userAgent:    userAgent,
		pageTimeout:  pageTimeout,
		probeTimeout: probeTimeout,
		countryCode:  countryCode,
		concurrency:  concurrency,
		perHostRPS:   perHostRPS,
		limiters:     make(map[string]*rate.Limiter),
	}
}

// Enrich returns a new slice of enriched leads; the input is not modified.
// Leads run through a bounded worker pool; per-host rate limiters keep
// parallel workers from hammering one domain. Cancellation stops scheduling
// new leads, passing the remainder through untouched.
func (e *Enricher) Enrich(ctx context.Context, leads []model.Lead) []model.Lead {
	out := make([]model.Lead, len(leads))

	g := new(errgroup.Group)
	g.SetLimit(e.concurrency)

	for i := range leads {
		if ctx.Err() != nil {
			// Cancelled: the rest passes through unenriched.
			copy(out[i:], leads[i:])
			break
		}

		g.Go(func() error {
			lead, outcome := e.enrichOne(ctx, leads[i])
			out[i] = lead
			zap.L().Debug("enrich: lead processed",
				zap.String("company", lead.Company),
				zap.String("outcome", string(outcome)),
			)
			return nil
		})
	}

	_ = g.Wait()
	return out
}

// enrichOne enriches a single lead. Never returns an error: network failures
// leave the lead's fields as they were.
func (e *Enricher) enrichOne(ctx context.Context, in model.Lead) (model.Lead, Outcome) {
	l := in
	l.Source = amendSource(l.Source)

	website := websiteURL(l.Website)
	needsContacts := l.Phone == "" || l.Email == ""

	if website == "" {
		finishLead(&l, e.countryCode)
		return l, OutcomeSkipped
	}

	imprintURL, reached := e.findImprintURL(ctx, website)
	if imprintURL != "" {
		l.ProofImpressumURL = imprintURL
	}

	outcome := OutcomePartial
	if !reached {
		outcome = OutcomeFailed
	}

	if needsContacts {
		contacts, proofURL := e.lookupContacts(ctx, imprintURL, website)
		if !contacts.empty() {
			filled := false
			if l.Phone == "" && contacts.Phone != "" {
				l.Phone = NormalizePhone(contacts.Phone, e.countryCode)
				filled = true
			}
			if l.Email == "" && contacts.Email != "" {
				l.Email = contacts.Email
				filled = true
			}
			if filled {
				l.ProofContactURL = proofURL
				outcome = OutcomeFilled
			}
		}
	}

	finishLead(&l, e.countryCode)
	return l, outcome
}

// lookupContacts tries the imprint page first, then the main site. Returns
// the contacts and the URL that actually produced them.
func (e *Enricher) lookupContacts(ctx context.Context, imprintURL, website string) (pageContacts, string) {
	if imprintURL != "" {
		if body, err := e.fetchPage(ctx, imprintURL); err == nil {
			if c := extractContacts(body); !c.empty() {
				return c, imprintURL
			}
		}
	}

	if body, err := e.fetchPage(ctx, website); err == nil {
		if c := extractContacts(body); !c.empty() {
			return c, website
		}
	}

	return pageContacts{}, ""
}

// finishLead applies the post-enrichment invariants: existing phone numbers
// are canonicalized and the record shape stays uniform.
func finishLead(l *model.Lead, countryCode string) {
	if l.Phone != "" {
		l.Phone = NormalizePhone(l.Phone, countryCode)
	}
	l.Normalize(l.City)
}

// amendSource appends the enrichment marker to the provenance tag.
func amendSource(source string) string {
	if source == "" || source == "enriched" {
		return "enriched"
	}
	if strings.HasSuffix(source, "/enriched") {
		return source
	}
	return source + "/enriched"
}

// websiteURL normalizes a lead's website to an absolute http(s) URL, or ""
// when there is nothing usable.
func websiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	if _, err := url.Parse(raw); err != nil {
		return ""
	}
	return raw
}

// waitHost blocks on the per-host politeness limiter for a URL's host.
func (e *Enricher) waitHost(ctx context.Context, rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}

	e.mu.Lock()
	limiter, ok := e.limiters[u.Host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(e.perHostRPS), 1)
		e.limiters[u.Host] = limiter
	}
	e.mu.Unlock()

	return limiter.Wait(ctx)
}
