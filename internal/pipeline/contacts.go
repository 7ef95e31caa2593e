package pipeline

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html"
)

var (
	emailRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?\d[\d\s/\-()]{6,}`)
)

// placeholderEmailParts disqualify extracted addresses that are obviously
// not real contacts (documentation placeholders, asset filenames).
var placeholderEmailParts = []string{"example.com", "test.com", "domain.com", "image", "logo"}

// imprintKeywords match link hrefs and anchor texts pointing at the legally
// mandated imprint/contact page (German sites and English equivalents).
var imprintKeywords = []string{"impressum", "imprint", "legal", "rechtliches", "kontakt", "contact"}

// imprintPaths are conventional locations probed when no in-page link matches.
var imprintPaths = []string{"/impressum", "/imprint", "/legal", "/rechtliches", "/kontakt", "/contact"}

// pageContacts holds whatever a single page yielded.
type pageContacts struct {
	Phone string
	Email string
}

func (c pageContacts) empty() bool { return c.Phone == "" && c.Email == "" }

// findImprintURL locates the imprint/contact page for a website: first by
// scanning the homepage's links for keyword matches, then by probing the
// conventional paths. Returns "" when nothing reachable matches, plus
// whether any page of the site answered at all.
func (e *Enricher) findImprintURL(ctx context.Context, websiteURL string) (string, bool) {
	base, err := url.Parse(websiteURL)
	if err != nil || base.Host == "" {
		return "", false
	}

	reached := false
	if body, err := e.fetchPage(ctx, websiteURL); err == nil {
		reached = true
		if found := matchImprintLink(body, base); found != "" {
			return found, true
		}
	}

	root := base.Scheme + "://" + base.Host
	for _, path := range imprintPaths {
		if ctx.Err() != nil {
			return "", reached
		}
		probeURL := root + path
		if e.probeOK(ctx, probeURL) {
			return probeURL, true
		}
	}
	return "", reached
}

// matchImprintLink scans anchor tags for an imprint keyword in the href or
// the anchor text, resolving the first match against the page base.
func matchImprintLink(body []byte, base *url.URL) string {
	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}

	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attrVal(n, "href")
			text := strings.ToLower(nodeText(n))
			hrefLower := strings.ToLower(href)
			for _, kw := range imprintKeywords {
				if href != "" && (strings.Contains(hrefLower, kw) || strings.Contains(text, kw)) {
					if resolved, err := base.Parse(href); err == nil {
						found = resolved.String()
					}
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return found
}

// extractContacts pulls the first phone number and plausible email address
// out of a page. mailto: links outrank plain-text regex matches.
func extractContacts(body []byte) pageContacts {
	var out pageContacts

	doc, err := html.Parse(strings.NewReader(string(body)))
	if err != nil {
		return out
	}

	var text strings.Builder
	var mailtos []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style":
				return
			case "a":
				if href := attrVal(n, "href"); strings.HasPrefix(href, "mailto:") {
					addr := strings.TrimPrefix(href, "mailto:")
					if i := strings.IndexByte(addr, '?'); i >= 0 {
						addr = addr[:i]
					}
					if addr != "" {
						mailtos = append(mailtos, addr)
					}
				}
			}
		}
		if n.Type == html.TextNode {
			text.WriteString(n.Data)
			text.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	pageText := text.String()

	for _, addr := range mailtos {
		if plausibleEmail(addr) {
			out.Email = addr
			break
		}
	}
	if out.Email == "" {
		for _, m := range emailRe.FindAllString(pageText, -1) {
			if plausibleEmail(m) {
				out.Email = m
				break
			}
		}
	}

	if m := phoneRe.FindString(pageText); m != "" {
		out.Phone = strings.TrimSpace(m)
	}

	return out
}

func plausibleEmail(addr string) bool {
	lower := strings.ToLower(addr)
	if !emailRe.MatchString(lower) {
		return false
	}
	for _, part := range placeholderEmailParts {
		if strings.Contains(lower, part) {
			return false
		}
	}
	return true
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// fetchPage GETs a URL under the per-host politeness limiter and returns up
// to 512 KiB of body. Errors are returned for the caller to swallow.
func (e *Enricher) fetchPage(ctx context.Context, pageURL string) ([]byte, error) {
	if err := e.waitHost(ctx, pageURL); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, e.pageTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("enrich: status %d from %s", resp.StatusCode, pageURL)
	}

	return io.ReadAll(io.LimitReader(resp.Body, 512*1024))
}

// probeOK checks whether a conventional path exists, with the short probe
// timeout so a dead host cannot stall the whole lead.
func (e *Enricher) probeOK(ctx context.Context, probeURL string) bool {
	if err := e.waitHost(ctx, probeURL); err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, e.probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, probeURL, nil)
	if err != nil {
		return false
	}
	req.Header.Set("User-Agent", e.userAgent)

	resp, err := e.http.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
