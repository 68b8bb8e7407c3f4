package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/netip"
	"net/url"
	"syscall"
	"time"

	"github.com/gocolly/colly/v2"
)

// ErrBlockedURL is returned for non-http(s) URLs and for hosts that resolve
// to loopback, private, link-local or otherwise non-public addresses.
var ErrBlockedURL = errors.New("url not allowed")

// FetchConfig holds configuration for page fetching
type FetchConfig struct {
	Timeout   time.Duration
	UserAgent string
	// AllowPrivateNetworks lifts the public-address restriction. Tests only.
	AllowPrivateNetworks bool
}

// DefaultFetchConfig returns sensible defaults for fetching a single posting.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:   20 * time.Second,
		UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Fetcher downloads a posting page and runs the site extractor over it.
// Pages rendered client-side may come back without the detail markup, in
// which case Fetch returns nil details.
type Fetcher struct {
	config FetchConfig
}

func NewFetcher(config FetchConfig) *Fetcher {
	return &Fetcher{config: config}
}

// Fetch downloads rawURL and extracts the posting from it.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*JobDetails, error) {
	body, finalURL, err := f.fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return ExtractHTML(finalURL, bytes.NewReader(body))
}

// FetchHTML returns the raw page body.
func (f *Fetcher) FetchHTML(ctx context.Context, rawURL string) ([]byte, error) {
	body, _, err := f.fetch(ctx, rawURL)
	return body, err
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := checkScheme(rawURL); err != nil {
		return nil, "", err
	}

	c := colly.NewCollector(
		colly.StdlibContext(ctx),
		colly.UserAgent(f.config.UserAgent),
	)
	c.WithTransport(newTransport(f.config.AllowPrivateNetworks))
	c.SetRequestTimeout(f.config.Timeout)
	c.SetRedirectHandler(func(req *http.Request, via []*http.Request) error {
		if len(via) >= 5 {
			return errors.New("stopped after 5 redirects")
		}
		return checkScheme(req.URL.String())
	})

	c.OnRequest(func(r *colly.Request) {
		r.Headers.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
		r.Headers.Set("Accept-Language", "en-US,en;q=0.5")
		log.Printf("🌐 Visiting: %s", r.URL)
	})

	var (
		body     []byte
		finalURL = rawURL
	)
	c.OnResponse(func(r *colly.Response) {
		body = r.Body
		finalURL = r.Request.URL.String()
	})

	if err := c.Visit(rawURL); err != nil {
		log.Printf("❌ Request failed: %s - Error: %v", rawURL, err)
		return nil, "", err
	}
	c.Wait()
	return body, finalURL, nil
}

func checkScheme(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme %q", ErrBlockedURL, u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrBlockedURL)
	}
	return nil
}

// newTransport checks the address actually dialled, so redirects and DNS
// answers pointing inward are refused too. No proxy is used.
func newTransport(allowPrivate bool) *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	if !allowPrivate {
		dialer.Control = publicOnly
	}
	return &http.Transport{
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       30 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}
}

func publicOnly(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBlockedURL, err)
	}
	if !IsPublicAddr(addr) {
		return fmt.Errorf("%w: %s is not a public address", ErrBlockedURL, addr)
	}
	return nil
}

var sharedAddressSpace = netip.MustParsePrefix("100.64.0.0/10")

// IsPublicAddr reports whether addr is routable on the public internet.
func IsPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	if !addr.IsValid() {
		return false
	}
	switch {
	case addr.IsLoopback(),
		addr.IsPrivate(),
		addr.IsLinkLocalUnicast(),
		addr.IsLinkLocalMulticast(),
		addr.IsInterfaceLocalMulticast(),
		addr.IsMulticast(),
		addr.IsUnspecified(),
		sharedAddressSpace.Contains(addr):
		return false
	}
	return true
}
