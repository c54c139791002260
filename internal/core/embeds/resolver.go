package embeds

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Provider configuration: domains we can resolve without oEmbed discovery.
var oEmbedEndpoints = map[string]string{
	"youtube.com":     "https://www.youtube.com/oembed",
	"youtu.be":        "https://www.youtube.com/oembed",
	"vimeo.com":       "https://vimeo.com/api/oembed.json",
	"streamable.com":  "https://api.streamable.com/oembed",
	"reddit.com":      "https://www.reddit.com/oembed",
	"flickr.com":      "https://www.flickr.com/services/oembed/",
	"soundcloud.com":  "https://soundcloud.com/oembed",
	"dailymotion.com": "https://www.dailymotion.com/services/oembed",
}

// oEmbedResponse represents a standard oEmbed response
type oEmbedResponse struct {
	ThumbnailURL    string `json:"thumbnail_url"`
	Version         string `json:"version"`
	Title           string `json:"title"`
	AuthorName      string `json:"author_name"`
	AuthorURL       string `json:"author_url"`
	ProviderName    string `json:"provider_name"`
	ProviderURL     string `json:"provider_url"`
	Type            string `json:"type"`
	HTML            string `json:"html"`
	URL             string `json:"url"`
	ThumbnailWidth  int    `json:"thumbnail_width"`
	ThumbnailHeight int    `json:"thumbnail_height"`
	Width           int    `json:"width"`
	Height          int    `json:"height"`
}

// OEmbedResolver resolves URLs against the oEmbed endpoints of known
// providers. Providers that start failing are isolated per-domain by a
// circuit breaker so one outage doesn't slow every save down.
type OEmbedResolver struct {
	endpoints      map[string]string
	circuitBreaker *circuitBreaker
	userAgent      string
	timeout        time.Duration
}

// NewOEmbedResolver creates a resolver with the built-in provider table.
func NewOEmbedResolver(opts ...ResolverOption) *OEmbedResolver {
	r := &OEmbedResolver{
		endpoints:      oEmbedEndpoints,
		circuitBreaker: newCircuitBreaker(),
		userAgent:      "EmbedfieldBot/1.0",
		timeout:        10 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolverOption configures the resolver
type ResolverOption func(*OEmbedResolver)

// WithTimeout sets the HTTP timeout for oEmbed requests
func WithTimeout(timeout time.Duration) ResolverOption {
	return func(r *OEmbedResolver) {
		r.timeout = timeout
	}
}

// WithUserAgent sets the User-Agent header for oEmbed requests
func WithUserAgent(userAgent string) ResolverOption {
	return func(r *OEmbedResolver) {
		r.userAgent = userAgent
	}
}

// WithEndpoints replaces the provider endpoint table (used by tests and by
// deployments that front providers with a proxy).
func WithEndpoints(endpoints map[string]string) ResolverOption {
	return func(r *OEmbedResolver) {
		r.endpoints = endpoints
	}
}

// IsSupported returns true if the URL is an HTTP(S) URL of a known provider.
func (r *OEmbedResolver) IsSupported(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	_, exists := r.endpoints[extractDomain(urlStr)]
	return exists
}

// Resolve fetches oEmbed metadata for the URL from its provider's endpoint.
func (r *OEmbedResolver) Resolve(ctx context.Context, urlStr string) (*RawEmbedInfo, error) {
	if !r.IsSupported(urlStr) {
		return nil, fmt.Errorf("unsupported URL: %s", urlStr)
	}

	domain := extractDomain(urlStr)

	canAttempt, err := r.circuitBreaker.canAttempt(domain)
	if !canAttempt {
		log.Printf("[EMBED] Skipping %s due to circuit breaker: %v", urlStr, err)
		return nil, err
	}

	oembed, err := r.fetchOEmbed(ctx, urlStr, domain)
	if err != nil {
		r.circuitBreaker.recordFailure(domain, err)
		return nil, err
	}
	r.circuitBreaker.recordSuccess(domain)

	return mapOEmbedToRawInfo(oembed, urlStr), nil
}

// fetchOEmbed fetches oEmbed data from the provider
func (r *OEmbedResolver) fetchOEmbed(ctx context.Context, urlStr, domain string) (*oEmbedResponse, error) {
	endpoint := r.endpoints[domain]
	oembedURL := fmt.Sprintf("%s?url=%s&format=json", endpoint, url.QueryEscape(urlStr))

	req, err := http.NewRequestWithContext(ctx, "GET", oembedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create oEmbed request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	client := &http.Client{Timeout: r.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oEmbed data: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oEmbed endpoint returned status %d", resp.StatusCode)
	}

	var oembed oEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&oembed); err != nil {
		return nil, fmt.Errorf("failed to parse oEmbed response: %w", err)
	}

	return &oembed, nil
}

// mapOEmbedToRawInfo converts an oEmbed response to RawEmbedInfo. Providers
// that omit a canonical url field fall back to the requested URL; providers
// that return nothing identifiable at all produce an empty URL, which the
// normalizer treats as source-not-found.
func mapOEmbedToRawInfo(oembed *oEmbedResponse, originalURL string) *RawEmbedInfo {
	info := &RawEmbedInfo{
		URL:          oembed.URL,
		Title:        oembed.Title,
		ProviderURL:  oembed.ProviderURL,
		ProviderName: oembed.ProviderName,
		AuthorURL:    oembed.AuthorURL,
		AuthorName:   oembed.AuthorName,
		Image:        oembed.ThumbnailURL,
		HTML:         oembed.HTML,
	}

	if info.URL == "" && (oembed.Title != "" || oembed.HTML != "") {
		info.URL = originalURL
	}

	info.OEmbed.Type = oembed.Type
	if v, err := strconv.ParseFloat(oembed.Version, 64); err == nil {
		info.OEmbed.Version = v
	}
	info.OEmbed.Width = intPtrIfSet(oembed.Width)
	info.OEmbed.Height = intPtrIfSet(oembed.Height)
	info.OEmbed.ThumbnailWidth = intPtrIfSet(oembed.ThumbnailWidth)
	info.OEmbed.ThumbnailHeight = intPtrIfSet(oembed.ThumbnailHeight)

	return info
}

func intPtrIfSet(v int) *int {
	if v == 0 {
		return nil
	}
	return &v
}

// extractDomain extracts the domain from a URL
func extractDomain(urlStr string) string {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}
	// Remove www. prefix
	return strings.TrimPrefix(parsed.Host, "www.")
}
