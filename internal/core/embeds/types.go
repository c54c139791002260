package embeds

import "time"

// EmbedRecord is the canonical persisted unit for a resolved embed.
// SourceURL is the immutable user-supplied input; every other field is a
// derived cache populated from the last successful resolution. Records are
// never edited field-by-field, only rebuilt by a full re-resolution.
type EmbedRecord struct {
	CreatedAt       time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time `json:"updatedAt" db:"updated_at"`
	Width           *int      `json:"width,omitempty" db:"width"`
	Height          *int      `json:"height,omitempty" db:"height"`
	ThumbnailWidth  *int      `json:"thumbnailWidth,omitempty" db:"thumbnail_width"`
	ThumbnailHeight *int      `json:"thumbnailHeight,omitempty" db:"thumbnail_height"`
	SourceURL       string    `json:"sourceUrl" db:"source_url"`
	Title           string    `json:"title" db:"title"`
	Type            string    `json:"type" db:"type"`
	ThumbnailURL    string    `json:"thumbnailUrl" db:"thumbnail_url"`
	ProviderURL     string    `json:"providerUrl" db:"provider_url"`
	ProviderName    string    `json:"providerName" db:"provider_name"`
	AuthorURL       string    `json:"authorUrl" db:"author_url"`
	AuthorName      string    `json:"authorName" db:"author_name"`
	EmbedHTML       string    `json:"embedHtml" db:"embed_html"`
	IframeSrc       string    `json:"iframeSrc" db:"iframe_src"`
	ResolvedURL     string    `json:"resolvedUrl" db:"resolved_url"`
	Origin          string    `json:"origin" db:"origin"`
	WebPage         string    `json:"webPage" db:"web_page"`
	Version         float64   `json:"version" db:"version"`
	ID              int64     `json:"id" db:"id"`
	Exists          bool      `json:"exists" db:"resolved"`
}

// SourceExists reports whether the record holds data from a successful
// resolution, either freshly fetched or already persisted.
func (r *EmbedRecord) SourceExists() bool {
	return r.ID != 0 || r.Exists
}

// CloneDetached produces a value copy with the identity intentionally unset.
// Used by the reuse path of the coordinator: the resolved data of an existing
// record is carried over into a record the new owner gets to own exclusively.
func (r *EmbedRecord) CloneDetached() *EmbedRecord {
	dup := *r
	dup.ID = 0
	dup.Exists = true
	dup.CreatedAt = time.Time{}
	dup.UpdatedAt = time.Time{}
	dup.Width = copyIntPtr(r.Width)
	dup.Height = copyIntPtr(r.Height)
	dup.ThumbnailWidth = copyIntPtr(r.ThumbnailWidth)
	dup.ThumbnailHeight = copyIntPtr(r.ThumbnailHeight)
	return &dup
}

func copyIntPtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RawEmbedInfo is the parsed response of an embed resolver. Fields mirror what
// oEmbed providers report; everything except URL is optional per-field.
type RawEmbedInfo struct {
	URL          string       `json:"url"`
	Title        string       `json:"title"`
	ProviderURL  string       `json:"providerUrl"`
	ProviderName string       `json:"providerName"`
	AuthorURL    string       `json:"authorUrl"`
	AuthorName   string       `json:"authorName"`
	Image        string       `json:"image"`
	HTML         string       `json:"html"`
	OEmbed       OEmbedFields `json:"oembed"`
}

// OEmbedFields carries the nested oEmbed properties a provider may or may not
// include. Absent dimensions stay nil, absent type stays empty; absence is
// never an error.
type OEmbedFields struct {
	Width           *int    `json:"width,omitempty"`
	Height          *int    `json:"height,omitempty"`
	ThumbnailWidth  *int    `json:"thumbnail_width,omitempty"`
	ThumbnailHeight *int    `json:"thumbnail_height,omitempty"`
	Type            string  `json:"type,omitempty"`
	Version         float64 `json:"version,omitempty"`
}

// QueryParam is a single key/value pair of an ordered query string.
type QueryParam struct {
	Key   string
	Value string
}

// RewriteConfig controls how embeddable HTML is rewritten.
type RewriteConfig struct {
	// ExtraQueryParams is merged into the iframe's query string; caller
	// values win over provider values on key collision.
	ExtraQueryParams []QueryParam

	// PrivacyEnhancedHost, when non-empty, replaces the host of known
	// privacy-sensitive embeds (YouTube family) so playback goes through a
	// no-tracking domain (e.g. www.youtube-nocookie.com).
	PrivacyEnhancedHost string

	// ForceAspectRatioStyle applies the responsive width/aspect-ratio style
	// to non-YouTube iframes as well. YouTube embeds always get it.
	ForceAspectRatioStyle bool
}

// RewriteResult is the output of rewriting embeddable HTML.
type RewriteResult struct {
	EmbedHTML string // serialized iframe element, or the input unchanged
	IframeSrc string // final iframe src, "" when no iframe was found
}

// Outcome classifies what a save decided to do with the submitted URL.
type Outcome int

const (
	// OutcomeClear detaches the owner reference and deletes the old record.
	OutcomeClear Outcome = iota
	// OutcomeUnchanged reuses the currently owned record as-is.
	OutcomeUnchanged
	// OutcomeReuse duplicates another record's resolved data, no re-fetch.
	OutcomeReuse
	// OutcomeFetchNew resolved a never-seen URL over the network.
	OutcomeFetchNew
)

// String returns the outcome name used in logs and metrics labels.
func (o Outcome) String() string {
	switch o {
	case OutcomeClear:
		return "clear"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeReuse:
		return "reuse"
	case OutcomeFetchNew:
		return "fetch_new"
	default:
		return "unknown"
	}
}

// SaveResult is what the coordinator hands back to the caller. Record is nil
// on OutcomeClear; DeletedID is the identity of a previously owned record that
// was removed after the new one became durable (0 if none).
type SaveResult struct {
	Record    *EmbedRecord
	DeletedID int64
	Outcome   Outcome
}
