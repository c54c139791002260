package embeds

// Normalizer turns a resolver response into a canonical EmbedRecord,
// including the iframe rewrite of any embeddable HTML the provider returned.
type Normalizer struct {
	rewrite RewriteConfig
}

// NewNormalizer creates a normalizer using the given rewrite configuration.
// The configuration is explicit here rather than read from any ambient state
// so two normalizers with different policies can coexist.
func NewNormalizer(rewrite RewriteConfig) *Normalizer {
	return &Normalizer{rewrite: rewrite}
}

// Normalize populates a record for sourceURL from the resolver's response.
//
// A nil response, or one without a canonical URL, means the source does not
// exist: the returned record is unresolved (derived fields empty) and the
// error is ErrSourceNotFound. Missing optional metadata never fails; embed
// HTML that cannot be rewritten is kept verbatim with an empty IframeSrc.
//
// Normalizing the same response twice yields identical records, so a record
// can always be rebuilt by re-resolving its SourceURL.
func (n *Normalizer) Normalize(sourceURL string, raw *RawEmbedInfo) (*EmbedRecord, error) {
	record := &EmbedRecord{SourceURL: sourceURL}

	if raw == nil || raw.URL == "" {
		return record, ErrSourceNotFound
	}

	record.Exists = true
	record.Title = raw.Title

	record.Type = raw.OEmbed.Type
	record.Version = raw.OEmbed.Version
	record.Width = copyIntPtr(raw.OEmbed.Width)
	record.Height = copyIntPtr(raw.OEmbed.Height)

	record.ThumbnailURL = raw.Image
	record.ThumbnailWidth = copyIntPtr(raw.OEmbed.ThumbnailWidth)
	record.ThumbnailHeight = copyIntPtr(raw.OEmbed.ThumbnailHeight)

	record.ProviderURL = raw.ProviderURL
	record.ProviderName = raw.ProviderName
	record.AuthorURL = raw.AuthorURL
	record.AuthorName = raw.AuthorName

	if raw.HTML != "" {
		rewritten := RewriteEmbedHTML(raw.HTML, record.Title, n.rewrite)
		record.EmbedHTML = rewritten.EmbedHTML
		record.IframeSrc = rewritten.IframeSrc
	}

	// The provider-reported canonical URL, not the submitted one: providers
	// may canonicalize or redirect.
	record.ResolvedURL = raw.URL
	record.Origin = raw.ProviderURL
	record.WebPage = raw.URL

	return record, nil
}
