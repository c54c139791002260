package embeds

import (
	"context"
	"fmt"
	"log"
)

// Coordinator decides whether a submitted URL maps to an existing record
// (reuse), a changed record (replace) or a brand-new record (create), and
// removes orphaned records once their replacement is durably written.
type Coordinator struct {
	repo         Repository
	resolver     Resolver
	normalizer   *Normalizer
	requiredType string
}

// NewCoordinator creates a save coordinator.
func NewCoordinator(repo Repository, resolver Resolver, normalizer *Normalizer, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		repo:       repo,
		resolver:   resolver,
		normalizer: normalizer,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CoordinatorOption configures the coordinator
type CoordinatorOption func(*Coordinator)

// WithRequiredType restricts saves to one embed type ("video", "rich", "link"
// or "photo"). A resolved record reporting a different, non-empty type is
// rejected before anything is persisted.
func WithRequiredType(embedType string) CoordinatorOption {
	return func(c *Coordinator) {
		c.requiredType = embedType
	}
}

// ResolveForSave runs the save decision for a submitted URL.
//
// existing is the record currently referenced by the owner, nil when the
// owner holds no reference yet. The sequence is strictly write-before-delete:
// a previously owned record is only removed after its replacement has a
// durable identity, so a failure part-way never orphans the owner reference.
// Any failure leaves prior state fully intact and is surfaced to the caller.
//
// The lookup-then-create sequence is not transactionally isolated; two
// concurrent saves of the same new URL can both take the create path. The
// storage layer owns identity assignment, so both writes succeed and the
// duplicate is collapsed on the next save that looks the URL up.
func (c *Coordinator) ResolveForSave(ctx context.Context, existing *EmbedRecord, submittedURL string) (*SaveResult, error) {
	// Empty submission clears the field: drop the reference, delete the
	// record it pointed at.
	if submittedURL == "" {
		result := &SaveResult{Outcome: OutcomeClear}
		if existing != nil && existing.ID != 0 {
			if err := c.repo.Delete(ctx, existing.ID); err != nil {
				return nil, fmt.Errorf("failed to delete cleared embed record %d: %w", existing.ID, err)
			}
			result.DeletedID = existing.ID
		}
		return result, nil
	}

	// Same URL as the currently owned record: nothing changed, no re-fetch,
	// no write.
	if existing != nil && existing.SourceURL == submittedURL {
		return &SaveResult{Outcome: OutcomeUnchanged, Record: existing}, nil
	}

	var (
		record  *EmbedRecord
		outcome Outcome
	)

	found, err := c.repo.GetBySourceURL(ctx, submittedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to look up embed record for %s: %w", submittedURL, err)
	}

	if found != nil {
		record = found.CloneDetached()
		outcome = OutcomeReuse
	} else {
		raw, err := c.resolver.Resolve(ctx, submittedURL)
		if err != nil {
			return nil, &FetchError{URL: submittedURL, Err: err}
		}
		record, err = c.normalizer.Normalize(submittedURL, raw)
		if err != nil {
			return nil, err
		}
		outcome = OutcomeFetchNew
	}

	if err := c.checkType(submittedURL, record); err != nil {
		return nil, err
	}

	// Freshly duplicated or created records get written; a record that
	// already has a durable identity is never rewritten here.
	if record.ID == 0 {
		if err := c.repo.Create(ctx, record); err != nil {
			return nil, fmt.Errorf("failed to persist embed record for %s: %w", submittedURL, err)
		}
	}

	result := &SaveResult{Outcome: outcome, Record: record}

	// Delete the replaced record only now that the new one is durable.
	if existing != nil && existing.ID != 0 && existing.ID != record.ID {
		if err := c.repo.Delete(ctx, existing.ID); err != nil {
			// The new record is already written and referenced; the stale
			// row is an orphan, not a save failure.
			log.Printf("[EMBED] Warning: failed to delete replaced record %d: %v", existing.ID, err)
		} else {
			result.DeletedID = existing.ID
		}
	}

	return result, nil
}

// ResolvePreview resolves a URL without touching persistence. Used by the
// interactive form-field check: the record is normalized and type-checked but
// never written, so repeated checks have no side effects.
func (c *Coordinator) ResolvePreview(ctx context.Context, submittedURL string) (*EmbedRecord, error) {
	raw, err := c.resolver.Resolve(ctx, submittedURL)
	if err != nil {
		return nil, &FetchError{URL: submittedURL, Err: err}
	}
	record, err := c.normalizer.Normalize(submittedURL, raw)
	if err != nil {
		return record, err
	}
	if err := c.checkType(submittedURL, record); err != nil {
		return record, err
	}
	return record, nil
}

func (c *Coordinator) checkType(submittedURL string, record *EmbedRecord) error {
	if c.requiredType != "" && record.Type != "" && record.Type != c.requiredType {
		return &TypeMismatchError{URL: submittedURL, Want: c.requiredType, Got: record.Type}
	}
	return nil
}
