package models

import (
	"fmt"
	"time"
)

// Aspect payload keys used by the catalog store. The store itself holds an
// open key-value document; the repository boundary validates it into a
// DescriptionRecord using these keys.
const (
	AspectKeyContents            = "contents"
	AspectKeyGenerationDate      = "generation-date"
	AspectKeyToBeRegenerated     = "to-be-regenerated"
	AspectKeyIsAccepted          = "is-accepted"
	AspectKeyWhenAccepted        = "when-accepted"
	AspectKeyHumanComments       = "human-comments"
	AspectKeyNegativeExamples    = "negative-examples"
	AspectKeyExternalDocumentURI = "external-document-uri"
)

// DescriptionRecord is the review-state metadata attached to a target in the
// catalog store. Instances are owned by the store; the engine re-fetches them
// on every operation and never caches them across calls.
type DescriptionRecord struct {
	// DraftText is the staged candidate description, empty if none.
	DraftText string

	// GenerationDate is when the draft was last generated.
	GenerationDate time.Time

	// ToBeRegenerated flags the target for the next regeneration pass.
	ToBeRegenerated bool

	// IsAccepted is true once a draft has been promoted to the permanent
	// description.
	IsAccepted bool

	// WhenAccepted is set only when IsAccepted is true.
	WhenAccepted *time.Time

	// HumanComments and NegativeExamples are append-only reviewer feedback.
	HumanComments    []string
	NegativeExamples []string

	// ExternalDocumentURI points at supporting documentation, if any.
	ExternalDocumentURI string
}

// HasDraft reports whether a staged candidate exists.
func (r *DescriptionRecord) HasDraft() bool {
	return r != nil && r.DraftText != ""
}

// ToAspectPayload serializes the record into the catalog's key-value shape.
func (r *DescriptionRecord) ToAspectPayload() map[string]any {
	payload := map[string]any{
		AspectKeyContents:        r.DraftText,
		AspectKeyToBeRegenerated: r.ToBeRegenerated,
		AspectKeyIsAccepted:      r.IsAccepted,
	}
	if !r.GenerationDate.IsZero() {
		payload[AspectKeyGenerationDate] = r.GenerationDate.UTC().Format(time.RFC3339)
	}
	if r.WhenAccepted != nil {
		payload[AspectKeyWhenAccepted] = r.WhenAccepted.UTC().Format(time.RFC3339)
	}
	if len(r.HumanComments) > 0 {
		payload[AspectKeyHumanComments] = append([]string(nil), r.HumanComments...)
	}
	if len(r.NegativeExamples) > 0 {
		payload[AspectKeyNegativeExamples] = append([]string(nil), r.NegativeExamples...)
	}
	if r.ExternalDocumentURI != "" {
		payload[AspectKeyExternalDocumentURI] = r.ExternalDocumentURI
	}
	return payload
}

// RecordFromAspectPayload validates a raw aspect payload into a typed record.
// The store has historically held booleans both as bools and as the strings
// "true"/"false", so both are accepted.
func RecordFromAspectPayload(payload map[string]any) (*DescriptionRecord, error) {
	rec := &DescriptionRecord{}
	var err error

	if rec.DraftText, err = stringValue(payload, AspectKeyContents); err != nil {
		return nil, err
	}
	if rec.ToBeRegenerated, err = boolValue(payload, AspectKeyToBeRegenerated); err != nil {
		return nil, err
	}
	if rec.IsAccepted, err = boolValue(payload, AspectKeyIsAccepted); err != nil {
		return nil, err
	}
	if rec.ExternalDocumentURI, err = stringValue(payload, AspectKeyExternalDocumentURI); err != nil {
		return nil, err
	}
	if rec.GenerationDate, err = timeValue(payload, AspectKeyGenerationDate); err != nil {
		return nil, err
	}
	if when, err := timeValue(payload, AspectKeyWhenAccepted); err != nil {
		return nil, err
	} else if !when.IsZero() {
		rec.WhenAccepted = &when
	}
	if rec.HumanComments, err = stringListValue(payload, AspectKeyHumanComments); err != nil {
		return nil, err
	}
	if rec.NegativeExamples, err = stringListValue(payload, AspectKeyNegativeExamples); err != nil {
		return nil, err
	}
	return rec, nil
}

func stringValue(payload map[string]any, key string) (string, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("aspect field %s: expected string, got %T", key, raw)
	}
	return s, nil
}

func boolValue(payload map[string]any, key string) (bool, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return false, nil
	}
	switch v := raw.(type) {
	case bool:
		return v, nil
	case string:
		return v == "true", nil
	default:
		return false, fmt.Errorf("aspect field %s: expected bool, got %T", key, raw)
	}
}

func timeValue(payload map[string]any, key string) (time.Time, error) {
	raw, err := stringValue(payload, key)
	if err != nil || raw == "" {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("aspect field %s: %w", key, err)
	}
	return ts, nil
}

func stringListValue(payload map[string]any, key string) ([]string, error) {
	raw, ok := payload[key]
	if !ok || raw == nil {
		return nil, nil
	}
	switch v := raw.(type) {
	case []string:
		return append([]string(nil), v...), nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("aspect field %s: expected string element, got %T", key, item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("aspect field %s: expected string list, got %T", key, raw)
	}
}
