package services

import (
	"strings"

	"github.com/datawisp/metadata-engine/pkg/apperrors"
	"github.com/datawisp/metadata-engine/pkg/models"
)

// CombineDescription merges a newly accepted draft into an existing
// description according to the handling policy.
//
// An empty new description always leaves the old one unchanged. With append
// handling, any previously generated text is recognized by the AI watermark
// and replaced, so repeated accepts never stack generated paragraphs; text a
// human wrote before the watermark survives. An unknown policy leaves the old
// description unchanged and reports a configuration error.
func CombineDescription(oldDescription, newDescription string, handling models.DescriptionHandling) (string, error) {
	if newDescription == "" {
		return oldDescription, nil
	}

	switch models.DescriptionHandling(strings.ToLower(string(handling))) {
	case models.HandlingAppend:
		if oldDescription != "" {
			if idx := strings.Index(oldDescription, models.AIWatermark); idx >= 0 {
				// The watermark stays in place so the next merge still finds
				// the boundary even when the draft carries no watermark of
				// its own.
				kept := oldDescription[:idx+len(models.AIWatermark)]
				return kept + strings.TrimPrefix(newDescription, models.AIWatermark), nil
			}
			return oldDescription + newDescription, nil
		}
		return newDescription, nil

	case models.HandlingPrepend:
		return newDescription + oldDescription, nil

	case models.HandlingReplace:
		return newDescription, nil

	default:
		return oldDescription, apperrors.Newf(apperrors.KindConfigurationError,
			"unknown description handling %q", handling)
	}
}

// ApplyAIWarning prefixes the generated text with the AI watermark, unless
// it already carries one.
func ApplyAIWarning(text string) string {
	if strings.HasPrefix(text, models.AIWatermark) {
		return text
	}
	return models.AIWatermark + text
}
