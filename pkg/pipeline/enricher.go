package pipeline

import (
	"context"
	"strings"

	"github.com/pkg/errors"
)

// DefaultLanguageCode is the language sent with every entity detection request
const DefaultLanguageCode = "en"

// Enricher runs entity detection over an extracted mapping
type Enricher struct {
	detector     EntityDetector
	languageCode string
}

// NewEnricher creates an enricher that tags requests with languageCode,
// falling back to DefaultLanguageCode when it is empty.
func NewEnricher(detector EntityDetector, languageCode string) *Enricher {
	if languageCode == "" {
		languageCode = DefaultLanguageCode
	}
	return &Enricher{detector: detector, languageCode: languageCode}
}

// LanguageCode returns the language code sent with each request.
func (e *Enricher) LanguageCode() string {
	return e.languageCode
}

// RenderText flattens a mapping into "key: value" lines in mapping order.
func RenderText(m *Mapping) string {
	pairs := m.Pairs()
	lines := make([]string, len(pairs))
	for i, p := range pairs {
		lines[i] = p.Key + ": " + p.Value
	}
	return strings.Join(lines, "\n")
}

// Enrich detects entities in the rendered mapping. The text is sent as is;
// size limits are the detector's to enforce.
func (e *Enricher) Enrich(ctx context.Context, ref DocumentRef, m *Mapping) ([]EntityRecord, error) {
	records, err := e.detector.DetectEntities(ctx, RenderText(m), e.languageCode)
	if err != nil {
		return nil, EnrichmentFailure(ref, errors.Wrap(err, "detecting entities"))
	}
	if records == nil {
		records = []EntityRecord{}
	}
	return records, nil
}
