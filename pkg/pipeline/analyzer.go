package pipeline

import (
	"context"

	"github.com/pkg/errors"
)

// Analyzer fetches the block graph for a document
type Analyzer struct {
	client   DocumentAnalyzer
	features []string
}

// NewAnalyzer creates an analyzer requesting DefaultFeatures.
func NewAnalyzer(client DocumentAnalyzer) *Analyzer {
	return &Analyzer{client: client, features: DefaultFeatures}
}

// Analyze returns every block of the analyzed document.
func (a *Analyzer) Analyze(ctx context.Context, ref DocumentRef) ([]Block, error) {
	blocks, err := a.client.AnalyzeDocument(ctx, ref, a.features)
	if err != nil {
		return nil, AnalysisFailure(ref, errors.Wrap(err, "analyzing document"))
	}
	return blocks, nil
}

// SupportedTypes returns the extensions the underlying analyzer accepts.
func (a *Analyzer) SupportedTypes() []string {
	return a.client.SupportedTypes()
}
