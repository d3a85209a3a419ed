package recognizers

import (
	"context"
	"encoding/json"

	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/comprehend/types"
	"github.com/sirupsen/logrus"
)

// ComprehendAPI is the part of the Comprehend client used here
type ComprehendAPI interface {
	DetectEntities(ctx context.Context, params *comprehend.DetectEntitiesInput, optFns ...func(*comprehend.Options)) (*comprehend.DetectEntitiesOutput, error)
}

// comprehendEntity mirrors the Comprehend Entity wire shape
type comprehendEntity struct {
	Score       *float32 `json:"Score,omitempty"`
	Type        string   `json:"Type,omitempty"`
	Text        *string  `json:"Text,omitempty"`
	BeginOffset *int32   `json:"BeginOffset,omitempty"`
	EndOffset   *int32   `json:"EndOffset,omitempty"`
}

// ComprehendDetector detects entities with Amazon Comprehend
type ComprehendDetector struct {
	client ComprehendAPI
	logger *logrus.Logger
}

// NewComprehendDetector creates a Comprehend backed detector
func NewComprehendDetector(client ComprehendAPI) *ComprehendDetector {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &ComprehendDetector{client: client, logger: logger}
}

// WithLogger replaces the default JSON logger
func (d *ComprehendDetector) WithLogger(logger *logrus.Logger) *ComprehendDetector {
	d.logger = logger
	return d
}

// DetectEntities implements pipeline.EntityDetector
func (d *ComprehendDetector) DetectEntities(ctx context.Context, text, languageCode string) ([]pipeline.EntityRecord, error) {
	out, err := d.client.DetectEntities(ctx, &comprehend.DetectEntitiesInput{
		Text:         aws.String(text),
		LanguageCode: types.LanguageCode(languageCode),
	})
	if err != nil {
		return nil, err
	}

	records := make([]pipeline.EntityRecord, 0, len(out.Entities))
	for _, e := range out.Entities {
		raw, err := json.Marshal(comprehendEntity{
			Score:       e.Score,
			Type:        string(e.Type),
			Text:        e.Text,
			BeginOffset: e.BeginOffset,
			EndOffset:   e.EndOffset,
		})
		if err != nil {
			return nil, err
		}
		records = append(records, pipeline.EntityRecord{
			Text:  aws.ToString(e.Text),
			Type:  string(e.Type),
			Score: float64(aws.ToFloat32(e.Score)),
			Raw:   raw,
		})
	}

	d.logger.WithField("entity_count", len(records)).Debug("Comprehend detection completed")
	return records, nil
}
