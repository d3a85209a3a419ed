package analyzers

import (
	"context"

	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/sirupsen/logrus"
)

// TextractAPI is the part of the Textract client used here
type TextractAPI interface {
	AnalyzeDocument(ctx context.Context, params *textract.AnalyzeDocumentInput, optFns ...func(*textract.Options)) (*textract.AnalyzeDocumentOutput, error)
}

// TextractAnalyzer analyzes documents stored in S3 with Amazon Textract
type TextractAnalyzer struct {
	client TextractAPI
	logger *logrus.Logger
}

// NewTextractAnalyzer creates a Textract backed analyzer
func NewTextractAnalyzer(client TextractAPI) *TextractAnalyzer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &TextractAnalyzer{client: client, logger: logger}
}

// WithLogger replaces the default JSON logger
func (a *TextractAnalyzer) WithLogger(logger *logrus.Logger) *TextractAnalyzer {
	a.logger = logger
	return a
}

// AnalyzeDocument implements pipeline.DocumentAnalyzer
func (a *TextractAnalyzer) AnalyzeDocument(ctx context.Context, ref pipeline.DocumentRef, features []string) ([]pipeline.Block, error) {
	featureTypes := make([]types.FeatureType, len(features))
	for i, f := range features {
		featureTypes[i] = types.FeatureType(f)
	}

	out, err := a.client.AnalyzeDocument(ctx, &textract.AnalyzeDocumentInput{
		Document: &types.Document{
			S3Object: &types.S3Object{
				Bucket: aws.String(ref.Bucket),
				Name:   aws.String(ref.Key),
			},
		},
		FeatureTypes: featureTypes,
	})
	if err != nil {
		return nil, err
	}

	blocks := make([]pipeline.Block, len(out.Blocks))
	for i, b := range out.Blocks {
		blocks[i] = convertBlock(b)
	}

	a.logger.WithFields(logrus.Fields{
		"document":    ref.String(),
		"block_count": len(blocks),
	}).Debug("Textract analysis completed")

	return blocks, nil
}

// SupportedTypes lists the formats Textract's synchronous API accepts
func (a *TextractAnalyzer) SupportedTypes() []string {
	return []string{".pdf", ".png", ".jpg", ".jpeg", ".tif", ".tiff"}
}

func convertBlock(b types.Block) pipeline.Block {
	block := pipeline.Block{
		ID:         aws.ToString(b.Id),
		BlockType:  string(b.BlockType),
		Text:       aws.ToString(b.Text),
		Page:       int(aws.ToInt32(b.Page)),
		Confidence: float64(aws.ToFloat32(b.Confidence)),
	}
	if len(b.EntityTypes) > 0 {
		block.EntityTypes = make([]string, len(b.EntityTypes))
		for i, et := range b.EntityTypes {
			block.EntityTypes[i] = string(et)
		}
	}
	if len(b.Relationships) > 0 {
		block.Relationships = make([]pipeline.Relationship, len(b.Relationships))
		for i, r := range b.Relationships {
			block.Relationships[i] = pipeline.Relationship{
				Type: string(r.Type),
				IDs:  r.Ids,
			}
		}
	}
	return block
}
