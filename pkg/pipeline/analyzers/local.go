package analyzers

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/athapong/docpipe/pkg/pipeline"
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// formLine matches "Key: Value" lines. The colon must be followed by
// whitespace or end the line, so URLs and times are not split.
var formLine = regexp.MustCompile(`^([^:]+?):(?:\s+(.*))?$`)

// field is a key/value pair found in a local document
type field struct {
	Key   string
	Value string
}

// LocalAnalyzer builds a block graph from PDF or HTML content without a
// remote analysis service. Lines become LINE blocks and recognized form
// fields become KEY/VALUE KEY_VALUE_SET blocks.
type LocalAnalyzer struct {
	reader pipeline.ObjectReader
	logger *logrus.Logger
}

// NewLocalAnalyzer creates an analyzer that reads documents through reader
func NewLocalAnalyzer(reader pipeline.ObjectReader) *LocalAnalyzer {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &LocalAnalyzer{reader: reader, logger: logger}
}

// WithLogger replaces the default JSON logger
func (a *LocalAnalyzer) WithLogger(logger *logrus.Logger) *LocalAnalyzer {
	a.logger = logger
	return a
}

// AnalyzeDocument implements pipeline.DocumentAnalyzer
func (a *LocalAnalyzer) AnalyzeDocument(ctx context.Context, ref pipeline.DocumentRef, features []string) ([]pipeline.Block, error) {
	content, err := a.reader.GetObject(ctx, ref.Bucket, ref.Key)
	if err != nil {
		return nil, errors.Wrap(err, "reading document")
	}

	var lines []string
	var fields []field

	switch ext := strings.ToLower(path.Ext(ref.Key)); ext {
	case ".pdf":
		lines, err = a.pdfLines(content)
		if err != nil {
			return nil, err
		}
		fields = fieldsFromLines(lines)
	case ".html", ".htm":
		lines, fields, err = htmlContent(content)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported document type: %q", ext)
	}

	if !mapset.NewSet(features...).Contains(pipeline.FeatureForms) {
		fields = nil
	}

	a.logger.WithFields(logrus.Fields{
		"document":    ref.String(),
		"line_count":  len(lines),
		"field_count": len(fields),
	}).Debug("Local analysis completed")

	return buildBlocks(lines, fields), nil
}

// SupportedTypes implements pipeline.DocumentAnalyzer
func (a *LocalAnalyzer) SupportedTypes() []string {
	return []string{".pdf", ".html", ".htm"}
}

// pdfLines returns the non-empty text rows of every page. The pdf reader
// panics on some broken cross-reference tables; that is reported as an error.
func (a *LocalAnalyzer) pdfLines(content []byte) (lines []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			lines, err = nil, errors.Errorf("parsing pdf: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, errors.Wrap(err, "opening pdf")
	}

	for pageIndex := 1; pageIndex <= r.NumPage(); pageIndex++ {
		p := r.Page(pageIndex)
		if p.V.IsNull() {
			continue
		}

		lines = append(lines, a.pageLines(pageIndex, p)...)
	}
	return lines, nil
}

// rowPage is the part of pdf.Page used to read text rows
type rowPage interface {
	GetTextByRow() (pdf.Rows, error)
}

// pageLines returns the non-empty rows of one page. An unreadable page is
// logged and yields no lines.
func (a *LocalAnalyzer) pageLines(pageIndex int, p rowPage) []string {
	rows, err := p.GetTextByRow()
	if err != nil {
		a.logger.WithError(err).WithField("page", pageIndex).Warn("Skipping unreadable pdf page")
		return nil
	}

	var lines []string
	for _, row := range rows {
		var sb strings.Builder
		for _, t := range row.Content {
			sb.WriteString(t.S)
		}
		if line := strings.TrimSpace(sb.String()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func fieldsFromLines(lines []string) []field {
	var fields []field
	for _, line := range lines {
		m := formLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		fields = append(fields, field{Key: strings.TrimSpace(m[1]), Value: strings.TrimSpace(m[2])})
	}
	return fields
}

// htmlContent extracts body text lines plus dt/dd pairs and two-cell table
// rows, in document order.
func htmlContent(content []byte) ([]string, []field, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, nil, errors.Wrap(err, "parsing html")
	}

	var lines []string
	for _, line := range strings.Split(doc.Find("body").Text(), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}

	var fields []field
	doc.Find("dt, tr").Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) == "dt" {
			fields = append(fields, field{
				Key:   strings.TrimSpace(s.Text()),
				Value: strings.TrimSpace(s.NextFiltered("dd").Text()),
			})
			return
		}
		cells := s.ChildrenFiltered("th, td")
		if cells.Length() != 2 {
			return
		}
		fields = append(fields, field{
			Key:   strings.TrimSuffix(strings.TrimSpace(cells.Eq(0).Text()), ":"),
			Value: strings.TrimSpace(cells.Eq(1).Text()),
		})
	})

	return lines, fields, nil
}

// buildBlocks lays out a single page: a PAGE block pointing at its LINE
// children, then a KEY block and its VALUE block for each field.
func buildBlocks(lines []string, fields []field) []pipeline.Block {
	blocks := make([]pipeline.Block, 0, 1+len(lines)+2*len(fields))

	page := pipeline.Block{ID: "page-1", BlockType: pipeline.BlockTypePage, Page: 1}
	lineIDs := make([]string, len(lines))
	for i := range lines {
		lineIDs[i] = fmt.Sprintf("line-%d", i+1)
	}
	if len(lineIDs) > 0 {
		page.Relationships = []pipeline.Relationship{{Type: pipeline.RelationshipChild, IDs: lineIDs}}
	}
	blocks = append(blocks, page)

	for i, line := range lines {
		blocks = append(blocks, pipeline.Block{
			ID:        lineIDs[i],
			BlockType: pipeline.BlockTypeLine,
			Text:      line,
			Page:      1,
		})
	}

	for i, f := range fields {
		keyID := fmt.Sprintf("key-%d", i+1)
		valueID := fmt.Sprintf("value-%d", i+1)
		blocks = append(blocks,
			pipeline.Block{
				ID:            keyID,
				BlockType:     pipeline.BlockTypeKeyValueSet,
				Text:          f.Key,
				EntityTypes:   []string{pipeline.EntityTypeKey},
				Relationships: []pipeline.Relationship{{Type: pipeline.RelationshipValue, IDs: []string{valueID}}},
				Page:          1,
			},
			pipeline.Block{
				ID:          valueID,
				BlockType:   pipeline.BlockTypeKeyValueSet,
				Text:        f.Value,
				EntityTypes: []string{pipeline.EntityTypeValue},
				Page:        1,
			},
		)
	}
	return blocks
}
