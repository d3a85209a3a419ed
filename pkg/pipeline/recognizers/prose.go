package recognizers

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/jdkato/prose/v2"
	"github.com/sirupsen/logrus"
)

// Entity categories, named after the Comprehend ones
const (
	EntityTypePerson       = "PERSON"
	EntityTypeLocation     = "LOCATION"
	EntityTypeOrganization = "ORGANIZATION"
	EntityTypeDate         = "DATE"
	EntityTypeQuantity     = "QUANTITY"
	EntityTypeOther        = "OTHER"
)

const (
	proseScore   = 0.8
	patternScore = 0.9
)

// proseLabels maps prose NER labels onto entity categories
var proseLabels = map[string]string{
	"PERSON": EntityTypePerson,
	"GPE":    EntityTypeLocation,
	"ORG":    EntityTypeOrganization,
}

type entityPattern struct {
	re         *regexp.Regexp
	entityType string
}

// entityPatterns catch the form values prose's model does not tag
var entityPatterns = []entityPattern{
	{regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`), EntityTypeDate},
	{regexp.MustCompile(`\b\d{1,2}/\d{1,2}/\d{2,4}\b`), EntityTypeDate},
	{regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.? \d{1,2},? \d{4}\b`), EntityTypeDate},
	{regexp.MustCompile(`(?i)(?:[$€£¥]\s?\d[\d,]*(?:\.\d+)?|\b\d[\d,]*(?:\.\d+)?\s?(?:usd|eur|gbp|jpy|thb|sgd)\b)`), EntityTypeQuantity},
}

// proseEntity is the persisted shape of a locally detected entity
type proseEntity struct {
	Score       float64 `json:"Score"`
	Type        string  `json:"Type"`
	Text        string  `json:"Text"`
	BeginOffset int     `json:"BeginOffset"`
	EndOffset   int     `json:"EndOffset"`
}

type span struct {
	begin, end int // byte offsets
	entityType string
	score      float64
}

// ProseDetector detects entities locally using prose plus a few patterns.
// Only English is supported.
type ProseDetector struct {
	logger *logrus.Logger
}

// NewProseDetector creates a local entity detector
func NewProseDetector() *ProseDetector {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &ProseDetector{logger: logger}
}

// WithLogger replaces the default JSON logger
func (d *ProseDetector) WithLogger(logger *logrus.Logger) *ProseDetector {
	d.logger = logger
	return d
}

// DetectEntities implements pipeline.EntityDetector
func (d *ProseDetector) DetectEntities(ctx context.Context, text, languageCode string) ([]pipeline.EntityRecord, error) {
	if languageCode != "en" {
		return nil, fmt.Errorf("prose detector does not support language %q", languageCode)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		d.logger.WithError(err).Error("Failed to create prose document")
		return nil, err
	}

	var spans []span
	cursor := 0
	for _, ent := range doc.Entities() {
		idx := strings.Index(text[cursor:], ent.Text)
		if idx < 0 {
			continue
		}
		begin := cursor + idx
		entityType, ok := proseLabels[ent.Label]
		if !ok {
			entityType = EntityTypeOther
		}
		spans = append(spans, span{begin: begin, end: begin + len(ent.Text), entityType: entityType, score: proseScore})
		cursor = begin + len(ent.Text)
	}
	spans = append(spans, patternSpans(text)...)

	records, err := spansToRecords(text, spans)
	if err != nil {
		return nil, err
	}

	d.logger.WithField("entity_count", len(records)).Debug("Prose detection completed")
	return records, nil
}

func patternSpans(text string) []span {
	var spans []span
	for _, p := range entityPatterns {
		for _, m := range p.re.FindAllStringIndex(text, -1) {
			spans = append(spans, span{begin: m[0], end: m[1], entityType: p.entityType, score: patternScore})
		}
	}
	return spans
}

// spansToRecords orders spans by position and reports offsets in characters.
func spansToRecords(text string, spans []span) ([]pipeline.EntityRecord, error) {
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].begin < spans[j].begin })

	records := make([]pipeline.EntityRecord, 0, len(spans))
	for _, s := range spans {
		entText := text[s.begin:s.end]
		raw, err := json.Marshal(proseEntity{
			Score:       s.score,
			Type:        s.entityType,
			Text:        entText,
			BeginOffset: utf8.RuneCountInString(text[:s.begin]),
			EndOffset:   utf8.RuneCountInString(text[:s.end]),
		})
		if err != nil {
			return nil, err
		}
		records = append(records, pipeline.EntityRecord{
			Text:  entText,
			Type:  s.entityType,
			Score: s.score,
			Raw:   raw,
		})
	}
	return records, nil
}
