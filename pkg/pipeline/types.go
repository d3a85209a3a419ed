package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
)

// Block type tags produced by document analysis
const (
	BlockTypePage        = "PAGE"
	BlockTypeKeyValueSet = "KEY_VALUE_SET"
	BlockTypeLine        = "LINE"
	BlockTypeWord        = "WORD"
	BlockTypeTable       = "TABLE"
	BlockTypeCell        = "CELL"

	// Entity role tags
	EntityTypeKey   = "KEY"
	EntityTypeValue = "VALUE"

	// Relationship kinds
	RelationshipValue = "VALUE"
	RelationshipChild = "CHILD"
)

// Analysis features requested from the document analyzer
const (
	FeatureTables = "TABLES"
	FeatureForms  = "FORMS"
)

// DefaultFeatures is the feature set requested for every document.
var DefaultFeatures = []string{FeatureTables, FeatureForms}

// DocumentRef identifies a stored document.
type DocumentRef struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

func (r DocumentRef) String() string {
	return fmt.Sprintf("s3://%s/%s", r.Bucket, r.Key)
}

// Block is a node in the document analysis graph
type Block struct {
	ID            string         `json:"Id"`
	BlockType     string         `json:"BlockType"`
	Text          string         `json:"Text,omitempty"`
	EntityTypes   []string       `json:"EntityTypes,omitempty"`
	Relationships []Relationship `json:"Relationships,omitempty"`
	Page          int            `json:"Page,omitempty"`
	Confidence    float64        `json:"Confidence,omitempty"`
}

// Relationship is a typed, ordered edge from a block to other blocks
type Relationship struct {
	Type string   `json:"Type"`
	IDs  []string `json:"Ids"`
}

// EntityRecord is a named entity detected in the extracted text. Raw holds the
// recognizer's own representation and is what gets persisted.
type EntityRecord struct {
	Text  string
	Type  string
	Score float64
	Raw   json.RawMessage
}

// MarshalJSON emits the recognizer's representation verbatim when present.
func (e EntityRecord) MarshalJSON() ([]byte, error) {
	if len(e.Raw) > 0 {
		return e.Raw, nil
	}
	return json.Marshal(struct {
		Score float64 `json:"Score"`
		Type  string  `json:"Type"`
		Text  string  `json:"Text"`
	}{e.Score, e.Type, e.Text})
}

// UnmarshalJSON keeps the raw bytes and reads the common fields out of them.
func (e *EntityRecord) UnmarshalJSON(data []byte) error {
	var common struct {
		Score float64 `json:"Score"`
		Type  string  `json:"Type"`
		Text  string  `json:"Text"`
	}
	if err := json.Unmarshal(data, &common); err != nil {
		return err
	}
	e.Text = common.Text
	e.Type = common.Type
	e.Score = common.Score
	e.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// DocumentAnalyzer runs table/form analysis over a stored document
type DocumentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, ref DocumentRef, features []string) ([]Block, error)
	// SupportedTypes lists the lower-case file extensions the analyzer accepts
	SupportedTypes() []string
}

// EntityDetector detects named entities in a text blob
type EntityDetector interface {
	DetectEntities(ctx context.Context, text, languageCode string) ([]EntityRecord, error)
}

// ObjectStore writes objects to durable storage
type ObjectStore interface {
	PutObject(ctx context.Context, bucket, key string, body []byte) error
}

// ObjectReader reads objects back from storage
type ObjectReader interface {
	GetObject(ctx context.Context, bucket, key string) ([]byte, error)
}
