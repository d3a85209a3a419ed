package pipeline

import (
	"context"
	"encoding/json"
	"path"
	"strings"

	"github.com/pkg/errors"
)

// ResultSuffix replaces the document extension in the result object key
const ResultSuffix = "_results.json"

// Envelope is the persisted result for one document
type Envelope struct {
	TextractData       *Mapping       `json:"TextractData"`
	ComprehendEntities []EntityRecord `json:"ComprehendEntities"`
}

// NewEnvelope pairs a mapping with its entities. Nil inputs encode as an
// empty object and an empty list.
func NewEnvelope(m *Mapping, entities []EntityRecord) *Envelope {
	if m == nil {
		m = NewMapping()
	}
	if entities == nil {
		entities = []EntityRecord{}
	}
	return &Envelope{TextractData: m, ComprehendEntities: entities}
}

// DecodeEnvelope parses a persisted result, keeping mapping order.
func DecodeEnvelope(data []byte) (*Envelope, error) {
	env := &Envelope{TextractData: NewMapping()}
	if err := json.Unmarshal(data, env); err != nil {
		return nil, errors.Wrap(err, "decoding result envelope")
	}
	if env.TextractData == nil {
		env.TextractData = NewMapping()
	}
	if env.ComprehendEntities == nil {
		env.ComprehendEntities = []EntityRecord{}
	}
	return env, nil
}

// ResultKey derives the result object key by swapping the extension of key
// for ResultSuffix. Only extensions listed in extensions (lower case, with the
// leading dot) are recognized; matching ignores case.
func ResultKey(key string, extensions []string) (string, error) {
	ext := strings.ToLower(path.Ext(key))
	if ext == "" {
		return "", errors.Wrapf(ErrUnrecognizedExtension, "key %q", key)
	}
	for _, known := range extensions {
		if ext == strings.ToLower(known) {
			return key[:len(key)-len(ext)] + ResultSuffix, nil
		}
	}
	return "", errors.Wrapf(ErrUnrecognizedExtension, "key %q", key)
}

// Persister writes result envelopes next to their source documents
type Persister struct {
	store      ObjectStore
	extensions []string
}

// NewPersister creates a persister that recognizes the given extensions
// when deriving result keys.
func NewPersister(store ObjectStore, extensions []string) *Persister {
	return &Persister{store: store, extensions: extensions}
}

// ResultKey derives the result key for ref.
func (p *Persister) ResultKey(ref DocumentRef) (string, error) {
	key, err := ResultKey(ref.Key, p.extensions)
	if err != nil {
		return "", InputFailure(ref, err)
	}
	return key, nil
}

// Persist serializes the envelope and writes it under the derived key,
// replacing any earlier result. It returns the key written.
func (p *Persister) Persist(ctx context.Context, ref DocumentRef, m *Mapping, entities []EntityRecord) (string, error) {
	key, err := p.ResultKey(ref)
	if err != nil {
		return "", err
	}

	body, err := json.Marshal(NewEnvelope(m, entities))
	if err != nil {
		return "", PersistFailure(ref, errors.Wrap(err, "encoding result envelope"))
	}

	if err := p.store.PutObject(ctx, ref.Bucket, key, body); err != nil {
		return "", PersistFailure(ref, errors.Wrapf(err, "writing s3://%s/%s", ref.Bucket, key))
	}
	return key, nil
}
