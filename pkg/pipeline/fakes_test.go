package pipeline

import (
	"context"
	"fmt"
	"sync"
)

type fakeAnalyzer struct {
	blocks map[string][]Block // by object key
	errs   map[string]error
	calls  []DocumentRef
	feats  [][]string
}

func (f *fakeAnalyzer) AnalyzeDocument(ctx context.Context, ref DocumentRef, features []string) ([]Block, error) {
	f.calls = append(f.calls, ref)
	f.feats = append(f.feats, features)
	if err := f.errs[ref.Key]; err != nil {
		return nil, err
	}
	return f.blocks[ref.Key], nil
}

func (f *fakeAnalyzer) SupportedTypes() []string {
	return []string{".pdf", ".png"}
}

type fakeDetector struct {
	records []EntityRecord
	err     error
	texts   []string
	langs   []string
}

func (f *fakeDetector) DetectEntities(ctx context.Context, text, languageCode string) ([]EntityRecord, error) {
	f.texts = append(f.texts, text)
	f.langs = append(f.langs, languageCode)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte // "bucket/key"
	err     error
	puts    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte)}
}

func (f *fakeStore) PutObject(ctx context.Context, bucket, key string, body []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.err != nil {
		return f.err
	}
	f.objects[bucket+"/"+key] = body
	return nil
}

func (f *fakeStore) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.objects[bucket+"/"+key]
	if !ok {
		return nil, fmt.Errorf("no such key: %s/%s", bucket, key)
	}
	return body, nil
}

func keyBlock(id, text string, targets ...string) Block {
	b := Block{
		ID:          id,
		BlockType:   BlockTypeKeyValueSet,
		Text:        text,
		EntityTypes: []string{EntityTypeKey},
	}
	if len(targets) > 0 {
		b.Relationships = []Relationship{{Type: RelationshipValue, IDs: targets}}
	}
	return b
}

func valueBlock(id, text string) Block {
	return Block{
		ID:          id,
		BlockType:   BlockTypeKeyValueSet,
		Text:        text,
		EntityTypes: []string{EntityTypeValue},
	}
}
