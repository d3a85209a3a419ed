package pipeline

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func eventFor(refs ...DocumentRef) json.RawMessage {
	type s3Entity struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	}
	type record struct {
		S3 s3Entity `json:"s3"`
	}
	var event struct {
		Records []record `json:"Records"`
	}
	event.Records = []record{}
	for _, ref := range refs {
		var r record
		r.S3.Bucket.Name = ref.Bucket
		r.S3.Object.Key = ref.Key
		event.Records = append(event.Records, r)
	}
	data, _ := json.Marshal(event)
	return data
}

func invoiceBlocks() []Block {
	return []Block{
		{ID: "p1", BlockType: BlockTypePage, Relationships: []Relationship{{Type: RelationshipChild, IDs: []string{"l1"}}}},
		{ID: "l1", BlockType: BlockTypeLine, Text: "Invoice Number 12345"},
		keyBlock("k1", "Invoice Number", "v1"),
		valueBlock("v1", "12345"),
	}
}

func decodeBody(t *testing.T, resp Response) string {
	t.Helper()
	var msg string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &msg))
	return msg
}

func TestHandleEvent_SingleDocument(t *testing.T) {
	ref := DocumentRef{Bucket: "docs", Key: "invoices/inv.pdf"}
	analyzer := &fakeAnalyzer{blocks: map[string][]Block{ref.Key: invoiceBlocks()}}
	detector := &fakeDetector{records: []EntityRecord{{Text: "12345", Type: "OTHER", Score: 0.98}}}
	store := newFakeStore()
	p := New(analyzer, detector, store, WithLogger(quietLogger()))

	resp, err := p.HandleEvent(context.Background(), eventFor(ref))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Document processed successfully!", decodeBody(t, resp))

	assert.Equal(t, []DocumentRef{ref}, analyzer.calls)
	assert.Equal(t, [][]string{{FeatureTables, FeatureForms}}, analyzer.feats)
	assert.Equal(t, []string{"Invoice Number: 12345"}, detector.texts)
	assert.Equal(t, []string{"en"}, detector.langs)

	assert.Equal(t, 1, store.puts)
	env, err := DecodeEnvelope(store.objects["docs/invoices/inv_results.json"])
	require.NoError(t, err)
	v, _ := env.TextractData.Get("Invoice Number")
	assert.Equal(t, "12345", v)
	assert.Equal(t, 1, env.TextractData.Len())
	require.Len(t, env.ComprehendEntities, 1)
	assert.Equal(t, "12345", env.ComprehendEntities[0].Text)
}

func TestHandleEvent_AnalysisFailure(t *testing.T) {
	ref := DocumentRef{Bucket: "docs", Key: "broken.pdf"}
	analyzer := &fakeAnalyzer{errs: map[string]error{ref.Key: errors.New("UnsupportedDocumentException: bad format")}}
	detector := &fakeDetector{}
	store := newFakeStore()
	p := New(analyzer, detector, store, WithLogger(quietLogger()))

	resp, err := p.HandleEvent(context.Background(), eventFor(ref))

	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	msg := decodeBody(t, resp)
	assert.Contains(t, msg, "Error: ")
	assert.Contains(t, msg, "UnsupportedDocumentException: bad format")
	assert.Empty(t, detector.texts)
	assert.Equal(t, 0, store.puts)
}

func TestHandleEvent_SecondDocumentFails(t *testing.T) {
	first := DocumentRef{Bucket: "docs", Key: "a.pdf"}
	second := DocumentRef{Bucket: "docs", Key: "b.pdf"}
	third := DocumentRef{Bucket: "docs", Key: "c.pdf"}
	analyzer := &fakeAnalyzer{
		blocks: map[string][]Block{first.Key: invoiceBlocks(), third.Key: invoiceBlocks()},
		errs:   map[string]error{second.Key: errors.New("ThrottlingException")},
	}
	store := newFakeStore()
	p := New(analyzer, &fakeDetector{}, store, WithLogger(quietLogger()))

	resp, _ := p.HandleEvent(context.Background(), eventFor(first, second, third))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp), "ThrottlingException")
	assert.Equal(t, []DocumentRef{first, second}, analyzer.calls, "third document must not be processed")
	_, err := store.GetObject(context.Background(), "docs", "a_results.json")
	assert.NoError(t, err, "first result stays persisted")
	_, err = store.GetObject(context.Background(), "docs", "b_results.json")
	assert.Error(t, err)
}

func TestHandleEvent_EnrichmentFailureDiscardsExtraction(t *testing.T) {
	ref := DocumentRef{Bucket: "docs", Key: "a.pdf"}
	analyzer := &fakeAnalyzer{blocks: map[string][]Block{ref.Key: invoiceBlocks()}}
	store := newFakeStore()
	p := New(analyzer, &fakeDetector{err: errors.New("TextSizeLimitExceededException")}, store, WithLogger(quietLogger()))

	resp, _ := p.HandleEvent(context.Background(), eventFor(ref))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 0, store.puts)
}

func TestHandleEvent_PersistFailure(t *testing.T) {
	ref := DocumentRef{Bucket: "docs", Key: "a.pdf"}
	analyzer := &fakeAnalyzer{blocks: map[string][]Block{ref.Key: invoiceBlocks()}}
	store := newFakeStore()
	store.err = errors.New("AccessDenied")
	p := New(analyzer, &fakeDetector{}, store, WithLogger(quietLogger()))

	resp, _ := p.HandleEvent(context.Background(), eventFor(ref))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp), "AccessDenied")
}

func TestHandleEvent_MalformedEvent(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	p := New(analyzer, &fakeDetector{}, newFakeStore(), WithLogger(quietLogger()))

	resp, _ := p.HandleEvent(context.Background(), json.RawMessage(`{"detail": {}}`))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, decodeBody(t, resp), "Records")
	assert.Empty(t, analyzer.calls)
}

func TestHandleEvent_EmptyRecords(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	p := New(analyzer, &fakeDetector{}, newFakeStore(), WithLogger(quietLogger()))

	resp, _ := p.HandleEvent(context.Background(), eventFor())

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, analyzer.calls)
}

func TestProcess_UnrecognizedExtensionSkipsExternalCalls(t *testing.T) {
	analyzer := &fakeAnalyzer{}
	detector := &fakeDetector{}
	p := New(analyzer, detector, newFakeStore(), WithLogger(quietLogger()))

	_, err := p.Process(context.Background(), DocumentRef{Bucket: "docs", Key: "notes.txt"})

	assert.True(t, IsInputFailure(err))
	assert.Empty(t, analyzer.calls)
	assert.Empty(t, detector.texts)
}

func TestRun_ErrorKinds(t *testing.T) {
	ref := DocumentRef{Bucket: "docs", Key: "a.pdf"}
	cause := errors.New("ProvisionedThroughputExceededException")
	analyzer := &fakeAnalyzer{errs: map[string]error{ref.Key: cause}}
	p := New(analyzer, &fakeDetector{}, newFakeStore(), WithLogger(quietLogger()))

	err := p.Run(context.Background(), []DocumentRef{ref})

	assert.True(t, IsAnalysisFailure(err))
	assert.Equal(t, KindAnalysis, KindOf(err))
	assert.Equal(t, cause, errors.Cause(err))
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
}

func TestWithLanguageCode(t *testing.T) {
	ref := DocumentRef{Bucket: "docs", Key: "a.pdf"}
	detector := &fakeDetector{}
	analyzer := &fakeAnalyzer{blocks: map[string][]Block{ref.Key: invoiceBlocks()}}
	p := New(analyzer, detector, newFakeStore(), WithLogger(quietLogger()), WithLanguageCode("es"))

	_, err := p.Process(context.Background(), ref)

	require.NoError(t, err)
	assert.Equal(t, []string{"es"}, detector.langs)
}

func TestNewResponse(t *testing.T) {
	ok := NewResponse(nil)
	assert.Equal(t, 200, ok.StatusCode)
	assert.Equal(t, `"Document processed successfully!"`, ok.Body)

	failed := NewResponse(errors.New(`quote " inside`))
	assert.Equal(t, 500, failed.StatusCode)
	assert.Equal(t, `"Error: quote \" inside"`, failed.Body)
}

func TestInvocationID(t *testing.T) {
	ctx := ContextWithInvocationID(context.Background(), "req-1")
	assert.Equal(t, "req-1", InvocationID(ctx))
	assert.Equal(t, "", InvocationID(context.Background()))
}
