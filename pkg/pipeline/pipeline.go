package pipeline

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/athapong/docpipe/pkg/pipeline/metrics"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const successMessage = "Document processed successfully!"

// Response is the invocation result returned to the trigger
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// NewResponse builds the invocation result for err. The body is the
// JSON-encoded message string.
func NewResponse(err error) Response {
	msg := successMessage
	if err != nil {
		msg = "Error: " + err.Error()
	}
	body, _ := json.Marshal(msg)
	return Response{StatusCode: StatusCode(err), Body: string(body)}
}

type invocationIDKey struct{}

// ContextWithInvocationID attaches an invocation id used in log entries.
func ContextWithInvocationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, invocationIDKey{}, id)
}

// InvocationID returns the id attached to ctx, or "".
func InvocationID(ctx context.Context) string {
	id, _ := ctx.Value(invocationIDKey{}).(string)
	return id
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithLogger replaces the default JSON logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(p *Pipeline) { p.logger = logger }
}

// WithLanguageCode sets the language code sent for entity detection.
func WithLanguageCode(code string) Option {
	return func(p *Pipeline) { p.languageCode = code }
}

// Pipeline runs analyze, extract, enrich and persist for each document of
// an event, one document at a time.
type Pipeline struct {
	analyzer     *Analyzer
	enricher     *Enricher
	persister    *Persister
	logger       *logrus.Logger
	languageCode string
}

// New creates a pipeline over the three collaborators. Result keys are
// derived from the extensions the analyzer supports.
func New(analyzer DocumentAnalyzer, detector EntityDetector, store ObjectStore, opts ...Option) *Pipeline {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	p := &Pipeline{logger: logger}
	for _, opt := range opts {
		opt(p)
	}

	p.analyzer = NewAnalyzer(analyzer)
	p.enricher = NewEnricher(detector, p.languageCode)
	p.persister = NewPersister(store, analyzer.SupportedTypes())
	return p
}

// ResultKey returns the key the result for ref is written to.
func (p *Pipeline) ResultKey(ref DocumentRef) (string, error) {
	return p.persister.ResultKey(ref)
}

// HandleEvent decodes a trigger event, processes every document and converts
// the outcome into an invocation result. It never returns an error itself.
func (p *Pipeline) HandleEvent(ctx context.Context, raw json.RawMessage) (Response, error) {
	if InvocationID(ctx) == "" {
		ctx = ContextWithInvocationID(ctx, uuid.New().String())
	}
	log := p.logger.WithField("invocation_id", InvocationID(ctx))

	err := p.handle(ctx, raw)
	resp := NewResponse(err)
	metrics.Invocations.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
	if err != nil {
		log.WithError(err).WithField("kind", KindOf(err)).Error("Error processing document")
	}
	return resp, nil
}

func (p *Pipeline) handle(ctx context.Context, raw []byte) error {
	refs, err := DecodeEvent(raw)
	if err != nil {
		metrics.StageFailures.WithLabelValues(metrics.StageInput).Inc()
		return err
	}
	return p.Run(ctx, refs)
}

// Run processes refs in order and stops at the first failure. Results already
// written for earlier documents are left in place.
func (p *Pipeline) Run(ctx context.Context, refs []DocumentRef) error {
	p.logger.WithFields(logrus.Fields{
		"invocation_id": InvocationID(ctx),
		"record_count":  len(refs),
	}).Info("Starting invocation")

	for _, ref := range refs {
		if _, err := p.Process(ctx, ref); err != nil {
			metrics.DocumentsProcessed.WithLabelValues("error").Inc()
			return err
		}
		metrics.DocumentsProcessed.WithLabelValues("success").Inc()
	}
	return nil
}

// Process runs all stages for one document and returns the key the result
// was written to.
func (p *Pipeline) Process(ctx context.Context, ref DocumentRef) (string, error) {
	log := p.logger.WithFields(logrus.Fields{
		"invocation_id": InvocationID(ctx),
		"bucket":        ref.Bucket,
		"key":           ref.Key,
	})
	log.Infof("Processing file: %s", ref)

	// fail before any external call when the result key cannot be derived
	if _, err := p.persister.ResultKey(ref); err != nil {
		metrics.StageFailures.WithLabelValues(metrics.StageInput).Inc()
		return "", err
	}

	timer := metrics.Timer(metrics.StageAnalyze)
	blocks, err := p.analyzer.Analyze(ctx, ref)
	timer.ObserveDuration()
	if err != nil {
		metrics.StageFailures.WithLabelValues(metrics.StageAnalyze).Inc()
		return "", err
	}
	log.WithField("block_count", len(blocks)).Debug("Document analyzed")

	timer = metrics.Timer(metrics.StageExtract)
	mapping := ExtractKeyValues(blocks)
	timer.ObserveDuration()
	metrics.KeyValuePairsExtracted.Add(float64(mapping.Len()))
	if data, err := json.Marshal(mapping); err == nil {
		log.WithField("extracted_data", string(data)).Info("Extracted key/value pairs")
	}

	timer = metrics.Timer(metrics.StageEnrich)
	entities, err := p.enricher.Enrich(ctx, ref, mapping)
	timer.ObserveDuration()
	if err != nil {
		metrics.StageFailures.WithLabelValues(metrics.StageEnrich).Inc()
		return "", err
	}
	for _, e := range entities {
		metrics.EntitiesDetected.WithLabelValues(e.Type).Inc()
	}
	log.WithField("entity_count", len(entities)).Info("Detected entities")

	timer = metrics.Timer(metrics.StagePersist)
	key, err := p.persister.Persist(ctx, ref, mapping, entities)
	timer.ObserveDuration()
	if err != nil {
		metrics.StageFailures.WithLabelValues(metrics.StagePersist).Inc()
		return "", err
	}
	log.Infof("Results saved to: s3://%s/%s", ref.Bucket, key)
	return key, nil
}
