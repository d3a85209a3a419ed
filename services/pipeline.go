package services

import (
	"github.com/athapong/docpipe/pkg/config"
	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/athapong/docpipe/pkg/pipeline/analyzers"
	"github.com/athapong/docpipe/pkg/pipeline/recognizers"
	"github.com/athapong/docpipe/pkg/pipeline/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehend"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Storage reads and writes pipeline objects
type Storage interface {
	pipeline.ObjectStore
	pipeline.ObjectReader
}

// NewStorage returns the object store selected by cfg.
func NewStorage(cfg config.Config, logger *logrus.Logger) (Storage, error) {
	var awsCfg aws.Config
	if cfg.Store == config.StoreS3 {
		var err error
		awsCfg, err = DefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "loading aws config")
		}
	}
	return newStorage(cfg, awsCfg, logger), nil
}

func newStorage(cfg config.Config, awsCfg aws.Config, logger *logrus.Logger) Storage {
	if cfg.Store == config.StoreFS {
		return storage.NewFSStore(cfg.FSRoot)
	}
	return storage.NewS3Store(s3.NewFromConfig(awsCfg)).WithLogger(logger)
}

// NewPipeline wires the backends selected by cfg into a pipeline. Clients are
// built once here and injected; nothing is reconfigured afterwards.
func NewPipeline(cfg config.Config, logger *logrus.Logger) (*pipeline.Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	var awsCfg aws.Config
	if cfg.UsesAWS() {
		var err error
		awsCfg, err = DefaultAWSConfig()
		if err != nil {
			return nil, errors.Wrap(err, "loading aws config")
		}
	}

	store := newStorage(cfg, awsCfg, logger)

	var analyzer pipeline.DocumentAnalyzer
	switch cfg.Analyzer {
	case config.AnalyzerTextract:
		analyzer = analyzers.NewTextractAnalyzer(textract.NewFromConfig(awsCfg)).WithLogger(logger)
	case config.AnalyzerLocal:
		analyzer = analyzers.NewLocalAnalyzer(store).WithLogger(logger)
	}

	var detector pipeline.EntityDetector
	switch cfg.Recognizer {
	case config.RecognizerComprehend:
		detector = recognizers.NewComprehendDetector(comprehend.NewFromConfig(awsCfg)).WithLogger(logger)
	case config.RecognizerProse:
		detector = recognizers.NewProseDetector().WithLogger(logger)
	case config.RecognizerOpenAI:
		client, err := DefaultOpenAIClient()
		if err != nil {
			return nil, errors.Wrap(err, "creating openai client")
		}
		detector = recognizers.NewOpenAIDetector(client, cfg.OpenAIModel).WithLogger(logger)
	}

	logger.WithFields(logrus.Fields{
		"analyzer":   cfg.Analyzer,
		"recognizer": cfg.Recognizer,
		"store":      cfg.Store,
	}).Info("Pipeline configured")

	return pipeline.New(analyzer, detector, store,
		pipeline.WithLogger(logger),
		pipeline.WithLanguageCode(cfg.LanguageCode),
	), nil
}
