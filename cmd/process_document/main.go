package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/athapong/docpipe/pkg/config"
	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/athapong/docpipe/services"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/sirupsen/logrus"
)

var (
	envFile     = flag.String("env", ".env", "Path to environment file")
	eventFile   = flag.String("event", "", "Path to an S3 notification event (JSON)")
	bucket      = flag.String("bucket", "", "Bucket of a single document to process (used when -event is empty)")
	key         = flag.String("key", "", "Object key of a single document to process")
	logLevel    = flag.String("log-level", "", "Logging level (debug, info, warn, error); overrides DOCPIPE_LOG_LEVEL")
	pushgateway = flag.String("pushgateway", "", "Prometheus Pushgateway URL to push metrics to after the run")
	printResult = flag.Bool("print-result", false, "Print the extracted key/value pairs of each persisted result")
)

func main() {
	flag.Parse()

	// Configure logging
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	logger.SetOutput(os.Stderr)

	config.LoadEnvFile(*envFile, logger)
	cfg := config.Load()
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)

	raw, err := readEvent()
	if err != nil {
		logger.Fatalf("Failed to read event: %v", err)
	}

	p, err := services.NewPipeline(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to build pipeline: %v", err)
	}

	ctx := pipeline.ContextWithInvocationID(context.Background(), uuid.New().String())
	resp, _ := p.HandleEvent(ctx, raw)

	if *pushgateway != "" {
		if err := push.New(*pushgateway, "docpipe").Gatherer(prometheus.DefaultGatherer).Push(); err != nil {
			logger.Errorf("Failed to push metrics: %v", err)
		}
	}

	out, _ := json.MarshalIndent(resp, "", "  ")
	fmt.Println(string(out))

	if resp.StatusCode != 200 {
		os.Exit(1)
	}

	if *printResult {
		if err := printResults(ctx, cfg, p, raw, logger); err != nil {
			logger.Fatalf("Failed to print results: %v", err)
		}
	}
}

// readEvent loads the event file, or builds a one-record event from -bucket/-key
func readEvent() ([]byte, error) {
	if *eventFile != "" {
		return os.ReadFile(*eventFile)
	}
	if *bucket == "" || *key == "" {
		return nil, fmt.Errorf("either -event or both -bucket and -key must be specified")
	}

	event := map[string]interface{}{
		"Records": []interface{}{
			map[string]interface{}{
				"s3": map[string]interface{}{
					"bucket": map[string]interface{}{"name": *bucket},
					"object": map[string]interface{}{"key": url.QueryEscape(*key)},
				},
			},
		},
	}
	return json.Marshal(event)
}

func printResults(ctx context.Context, cfg config.Config, p *pipeline.Pipeline, raw []byte, logger *logrus.Logger) error {
	store, err := services.NewStorage(cfg, logger)
	if err != nil {
		return err
	}
	refs, err := pipeline.DecodeEvent(raw)
	if err != nil {
		return err
	}

	for _, ref := range refs {
		resultKey, err := p.ResultKey(ref)
		if err != nil {
			return err
		}
		data, err := store.GetObject(ctx, ref.Bucket, resultKey)
		if err != nil {
			return err
		}
		env, err := pipeline.DecodeEnvelope(data)
		if err != nil {
			return err
		}

		fmt.Printf("s3://%s/%s (%d entities)\n", ref.Bucket, resultKey, len(env.ComprehendEntities))
		for _, pair := range env.TextractData.Pairs() {
			fmt.Printf("  %s: %s\n", pair.Key, pair.Value)
		}
	}
	return nil
}
