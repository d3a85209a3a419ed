package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"

	"github.com/athapong/docpipe/pkg/config"
	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/athapong/docpipe/services"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/sirupsen/logrus"
)

func main() {
	envFile := flag.String("env", ".env", "Path to environment file")
	flag.Parse()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	config.LoadEnvFile(*envFile, logger)
	cfg := config.Load()

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Fatalf("Invalid log level: %v", err)
	}
	logger.SetLevel(level)

	p, err := services.NewPipeline(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to build pipeline")
	}

	lambda.Start(func(ctx context.Context, event json.RawMessage) (pipeline.Response, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			ctx = pipeline.ContextWithInvocationID(ctx, lc.AwsRequestID)
		}
		return p.HandleEvent(ctx, event)
	})
}
