package config

import (
	"fmt"
	"os"
	"slices"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Backend names
const (
	AnalyzerTextract = "textract"
	AnalyzerLocal    = "local"

	RecognizerComprehend = "comprehend"
	RecognizerProse      = "prose"
	RecognizerOpenAI     = "openai"

	StoreS3 = "s3"
	StoreFS = "fs"
)

// Config selects the pipeline backends and their settings
type Config struct {
	Analyzer     string // DOCPIPE_ANALYZER: textract, local
	Recognizer   string // DOCPIPE_RECOGNIZER: comprehend, prose, openai
	Store        string // DOCPIPE_STORE: s3, fs
	FSRoot       string // DOCPIPE_FS_ROOT: root directory of the fs store
	LanguageCode string // DOCPIPE_LANGUAGE_CODE
	LogLevel     string // DOCPIPE_LOG_LEVEL
	OpenAIModel  string // OPENAI_MODEL
}

// Default returns the AWS backed configuration
func Default() Config {
	return Config{
		Analyzer:     AnalyzerTextract,
		Recognizer:   RecognizerComprehend,
		Store:        StoreS3,
		FSRoot:       "data",
		LanguageCode: "en",
		LogLevel:     "info",
	}
}

// LoadEnvFile loads variables from an env file. A missing file is not an
// error; the process environment is used as is.
func LoadEnvFile(path string, logger *logrus.Logger) {
	if path == "" {
		return
	}
	if err := godotenv.Load(path); err != nil {
		logger.WithError(err).WithField("env_file", path).Warn("Env file not loaded")
	}
}

// Load reads the configuration from the environment on top of Default
func Load() Config {
	cfg := Default()

	if v := os.Getenv("DOCPIPE_ANALYZER"); v != "" {
		cfg.Analyzer = v
	}
	if v := os.Getenv("DOCPIPE_RECOGNIZER"); v != "" {
		cfg.Recognizer = v
	}
	if v := os.Getenv("DOCPIPE_STORE"); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv("DOCPIPE_FS_ROOT"); v != "" {
		cfg.FSRoot = v
	}
	if v := os.Getenv("DOCPIPE_LANGUAGE_CODE"); v != "" {
		cfg.LanguageCode = v
	}
	if v := os.Getenv("DOCPIPE_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("OPENAI_MODEL"); v != "" {
		cfg.OpenAIModel = v
	}
	return cfg
}

// Validate rejects unknown backend names and bad log levels
func (c Config) Validate() error {
	if !slices.Contains([]string{AnalyzerTextract, AnalyzerLocal}, c.Analyzer) {
		return fmt.Errorf("unknown analyzer: %s", c.Analyzer)
	}
	if !slices.Contains([]string{RecognizerComprehend, RecognizerProse, RecognizerOpenAI}, c.Recognizer) {
		return fmt.Errorf("unknown recognizer: %s", c.Recognizer)
	}
	if !slices.Contains([]string{StoreS3, StoreFS}, c.Store) {
		return fmt.Errorf("unknown store: %s", c.Store)
	}
	if c.Store == StoreFS && c.FSRoot == "" {
		return fmt.Errorf("fs store requires DOCPIPE_FS_ROOT")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level: %v", err)
	}
	return nil
}

// UsesAWS reports whether any selected backend needs AWS credentials
func (c Config) UsesAWS() bool {
	return c.Analyzer == AnalyzerTextract || c.Recognizer == RecognizerComprehend || c.Store == StoreS3
}
