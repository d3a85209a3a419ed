package services

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/docpipe/pkg/config"
	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/athapong/docpipe/pkg/pipeline/storage"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const invoiceForm = `<html><body>
<h1>Invoice</h1>
<dl>
  <dt>Invoice Number</dt><dd>12345</dd>
  <dt>Vendor</dt><dd>Acme Corp</dd>
</dl>
<table>
  <tr><th>Total:</th><td>$10.00</td></tr>
</table>
</body></html>`

func offlineConfig(t *testing.T) config.Config {
	cfg := config.Default()
	cfg.Analyzer = config.AnalyzerLocal
	cfg.Recognizer = config.RecognizerProse
	cfg.Store = config.StoreFS
	cfg.FSRoot = t.TempDir()
	return cfg
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestNewPipeline_OfflineBackends(t *testing.T) {
	cfg := offlineConfig(t)
	src := filepath.Join(cfg.FSRoot, "docs", "forms", "inv.html")
	require.NoError(t, os.MkdirAll(filepath.Dir(src), 0755))
	require.NoError(t, os.WriteFile(src, []byte(invoiceForm), 0644))

	p, err := NewPipeline(cfg, quietLogger())
	require.NoError(t, err)

	event := `{"Records":[{"s3":{"bucket":{"name":"docs"},"object":{"key":"forms/inv.html"}}}]}`
	resp, err := p.HandleEvent(context.Background(), json.RawMessage(event))

	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode, resp.Body)

	data, err := os.ReadFile(filepath.Join(cfg.FSRoot, "docs", "forms", "inv_results.json"))
	require.NoError(t, err)
	env, err := pipeline.DecodeEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, []pipeline.Pair{
		{Key: "Invoice Number", Value: "12345"},
		{Key: "Vendor", Value: "Acme Corp"},
		{Key: "Total", Value: "$10.00"},
	}, env.TextractData.Pairs())

	var total *pipeline.EntityRecord
	for i := range env.ComprehendEntities {
		if env.ComprehendEntities[i].Text == "$10.00" {
			total = &env.ComprehendEntities[i]
		}
	}
	require.NotNil(t, total, "currency entity expected in %s", data)
	assert.Equal(t, "QUANTITY", total.Type)
}

func TestNewPipeline_MissingDocument(t *testing.T) {
	p, err := NewPipeline(offlineConfig(t), quietLogger())
	require.NoError(t, err)

	event := `{"Records":[{"s3":{"bucket":{"name":"docs"},"object":{"key":"missing.pdf"}}}]}`
	resp, _ := p.HandleEvent(context.Background(), json.RawMessage(event))

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, resp.Body, "analysis failure")
}

func TestNewPipeline_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown analyzer", func(c *config.Config) { c.Analyzer = "tesseract" }},
		{"unknown recognizer", func(c *config.Config) { c.Recognizer = "spacy" }},
		{"unknown store", func(c *config.Config) { c.Store = "gcs" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := offlineConfig(t)
			tt.mutate(&cfg)

			p, err := NewPipeline(cfg, quietLogger())

			assert.ErrorContains(t, err, "invalid configuration")
			assert.Nil(t, p)
		})
	}
}

func TestOfflineConfig_SkipsAWS(t *testing.T) {
	cfg := offlineConfig(t)

	assert.False(t, cfg.UsesAWS())

	store, err := NewStorage(cfg, quietLogger())
	require.NoError(t, err)
	assert.IsType(t, &storage.FSStore{}, store)
}
