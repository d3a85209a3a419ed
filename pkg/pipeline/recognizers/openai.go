package recognizers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/athapong/docpipe/pkg/pipeline"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// DefaultOpenAIModel is used when no model is configured
const DefaultOpenAIModel = openai.GPT4oMini

const entityPrompt = `You are a named entity recognizer. Find the entities in the user's text, written in language %q.
Use only these types: PERSON, LOCATION, ORGANIZATION, COMMERCIAL_ITEM, EVENT, DATE, QUANTITY, TITLE, OTHER.
Reply with a JSON object {"entities": [...]} where each item has "Score" (0-1), "Type", "Text",
"BeginOffset" and "EndOffset" (character offsets into the text). Keep items in text order.`

// ChatCompletionAPI is the part of the OpenAI client used here
type ChatCompletionAPI interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIDetector detects entities by asking a chat model for JSON output
type OpenAIDetector struct {
	client ChatCompletionAPI
	model  string
	logger *logrus.Logger
}

// NewOpenAIDetector creates an LLM backed detector
func NewOpenAIDetector(client ChatCompletionAPI, model string) *OpenAIDetector {
	if model == "" {
		model = DefaultOpenAIModel
	}
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	return &OpenAIDetector{client: client, model: model, logger: logger}
}

// WithLogger replaces the default JSON logger
func (d *OpenAIDetector) WithLogger(logger *logrus.Logger) *OpenAIDetector {
	d.logger = logger
	return d
}

// DetectEntities implements pipeline.EntityDetector
func (d *OpenAIDetector) DetectEntities(ctx context.Context, text, languageCode string) ([]pipeline.EntityRecord, error) {
	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: d.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: fmt.Sprintf(entityPrompt, languageCode)},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in chat completion response")
	}

	records, err := parseEntities(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	d.logger.WithFields(logrus.Fields{
		"model":        d.model,
		"entity_count": len(records),
	}).Debug("OpenAI detection completed")
	return records, nil
}

// parseEntities reads the "entities" array of a model reply. Each item is
// kept verbatim as the record's raw representation.
func parseEntities(content string) ([]pipeline.EntityRecord, error) {
	if !gjson.Valid(content) {
		return nil, errors.New("model reply is not valid JSON")
	}
	entities := gjson.Get(content, "entities")
	if !entities.IsArray() {
		return nil, errors.New("model reply has no entities array")
	}

	items := entities.Array()
	records := make([]pipeline.EntityRecord, 0, len(items))
	for _, item := range items {
		if !item.IsObject() {
			continue
		}
		records = append(records, pipeline.EntityRecord{
			Text:  item.Get("Text").String(),
			Type:  item.Get("Type").String(),
			Score: item.Get("Score").Float(),
			Raw:   json.RawMessage(item.Raw),
		})
	}
	return records, nil
}
