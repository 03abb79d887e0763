// Package ai holds the OpenAI-backed translation service used for
// field-crew communication.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"
	"github.com/openai/openai-go/shared/constant"
)

// Translation is the structured result returned by the model.
type Translation struct {
	TranslatedText   string `json:"translated_text" jsonschema:"description=The text rendered in the target language"`
	SourceLanguage   string `json:"source_language" jsonschema:"description=Detected language of the input, as an English name"`
	TargetLanguage   string `json:"target_language" jsonschema:"description=The language the text was translated into"`
	ContainsJobTerms bool   `json:"contains_job_terms" jsonschema:"description=True when construction trade terms were kept untranslated"`
}

// Translator translates free text with the OpenAI Responses API.
type Translator struct {
	client *openai.Client
	model  string
}

// NewTranslator returns a Translator. An empty model uses gpt-4o-mini.
func NewTranslator(apiKey, model string) *Translator {
	if model == "" {
		model = "gpt-4o-mini"
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Translator{client: &client, model: model}
}

// Translate renders text in targetLanguage.
func (t *Translator) Translate(ctx context.Context, text, targetLanguage string) (*Translation, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("text is required")
	}

	prompt := fmt.Sprintf(`You translate messages between office staff and field crews at a construction company.
Translate the message below into %s.
Rules:
1. Keep numbers, dates, money amounts, document numbers (EST-, INV-, PO-, CO-, JO-, VB-) and addresses exactly as written.
2. Keep trade terms a crew would use untranslated when there is no common equivalent.
3. Do not add or drop information.

Message:
%s`, targetLanguage, text)

	schemaMap, err := translationSchema()
	if err != nil {
		return nil, err
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(t.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: param.NewOpt(prompt),
		},
		Text: responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{
				OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
					Type:        constant.JSONSchema("json_schema"),
					Name:        "translation",
					Strict:      param.NewOpt(true),
					Schema:      schemaMap,
					Description: param.NewOpt("A translation of a field-crew message"),
				},
			},
		},
	}

	resp, err := t.client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai responses error: %w", err)
	}

	content := resp.OutputText()
	if content == "" {
		return nil, fmt.Errorf("empty response content")
	}

	var out Translation
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse translation: %w", err)
	}
	if out.TargetLanguage == "" {
		out.TargetLanguage = targetLanguage
	}
	return &out, nil
}

// translationSchema reflects Translation into the map form the Responses API
// expects.
func translationSchema() (map[string]any, error) {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	schemaJSON, err := json.Marshal(reflector.Reflect(&Translation{}))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	var schemaMap map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaMap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schema to map: %w", err)
	}
	return schemaMap, nil
}
