package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/config"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/internalerr"
)

type companyAnswer struct {
	CompanyName string  `json:"company_name" jsonschema_description:"Canonical display name of the company, e.g. Bank of America"`
	Confidence  float64 `json:"confidence" jsonschema:"minimum=0,maximum=1" jsonschema_description:"Classification confidence from 0 to 1"`
}

func generateSchema[T any]() interface{} {
	// Structured Outputs uses a subset of JSON schema; these flags
	// keep the reflected schema inside that subset.
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

var companyAnswerSchema = generateSchema[companyAnswer]()

var schemaParam = openai.ResponseFormatJSONSchemaJSONSchemaParam{
	Name:        "company_classification",
	Description: openai.String("Company identified from an advertising keyword"),
	Schema:      companyAnswerSchema,
	Strict:      openai.Bool(true),
}

const systemPrompt = "You identify the company an advertising keyword refers to. " +
	"Answer with the canonical company display name only. " +
	"If no specific company is recognizable, use an empty company_name and confidence 0."

// OpenAI classifies labels with one chat completion per call.
type OpenAI struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	floor   float64
	log     *slog.Logger
}

// NewOpenAI builds a classifier from configuration. With no API key
// available the classifier is constructed but every Classify call
// fails fast with internalerr.ErrNotConfigured.
func NewOpenAI(cfg config.Classifier, log *slog.Logger, opts ...option.RequestOption) *OpenAI {
	if log == nil {
		log = slog.Default()
	}

	o := &OpenAI{
		model:   cfg.Model,
		timeout: cfg.Timeout(),
		floor:   cfg.ConfidenceFloor,
		log:     log,
	}

	key := cfg.Key()
	if key == "" {
		return o
	}

	all := append([]option.RequestOption{option.WithAPIKey(key)}, opts...)
	cl := openai.NewClient(all...)
	o.client = &cl
	return o
}

// Classify issues one structured-output chat completion for the label.
func (o *OpenAI) Classify(ctx context.Context, label string) (string, error) {
	if o.client == nil {
		return "", internalerr.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	user := fmt.Sprintf("Keyword: %s", label)

	chat, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: schemaParam,
			},
		},
		Model: openai.ChatModel(o.model),
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices")
	}

	var answer companyAnswer
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &answer); err != nil {
		return "", fmt.Errorf("unmarshal model output: %w", err)
	}

	name, err := ExtractName(answer.CompanyName)
	if err != nil {
		return "", err
	}
	if answer.Confidence < o.floor {
		o.log.Debug("answer below confidence floor",
			"label", label, "name", name, "confidence", answer.Confidence)
		return "", fmt.Errorf("%w: confidence %.2f below floor", internalerr.ErrUnrecognized, answer.Confidence)
	}

	return name, nil
}
