package openai

import (
	"github.com/NextMind-AI/marlie/dialog"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
)

// GenerateSchema creates a JSON schema for the given type T.
// It uses reflection to generate a strict schema that disallows additional properties
// and doesn't use references for better compatibility with OpenAI's API.
func GenerateSchema[T any]() any {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// ExtractionResponseSchema is the pre-generated JSON schema for dialog.Extraction.
var ExtractionResponseSchema = GenerateSchema[dialog.Extraction]()

func createSchemaParam() openai.ResponseFormatJSONSchemaJSONSchemaParam {
	return openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "message_extraction",
		Description: openai.String("Intent and booking fields read from a salon customer message"),
		Schema:      ExtractionResponseSchema,
		Strict:      openai.Bool(true),
	}
}
