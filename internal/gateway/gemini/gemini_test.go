package gemini

import (
	"testing"

	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"github.com/zjrosen/stupidea/internal/gateway"
)

func TestBuildConfig_JSONRequest(t *testing.T) {
	cfg := buildConfig(gateway.Request{
		Model:      "gemini-2.5-flash",
		System:     "be precise",
		Prompt:     "Input: {}",
		NoThinking: true,
		Schema: &gateway.Schema{
			Type: gateway.TypeObject,
			Properties: map[string]*gateway.Schema{
				"lines": {Type: gateway.TypeArray, Items: &gateway.Schema{Type: gateway.TypeString, Enum: []string{"pink", "sky"}}},
			},
		},
	})

	require.Equal(t, "application/json", cfg.ResponseMIMEType)
	require.Equal(t, genai.TypeObject, cfg.ResponseSchema.Type)
	lines := cfg.ResponseSchema.Properties["lines"]
	require.Equal(t, genai.TypeArray, lines.Type)
	require.Equal(t, []string{"pink", "sky"}, lines.Items.Enum)
	require.NotNil(t, cfg.ThinkingConfig)
	require.Equal(t, int32(0), *cfg.ThinkingConfig.ThinkingBudget)
	require.Equal(t, "be precise", cfg.SystemInstruction.Parts[0].Text)
}

func TestBuildConfig_PlainText(t *testing.T) {
	cfg := buildConfig(gateway.Request{Model: "gemini-2.5-pro", Prompt: "StupiD Code:"})

	require.Empty(t, cfg.ResponseMIMEType)
	require.Nil(t, cfg.ResponseSchema)
	require.Nil(t, cfg.ThinkingConfig)
	require.Nil(t, cfg.SystemInstruction)
}

func TestSchemaType_Unknown(t *testing.T) {
	require.Equal(t, genai.TypeUnspecified, schemaType("tuple"))
	require.Nil(t, toSchema(nil))
}
