// ABOUTME: Canonical agent-definition document sent to the agent runtime
// ABOUTME: Field names and shapes match the runtime's character format

package compile

// Plugin identifiers understood by the agent runtime. Order matters in
// the compiled definition: sql always first, bootstrap always last.
const (
	PluginSQL       = "@elizaos/plugin-sql"
	PluginOpenAI    = "@elizaos/plugin-openai"
	PluginAnthropic = "@elizaos/plugin-anthropic"
	PluginTwitter   = "@elizaos/plugin-twitter"
	PluginDiscord   = "@elizaos/plugin-discord"
	PluginBootstrap = "@elizaos/plugin-bootstrap"
)

// Model providers selectable in the builder.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Secret names for provider credentials.
const (
	SecretOpenAIKey    = "OPENAI_API_KEY"
	SecretAnthropicKey = "ANTHROPIC_API_KEY"
)

// AgentDefinition is the compiled character document. The runtime only
// accepts string-valued settings, so every secret is stringified.
type AgentDefinition struct {
	Name            string   `json:"name"`
	Plugins         []string `json:"plugins"`
	Settings        Settings `json:"settings"`
	System          string   `json:"system"`
	Bio             []string `json:"bio"`
	MessageExamples [][]Turn `json:"messageExamples"`
	PostExamples    []string `json:"postExamples"`
	Adjectives      []string `json:"adjectives"`
	Topics          []string `json:"topics"`
	Style           Style    `json:"style"`
}

// Settings holds runtime configuration for the agent.
type Settings struct {
	Secrets map[string]string `json:"secrets"`
	Voice   *VoiceSettings    `json:"voice,omitempty"`
}

// VoiceSettings selects a text-to-speech model.
type VoiceSettings struct {
	Model string `json:"model"`
}

// Turn is one utterance in a message example transcript.
type Turn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Style holds the three style instruction lists.
type Style struct {
	All  []string `json:"all"`
	Chat []string `json:"chat"`
	Post []string `json:"post"`
}
