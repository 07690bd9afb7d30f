// ABOUTME: Transform compiles a builder graph into an agent definition
// ABOUTME: Pure and total - malformed input falls back to documented defaults

package compile

import (
	"encoding/json"
	"fmt"
	"maps"
	"strconv"
)

// Transform compiles a configuration graph into the canonical agent
// definition. It is pure and deterministic: no I/O, no clock, no
// randomness, and it never fails - absent or malformed fields fall back
// to built-in defaults.
//
// Known quirk, preserved on purpose: the openai plugin and the
// OPENAI_API_KEY secret are always emitted, even when the anthropic
// provider is selected. The runtime has always received both and
// changing it is a product decision, not a compiler one.
func Transform(graph Graph, creds CredentialResolver) AgentDefinition {
	nodes := classify(graph)

	secrets := make(map[string]string)
	plugins := []string{PluginSQL}

	provider := ProviderOpenAI
	if nodes.model != nil {
		if p := stringify(nodes.model.Data["provider"]); p != "" {
			provider = p
		}
	}
	if provider == ProviderAnthropic {
		plugins = append(plugins, PluginAnthropic)
	}
	plugins = append(plugins, PluginOpenAI)

	for _, node := range nodes.plugins {
		cfg := ParsePluginConfig(node.Data)
		id, ok := cfg.Plugin()
		if !ok {
			continue
		}
		plugins = append(plugins, id)
		maps.Copy(secrets, cfg.Secrets())
	}
	plugins = append(plugins, PluginBootstrap)

	resolveCredentials(nodes.model, provider, creds, secrets)

	def := AgentDefinition{
		Plugins:  plugins,
		Settings: Settings{Secrets: secrets},
	}
	if nodes.voice != nil {
		if model := stringify(nodes.voice.Data["model"]); model != "" {
			def.Settings.Voice = &VoiceSettings{Model: model}
		}
	}
	applyPersona(&def, nodes.character)

	return def
}

// resolveCredentials fills provider API keys into secrets. The model
// node's explicit key wins; otherwise the resolver's process-wide
// default is used. OPENAI_API_KEY is set unconditionally (see the quirk
// note on Transform).
func resolveCredentials(model *Node, provider string, creds CredentialResolver, secrets map[string]string) {
	explicit := ""
	if model != nil {
		explicit = stringify(model.Data["apiKey"])
	}

	key := explicit
	if key == "" {
		key = creds.Resolve(provider)
	}
	switch provider {
	case ProviderAnthropic:
		secrets[SecretAnthropicKey] = key
	default:
		secrets[SecretOpenAIKey] = key
	}

	if _, ok := secrets[SecretOpenAIKey]; !ok {
		secrets[SecretOpenAIKey] = creds.Resolve(ProviderOpenAI)
	}
}

// applyPersona populates the persona fields from the character node,
// falling back field by field to the built-in default persona. Array
// fields are type-guarded: a bio that isn't a string list is treated as
// absent, not an error.
func applyPersona(def *AgentDefinition, character *Node) {
	def.Name = defaultAgentName
	def.System = defaultSystem
	def.Bio = defaultBio()
	def.MessageExamples = defaultMessageExamples()
	def.PostExamples = defaultPostExamples()
	def.Adjectives = defaultAdjectives()
	def.Topics = defaultTopics()
	def.Style = defaultStyle()

	if character == nil {
		return
	}
	data := character.Data

	if name := stringify(data["name"]); name != "" {
		def.Name = name
	}
	if system := stringify(data["system"]); system != "" {
		def.System = system
	}
	if bio, ok := toStringSlice(data["bio"]); ok {
		def.Bio = bio
	}
	if examples, ok := toTranscripts(data["messageExamples"]); ok {
		def.MessageExamples = examples
	}
	if posts, ok := toStringSlice(data["postExamples"]); ok {
		def.PostExamples = posts
	}
	if adjectives, ok := toStringSlice(data["adjectives"]); ok {
		def.Adjectives = adjectives
	}
	if topics, ok := toStringSlice(data["topics"]); ok {
		def.Topics = topics
	}
	if styleData, ok := data["style"].(map[string]any); ok {
		style := defaultStyle()
		if all, ok := toStringSlice(styleData["all"]); ok {
			style.All = all
		}
		if chat, ok := toStringSlice(styleData["chat"]); ok {
			style.Chat = chat
		}
		if post, ok := toStringSlice(styleData["post"]); ok {
			style.Post = post
		}
		def.Style = style
	}
}

// stringify coerces a free-form payload value to its string form. The
// runtime only accepts string-valued settings, so booleans and numbers
// are rendered rather than rejected.
func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// toStringSlice is the array-type guard for persona list fields.
func toStringSlice(v any) ([]string, bool) {
	switch val := v.(type) {
	case []string:
		out := make([]string, len(val))
		copy(out, val)
		return out, true
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// toTranscripts decodes message example transcripts: a list of
// conversations, each a list of {speaker, text} turns.
func toTranscripts(v any) ([][]Turn, bool) {
	raw, ok := v.([]any)
	if !ok {
		return nil, false
	}
	transcripts := make([][]Turn, 0, len(raw))
	for _, conv := range raw {
		rawTurns, ok := conv.([]any)
		if !ok {
			return nil, false
		}
		turns := make([]Turn, 0, len(rawTurns))
		for _, rt := range rawTurns {
			m, ok := rt.(map[string]any)
			if !ok {
				return nil, false
			}
			turns = append(turns, Turn{
				Speaker: stringify(m["speaker"]),
				Text:    stringify(m["text"]),
			})
		}
		transcripts = append(transcripts, turns)
	}
	return transcripts, true
}
