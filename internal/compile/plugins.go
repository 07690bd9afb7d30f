// ABOUTME: Tagged union over plugin node payloads keyed by service
// ABOUTME: Each known integration carries a static secret key/default table

package compile

// PluginConfig is the decoded payload of a plugin node. Transform
// matches on the concrete type rather than duck-typing field names.
type PluginConfig interface {
	// Plugin returns the runtime plugin identifier for this integration.
	// ok is false for unrecognized services, which contribute nothing to
	// the compiled definition.
	Plugin() (id string, ok bool)

	// Secrets returns the integration's settings as stringified secret
	// values, with static defaults substituted for absent keys.
	Secrets() map[string]string
}

// secretKey maps one node data field to a runtime secret name.
type secretKey struct {
	field string // key in the node's data payload
	name  string // secret name in the compiled definition
	def   string // default used when the field is absent
}

var twitterSecretKeys = []secretKey{
	{"username", "TWITTER_USERNAME", ""},
	{"password", "TWITTER_PASSWORD", ""},
	{"email", "TWITTER_EMAIL", ""},
	{"twoFactorSecret", "TWITTER_2FA_SECRET", ""},
	{"dryRun", "TWITTER_DRY_RUN", "false"},
	{"postImmediately", "POST_IMMEDIATELY", "false"},
	{"retryLimit", "TWITTER_RETRY_LIMIT", "5"},
	{"pollInterval", "TWITTER_POLL_INTERVAL", "120"},
}

var discordSecretKeys = []secretKey{
	{"applicationId", "DISCORD_APPLICATION_ID", ""},
	{"apiToken", "DISCORD_API_TOKEN", ""},
	{"voiceChannelId", "DISCORD_VOICE_CHANNEL_ID", ""},
}

// TwitterConfig is a plugin node configured for the twitter integration.
type TwitterConfig map[string]any

func (TwitterConfig) Plugin() (string, bool) { return PluginTwitter, true }

func (c TwitterConfig) Secrets() map[string]string { return applyTable(c, twitterSecretKeys) }

// DiscordConfig is a plugin node configured for the discord integration.
type DiscordConfig map[string]any

func (DiscordConfig) Plugin() (string, bool) { return PluginDiscord, true }

func (c DiscordConfig) Secrets() map[string]string { return applyTable(c, discordSecretKeys) }

// UnknownConfig is a plugin node whose service is not recognized. It is
// passed over silently: the builder may know services this compiler
// doesn't, and compilation must stay total.
type UnknownConfig map[string]any

func (UnknownConfig) Plugin() (string, bool) { return "", false }

func (UnknownConfig) Secrets() map[string]string { return nil }

// ParsePluginConfig decodes a plugin node payload by its service
// discriminator.
func ParsePluginConfig(data map[string]any) PluginConfig {
	switch stringify(data["service"]) {
	case "twitter":
		return TwitterConfig(data)
	case "discord":
		return DiscordConfig(data)
	default:
		return UnknownConfig(data)
	}
}

// applyTable copies the node's configuration block into secret form,
// stringifying every value and substituting defaults for absent keys.
func applyTable(data map[string]any, table []secretKey) map[string]string {
	secrets := make(map[string]string, len(table))
	for _, key := range table {
		v, present := data[key.field]
		if !present || v == nil {
			secrets[key.name] = key.def
			continue
		}
		secrets[key.name] = stringify(v)
	}
	return secrets
}
