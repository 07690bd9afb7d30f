// ABOUTME: Credential resolution for model providers
// ABOUTME: Injected into Transform so tests can supply fixed credentials

package compile

import "os"

// CredentialResolver supplies the fallback API key for a provider when
// a model node does not carry its own.
type CredentialResolver interface {
	Resolve(provider string) string
}

// EnvResolver resolves credentials from process environment variables.
type EnvResolver struct{}

func (EnvResolver) Resolve(provider string) string {
	switch provider {
	case ProviderAnthropic:
		return os.Getenv(SecretAnthropicKey)
	default:
		return os.Getenv(SecretOpenAIKey)
	}
}

// StaticResolver resolves credentials from a fixed provider->key map.
type StaticResolver map[string]string

func (r StaticResolver) Resolve(provider string) string {
	return r[provider]
}
