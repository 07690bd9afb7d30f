// Package compile turns the visual builder's configuration graph into
// the canonical agent-definition document the agent runtime consumes.
//
// Transform is a pure function: it performs no I/O, depends on no global
// state (credentials come in through CredentialResolver), and is total -
// any graph, including an empty one, compiles to a valid definition by
// falling back to built-in defaults.
//
// Plugin node payloads are decoded into a tagged union (TwitterConfig,
// DiscordConfig, UnknownConfig) keyed by their service discriminator.
// Each known integration owns a static table mapping payload fields to
// secret names with fixed defaults.
package compile
