// Package runtime wraps the external agent-runtime service's REST API:
// agent CRUD and lifecycle, channel creation, agent-to-channel binding,
// and central-channel messaging.
//
// The runtime exposes no push channel to this caller, so replies are
// observed by re-listing a channel's messages (see internal/chat for
// the polling contract). Every call goes through internal/transport and
// inherits its retry and classification policy.
package runtime
