// Package chat owns the conversation side of the pipeline: provisioning
// exactly one channel per (agent, user) pair and synchronizing on agent
// replies.
//
// Channel provisioning is a short state machine: cached room id wins
// immediately; otherwise start the agent (best-effort), create the
// channel (fatal on failure), bind the agent (best-effort), cache the
// room id (best-effort).
//
// Because the runtime cannot push messages to this caller, a reply is
// detected by polling the channel's message list with a fixed delay and
// a bounded attempt budget. Exhausting the budget is a soft outcome
// (AwaitResult.TimedOut) carrying whatever messages exist, so the UI
// can say "still thinking" instead of "failed".
package chat
