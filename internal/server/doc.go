// Package server exposes the deploy pipeline to the builder UI as a
// small JSON HTTP API.
//
// Error responses carry a machine-readable code alongside the message
// so the UI can distinguish outcomes that demand different copy:
// send_failed vs a timeout result, remote_deploy_failed vs
// local_persist_failed.
package server
