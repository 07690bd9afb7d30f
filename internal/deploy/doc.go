// Package deploy orchestrates agent deployment: validate the request,
// compile the configuration graph, create or update the agent on the
// remote runtime, and reconcile the result into the user's stored
// record.
//
// The failure contract is deliberately asymmetric. A remote failure
// (ErrRemoteDeploy) leaves no local state behind and is safe to retry.
// A local persist failure (ErrLocalPersist) means the runtime holds an
// agent the user's record doesn't reference; no automatic rollback of
// the remote create is attempted, because deleting a live agent over a
// local write hiccup would destroy data the user can still recover by
// retrying. Callers must keep the two outcomes distinguishable.
package deploy
