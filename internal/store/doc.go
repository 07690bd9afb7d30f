// Package store provides persistent storage for deployed agents using
// MongoDB.
//
// # Architecture
//
// A single UserStore interface covers every operation the deploy
// pipeline needs. Two implementations exist:
//
//   - MongoStore: production store over a users collection
//   - MemoryStore: in-memory store for unit tests
//
// Users are documents keyed by wallet address; each user embeds its
// agent records in an array. Redeploys and room caching update one
// array element positionally (the agents.$ filter), deletes pull the
// element, and first deploys push a new one.
//
// # Error Handling
//
//   - ErrNotFound: user document does not exist
//   - ErrNoMatch: a mutation matched or modified zero documents
//
// ErrNoMatch matters to callers: a deploy that created a remote agent
// but got ErrNoMatch writing the record must surface "deployed but not
// linked" rather than plain failure.
package store
