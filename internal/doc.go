// Package internal documents the Calagora server internals.
//
// The internal tree is organized by responsibility:
// - api: HTTP handlers, middleware, problem responses, and routing
// - domain: business logic for users, events, and document ids
// - payload: the declarative request-body validator
// - storage: the document store contract and its Postgres backend
// - auth, audit, config, metrics: shared infrastructure
//
// Code in internal/ is not meant for external import.
package internal
