// Package notify holds the notification domain: persisted records,
// per-user delivery preferences, and the dispatcher that turns domain
// events into stored and delivered notifications.
//
// # Flow
//
// A business-logic collaborator hands the Dispatcher a domain Event.
// The dispatcher loads the user's Preference (defaults when none is
// stored), suppresses the event when its type toggle is off, and
// otherwise persists a Notification and publishes an Envelope to the
// event bus. Quiet hours only flag the envelope as muted so the client
// can skip the sound; they never suppress persistence or delivery.
//
// # Storage
//
// Storage is an interface with two implementations: MemoryStorage for
// development and tests, and PGStorage on pgx for production. A missing
// preference row is always answered with defaults, never an error.
//
// # Error policy
//
// Dispatch never blocks the business operation that raised the event:
// with the default ErrorPolicyLog, storage failures are logged and
// swallowed. ErrorPolicyPropagate is available for callers that want to
// handle them.
package notify
