// Package subscription reconciles VIP subscriptions with the payment gateway.
//
// A subscription row moves through pending, active, expired and cancelled.
// Every change goes through the Lifecycle, which looks the move up in a
// statemachine.Table, applies the time arithmetic for the plan and writes the
// new row with a compare-and-set on (status, updated_at). A writer that loses
// the race re-reads the row and decides again.
//
// Three components drive the lifecycle:
//
//   - Ingestor turns signed gateway webhooks into activations, renewals and
//     cancellations. Replays of the same transaction are acknowledged without
//     touching state.
//   - AdminService applies manual operator actions such as activation, grants,
//     extensions, linking and cancellation.
//   - Sweeper runs daily. It warns subscribers a few days before expiry,
//     expires overdue rows and links rows whose payer has registered since.
//
// The Catalog maps whatever plan identifier arrives (canonical id, gateway
// plan code, paid amount, free-form label) to a plan duration. It never fails.
// Unrecognised identifiers fall back to the shortest plan.
//
// Subscriptions are keyed by the payment email, which may not belong to a
// registered user yet. The IdentityResolver links a row to a profile whenever
// a writer touches it and the payer has since signed up.
package subscription
