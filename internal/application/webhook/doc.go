// Package webhook receives platform webhooks and reconciles them into the
// order ledger.
//
// A delivery is authenticated by SignatureVerifier and recorded by
// IngestionService; the durable record is the acknowledgement. Applier then
// projects each event onto orders and stock in a single transaction, and
// Processor retries events that failed transiently until the retry ceiling
// is reached. QueueService gives operators a view of the backlog and lets
// them requeue exhausted events.
package webhook
