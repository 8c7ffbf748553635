// Package ledger holds what the webhook applier and the order lifecycle
// service share: the transaction scope over the order ledger and the
// reservation reconciler that keeps product stock in step with orders.
package ledger
