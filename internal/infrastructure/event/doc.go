// Package event delivers outbox notifications. Order changes append
// OutboxEntry rows in the same transaction as the change; the
// OutboxProcessor claims due rows and hands them to a Publisher (Kafka when
// brokers are configured, the application log otherwise).
package event
