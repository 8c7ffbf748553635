// Package webhook holds the inbound platform event log: the WebhookEvent
// entity and its processing state machine, the retry policy, the topic
// vocabulary and the typed payload schemas events are decoded into.
package webhook
