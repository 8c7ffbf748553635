package webhook

import "strings"

// Topic is the canonical name of a platform event kind
type Topic string

const (
	TopicOrderCreate       Topic = "order/create"
	TopicOrderUpdate       Topic = "order/update"
	TopicOrderCancel       Topic = "order/cancel"
	TopicFulfillmentUpdate Topic = "fulfillment/update"
)

// topicAliases maps the names the platform actually sends onto canonical topics.
var topicAliases = map[string]Topic{
	"order/create":        TopicOrderCreate,
	"orders/create":       TopicOrderCreate,
	"order/update":        TopicOrderUpdate,
	"orders/update":       TopicOrderUpdate,
	"orders/updated":      TopicOrderUpdate,
	"orders/edited":       TopicOrderUpdate,
	"orders/paid":         TopicOrderUpdate,
	"order/cancel":        TopicOrderCancel,
	"orders/cancel":       TopicOrderCancel,
	"orders/cancelled":    TopicOrderCancel,
	"fulfillment/update":  TopicFulfillmentUpdate,
	"fulfillment/create":  TopicFulfillmentUpdate,
	"fulfillments/create": TopicFulfillmentUpdate,
	"fulfillments/update": TopicFulfillmentUpdate,
}

// ParseTopic normalizes a delivered topic label. The second return value is
// false for topics this service does not know how to apply; the raw label is
// returned unchanged in that case so it can still be recorded.
func ParseTopic(raw string) (Topic, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if t, ok := topicAliases[key]; ok {
		return t, true
	}
	return Topic(key), false
}

// String returns the string representation of Topic
func (t Topic) String() string {
	return string(t)
}

// IsKnown reports whether t is one of the canonical topics
func (t Topic) IsKnown() bool {
	switch t {
	case TopicOrderCreate, TopicOrderUpdate, TopicOrderCancel, TopicFulfillmentUpdate:
		return true
	}
	return false
}

// IsOrderTopic reports whether the payload for t is a full order snapshot
func (t Topic) IsOrderTopic() bool {
	return t == TopicOrderCreate || t == TopicOrderUpdate || t == TopicOrderCancel
}
