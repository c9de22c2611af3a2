// Package realtime carries entity snapshots between instances over Kafka and
// fans them out to in-process subscribers. Delivery is last-write-wins: a
// slow subscriber sees the newest snapshot, never a queue of stale ones.
package realtime

import (
	"encoding/json"
	"fmt"
	"strings"

	"storefront-service/internal/config"
)

const (
	EntityOrder    = "order"
	EntityProduct  = "product"
	EntityCategory = "category"
)

const (
	EventCreated   = "created"
	EventUpdated   = "updated"
	EventCancelled = "cancelled"
	EventDeleted   = "deleted"
)

type Event struct {
	Entity  string
	Type    string
	ID      string
	Payload json.RawMessage
}

// Key is the Kafka message key, e.g. "order.created.<id>".
func (e Event) Key() string {
	return fmt.Sprintf("%s.%s.%s", e.Entity, e.Type, e.ID)
}

// ParseKey splits a message key into entity, event type and id.
func ParseKey(key string) (entity, event, id string, err error) {
	parts := strings.SplitN(key, ".", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed event key %q", key)
	}
	return parts[0], parts[1], parts[2], nil
}

// TopicFor returns the Kafka topic that carries an entity's snapshots.
func TopicFor(entity string) (string, error) {
	switch entity {
	case EntityOrder:
		return config.OrderTopic, nil
	case EntityProduct:
		return config.ProductTopic, nil
	case EntityCategory:
		return config.CategoryTopic, nil
	}
	return "", fmt.Errorf("no topic for entity %q", entity)
}
