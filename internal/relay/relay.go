// Package relay forwards broadcast events to message brokers. Each relay is
// registered with the broadcast hub as an ordinary observer.
package relay

import (
	"encoding/json"
	"strings"
)

// eventName pulls the event field out of an encoded broadcast message.
func eventName(msg []byte) string {
	var head struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(msg, &head); err != nil {
		return ""
	}
	return head.Event
}

// routingKey maps ORDER_READY_FOR_PICKUP to orders.ready_for_pickup.
func routingKey(event string) string {
	name := strings.TrimPrefix(strings.ToLower(event), "order_")
	if name == "" {
		name = "unknown"
	}
	return "orders." + name
}
