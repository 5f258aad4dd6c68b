package broadcast

import (
	"time"

	"github.com/Skotchmaster/orbitdine/internal/models"
)

type Kind string

const (
	KindOrderCreated        Kind = "order_created"
	KindOrderStatusChanged  Kind = "order_status_changed"
	KindTableServiceRequest Kind = "table_service_request"
)

var wireNames = map[Kind]string{
	KindOrderCreated:        "new_order",
	KindOrderStatusChanged:  "order_updated",
	KindTableServiceRequest: "table_request",
}

// WireName is the event name clients listen for.
func (k Kind) WireName() string {
	if n, ok := wireNames[k]; ok {
		return n
	}
	return string(k)
}

type Event struct {
	Kind    Kind
	TableID uint
	Payload any
	At      time.Time
}

// Message is the JSON frame written to websocket clients and the mirror.
type Message struct {
	Event string    `json:"event"`
	Data  any       `json:"data"`
	At    time.Time `json:"at"`
}

func (e Event) Message() Message {
	return Message{Event: e.Kind.WireName(), Data: e.Payload, At: e.At}
}

type StatusPayload struct {
	ID      uint               `json:"id"`
	TableID uint               `json:"tableId"`
	Status  models.OrderStatus `json:"status"`
}

type TableRequestPayload struct {
	TableID uint   `json:"tableId"`
	Type    string `json:"type"`
}
