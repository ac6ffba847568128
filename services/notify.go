package services

import (
	"context"
	"encoding/json"
	"log"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const maxNotifyMessage = 100

var notificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "blog_notifications_total",
		Help: "Total number of notifications by event and delivery route",
	},
	[]string{"event", "route"},
)

// Notifier доставляет события через RabbitMQ, а при его недоступности - напрямую в WebSocket
type Notifier struct {
	bus *EventBus
	ws  *WSConnManager
}

func NewNotifier(bus *EventBus, ws *WSConnManager) *Notifier {
	if ws == nil {
		ws = NewWSConnManager()
	}
	return &Notifier{bus: bus, ws: ws}
}

func (n *Notifier) Connections() *WSConnManager {
	if n == nil {
		return nil
	}
	return n.ws
}

// Notify не возвращает ошибку: уведомления не должны ломать основную операцию
func (n *Notifier) Notify(ctx context.Context, event Event) {
	if n == nil || event.Recipient == "" || event.Recipient == event.Actor {
		return
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	event.Message = truncateMessage(event.Message, maxNotifyMessage)

	err := n.bus.Publish(ctx, event)
	if err == nil {
		notificationsTotal.WithLabelValues(event.Event, "rabbitmq").Inc()
		return
	}

	log.Printf("DEBUG: RabbitMQ error, using WebSocket fallback for %s: %v", event.Recipient, err)
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("ERROR: Failed to marshal notification: %v", err)
		return
	}
	n.ws.Send(event.Recipient, data)
	notificationsTotal.WithLabelValues(event.Event, "websocket").Inc()
}

// truncateMessage обрезает s до limit байт, не разрывая UTF-8 последовательность
func truncateMessage(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
