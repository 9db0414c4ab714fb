package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RepliesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_replies_total",
			Help: "Total number of replies generated, by intent and channel",
		},
		[]string{"intent", "channel"},
	)

	NamesExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_names_extracted_total",
			Help: "Total number of messages a self-introduced name was extracted from",
		},
	)

	ReplyDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_reply_duration_seconds",
			Help:    "Time spent handling a chat message, including stores",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"channel"},
	)

	WhatsAppMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_whatsapp_messages_sent_total",
			Help: "WhatsApp Graph API send attempts by outcome",
		},
		[]string{"status"},
	)
)

// IntentLabel maps an empty-input reply (no intent) to a stable label.
func IntentLabel(intent string) string {
	if intent == "" {
		return "empty"
	}
	return intent
}
