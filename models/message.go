package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MessageIntent is the service category a user message is classified into.
type MessageIntent string

const (
	IntentPension   MessageIntent = "pension"
	IntentSamman    MessageIntent = "samman"
	IntentBanking   MessageIntent = "banking"
	IntentAadhaar   MessageIntent = "aadhaar"
	IntentPAN       MessageIntent = "pan"
	IntentPassport  MessageIntent = "passport"
	IntentPMSchemes MessageIntent = "pmSchemes"
	IntentBills     MessageIntent = "bills"
	IntentGeneric   MessageIntent = "generic"
)

// MessageChannel represents the communication channel
type MessageChannel string

const (
	ChannelWeb      MessageChannel = "web"
	ChannelWhatsApp MessageChannel = "whatsapp"
)

// MessageAuthor tells who wrote a history entry.
type MessageAuthor string

const (
	AuthorUser      MessageAuthor = "user"
	AuthorAssistant MessageAuthor = "assistant"
)

// Message is one entry of a session's conversation history.
type Message struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID    string             `bson:"session_id" json:"session_id"`
	Author       MessageAuthor      `bson:"author" json:"author"`
	Content      string             `bson:"content" json:"content"`
	Intent       MessageIntent      `bson:"intent,omitempty" json:"intent,omitempty"`
	ResolvedName string             `bson:"resolved_name,omitempty" json:"resolved_name,omitempty"`
	Channel      MessageChannel     `bson:"channel,omitempty" json:"channel,omitempty"`
	Timestamp    time.Time          `bson:"timestamp" json:"timestamp"`
	DisplayTime  string             `bson:"display_time" json:"display_time"`
}

type ChatRequest struct {
	Message   string         `json:"message"`
	SessionID string         `json:"session_id,omitempty"`
	Name      string         `json:"name,omitempty"`
	// Channel is set by the receiving handler, never by the client.
	Channel   MessageChannel `json:"-"`
}

type ChatResponse struct {
	SessionID   string        `json:"session_id"`
	Response    string        `json:"response"`
	Lines       []string      `json:"lines"`
	Intent      MessageIntent `json:"intent,omitempty"`
	Name        string        `json:"name,omitempty"`
	KnownName   string        `json:"known_name,omitempty"`
	Timestamp   time.Time     `json:"timestamp"`
	DisplayTime string        `json:"display_time"`
}

// ServiceHighlight is a landing-panel card describing a group of services.
type ServiceHighlight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type ExtractNameRequest struct {
	Text string `json:"text"`
}

type ExtractNameResponse struct {
	Name  string `json:"name"`
	Found bool   `json:"found"`
}
