package services

import (
	"strings"

	"vikas-assistant-backend/models"
	"vikas-assistant-backend/utils"
)

// Reply is the outcome of one engine call.
type Reply struct {
	Text   string
	Intent models.MessageIntent
	// Empty is set when the input was blank and classification was skipped.
	Empty bool
}

// ReplyEngine turns a message plus the caller's known name into a reply.
// It holds no mutable state and is safe for concurrent use.
type ReplyEngine struct {
	classifier *utils.IntentClassifier
}

func NewReplyEngine() *ReplyEngine {
	return &ReplyEngine{classifier: utils.NewIntentClassifier()}
}

// GenerateReply returns the reply text for rawInput.
func (e *ReplyEngine) GenerateReply(rawInput, knownName string) string {
	return e.Analyze(rawInput, knownName).Text
}

// Analyze is GenerateReply plus the intent that produced the text.
func (e *ReplyEngine) Analyze(rawInput, knownName string) Reply {
	name := strings.TrimSpace(knownName)

	if strings.TrimSpace(rawInput) == "" {
		return Reply{Text: ComposeEmptyPrompt(name), Empty: true}
	}

	intent := e.classifier.ClassifyIntent(utils.Normalize(rawInput))
	return Reply{Text: Compose(intent, name), Intent: intent}
}

// Classifier exposes the engine's keyword classifier.
func (e *ReplyEngine) Classifier() *utils.IntentClassifier {
	return e.classifier
}
