package utils

import (
	"strings"

	"vikas-assistant-backend/models"
)

// IntentKeywords pairs an intent with the substrings that trigger it.
type IntentKeywords struct {
	Intent   models.MessageIntent `json:"intent"`
	Keywords []string             `json:"keywords"`
}

// keywordTable is ordered by match priority: the first intent with a hit wins.
var keywordTable = []IntentKeywords{
	{models.IntentPension, []string{"pension", "life certificate", "dlc", "jeevan pramaan", "sparsh"}},
	{models.IntentSamman, []string{"samman", "sambhal"}},
	{models.IntentBanking, []string{"bank", "account", "withdraw", "deposit", "bc", "loan"}},
	{models.IntentAadhaar, []string{"aadhaar", "aadhar"}},
	{models.IntentPAN, []string{"pan", "p.a.n"}},
	{models.IntentPassport, []string{"passport"}},
	{models.IntentPMSchemes, []string{"pm", "pradhan mantri", "yojana", "scheme", "mudra", "kisan"}},
	{models.IntentBills, []string{"bill", "bijli", "electricity", "gas", "water", "recharge"}},
}

type IntentClassifier struct {
	patterns []IntentKeywords
}

func NewIntentClassifier() *IntentClassifier {
	return &IntentClassifier{patterns: keywordTable}
}

// ClassifyIntent expects text that is already trimmed and lowercased.
// Matching is plain substring containment, so "pan" also hits "japan".
func (ic *IntentClassifier) ClassifyIntent(normalized string) models.MessageIntent {
	for _, entry := range ic.patterns {
		if containsAnyKeyword(normalized, entry.Keywords) {
			return entry.Intent
		}
	}
	return models.IntentGeneric
}

// Keywords returns a copy of the table in priority order.
func (ic *IntentClassifier) Keywords() []IntentKeywords {
	out := make([]IntentKeywords, len(ic.patterns))
	for i, entry := range ic.patterns {
		out[i] = IntentKeywords{
			Intent:   entry.Intent,
			Keywords: append([]string(nil), entry.Keywords...),
		}
	}
	return out
}

// Normalize trims and lowercases raw input for classification.
func Normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsAnyKeyword(message string, keywords []string) bool {
	for _, keyword := range keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}
