// Package services implements message classification on top of the oracle.
package services

import "strings"

// minMessageLength is the shortest message worth sending to the oracle.
const minMessageLength = 10

// taskIndicators are cheap lexical hints that a message might describe work.
// Messages with none of them are skipped locally, saving an oracle call.
var taskIndicators = []string{
	"todo", "task", "need to", "needs to", "have to", "should", "must",
	"remember to", "don't forget", "dont forget", "action item",
	"follow up", "follow-up", "deadline", "due", "by tomorrow", "by monday",
	"by friday", "by eod", "end of day", "asap", "urgent", "priority",
	"fix", "bug", "issue", "broken", "review", "check", "implement",
	"deploy", "update", "finish", "complete", "prepare", "schedule",
	"meeting", "can you", "could you", "please", "assigned",
}

// LooksLikeTask reports whether a message is worth classifying at all.
func LooksLikeTask(text string) bool {
	if len(text) < minMessageLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, indicator := range taskIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}
