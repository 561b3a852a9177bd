package conversation

import (
	"fmt"
	"strings"
)

const (
	humanPrefix = "\nHuman:"
	aiPrefix    = "\nAI:"
)

type SummaryType string

const (
	SummaryChat  SummaryType = "chat"
	SummaryNotes SummaryType = "notes"
)

const personalityPrimer = `You are a friendly, helpful personal assistant with a good memory.
You answer the human's questions, remember what they told you earlier in the
conversation and never make up facts about their life.
`

const understandPrompt = `You are a classifier. Read the human's message and reply with one JSON object
and nothing else, using this shape:
{"intent": {"type": "<remember|search|answer|generate>", "memory-type": "<notes|ledger|image|music|general>", "query": "<search query>", "date": "<date or empty>"}, "trigger-emotion": "<emotion>"}

Use memory-type "notes" when the human asks about something they wrote down,
experienced or planned. Put the words worth searching their notes for in "query".

Message: When did I last visit the dentist?
{"intent": {"type": "remember", "memory-type": "notes", "query": "visit to the dentist", "date": ""}, "trigger-emotion": "curiosity"}

Message: How much did I spend on groceries in March?
{"intent": {"type": "remember", "memory-type": "ledger", "query": "groceries expenses", "date": "March"}, "trigger-emotion": "curiosity"}

Message: Play me something relaxing
{"intent": {"type": "search", "memory-type": "music", "query": "relaxing music", "date": ""}, "trigger-emotion": "calm"}

Message: What is the capital of Portugal?
{"intent": {"type": "answer", "memory-type": "general", "query": "capital of Portugal", "date": ""}, "trigger-emotion": "curiosity"}

Message: %s
`

const summarizeChatPrompt = `Summarize the conversation below between the human and the assistant.
Keep the facts the human shared about themselves and anything they asked to remember.

%s

Summary:`

const summarizeNotesPrompt = `Summarize the notes below so they answer the question "%s".
Speak to the human in the second person and use the past tense.

Notes:
%s

Summary:`

// MessageToPrompt appends one exchange to the running transcript.
// An empty response leaves the transcript open for the model to continue.
func MessageToPrompt(history, userMessage, response string) string {
	reply := ""
	if response != "" {
		reply = " " + response
	}
	return history + humanPrefix + " " + userMessage + aiPrefix + reply
}

func buildUnderstandPrompt(text string) string {
	return fmt.Sprintf(understandPrompt, text)
}

func buildConversePrompt(text, chatSession string) string {
	return personalityPrimer + MessageToPrompt(chatSession, text, "")
}

func buildSummarizePrompt(text string, summaryType SummaryType, userQuery string) (string, error) {
	switch summaryType {
	case SummaryChat:
		return fmt.Sprintf(summarizeChatPrompt, strings.TrimSpace(text)), nil
	case SummaryNotes:
		return fmt.Sprintf(summarizeNotesPrompt, userQuery, strings.TrimSpace(text)), nil
	default:
		return "", fmt.Errorf("conversation: unknown summary type %q", summaryType)
	}
}
