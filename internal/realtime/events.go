// Package realtime implements the guardrail interception state machine for
// bidirectional voice/text sessions: two forwarding loops bridge a client
// and a model-serving backend over duplex connections, gating completed
// transcriptions and user text messages through the registered guardrails.
package realtime

import (
	"encoding/json"
	"fmt"
)

// Event types the state machine inspects. Everything else is forwarded
// untouched.
const (
	EventTypeSessionCreated         = "session.created"
	EventTypeSessionUpdate          = "session.update"
	EventTypeResponseCreate         = "response.create"
	EventTypeResponseCancel         = "response.cancel"
	EventTypeConversationItemCreate = "conversation.item.create"
	EventTypeTranscriptionCompleted = "conversation.item.input_audio_transcription.completed"
	EventTypeContentPartAdded       = "response.content_part.added"
	EventTypeAudioTranscriptDelta   = "response.audio_transcript.delta"
	EventTypeAudioDelta             = "response.audio.delta"
	EventTypeAudioTranscriptDone    = "response.audio_transcript.done"
	EventTypeError                  = "error"
)

// GuardrailViolationCode is the fixed error code carried by client-facing
// guardrail error events.
const GuardrailViolationCode = "content_policy_violation"

// Event is one JSON message on either duplex channel. Unknown fields are
// preserved so forwarding never strips vendor extensions.
type Event map[string]any

// ParseEvent decodes a wire message into an Event.
func ParseEvent(data []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("malformed realtime event: %w", err)
	}
	if ev.Type() == "" {
		return nil, fmt.Errorf("realtime event missing type")
	}
	return ev, nil
}

// Type returns the event's type discriminator, empty when absent.
func (e Event) Type() string {
	s, _ := e["type"].(string)
	return s
}

// ItemID returns the top-level item_id field, empty when absent.
func (e Event) ItemID() string {
	s, _ := e["item_id"].(string)
	return s
}

// Transcript returns the completed transcription text.
func (e Event) Transcript() string {
	s, _ := e["transcript"].(string)
	return s
}

// partKey identifies the content part an audio event belongs to.
func (e Event) partKey() string {
	return fmt.Sprintf("%s/%v/%v", e.ItemID(), e["output_index"], e["content_index"])
}

// IsAudioContentPart reports whether a content_part.added event declares an
// audio-typed part.
func (e Event) IsAudioContentPart() bool {
	part, ok := e["part"].(map[string]any)
	if !ok {
		return false
	}
	t, _ := part["type"].(string)
	return t == "audio"
}

// UserMessageText extracts the combined input_text content of a
// conversation.item.create event carrying a user message. The second return
// is false when the event is not a user text message.
func (e Event) UserMessageText() (string, bool) {
	item, ok := e["item"].(map[string]any)
	if !ok {
		return "", false
	}
	if t, _ := item["type"].(string); t != "message" {
		return "", false
	}
	if role, _ := item["role"].(string); role != "user" {
		return "", false
	}

	content, ok := item["content"].([]any)
	if !ok {
		return "", false
	}

	var text string
	found := false
	for _, c := range content {
		part, ok := c.(map[string]any)
		if !ok {
			continue
		}
		if t, _ := part["type"].(string); t != "input_text" {
			continue
		}
		if s, _ := part["text"].(string); s != "" {
			if found {
				text += "\n"
			}
			text += s
			found = true
		}
	}
	return text, found
}

// NewSessionUpdateDisableAutoResponse builds the backend-bound control
// message that turns off the backend's automatic response generation, so no
// model output is produced before a guardrail has inspected the utterance.
func NewSessionUpdateDisableAutoResponse() Event {
	return Event{
		"type": EventTypeSessionUpdate,
		"session": map[string]any{
			"turn_detection": map[string]any{
				"create_response": false,
			},
		},
	}
}

// NewResponseCreate builds the backend-bound "generate a response" message.
func NewResponseCreate() Event {
	return Event{"type": EventTypeResponseCreate}
}

// NewResponseCancel builds the backend-bound "cancel any in-flight response"
// message.
func NewResponseCancel() Event {
	return Event{"type": EventTypeResponseCancel}
}

// NewSyntheticInstruction builds a backend-bound user message instructing
// the model to speak the violation message back to the user.
func NewSyntheticInstruction(text string) Event {
	return Event{
		"type": EventTypeConversationItemCreate,
		"item": map[string]any{
			"type": "message",
			"role": "user",
			"content": []any{
				map[string]any{
					"type": "input_text",
					"text": text,
				},
			},
		},
	}
}

// NewGuardrailViolationError builds the client-facing structured error event
// for a blocked utterance.
func NewGuardrailViolationError(message string) Event {
	return Event{
		"type": EventTypeError,
		"error": map[string]any{
			"type":    "guardrail_violation",
			"message": message,
			"code":    GuardrailViolationCode,
		},
	}
}
