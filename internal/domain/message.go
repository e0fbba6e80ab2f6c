package domain

import "time"

// Sender identifica el autor de un mensaje.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message es inmutable una vez agregado a la conversación.
type Message struct {
	ID             string          `json:"id"`
	SessionID      string          `json:"session_id"`
	Seq            int64           `json:"seq"`
	Content        string          `json:"content"`
	Sender         Sender          `json:"sender"`
	Timestamp      time.Time       `json:"timestamp"`
	EmotionalState *EmotionalState `json:"emotional_state,omitempty"`
	TherapyMode    *TherapyMode    `json:"therapy_mode,omitempty"`
}

// StatePtr y ModePtr simplifican el armado de campos opcionales.
func StatePtr(s EmotionalState) *EmotionalState { return &s }

func ModePtr(m TherapyMode) *TherapyMode { return &m }
