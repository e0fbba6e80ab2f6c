package domain

import "time"

// Session agrupa una conversación efímera detrás del disclaimer.
type Session struct {
	ID                   string         `json:"id"`
	DisclaimerAcceptedAt time.Time      `json:"disclaimer_accepted_at"`
	CurrentState         EmotionalState `json:"current_state"`
	ShowEmergency        bool           `json:"show_emergency"`
	// ReplyPending refleja el indicador "escribiendo" para el cliente; el turno
	// único lo controla el servicio en proceso.
	ReplyPending         bool           `json:"reply_pending"`
	CreatedAt            time.Time      `json:"created_at"`
	ExpiresAt            time.Time      `json:"expires_at"`
}

// Expired indica si la sesión venció respecto de now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
