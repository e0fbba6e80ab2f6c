package domain

// MoodSample es un día sintético del historial de ánimo.
type MoodSample struct {
	Date  string    `json:"date"`
	Mood  MoodLabel `json:"mood"`
	Score int       `json:"score"`
}

// MoodHistory alimenta el widget lateral; no depende del contenido de la conversación.
type MoodHistory struct {
	Days          []MoodSample `json:"days"`
	WeeklyAverage float64      `json:"weekly_average"`
	Insight       string       `json:"insight"`
	CurrentMood   MoodLabel    `json:"current_mood"`
	CurrentScore  int          `json:"current_score"`
}
