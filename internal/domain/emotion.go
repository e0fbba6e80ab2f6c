package domain

// EmotionalState es la etiqueta derivada del texto del usuario.
type EmotionalState string

const (
	StateCalm       EmotionalState = "calm"
	StateAnxious    EmotionalState = "anxious"
	StateDistressed EmotionalState = "distressed"
	StateCrisis     EmotionalState = "crisis"
)

// Valid indica si el estado pertenece al conjunto cerrado.
func (s EmotionalState) Valid() bool {
	switch s {
	case StateCalm, StateAnxious, StateDistressed, StateCrisis:
		return true
	}
	return false
}

// TherapyMode etiqueta el estilo de la respuesta del asistente.
type TherapyMode string

const (
	ModeSupportive TherapyMode = "supportive"
	ModeCBT        TherapyMode = "cbt"
	ModeCrisis     TherapyMode = "crisis"
)

// MoodLabel amplía los estados emocionales con "positive" para el historial de ánimo.
type MoodLabel string

const (
	MoodCrisis     MoodLabel = "crisis"
	MoodDistressed MoodLabel = "distressed"
	MoodAnxious    MoodLabel = "anxious"
	MoodCalm       MoodLabel = "calm"
	MoodPositive   MoodLabel = "positive"
)

// MoodLabels en orden de puntaje ascendente (1..5).
var MoodLabels = []MoodLabel{MoodCrisis, MoodDistressed, MoodAnxious, MoodCalm, MoodPositive}

// Score devuelve el puntaje fijo 1..5; etiquetas desconocidas cuentan como calm.
func (m MoodLabel) Score() int {
	for i, label := range MoodLabels {
		if label == m {
			return i + 1
		}
	}
	return 4
}
