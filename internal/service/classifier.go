package service

import (
	"strings"

	"therapy-chat/internal/domain"
)

// ClassificationRule asocia un estado con las palabras clave que lo disparan.
type ClassificationRule struct {
	State    domain.EmotionalState
	Keywords []string
}

// Matches indica si alguna palabra clave aparece en el texto ya normalizado.
func (r ClassificationRule) Matches(normalized string) bool {
	for _, keyword := range r.Keywords {
		if keyword != "" && strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}

// DefaultClassificationRules en orden de prioridad: la primera coincidencia gana.
var DefaultClassificationRules = []ClassificationRule{
	{
		State:    domain.StateCrisis,
		Keywords: []string{"suicide", "kill myself", "end it all", "hurt myself", "die", "can't go on"},
	},
	{
		State:    domain.StateDistressed,
		Keywords: []string{"hopeless", "worthless", "desperate", "overwhelmed", "can't cope", "breaking down"},
	},
	{
		State:    domain.StateAnxious,
		Keywords: []string{"anxious", "worried", "scared", "nervous", "panic", "stress"},
	},
}

// Classifier mapea texto libre a un estado emocional por contención de palabras clave.
// No hay NLP: falsos positivos ("diet" contiene "die") son una limitación aceptada.
type Classifier struct {
	rules    []ClassificationRule
	fallback domain.EmotionalState
}

// DefaultClassifier permite uso directo sin instanciar.
var DefaultClassifier = NewClassifier(DefaultClassificationRules)

func NewClassifier(rules []ClassificationRule) Classifier {
	normalized := make([]ClassificationRule, 0, len(rules))
	for _, rule := range rules {
		// Una regla con estado fuera del conjunto cerrado no puede etiquetar mensajes.
		if !rule.State.Valid() {
			continue
		}
		keywords := make([]string, 0, len(rule.Keywords))
		for _, kw := range rule.Keywords {
			keywords = append(keywords, normalizeForMatch(kw))
		}
		normalized = append(normalized, ClassificationRule{State: rule.State, Keywords: keywords})
	}
	return Classifier{rules: normalized, fallback: domain.StateCalm}
}

// Classify siempre devuelve un estado; calm si ninguna regla coincide.
func (c Classifier) Classify(text string) domain.EmotionalState {
	normalized := normalizeForMatch(text)
	if normalized == "" {
		return c.fallback
	}
	for _, rule := range c.rules {
		if rule.Matches(normalized) {
			return rule.State
		}
	}
	return c.fallback
}

var apostropheReplacer = strings.NewReplacer("’", "'", "‘", "'", "ʼ", "'")

func normalizeForMatch(text string) string {
	return apostropheReplacer.Replace(strings.ToLower(strings.TrimSpace(text)))
}
