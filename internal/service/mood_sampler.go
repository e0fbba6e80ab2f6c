package service

import (
	"math/rand"
	"time"

	"therapy-chat/internal/domain"
)

const moodHistoryDays = 7

const (
	insightBalanced    = "You've been maintaining good emotional balance this week. Keep up the positive momentum!"
	insightVariable    = "Your mood has been variable this week. Consider what factors might be affecting your wellbeing."
	insightChallenging = "This week seems challenging. Remember that reaching out for support is a sign of strength."
)

// MoodSampler genera un historial sintético de 7 días solo para visualización.
// No lee la conversación: las muestras son aleatorias.
type MoodSampler struct {
	intn func(n int) int
	now  func() time.Time
}

func NewMoodSampler(intn func(n int) int, now func() time.Time) MoodSampler {
	if intn == nil {
		intn = rand.Intn
	}
	if now == nil {
		now = time.Now
	}
	return MoodSampler{intn: intn, now: now}
}

// Sample arma el historial del más antiguo a hoy e incluye el puntaje del estado actual.
func (s MoodSampler) Sample(current domain.EmotionalState) domain.MoodHistory {
	intn, now := s.intn, s.now
	if intn == nil {
		intn = rand.Intn
	}
	if now == nil {
		now = time.Now
	}

	today := now().UTC()
	days := make([]domain.MoodSample, 0, moodHistoryDays)
	total := 0
	for i := moodHistoryDays - 1; i >= 0; i-- {
		idx := intn(len(domain.MoodLabels))
		if idx < 0 || idx >= len(domain.MoodLabels) {
			idx = 0
		}
		mood := domain.MoodLabels[idx]
		score := mood.Score()
		total += score
		days = append(days, domain.MoodSample{
			Date:  today.AddDate(0, 0, -i).Format("2006-01-02"),
			Mood:  mood,
			Score: score,
		})
	}
	average := float64(total) / float64(len(days))

	currentMood := domain.MoodLabel(current)
	if current == "" {
		currentMood = domain.MoodCalm
	}
	return domain.MoodHistory{
		Days:          days,
		WeeklyAverage: average,
		Insight:       WeeklyInsight(average),
		CurrentMood:   currentMood,
		CurrentScore:  currentMood.Score(),
	}
}

// WeeklyInsight traduce el promedio semanal en un mensaje fijo.
func WeeklyInsight(average float64) string {
	switch {
	case average >= 4:
		return insightBalanced
	case average >= 3:
		return insightVariable
	default:
		return insightChallenging
	}
}
