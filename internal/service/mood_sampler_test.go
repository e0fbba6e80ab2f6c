package service

import (
	"math"
	"testing"
	"time"

	"therapy-chat/internal/domain"
)

func TestMoodSampler_SevenConsecutiveDaysEndingToday(t *testing.T) {
	fixed := time.Date(2025, 3, 2, 15, 0, 0, 0, time.UTC)
	sampler := NewMoodSampler(nil, func() time.Time { return fixed })

	history := sampler.Sample(domain.StateCalm)
	if len(history.Days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(history.Days))
	}
	if history.Days[0].Date != "2025-02-24" || history.Days[6].Date != "2025-03-02" {
		t.Fatalf("unexpected date range %s..%s", history.Days[0].Date, history.Days[6].Date)
	}
}

func TestMoodSampler_AverageIsMeanOfScores(t *testing.T) {
	for round := 0; round < 50; round++ {
		history := NewMoodSampler(nil, nil).Sample(domain.StateAnxious)
		sum := 0
		for _, day := range history.Days {
			if day.Score < 1 || day.Score > 5 {
				t.Fatalf("score out of range: %d", day.Score)
			}
			if day.Mood.Score() != day.Score {
				t.Fatalf("score %d does not match mood %q", day.Score, day.Mood)
			}
			sum += day.Score
		}
		want := float64(sum) / 7
		if math.Abs(history.WeeklyAverage-want) > 1e-9 {
			t.Fatalf("expected average %v, got %v", want, history.WeeklyAverage)
		}
	}
}

func TestMoodSampler_DeterministicDraws(t *testing.T) {
	draws := []int{0, 1, 2, 3, 4, 4, 4}
	i := 0
	sampler := NewMoodSampler(func(n int) int {
		if n != 5 {
			t.Fatalf("expected draw over 5 moods, got %d", n)
		}
		v := draws[i]
		i++
		return v
	}, nil)

	history := sampler.Sample(domain.StateCrisis)
	// 1+2+3+4+5+5+5 = 25
	if math.Abs(history.WeeklyAverage-25.0/7.0) > 1e-9 {
		t.Fatalf("unexpected average %v", history.WeeklyAverage)
	}
	if history.Insight != insightVariable {
		t.Fatalf("expected variable insight, got %q", history.Insight)
	}
	if history.CurrentMood != domain.MoodCrisis || history.CurrentScore != 1 {
		t.Fatalf("unexpected current mood %q/%d", history.CurrentMood, history.CurrentScore)
	}
}

func TestMoodSampler_EmptyStateDefaultsToCalm(t *testing.T) {
	history := NewMoodSampler(func(int) int { return 0 }, nil).Sample("")
	if history.CurrentMood != domain.MoodCalm || history.CurrentScore != 4 {
		t.Fatalf("expected calm/4, got %q/%d", history.CurrentMood, history.CurrentScore)
	}
}

func TestWeeklyInsightThresholds(t *testing.T) {
	if WeeklyInsight(4) != insightBalanced || WeeklyInsight(3.5) != insightVariable || WeeklyInsight(2.9) != insightChallenging {
		t.Fatalf("unexpected insight thresholds")
	}
}
