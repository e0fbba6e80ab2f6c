package service

import (
	"testing"

	"therapy-chat/internal/domain"
)

func TestClassifier_Examples(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want domain.EmotionalState
	}{
		{"crisis phrase", "I want to end it all", domain.StateCrisis},
		{"anxious exam", "I feel anxious about the exam", domain.StateAnxious},
		{"no keyword", "The weather is nice today", domain.StateCalm},
		{"distressed", "I feel completely hopeless lately", domain.StateDistressed},
		{"case insensitive", "I'M SO WORRIED", domain.StateAnxious},
		{"typographic apostrophe", "I can’t cope anymore", domain.StateDistressed},
		{"empty", "   ", domain.StateCalm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DefaultClassifier.Classify(tc.in); got != tc.want {
				t.Fatalf("Classify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestClassifier_CrisisWinsOverOtherKeywords(t *testing.T) {
	inputs := []string{
		"I'm anxious and scared and I want to end it all",
		"feeling hopeless and overwhelmed, thinking about suicide",
		"so much stress, I can't go on",
		"calm day but I might hurt myself",
	}
	for _, in := range inputs {
		if got := DefaultClassifier.Classify(in); got != domain.StateCrisis {
			t.Fatalf("Classify(%q) = %q, want crisis", in, got)
		}
	}
}

func TestClassifier_DistressedBeatsAnxious(t *testing.T) {
	if got := DefaultClassifier.Classify("I'm nervous and feel worthless"); got != domain.StateDistressed {
		t.Fatalf("expected distressed, got %q", got)
	}
}

func TestClassifier_SubstringFalsePositiveAccepted(t *testing.T) {
	// "diet" contiene "die": limitación conocida del emparejamiento por subcadena.
	if got := DefaultClassifier.Classify("starting a new diet"); got != domain.StateCrisis {
		t.Fatalf("expected substring match to classify as crisis, got %q", got)
	}
}

func TestClassifier_CustomRulesOrder(t *testing.T) {
	c := NewClassifier([]ClassificationRule{
		{State: domain.StateAnxious, Keywords: []string{"Exam"}},
		{State: domain.StateCrisis, Keywords: []string{"exam"}},
	})
	if got := c.Classify("the exam"); got != domain.StateAnxious {
		t.Fatalf("expected first rule to win, got %q", got)
	}
}

func TestClassifier_SkipsRulesWithUnknownState(t *testing.T) {
	c := NewClassifier([]ClassificationRule{
		{State: domain.EmotionalState("euphoric"), Keywords: []string{"great"}},
		{State: domain.StateAnxious, Keywords: []string{"great"}},
	})
	if got := c.Classify("a great exam"); got != domain.StateAnxious {
		t.Fatalf("expected invalid rule skipped, got %q", got)
	}
	if got := c.Classify("nothing here"); !got.Valid() {
		t.Fatalf("expected a valid fallback, got %q", got)
	}
}
