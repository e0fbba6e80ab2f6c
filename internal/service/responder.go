package service

import (
	"math/rand"

	"therapy-chat/internal/domain"
)

// Reply es la plantilla elegida para un estado y su modo terapéutico.
type Reply struct {
	Content string
	Mode    domain.TherapyMode
}

const (
	crisisTemplate = "I'm very concerned about what you've shared. Your safety is the most important thing right now. " +
		"Please consider contacting a crisis helpline immediately:\n\n" +
		"• National Suicide Prevention Lifeline: 988\n" +
		"• Crisis Text Line: Text HOME to 741741\n" +
		"• Emergency Services: 911\n\n" +
		"I'm here to listen, but please reach out to professional help right away. " +
		"You matter, and there are people who want to help you through this."

	distressedTemplate = "I can hear that you're going through something really difficult right now. That takes courage to share. " +
		"Let's take this one step at a time. Can you tell me about one small thing that might help you feel a bit more stable right now? " +
		"Sometimes when we're overwhelmed, focusing on our breathing or grounding ourselves in the present moment can help."

	anxiousTemplate = "Anxiety can feel overwhelming, and I want you to know that what you're experiencing is valid. " +
		"Let's try a quick grounding technique: Can you name 5 things you can see, 4 things you can touch, " +
		"3 things you can hear, 2 things you can smell, and 1 thing you can taste? " +
		"This can help bring you back to the present moment."

	// GreetingMessage abre cada sesión nueva.
	GreetingMessage = "Hello, I'm here to listen and support you. How are you feeling today? " +
		"Please remember that I'm an AI assistant and cannot replace professional therapy or emergency services."
)

// SupportivePrompts se eligen al azar cuando el estado es calm.
var SupportivePrompts = []string{
	"Thank you for sharing that with me. How does it feel to put those thoughts into words?",
	"I appreciate you opening up. What do you think might be helpful for you right now?",
	"It sounds like you're processing a lot. What's been on your mind most lately?",
	"I'm here to listen. Would you like to explore those feelings a bit more?",
}

// ResponseGenerator selecciona plantillas; no tiene efectos laterales.
type ResponseGenerator struct {
	intn func(n int) int
}

// NewResponseGenerator usa math/rand si intn es nil.
func NewResponseGenerator(intn func(n int) int) ResponseGenerator {
	if intn == nil {
		intn = rand.Intn
	}
	return ResponseGenerator{intn: intn}
}

func (g ResponseGenerator) Generate(state domain.EmotionalState) Reply {
	switch state {
	case domain.StateCrisis:
		return Reply{Content: crisisTemplate, Mode: domain.ModeCrisis}
	case domain.StateDistressed:
		return Reply{Content: distressedTemplate, Mode: domain.ModeCBT}
	case domain.StateAnxious:
		return Reply{Content: anxiousTemplate, Mode: domain.ModeCBT}
	default:
		intn := g.intn
		if intn == nil {
			intn = rand.Intn
		}
		idx := intn(len(SupportivePrompts))
		if idx < 0 || idx >= len(SupportivePrompts) {
			idx = 0
		}
		return Reply{Content: SupportivePrompts[idx], Mode: domain.ModeSupportive}
	}
}
