package domain

import "strings"

// Disclaimer se muestra antes de abrir una sesión.
const Disclaimer = "This assistant provides supportive conversation but cannot replace professional therapy. " +
	"Replies are chosen by simple keyword matching and may misread what you write. " +
	"If you're in crisis, please contact emergency services immediately."

type ResourceUrgency string

const (
	UrgencyCrisis ResourceUrgency = "crisis"
	UrgencyCalm   ResourceUrgency = "calm"
)

// EmergencyResource describe una línea de ayuda telefónica o por texto.
type EmergencyResource struct {
	Name        string          `json:"name"`
	Phone       string          `json:"phone"`
	Dial        string          `json:"dial"`
	Description string          `json:"description"`
	Urgency     ResourceUrgency `json:"urgency"`
}

// OnlineResource es un enlace a un sitio de terceros.
type OnlineResource struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Description string `json:"description"`
}

// DialNumber elimina todo lo que no sea dígito, como espera un enlace tel:.
func DialNumber(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func newHotline(name, phone, description string, urgency ResourceUrgency) EmergencyResource {
	return EmergencyResource{
		Name:        name,
		Phone:       phone,
		Dial:        DialNumber(phone),
		Description: description,
		Urgency:     urgency,
	}
}

// EmergencyResources devuelve el catálogo fijo de líneas de crisis.
func EmergencyResources() []EmergencyResource {
	return []EmergencyResource{
		newHotline("National Suicide Prevention Lifeline", "988", "24/7 crisis support and suicide prevention", UrgencyCrisis),
		newHotline("Crisis Text Line", "Text HOME to 741741", "24/7 crisis support via text message", UrgencyCrisis),
		newHotline("SAMHSA National Helpline", "1-800-662-4357", "Mental health and substance abuse help", UrgencyCalm),
		newHotline("National Domestic Violence Hotline", "1-800-799-7233", "24/7 domestic violence support", UrgencyCalm),
	}
}

// OnlineResources devuelve los sitios externos recomendados.
func OnlineResources() []OnlineResource {
	return []OnlineResource{
		{Name: "BetterHelp", URL: "https://www.betterhelp.com", Description: "Professional online therapy"},
		{Name: "Crisis Text Line", URL: "https://www.crisistextline.org", Description: "Free crisis counseling"},
		{Name: "NAMI", URL: "https://www.nami.org", Description: "Mental health information and support"},
	}
}
