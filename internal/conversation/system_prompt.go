package conversation

import (
	"fmt"
	"strings"

	"github.com/wolfman30/autoatende/internal/directory"
)

// Locale selects the language register of prompts and fixed replies.
type Locale string

const (
	LocalePortuguese Locale = "pt-PT"
	LocaleEnglish    Locale = "en"
)

// ParseLocale maps a configured locale string onto a supported Locale.
// Unknown values fall back to Portuguese.
func ParseLocale(raw string) Locale {
	v := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.HasPrefix(v, "en"):
		return LocaleEnglish
	default:
		return LocalePortuguese
	}
}

type promptStrings struct {
	intro        string
	infoHeader   string
	address      string
	hours        string
	menu         string
	rulesHeader  string
	rules        []string
	deferPhone   string
	deferGeneric string
	fallback     string
}

var localizedPrompts = map[Locale]promptStrings{
	LocalePortuguese: {
		intro:       `És o assistente virtual do restaurante "%s".`,
		infoHeader:  "Informação do restaurante:",
		address:     "- Morada: %s",
		hours:       "- Horário: %s",
		menu:        "- Menu: %s",
		rulesHeader: "Instruções:",
		rules: []string{
			"- Responde SEMPRE em português, de forma amigável e natural",
			"- Podes fazer reservas pedindo: nome, data, hora e número de pessoas",
			"- Para reservas, confirma sempre os detalhes antes de finalizar",
			"- Responde a perguntas sobre o menu, horário e localização",
		},
		deferPhone:   "- Se não souberes algo, diz que vais verificar e pede para contactarem por telefone (%s)",
		deferGeneric: "- Se não souberes algo, diz que vais verificar e pede para contactarem por telefone",
		fallback:     "Desculpe, estou com dificuldades técnicas. Por favor tente novamente em alguns minutos.",
	},
	LocaleEnglish: {
		intro:       `You are the virtual assistant for the restaurant "%s".`,
		infoHeader:  "Restaurant information:",
		address:     "- Address: %s",
		hours:       "- Opening hours: %s",
		menu:        "- Menu: %s",
		rulesHeader: "Instructions:",
		rules: []string{
			"- ALWAYS reply in English, in a friendly and natural way",
			"- You can take bookings by asking for: name, date, time and party size",
			"- For bookings, always confirm the details before finalizing",
			"- Answer questions about the menu, opening hours and location",
		},
		deferPhone:   "- If you don't know something, say you will check and ask them to call (%s)",
		deferGeneric: "- If you don't know something, say you will check and ask them to call the restaurant",
		fallback:     "Sorry, I'm having technical difficulties. Please try again in a few minutes.",
	},
}

const replyLengthRulePT = "- Mantém as respostas concisas (máximo 3-4 frases)"
const replyLengthRuleEN = "- Keep replies concise (3-4 sentences at most)"

func stringsFor(locale Locale) promptStrings {
	if s, ok := localizedPrompts[locale]; ok {
		return s
	}
	return localizedPrompts[LocalePortuguese]
}

// BuildSystemPrompt renders the assistant instruction for a business. It has no side effects.
func BuildSystemPrompt(profile *directory.BusinessProfile, locale Locale) string {
	if profile == nil {
		profile = &directory.BusinessProfile{}
	}
	s := stringsFor(locale)

	var b strings.Builder
	fmt.Fprintf(&b, s.intro, profile.DisplayName)
	b.WriteString("\n\n")
	b.WriteString(s.infoHeader)
	b.WriteString("\n")
	fmt.Fprintf(&b, s.address, profile.Address)
	b.WriteString("\n")
	fmt.Fprintf(&b, s.hours, profile.Hours)
	b.WriteString("\n")
	fmt.Fprintf(&b, s.menu, profile.MenuSummary)
	b.WriteString("\n\n")
	b.WriteString(s.rulesHeader)
	b.WriteString("\n")
	for _, rule := range s.rules {
		b.WriteString(rule)
		b.WriteString("\n")
	}
	if phone := strings.TrimSpace(profile.Phone); phone != "" {
		fmt.Fprintf(&b, s.deferPhone, phone)
	} else {
		b.WriteString(s.deferGeneric)
	}
	b.WriteString("\n")
	if locale == LocaleEnglish {
		b.WriteString(replyLengthRuleEN)
	} else {
		b.WriteString(replyLengthRulePT)
	}
	return b.String()
}

// FallbackReply is the fixed apology sent when the backend cannot produce a reply.
func FallbackReply(locale Locale) string {
	return stringsFor(locale).fallback
}
