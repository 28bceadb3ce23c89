// Package i18n holds the user-facing strings of both bots in every supported language.
package i18n

import (
	"regexp"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
)

// Message keys.
const (
	KeyWelcome            = "welcome"
	KeyError              = "error"
	KeyAppointmentConfirm = "appointmentConfirm"
	KeyAppointmentRequest = "appointmentRequest"
	KeyHandoffRequest     = "handoffRequest"
	KeyLocationNotFound   = "locationNotFound"
	KeyForwarded          = "forwarded"
	KeyVoiceHeard         = "voiceHeard"
	KeyVoiceFailed        = "voiceFailed"
)

// Supported language codes.
const (
	English = "en"
	Spanish = "es"
	French  = "fr"
)

var translations = map[string]map[string]string{
	English: {
		KeyWelcome:            "👋 *Welcome!* I'm Aria, your personal AI assistant.\n\nHow can I help you today?",
		KeyError:              "I seem to be having a moment. Could you try again?",
		KeyAppointmentConfirm: "Your appointment has been scheduled for %s at %s.",
		KeyAppointmentRequest: "I'd be happy to schedule an appointment. Please provide a date (DD/MM/YYYY) and time.",
		KeyHandoffRequest:     "I'm connecting you with a human agent. Please wait a moment while I transfer you.",
		KeyLocationNotFound:   "I couldn't find that location. Please try providing a more specific address.",
		KeyForwarded:          "Your message has been forwarded to our team.",
		KeyVoiceHeard:         "🎤 I heard: \"%s\"\n\nLet me think about that...",
		KeyVoiceFailed:        "I had trouble understanding your voice message. Could you please type your question?",
	},
	Spanish: {
		KeyWelcome:            "👋 *¡Bienvenido!* Soy Aria, tu asistente de IA personal.\n\n¿Cómo puedo ayudarte hoy?",
		KeyError:              "Parece que estoy teniendo un problema. ¿Podrías intentarlo de nuevo?",
		KeyAppointmentConfirm: "Tu cita ha sido programada para el %s a las %s.",
		KeyAppointmentRequest: "Estaré encantado de programar una cita. Por favor, proporciona una fecha (DD/MM/AAAA) y hora.",
		KeyHandoffRequest:     "Te estoy conectando con un agente humano. Por favor, espera un momento mientras te transfiero.",
		KeyLocationNotFound:   "No pude encontrar esa ubicación. Por favor, intenta proporcionar una dirección más específica.",
		KeyForwarded:          "Tu mensaje ha sido enviado a nuestro equipo.",
		KeyVoiceHeard:         "🎤 Escuché: \"%s\"\n\nDéjame pensarlo...",
		KeyVoiceFailed:        "Tuve problemas para entender tu mensaje de voz. ¿Podrías escribir tu pregunta?",
	},
	French: {
		KeyWelcome:            "👋 *Bienvenue!* Je suis Aria, votre assistant IA personnel.\n\nComment puis-je vous aider aujourd'hui?",
		KeyError:              "Je semble avoir un problème. Pourriez-vous réessayer?",
		KeyAppointmentConfirm: "Votre rendez-vous a été programmé pour le %s à %s.",
		KeyAppointmentRequest: "Je serais heureux de programmer un rendez-vous. Veuillez fournir une date (JJ/MM/AAAA) et une heure.",
		KeyHandoffRequest:     "Je vous connecte avec un agent humain. Veuillez patienter un instant pendant que je vous transfère.",
		KeyLocationNotFound:   "Je n'ai pas pu trouver cet emplacement. Veuillez essayer de fournir une adresse plus précise.",
		KeyForwarded:          "Votre message a été transmis à notre équipe.",
		KeyVoiceHeard:         "🎤 J'ai entendu : \"%s\"\n\nLaissez-moi réfléchir...",
		KeyVoiceFailed:        "J'ai eu du mal à comprendre votre message vocal. Pourriez-vous écrire votre question?",
	},
}

// Translator renders message keys in a user's language. It is read-only after
// construction and safe for concurrent use.
type Translator struct {
	catalog catalog.Catalog
}

// NewTranslator builds the catalog for all supported languages, falling back to English.
func NewTranslator() *Translator {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for code, msgs := range translations {
		tag := language.Make(code)
		for key, msg := range msgs {
			if err := b.SetString(tag, key, msg); err != nil {
				panic("i18n: invalid catalog entry " + code + "/" + key + ": " + err.Error())
			}
		}
	}
	return &Translator{catalog: b}
}

// T renders key in lang with optional positional arguments. Unknown languages use English.
func (t *Translator) T(lang, key string, args ...any) string {
	p := message.NewPrinter(tagFor(lang), message.Catalog(t.catalog))
	return p.Sprintf(key, args...)
}

func tagFor(lang string) language.Tag {
	switch Normalize(lang) {
	case Spanish:
		return language.Spanish
	case French:
		return language.French
	default:
		return language.English
	}
}

// Normalize maps free-form language values onto a supported code.
func Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := translations[lang]; ok {
		return lang
	}
	return English
}

var (
	spanishHints = regexp.MustCompile(`hola|como|qué|gracias|buenos días|por favor`)
	frenchHints  = regexp.MustCompile(`bonjour|comment|merci|salut|bonsoir|s'il vous plaît`)
)

// DetectLanguage guesses the language of text from common greetings and courtesy words.
// Spanish is checked before French; anything else is English.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)
	if spanishHints.MatchString(lower) {
		return Spanish
	}
	if frenchHints.MatchString(lower) {
		return French
	}
	return English
}
