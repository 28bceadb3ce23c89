package llm

// DefaultModel is the OpenRouter model both bots talk to.
const DefaultModel = "cognitivecomputations/dolphin-mistral-24b-venice-edition:free"

// Profile fixes the sampling parameters and attribution headers for one bot. Zero
// sampling values are left to the provider's defaults.
type Profile struct {
	Name             string
	Model            string
	Temperature      float32
	MaxTokens        int
	PresencePenalty  float32
	FrequencyPenalty float32
	Referer          string
	Title            string
}

var (
	WhatsAppProfile = Profile{
		Name:             "whatsapp",
		Model:            DefaultModel,
		Temperature:      0.7,
		MaxTokens:        500,
		PresencePenalty:  0.6,
		FrequencyPenalty: 0.3,
		Referer:          "https://whatsapp-ai-bot.com",
		Title:            "WhatsApp AI Bot",
	}
	TelegramProfile = Profile{
		Name:    "telegram",
		Model:   DefaultModel,
		Referer: "https://aria-telegram-bot.app",
		Title:   "Telegram AI Bot",
	}
)

// WithReferer returns a copy of p that attributes requests to referer.
func (p Profile) WithReferer(referer string) Profile {
	if referer != "" {
		p.Referer = referer
	}
	return p
}
