package intent

import "strings"

// FAQRule answers a canned question when any of its keywords appears in the message.
type FAQRule struct {
	Keywords []string
	Question string
	Answer   string
}

// DefaultFAQRules is the built-in FAQ table.
var DefaultFAQRules = []FAQRule{
	{
		Keywords: []string{"return", "refund", "money back"},
		Question: "What's your return policy?",
		Answer:   "We offer a 30-day money-back guarantee on all our products. Please keep your receipt for returns.",
	},
	{
		Keywords: []string{"shipping", "delivery", "arrive"},
		Question: "How long does shipping take?",
		Answer:   "Standard shipping takes 3-5 business days. Express shipping takes 1-2 business days but costs extra.",
	},
}

// matchFAQ returns the first rule with a keyword contained in text, ignoring case.
func matchFAQ(rules []FAQRule, text string) (FAQRule, bool) {
	lower := strings.ToLower(text)
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(lower, kw) {
				return rule, true
			}
		}
	}
	return FAQRule{}, false
}
