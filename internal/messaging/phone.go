package messaging

import "strings"

const whatsAppPrefix = "whatsapp:"

// WhatsAppAddress returns number in Twilio's "whatsapp:+E164" address form.
func WhatsAppAddress(number string) string {
	number = strings.TrimSpace(number)
	if number == "" || strings.HasPrefix(number, whatsAppPrefix) {
		return number
	}
	return whatsAppPrefix + number
}

// PhoneNumber strips the WhatsApp channel prefix.
func PhoneNumber(address string) string {
	return strings.TrimPrefix(strings.TrimSpace(address), whatsAppPrefix)
}
