package messaging

import (
	"encoding/xml"
	"net/http"
)

type twimlResponse struct {
	XMLName  xml.Name       `xml:"Response"`
	Messages []twimlMessage `xml:"Message"`
}

type twimlMessage struct {
	Body string `xml:",chardata"`
}

// MessageTwiML renders a TwiML document replying with body. An empty body yields an
// empty <Response/> so Twilio sends nothing.
func MessageTwiML(body string) ([]byte, error) {
	resp := twimlResponse{}
	if body != "" {
		resp.Messages = []twimlMessage{{Body: body}}
	}
	out, err := xml.Marshal(resp)
	if err != nil {
		return nil, err
	}
	return append([]byte(xml.Header), out...), nil
}

// WriteTwiML writes a TwiML reply with status 200.
func WriteTwiML(w http.ResponseWriter, body string) {
	doc, err := MessageTwiML(body)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(doc)
}
