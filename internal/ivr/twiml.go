package ivr

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/twilio/twilio-go/twiml"
)

// respondTwiML renders the verbs as a TwiML voice document with the
// content type Twilio expects.
func (s *Server) respondTwiML(c echo.Context, verbs []twiml.Element) error {
	doc, err := twiml.Voice(verbs)
	if err != nil {
		return fmt.Errorf("render twiml: %w", err)
	}
	return c.Blob(http.StatusOK, "text/xml", []byte(doc))
}

// say builds a Say verb.
func say(message string) *twiml.VoiceSay {
	return &twiml.VoiceSay{Message: message}
}

// play builds a Play verb for a prompt asset.
func (s *Server) play(prompt string) *twiml.VoicePlay {
	return &twiml.VoicePlay{Url: s.prompts.url(prompt)}
}

// redirect builds a Redirect verb to another webhook route.
func redirect(target string) *twiml.VoiceRedirect {
	return &twiml.VoiceRedirect{Url: target}
}

// gather builds a Gather verb collecting numDigits digits, posting to
// action, with the given nested verbs as its prompt.
func gather(numDigits, timeoutSeconds int, action string, inner ...twiml.Element) *twiml.VoiceGather {
	return &twiml.VoiceGather{
		NumDigits:     fmt.Sprintf("%d", numDigits),
		Timeout:       fmt.Sprintf("%d", timeoutSeconds),
		Action:        action,
		InnerElements: inner,
	}
}

// dial builds a Dial verb connecting the caller to a phone number.
func dial(phone string) *twiml.VoiceDial {
	return &twiml.VoiceDial{
		InnerElements: []twiml.Element{
			&twiml.VoiceNumber{PhoneNumber: phone},
		},
	}
}

// record builds a Record verb capturing a message and posting the
// recording to action.
func record(action string, timeoutSeconds, maxLengthSeconds int) *twiml.VoiceRecord {
	return &twiml.VoiceRecord{
		Action:    action,
		Timeout:   fmt.Sprintf("%d", timeoutSeconds),
		MaxLength: fmt.Sprintf("%d", maxLengthSeconds),
	}
}
