// README: Channel renderers; turn engine replies into TwiML for messaging and voice webhooks.
package channel

import (
	"strconv"
	"strings"

	"github.com/twilio/twilio-go/twiml"

	"ridesafe/internal/modules/conversation"
	"ridesafe/internal/types"
)

const whatsappPrefix = "whatsapp:"

// NormalizePhone turns a webhook From value into the sender's phone number.
// WhatsApp senders arrive as "whatsapp:+1555...".
func NormalizePhone(from string) types.Phone {
	from = strings.TrimSpace(from)
	if len(from) >= len(whatsappPrefix) && strings.EqualFold(from[:len(whatsappPrefix)], whatsappPrefix) {
		from = from[len(whatsappPrefix):]
	}
	return types.Phone(strings.TrimSpace(from))
}

// RenderMessage renders reply as a single SMS/WhatsApp message.
func RenderMessage(reply conversation.Reply) (string, error) {
	body := reply.Text()
	if body == "" {
		return twiml.Messages(nil)
	}
	return twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
}

// RenderVoice renders reply as spoken prompts. Gathers post back to action;
// when the caller gives no input the call is redirected there too, so the
// current question is asked again. A reply without a gather ends the call.
func RenderVoice(reply conversation.Reply, action string) (string, error) {
	var verbs []twiml.Element
	gathering := false
	for _, p := range reply.Prompts {
		say := &twiml.VoiceSay{Message: p.Text}
		if p.Gather == nil {
			verbs = append(verbs, say)
			continue
		}
		g := &twiml.VoiceGather{
			Action:        action,
			Method:        "POST",
			Input:         string(p.Gather.Input),
			InnerElements: []twiml.Element{say},
		}
		switch p.Gather.Input {
		case conversation.GatherDigits:
			if p.Gather.NumDigits > 0 {
				g.NumDigits = strconv.Itoa(p.Gather.NumDigits)
			}
		case conversation.GatherSpeech:
			g.SpeechTimeout = "auto"
			g.FinishOnKey = "#"
		}
		verbs = append(verbs, g)
		gathering = true
	}
	if gathering {
		verbs = append(verbs, &twiml.VoiceRedirect{Url: action, Method: "POST"})
	} else {
		verbs = append(verbs, &twiml.VoiceHangup{})
	}
	return twiml.Voice(verbs)
}
