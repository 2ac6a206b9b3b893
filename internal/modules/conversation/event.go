package conversation

import (
	"strings"

	"ridesafe/internal/types"
)

// Event is one inbound webhook invocation, already stripped of channel
// specific framing.
type Event struct {
	Phone   types.Phone
	Channel Channel
	Text    string
	Digits  string
	Speech  string
}

func (e Event) voice() bool { return e.Channel == ChannelVoice }

// choice is the menu-style input: keypad digits on voice, the body elsewhere.
func (e Event) choice() string {
	if e.voice() {
		return e.Digits
	}
	return e.Text
}

// utterance is free-form input: the speech transcript on voice, the body elsewhere.
func (e Event) utterance() string {
	if e.voice() {
		return e.Speech
	}
	return e.Text
}

func (e Event) empty() bool {
	return e.Text == "" && e.Digits == "" && e.Speech == ""
}

func (e Event) requestsSuggestedZip() bool {
	return strings.Contains(strings.ToUpper(e.Text+" "+e.Speech), "UPDATE ZIP")
}

func (e Event) requestsZipChange() bool {
	return strings.TrimSpace(e.Text) == "#" || e.Digits == "#"
}

func (e Event) normalized() Event {
	e.Text = strings.TrimSpace(e.Text)
	e.Digits = strings.TrimSpace(e.Digits)
	e.Speech = strings.TrimSpace(e.Speech)
	return e
}

// Reply is what the channel renders back to the caller, in order.
type Reply struct {
	Prompts []Prompt
}

// Prompt is one message (text channels) or one spoken segment (voice). A
// non-nil Gather asks the voice channel to collect the next input after
// speaking Text.
type Prompt struct {
	Text   string
	Gather *Gather
}

type GatherInput string

const (
	GatherDigits GatherInput = "dtmf"
	GatherSpeech GatherInput = "speech"
)

type Gather struct {
	Input     GatherInput
	NumDigits int
}

// Text joins all prompt texts, mainly for logs and tests.
func (r Reply) Text() string {
	parts := make([]string, 0, len(r.Prompts))
	for _, p := range r.Prompts {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n")
}

func reply(prompts ...Prompt) Reply { return Reply{Prompts: prompts} }

func say(text string) Prompt { return Prompt{Text: text} }

func askDigits(n int, text string) Prompt {
	return Prompt{Text: text, Gather: &Gather{Input: GatherDigits, NumDigits: n}}
}

func askSpeech(text string) Prompt {
	return Prompt{Text: text, Gather: &Gather{Input: GatherSpeech}}
}
