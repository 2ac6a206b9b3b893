package channel

import (
	"strings"
	"testing"

	"ridesafe/internal/modules/conversation"
	"ridesafe/internal/types"
)

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		in   string
		want types.Phone
	}{
		{"+15550001111", "+15550001111"},
		{"whatsapp:+15550001111", "+15550001111"},
		{"WhatsApp:+15550001111", "+15550001111"},
		{"  +15550001111 ", "+15550001111"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePhone(tt.in); got != tt.want {
			t.Errorf("NormalizePhone(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRenderMessage(t *testing.T) {
	out, err := RenderMessage(conversation.Reply{Prompts: []conversation.Prompt{{Text: "Welcome"}, {Text: "Pick & drop"}}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<Response>") || strings.Count(out, "<Message") != 1 {
		t.Fatalf("unexpected twiml: %s", out)
	}
	if !strings.Contains(out, "Welcome") || !strings.Contains(out, "Pick &amp; drop") {
		t.Errorf("body missing or unescaped: %s", out)
	}
}

func TestRenderVoiceGathers(t *testing.T) {
	reply := conversation.Reply{Prompts: []conversation.Prompt{
		{Text: "Welcome to RideSafe Local!"},
		{Text: "Enter 4 digits.", Gather: &conversation.Gather{Input: conversation.GatherDigits, NumDigits: 4}},
	}}
	out, err := RenderVoice(reply, "/voice")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"<Say", "Welcome to RideSafe Local!", `numDigits="4"`, `action="/voice"`, `input="dtmf"`, "<Redirect"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in %s", want, out)
		}
	}
	if strings.Contains(out, "<Hangup") {
		t.Errorf("gathering call must not hang up: %s", out)
	}
}

func TestRenderVoiceSpeech(t *testing.T) {
	reply := conversation.Reply{Prompts: []conversation.Prompt{
		{Text: "Say your pickup address.", Gather: &conversation.Gather{Input: conversation.GatherSpeech}},
	}}
	out, err := RenderVoice(reply, "/voice")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `input="speech"`) || strings.Contains(out, "numDigits") {
		t.Errorf("unexpected speech gather: %s", out)
	}
}

func TestRenderVoiceEndsCall(t *testing.T) {
	out, err := RenderVoice(conversation.Reply{Prompts: []conversation.Prompt{{Text: "Ride confirmed!"}}}, "/voice")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "<Hangup") || strings.Contains(out, "<Gather") {
		t.Errorf("unexpected twiml: %s", out)
	}
}
