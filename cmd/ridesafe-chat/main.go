// README: Console chat against the conversation engine with live Google Maps lookups; for local testing.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"ridesafe/internal/ai"
	"ridesafe/internal/config"
	"ridesafe/internal/logging"
	"ridesafe/internal/maps"
	"ridesafe/internal/modules/address"
	"ridesafe/internal/modules/conversation"
	"ridesafe/internal/modules/notify"
	"ridesafe/internal/types"
)

func main() {
	phone := pflag.String("phone", "+15550000000", "sender phone number")
	channelName := pflag.String("channel", "sms", "sms or whatsapp")
	pflag.Parse()

	ch, err := parseChannel(*channelName)
	if err != nil {
		log.Fatal(err)
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Maps.APIKey == "" {
		log.Fatal("GEOCODING_API_KEY environment variable not set")
	}
	logger := logging.New(cfg.Logging)

	ctx := context.Background()
	geocoder, err := maps.NewGeocodeService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("geocoder: %v", err)
	}
	distance, err := maps.NewDistanceService(cfg.Maps.APIKey)
	if err != nil {
		log.Fatalf("distance matrix: %v", err)
	}

	opts := conversation.Options{MaxRetries: cfg.Conversation.MaxRetries, Logger: logger}
	if cfg.AI.GeminiKey != "" {
		provider, err := ai.NewGeminiProvider(ctx, cfg.AI.GeminiKey)
		if err != nil {
			log.Fatalf("Failed to initialize AI provider: %v", err)
		}
		defer provider.Close()
		opts.Extractor = provider
	}

	dispatcher := notify.NewDispatcher(notify.LogSender{Logger: logger}, 0, logger)
	engine := conversation.NewEngine(
		conversation.NewMemoryStore(),
		nil,
		address.NewResolver(geocoder, cfg.Conversation.TooFarKm, logger),
		address.NewTravelTimer(distance),
		dispatcher,
		opts,
	)

	fmt.Printf("Chatting as %s over %s. Ctrl-D to quit.\n", *phone, ch)
	if err := chat(ctx, engine, types.Phone(*phone), ch, os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
	_ = dispatcher.Wait(ctx)
}

type handler interface {
	Handle(ctx context.Context, ev conversation.Event) (conversation.Reply, error)
}

// chat feeds each input line to the engine and prints the reply. Lines may
// contain a literal "\n" to send a multi-line message.
func chat(ctx context.Context, h handler, phone types.Phone, ch conversation.Channel, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !sc.Scan() {
			fmt.Fprintln(out)
			return sc.Err()
		}
		text := strings.ReplaceAll(sc.Text(), `\n`, "\n")
		reply, err := h.Handle(ctx, conversation.Event{Phone: phone, Channel: ch, Text: text})
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply.Text())
	}
}

func parseChannel(name string) (conversation.Channel, error) {
	switch strings.ToLower(name) {
	case "sms":
		return conversation.ChannelSMS, nil
	case "whatsapp":
		return conversation.ChannelWhatsApp, nil
	default:
		return "", fmt.Errorf("unsupported channel %q (voice needs a phone call)", name)
	}
}
