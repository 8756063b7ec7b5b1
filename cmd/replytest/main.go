// Command replytest sends one message through the reply generator against the
// demo restaurant, for checking an LLM backend by hand.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/autoatende/cmd/mainconfig"
	"github.com/wolfman30/autoatende/internal/app/bootstrap"
	appconfig "github.com/wolfman30/autoatende/internal/config"
	"github.com/wolfman30/autoatende/internal/conversation"
	"github.com/wolfman30/autoatende/internal/directory"
	"github.com/wolfman30/autoatende/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	message := flag.String("message", "Olá! Têm mesa para 4 pessoas amanhã às 20h?", "customer message to answer")
	withIntent := flag.Bool("intent", true, "also run booking intent extraction")
	flag.Parse()

	cfg := appconfig.Load()
	logger := logging.NewWithFormat(cfg.LogLevel, "text", os.Stderr)

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.LLMTimeout+5*time.Second)
	defer cancel()

	llm, err := bootstrap.BuildLLMClient(ctx, cfg, mainconfig.Loader(cfg), logger)
	if err != nil {
		log.Fatalf("configure llm: %v", err)
	}

	profile := directory.DemoProfile(cfg.DemoPhoneID)
	generator := conversation.NewReplyGenerator(llm, logger,
		conversation.WithLocale(conversation.ParseLocale(cfg.AssistantLocale)),
		conversation.WithTimeout(cfg.LLMTimeout),
		conversation.WithMaxTokens(cfg.ReplyMaxTokens),
	)

	fmt.Printf("provider: %s\n", cfg.LLMProvider)
	fmt.Printf("business: %s\n", profile.DisplayName)
	fmt.Printf("message:  %s\n\n", *message)

	start := time.Now()
	reply := generator.Generate(ctx, *message, profile, nil)
	fmt.Printf("reply (%v):\n%s\n", time.Since(start).Round(time.Millisecond), reply)

	if !*withIntent {
		return
	}
	extractor := conversation.NewIntentExtractor(llm, logger,
		conversation.WithTimeout(cfg.LLMTimeout),
		conversation.WithMaxTokens(cfg.IntentMaxTokens),
	)
	intent := extractor.ExtractBookingIntent(ctx, *message)
	fmt.Printf("\nbooking intent: %s\n", formatIntent(intent))
}

func formatIntent(intent conversation.BookingIntent) string {
	if !intent.IsBooking {
		return "none"
	}
	out := "booking"
	if intent.Date != nil {
		out += " date=" + *intent.Date
	}
	if intent.Time != nil {
		out += " time=" + *intent.Time
	}
	if intent.PartySize != nil {
		out += fmt.Sprintf(" party=%d", *intent.PartySize)
	}
	if intent.Name != nil {
		out += " name=" + *intent.Name
	}
	return out
}
