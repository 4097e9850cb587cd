package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"ira-chat/internal/api"
	"ira-chat/internal/chat"
	"ira-chat/internal/config"
	"ira-chat/internal/llm"
	redisdb "ira-chat/internal/redis"
)

func main() {
	// .env is optional; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	rdb := redisdb.NewClient(cfg)
	store := chat.NewStore(redisdb.NewKV(rdb), cfg.MaxContext)

	provider, err := llm.NewGeminiProvider(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Gemini client error: %v\n", err)
		os.Exit(1)
	}
	streamer := llm.NewStreamer(store, provider, cfg.ModelName)

	r := api.SetupRouter(store, streamer)
	fmt.Printf("Starting server on %s\n", cfg.Addr())
	if err := r.Run(cfg.Addr()); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}
}
