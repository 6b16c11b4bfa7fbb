// Command llm-check sends a minimal completion to verify the Groq key and model.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yoockh/yootravel/config"
	"github.com/yoockh/yootravel/internal/providers/llm"
)

func main() {
	cfg, err := config.LoadLLM()
	if err != nil {
		logrus.Fatalf("config error: %v", err)
	}

	g, err := llm.NewGroq(cfg.LLM.GroqBaseURL, cfg.LLM.GroqAPIKey, cfg.LLM.GroqModel)
	if err != nil {
		logrus.Fatalf("groq init error: %v", err)
	}
	defer g.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := g.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "groq check failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("groq ok (model %s)\n", cfg.LLM.GroqModel)
}
