// Command tooltester invokes one registered tool directly, bypassing the model,
// to check a search collaborator and its formatting.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/logging"
	"github.com/menuka400/chatbot-spera/internal/tools"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("[WARN] failed to load .env, using process environment: %v", err)
	}

	configPath := flag.String("config", os.Getenv("CHATBOT_CONFIG"), "path to config.yaml")
	name := flag.String("tool", "", "tool name, e.g. AI_ML_Wikipedia")
	query := flag.String("query", "", "query passed to the tool")
	list := flag.Bool("list", false, "list registered tools and exit")
	timeout := flag.Duration("timeout", 30*time.Second, "request timeout")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load configuration: %v", err)
	}

	registry, err := tools.Build(cfg.Tools, cfg.Credentials, tools.Sources{}, logging.New(cfg.Logging))
	if err != nil {
		log.Fatalf("build tools: %v", err)
	}

	if *list {
		fmt.Println(registry.Catalogue())
		return
	}

	if *name == "" || strings.TrimSpace(*query) == "" {
		flag.Usage()
		log.Fatal("both -tool and -query are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	started := time.Now()
	out, err := registry.Invoke(ctx, *name, *query)
	if err != nil {
		log.Fatalf("invoke %s: %v", *name, err)
	}
	log.Printf("%s answered in %s", *name, time.Since(started).Round(time.Millisecond))
	fmt.Println(out)
}
