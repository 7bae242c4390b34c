package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/dimiro1/banner"
	"github.com/joho/godotenv"

	"github.com/menuka400/chatbot-spera/internal/app"
	"github.com/menuka400/chatbot-spera/internal/config"
	"github.com/menuka400/chatbot-spera/internal/logging"
	"github.com/menuka400/chatbot-spera/internal/model/profile"
	chatService "github.com/menuka400/chatbot-spera/internal/service/chat"
)

const bannerTemplate = `{{ .Title "CHATBOT" "" 0 }}
{{ .AnsiColor.BrightCyan }}%s{{ .AnsiColor.Default }}
`

// maxLineBytes bounds one line of terminal input.
const maxLineBytes = 1 << 20

var exitWords = map[string]struct{}{"quit": {}, "exit": {}, "bye": {}}

func main() {
	configPath := flag.String("config", os.Getenv("CHATBOT_CONFIG"), "path to config.yaml")
	profileID := flag.String("profile", "", "profile to chat with (defaults to agent.profile)")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "warning: failed to load .env: %v\n", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if !cfg.Agent.Verbose && cfg.Logging.Level == "info" {
		cfg.Logging.Level = "warn"
	}
	logger := logging.Component(logging.NewWithWriter(os.Stderr, cfg.Logging), "cli")
	slog.SetDefault(logger)

	bot, err := app.Build(ctx, cfg, app.Overrides{}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *profileID == "" {
		*profileID = cfg.Agent.Profile
	}
	p, err := bot.ChatSvc.Profile(*profileID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if quiet, _ := config.ParseBoolEnv("CHATBOT_NO_BANNER", false); !quiet {
		tpl := fmt.Sprintf(bannerTemplate, p.Title)
		banner.Init(os.Stdout, true, true, bytes.NewBufferString(tpl))
	}

	if err := run(ctx, os.Stdin, os.Stdout, bot.ChatSvc, p); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run drives one terminal conversation until an exit word, EOF or ctx ends it.
func run(ctx context.Context, in io.Reader, out io.Writer, chatSvc *chatService.Service, p profile.Profile) error {
	session, err := chatSvc.CreateSession(ctx, p.ID)
	if err != nil {
		return err
	}
	defer chatSvc.DeleteSession(context.Background(), session.ID)

	fmt.Fprintf(out, "\n%s\n", p.Greeting)

	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)
	var readErr error
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		readErr = scanner.Err()
	}()

	for {
		fmt.Fprint(out, "\nYou: ")

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintf(out, "\n%s\n", p.Farewell)
			return nil
		case l, ok := <-lines:
			if !ok {
				if readErr != nil {
					return fmt.Errorf("read input: %w", readErr)
				}
				fmt.Fprintf(out, "\n%s\n", p.Farewell)
				return nil
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if _, ok := exitWords[strings.ToLower(line)]; ok {
			fmt.Fprintf(out, "\n%s\n", p.Farewell)
			return nil
		}

		outcome, err := chatSvc.Converse(ctx, session.ID, line)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "\n%s: %s\n", p.Name, outcome.Text)
	}
}
