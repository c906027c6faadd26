// Hearth is a home-automation chat assistant.
//
// A local LLM interprets natural-language requests and emits structured
// tool calls that control devices, maintain a daily schedule, and manage
// notification preferences. Configuration is loaded from a single YAML
// file discovered automatically (see [config.DefaultSearchPaths]).
//
// Usage:
//
//	hearth chat              Start the interactive chat session (default)
//	hearth reset             Reset devices, events and today's schedule
//	hearth version           Print version information
//
// Inside a chat session, /move <room> changes the user's location and
// /quit exits. Everything else is sent to the assistant.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/hearthd/hearth/internal/agent"
	"github.com/hearthd/hearth/internal/buildinfo"
	"github.com/hearthd/hearth/internal/config"
	"github.com/hearthd/hearth/internal/llm"
	"github.com/hearthd/hearth/internal/notify"
	"github.com/hearthd/hearth/internal/schedule"
	"github.com/hearthd/hearth/internal/state"
	"github.com/hearthd/hearth/internal/store"
	"github.com/hearthd/hearth/internal/summarizer"
	"github.com/hearthd/hearth/internal/tools"
)

// main constructs the OS-level environment and delegates to [run] so the
// full startup-to-shutdown lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdin, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run is the real entry point. Arguments are parsed by hand: the flag
// package relies on package-level globals, and the surface here is two
// flags and three commands.
func run(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, args []string) error {
	var configPath string
	command := "chat"

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-"):
			command = args[i]
		default:
			return fmt.Errorf("unknown flag %q (try -help)", args[i])
		}
	}

	switch command {
	case "version":
		fmt.Fprintf(stdout, "%s\n", buildinfo.String())
		return nil
	case "chat":
		return runChat(ctx, stdin, stdout, stderr, configPath)
	case "reset":
		return runReset(stdout, stderr, configPath)
	default:
		return fmt.Errorf("unknown command %q (try -help)", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprint(w, `Usage: hearth [-config path] [command]

Commands:
  chat       Start the interactive chat session (default)
  reset      Reset devices, events and today's schedule
  version    Print version information
`)
	return nil
}

// loadConfig locates and parses the YAML configuration. A missing config
// file is not fatal: the built-in defaults describe a working household.
func loadConfig(explicit string, logger *slog.Logger) (*config.Config, error) {
	cfgPath, err := config.FindConfig(explicit)
	if err != nil {
		if explicit != "" {
			return nil, err
		}
		logger.Info("no config file found, using defaults")
		return config.Default(), nil
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	logger.Info("config loaded", "path", cfgPath)
	return cfg, nil
}

// bootstrap opens the store and assembles the state manager shared by
// every command.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*store.Store, *state.Manager, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}

	st, err := store.NewStore(filepath.Join(cfg.DataDir, "hearth.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	mgr, err := state.NewManager(st, schedule.Registry(cfg.Rooms), logger)
	if err != nil {
		st.Close()
		return nil, nil, fmt.Errorf("init state: %w", err)
	}

	info, err := mgr.UserInfo()
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	if info.Name == "" && cfg.User.Name != "" {
		info.Name = cfg.User.Name
		info.Condition = cfg.User.Condition
		if err := mgr.SetUserInfo(info); err != nil {
			st.Close()
			return nil, nil, err
		}
	}
	if loc, err := mgr.Location(); err == nil && loc == "" && cfg.DefaultLocation != "" {
		if err := mgr.SetLocation(cfg.DefaultLocation); err != nil {
			st.Close()
			return nil, nil, err
		}
	}

	return st, mgr, nil
}

func runChat(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, configPath string) error {
	// .env is optional; it only seeds variables expanded in config.yaml.
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return err
	}

	level, err := config.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	st, mgr, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	client := llm.NewOllamaClient(cfg.Ollama.Host)
	if err := client.Ping(ctx); err != nil {
		logger.Warn("Ollama not reachable, chat will degrade", "host", cfg.Ollama.Host, "error", err)
	}

	router := tools.NewRouter(mgr, nil, logger)
	router.SetRetrieval(cfg.Retrieval.TopK, cfg.Retrieval.Threshold)
	if cfg.Retrieval.Enabled {
		logger.Warn("retrieval enabled in config but no backend is built in; continuing without it")
	}

	notifier := notify.NewService(mgr, router, logger)
	sum := summarizer.New(st, client, cfg.Ollama.Model, logger, summarizer.DefaultConfig())

	a := agent.New(st, mgr, router, client, nil, notifier, sum, logger, agent.Config{
		Model:        cfg.Ollama.Model,
		RAGTopK:      cfg.Retrieval.TopK,
		RAGThreshold: cfg.Retrieval.Threshold,
		RAGWait:      time.Duration(cfg.Retrieval.WaitMS) * time.Millisecond,
	})

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Schedule firing and house checks run off a minute tick,
	// independent of user input.
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				msgs, err := a.Tick(ctx, now)
				if err != nil {
					logger.Error("schedule tick failed", "error", err)
					continue
				}
				for _, m := range msgs {
					fmt.Fprintf(stdout, "\n[hearth] %s\n> ", m)
				}
			}
		}
	}()

	fmt.Fprintf(stdout, "hearth %s — type /help for commands\n", buildinfo.Version)
	return repl(ctx, stdin, stdout, a, mgr, logger)
}

func repl(ctx context.Context, stdin io.Reader, stdout io.Writer, a *agent.Agent, mgr *state.Manager, logger *slog.Logger) error {
	scanner := bufio.NewScanner(stdin)
	fmt.Fprint(stdout, "> ")

	for scanner.Scan() {
		if ctx.Err() != nil {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
		case line == "/quit" || line == "/exit":
			fmt.Fprintln(stdout, "bye")
			return nil
		case line == "/help":
			fmt.Fprintln(stdout, "/move <room>   change your location\n/state         show current state\n/quit          exit")
		case line == "/state":
			snap, err := mgr.Snapshot()
			if err != nil {
				logger.Error("snapshot failed", "error", err)
				break
			}
			fmt.Fprint(stdout, snap.Describe())
		case strings.HasPrefix(line, "/move "):
			room := strings.TrimSpace(strings.TrimPrefix(line, "/move "))
			msg, err := a.MoveTo(ctx, room)
			if err != nil {
				fmt.Fprintf(stdout, "[hearth] %s\n", err)
				break
			}
			fmt.Fprintf(stdout, "[hearth] You are now in %s.\n", room)
			if msg != "" {
				fmt.Fprintf(stdout, "[hearth] %s\n", msg)
			}
		default:
			reply, err := a.HandleMessage(ctx, line)
			if err != nil {
				logger.Error("chat turn failed", "error", err)
				fmt.Fprintln(stdout, "[hearth] Something went wrong. Please try again.")
				break
			}
			fmt.Fprintf(stdout, "[hearth] %s\n", reply)
		}
		fmt.Fprint(stdout, "> ")
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	fmt.Fprintln(stdout)
	return nil
}

// runReset restores the demo state: devices off, one-time events gone,
// today's schedule rebuilt from the base template.
func runReset(stdout, stderr io.Writer, configPath string) error {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(stderr, nil))
	cfg, err := loadConfig(configPath, logger)
	if err != nil {
		return err
	}

	st, mgr, err := bootstrap(cfg, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := mgr.Reset(mgr.Today()); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	fmt.Fprintln(stdout, "state reset")
	return nil
}
