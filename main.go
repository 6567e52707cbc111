package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/liut/showsmart/htdocs"
	"github.com/liut/showsmart/pkg/services/agent"
	"github.com/liut/showsmart/pkg/services/llm"
	"github.com/liut/showsmart/pkg/services/search"
	"github.com/liut/showsmart/pkg/services/stores"
	"github.com/liut/showsmart/pkg/settings"
	"github.com/liut/showsmart/pkg/telegram"
	"github.com/liut/showsmart/pkg/web"
)

func main() {
	app := &cli.App{
		Name:    "showsmart",
		Usage:   "Donny, the ShowSmart real estate touring assistant",
		Version: settings.Current.Version,
		Before: func(*cli.Context) error {
			var zlogger *zap.Logger
			if settings.InDevelop() {
				zlogger, _ = zap.NewDevelopment()
			} else {
				zlogger, _ = zap.NewProduction()
			}
			zap.ReplaceGlobals(zlogger)
			return nil
		},
		After: func(*cli.Context) error {
			_ = zap.L().Sync()
			return nil
		},
		Action: runWeb,
		Commands: []*cli.Command{
			{
				Name:   "web",
				Usage:  "serve the chat page, and the telegram bot when TELEGRAM_TOKEN is set",
				Action: runWeb,
			},
			{
				Name:  "usage",
				Usage: "show environment settings",
				Action: func(*cli.Context) error {
					return settings.Usage()
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		zap.S().Fatalw("run fail", "err", err)
	}
}

func newAgent() (*agent.Agent, error) {
	cfg := settings.Current
	preset, err := stores.LoadPreset(cfg.PresetFile)
	if err != nil {
		return nil, err
	}
	model := cfg.ChatModel
	if len(preset.Model) > 0 {
		model = preset.Model
	}
	temperature := cfg.Temperature
	if preset.Temperature > 0 {
		temperature = preset.Temperature
	}
	clients := llm.NewClients(llm.Options{
		BaseURL:     cfg.ModelBaseURL,
		Model:       model,
		Temperature: temperature,
	})

	var augmenter *search.Augmenter
	if cfg.SearchEnabled {
		augmenter = search.NewAugmenter(search.NewDuckDuckGo(cfg.SearchURL), cfg.SearchLimit)
	}
	if !cfg.HasAPIKey() {
		zap.S().Infow("no GOOGLE_API_KEY, users must enter a key per session")
	}
	return agent.New(agent.Config{APIKey: cfg.GoogleAPIKey, Model: model, Preset: preset}, clients, augmenter), nil
}

func newStore(ctx context.Context) (stores.SessionStore, error) {
	if len(settings.Current.RedisURI) == 0 {
		return stores.NewSessionStore(nil, settings.Current.SessionTTL), nil
	}
	rc, err := stores.NewRedisClient(ctx, settings.Current.RedisURI)
	if err != nil {
		return nil, err
	}
	return stores.NewSessionStore(rc, settings.Current.SessionTTL), nil
}

func runWeb(c *cli.Context) error {
	sugar := zap.S()
	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ag, err := newAgent()
	if err != nil {
		return err
	}
	sto, err := newStore(ctx)
	if err != nil {
		return err
	}

	srv := web.New(web.Config{
		Addr:          settings.Current.HTTPListen,
		Debug:         settings.InDevelop(),
		DocHandler:    http.FileServer(http.FS(htdocs.FS())),
		Agent:         ag,
		Store:         sto,
		ChatRateLimit: settings.Current.ChatRateLimit,
	})

	if token := settings.Current.TelegramToken; len(token) > 0 {
		go func() {
			if err := telegram.Run(ctx, token, telegram.NewHandler(ag, sto)); err != nil {
				sugar.Infow("telegram bot fail", "err", err)
			}
		}()
	}

	idleClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		sugar.Info("shuting down server...")
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Stop(sctx); err != nil {
			sugar.Infow("server shutdown:", "err", err)
		}
		close(idleClosed)
	}()

	err = srv.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		sugar.Infow("serve fail", "err", err)
		stop()
	} else {
		err = nil
	}

	<-idleClosed
	return err
}
