package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/playtube/server/internal/controller"
	"github.com/playtube/server/internal/pipedapi"
	watchredis "github.com/playtube/server/internal/repository/watch/redis"
	"github.com/playtube/server/internal/session"
	"github.com/playtube/server/internal/sponsorblock"
	"github.com/playtube/server/pkg/ctxlogger"
	"github.com/playtube/server/pkg/redisclient"
)

type AppConfig struct {
	Host             string   `json:"host"`
	Port             int      `json:"port"`
	LogLevel         string   `json:"log_level"`
	APIBaseURL       string   `json:"api_base_url"`
	SponsorBlockURL  string   `json:"sponsorblock_url"`
	SkipCategories   []string `json:"skip_categories"`
	Autoplay         bool     `json:"autoplay"`
	MaxQualityHeight int      `json:"max_quality_height"`
	AllowDegraded    bool     `json:"allow_degraded"`
	RedisPort        int      `json:"redis_port"`
	RedisHost        string   `json:"redis_host"`
	RedisPassword    string   `json:"-"`
}

func (cfg *AppConfig) Validate() error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535")
	}
	if cfg.APIBaseURL == "" {
		return fmt.Errorf("api base url is required")
	}
	if cfg.MaxQualityHeight < 0 {
		return fmt.Errorf("max quality height must not be negative")
	}
	return nil
}

// segmentSource binds the configured skip categories to the sponsorblock
// client.
type segmentSource struct {
	client     *sponsorblock.Client
	categories []string
}

func (s segmentSource) Segments(ctx context.Context, videoID string) ([]sponsorblock.Segment, error) {
	return s.client.Segments(ctx, videoID, s.categories)
}

func Run(ctx context.Context, cfg *AppConfig) error {
	logLevel := slog.LevelInfo
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(cfg.LogLevel))); err != nil {
		log.Fatal(err)
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     logLevel,
			AddSource: true,
		}),
	}

	logger := slog.New(&h)

	rc, err := redisclient.NewRedisClient(&redisclient.Config{
		Port:     cfg.RedisPort,
		Host:     cfg.RedisHost,
		Password: cfg.RedisPassword,
	})
	if err != nil {
		return fmt.Errorf("failed to create redis client: %w", err)
	}
	defer rc.Close()

	watchRepo := watchredis.NewRepo(rc, 24*30*time.Hour)
	api := pipedapi.NewClient(cfg.APIBaseURL)
	segments := segmentSource{
		client:     sponsorblock.NewClient(cfg.SponsorBlockURL),
		categories: cfg.SkipCategories,
	}

	engine := controller.NewRemoteEngine()
	settings := controller.NewSettings(cfg.Autoplay, cfg.MaxQualityHeight)
	sess := session.NewController(engine, segments, watchRepo, settings, session.Config{
		AllowDegraded: cfg.AllowDegraded,
	})

	lastPlayed, err := sess.Restore(ctx)
	if err != nil {
		logger.WarnContext(ctx, "failed to restore session", "error", err)
	} else if lastPlayed != nil {
		logger.InfoContext(ctx, "restored session", "last_played", *lastPlayed)
	}

	ctrl := controller.NewController(sess, api, api, engine, settings, logger)
	server := &http.Server{Addr: fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), Handler: ctrl.Mux()}

	// graceful shutdown
	serverCtx, serverStopCtx := context.WithCancel(ctx)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	go func() {
		<-sig

		shutdownCtx, c := context.WithTimeout(serverCtx, 30*time.Second)
		defer c()

		go func() {
			<-shutdownCtx.Done()
			if shutdownCtx.Err() == context.DeadlineExceeded {
				log.Fatal("graceful shutdown timed out.. forcing exit.")
			}
		}()

		if err := sess.Close(shutdownCtx); err != nil {
			logger.WarnContext(shutdownCtx, "failed to close session", "error", err)
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Fatal(err)
		}
		serverStopCtx()
	}()

	logger.InfoContext(serverCtx, "starting server", "address", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}

	<-serverCtx.Done()

	return nil
}
