// Package main provides the listening monitor entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	zlog "github.com/rs/zerolog/log"

	"github.com/jacobreesgit/MusicTrackingNew/internal/app/monitor"
	"github.com/jacobreesgit/MusicTrackingNew/internal/app/notification"
	"github.com/jacobreesgit/MusicTrackingNew/internal/app/stats"
	"github.com/jacobreesgit/MusicTrackingNew/internal/infra/config"
	"github.com/jacobreesgit/MusicTrackingNew/internal/infra/logger"
	"github.com/jacobreesgit/MusicTrackingNew/internal/infra/spotify"
	"github.com/jacobreesgit/MusicTrackingNew/internal/infra/store"
)

var (
	app        = kingpin.New("listening-monitor", "Spotify listening session monitor")
	configPath = app.Flag("config", "Path to config file").Default("config/monitor.yaml").String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", "Path to log file (default: stderr)").String()
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start monitoring (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	kingpin.MustParse(app.Parse(os.Args[1:]))

	// Initialize logger
	loggerConfig := logger.Config{Level: "info"}
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	if err := logger.Init(loggerConfig); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	// Load config
	zlog.Info().Msgf("Loading config from %s", *configPath)
	cfg, err := config.Load(*configPath)
	if err != nil {
		zlog.Fatal().Msgf("Failed to load config: %v", err)
	}

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("Monitor error: %v", err)
		os.Exit(1)
	}
}

// run executes the main monitor logic. Using a separate function ensures
// defer statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	ctx := context.Background()

	// Create Spotify client
	provider, err := spotify.New(ctx, spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		RefreshToken: cfg.Spotify.RefreshToken,
	})
	if err != nil {
		return fmt.Errorf("failed to create Spotify client: %w", err)
	}

	// Open local storage
	db, err := store.Open(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to open storage: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			zlog.Error().Msgf("Failed to close storage: %v", cerr)
		}
	}()

	aggregator := stats.NewAggregator(cfg.Stats.TopCount)
	scheduler := stats.NewScheduler(cfg.StatsProcessInterval(), cfg.CleanupInterval())

	engine, err := monitor.NewEngine(monitor.Config{
		PollInterval:       cfg.PollInterval(),
		PositionInterval:   cfg.PositionSampleInterval(),
		SessionGap:         cfg.SessionGap(),
		MinSessionDuration: cfg.MinSessionDuration(),
		SkipThreshold:      cfg.Tracking.SkipThreshold,
		HistoryRetention:   cfg.HistoryRetention(),
	}, provider, aggregator, scheduler, clockwork.NewRealClock())
	if err != nil {
		return fmt.Errorf("failed to create engine: %w", err)
	}
	defer func() {
		if cerr := engine.Close(); cerr != nil {
			zlog.Error().Msgf("Failed to close engine: %v", cerr)
		}
	}()

	// Fan events out to subscribers; the default subscriber persists them.
	notifier := notification.NewManager()
	defer notifier.Close()
	notifier.Subscribe(notification.StreamFunc(func(ev monitor.Event) error {
		return persistEvent(ctx, db, cfg, ev)
	}))
	notifier.Subscribe(notification.StreamFunc(func(ev monitor.Event) error {
		zlog.Debug().Fields(ev.Payload).Msgf("event: %s", ev.Type)
		return nil
	}))

	eventsDone := make(chan struct{})
	go func() {
		defer close(eventsDone)
		for ev := range engine.Events() {
			notifier.Broadcast(ev)
		}
	}()

	// The host warns about suspension with SIGUSR1; treat it as an
	// expiring execution grant.
	grants := newSignalGrantNotifier()
	defer grants.Close()
	engine.WatchGrants(grants)

	if err := engine.Start(); err != nil {
		return fmt.Errorf("failed to start monitoring: %w", err)
	}

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	zlog.Info().Msg("Received shutdown signal...")

	if err := engine.Stop(); err != nil {
		zlog.Error().Msgf("Failed to stop engine: %v", err)
	}

	// Closing the engine ends the event stream so the drain goroutine can
	// flush everything Stop produced.
	if err := engine.Close(); err != nil {
		zlog.Error().Msgf("Failed to close engine: %v", err)
	}
	<-eventsDone

	zlog.Info().Msg("Monitor stopped")
	return nil
}

// persistEvent routes storage-relevant events to the database.
func persistEvent(ctx context.Context, db *store.Store, cfg *config.Config, ev monitor.Event) error {
	switch ev.Type {
	case monitor.EventSessionEnded:
		if ev.Record == nil {
			return nil
		}
		return db.SaveSession(ctx, ev.Record)
	case monitor.EventStatsUpdated:
		if ev.Weekly != nil {
			if err := db.SaveSnapshot(ctx, ev.Weekly); err != nil {
				return err
			}
		}
		if ev.Monthly != nil {
			if err := db.SaveSnapshot(ctx, ev.Monthly); err != nil {
				return err
			}
		}
		cutoff := time.Now().Add(-cfg.HistoryRetention())
		if n, err := db.DeleteSessionsBefore(ctx, cutoff); err != nil {
			return err
		} else if n > 0 {
			zlog.Info().Msgf("Removed %d expired sessions from storage", n)
		}
		return nil
	default:
		return nil
	}
}

// signalGrantNotifier adapts SIGUSR1/SIGUSR2 into execution-grant signals.
type signalGrantNotifier struct {
	signals chan monitor.GrantSignal
	sigCh   chan os.Signal
	done    chan struct{}
}

func newSignalGrantNotifier() *signalGrantNotifier {
	n := &signalGrantNotifier{
		signals: make(chan monitor.GrantSignal, 1),
		sigCh:   make(chan os.Signal, 1),
		done:    make(chan struct{}),
	}
	signal.Notify(n.sigCh, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		for {
			select {
			case <-n.done:
				return
			case sig := <-n.sigCh:
				var gs monitor.GrantSignal
				if sig == syscall.SIGUSR1 {
					gs = monitor.GrantExpiring
				} else {
					gs = monitor.GrantStarted
				}
				select {
				case n.signals <- gs:
				case <-n.done:
					return
				}
			}
		}
	}()
	return n
}

// Signals returns the grant signal channel.
func (n *signalGrantNotifier) Signals() <-chan monitor.GrantSignal {
	return n.signals
}

// Close stops signal delivery.
func (n *signalGrantNotifier) Close() {
	signal.Stop(n.sigCh)
	close(n.done)
}
