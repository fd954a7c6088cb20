// BrickCommander - remote control for motorised bricks behind an ESP32 BLE
// gateway.
//
// The process keeps the brick list, connects to the MQTT broker the
// gateway listens on, and exposes the driver API over HTTP and WebSocket.
// On SIGINT/SIGTERM every brick is stopped and disconnected before exit.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/nerrad567/brick-commander/migrations"

	"github.com/nerrad567/brick-commander/internal/api"
	"github.com/nerrad567/brick-commander/internal/brick"
	"github.com/nerrad567/brick-commander/internal/controller"
	"github.com/nerrad567/brick-commander/internal/infrastructure/broker"
	"github.com/nerrad567/brick-commander/internal/infrastructure/config"
	"github.com/nerrad567/brick-commander/internal/infrastructure/database"
	"github.com/nerrad567/brick-commander/internal/infrastructure/influxdb"
	"github.com/nerrad567/brick-commander/internal/infrastructure/logging"
	"github.com/nerrad567/brick-commander/internal/infrastructure/mqtt"
	"github.com/nerrad567/brick-commander/internal/session"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// shutdownGrace is added to the stop/disconnect sequence time when bounding
// shutdown.
const shutdownGrace = 5 * time.Second

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	log := logging.Default()
	log.Info("starting BrickCommander",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	configPath := getConfigPath()
	cfg, found, err := config.LoadOrDefault(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log = logging.New(cfg.Logging, version)
	if found {
		log.Info("configuration loaded", "path", configPath)
	} else {
		log.Info("no configuration file, using defaults", "path", configPath)
	}

	if cfg.MQTT.Embedded.Enabled {
		embedded, startErr := broker.Start(broker.Options{
			Address: cfg.MQTT.Embedded.Address,
			Logger:  log.Component("broker").Logger,
		})
		if startErr != nil {
			return fmt.Errorf("starting embedded broker: %w", startErr)
		}
		defer func() {
			log.Info("stopping embedded broker")
			if closeErr := embedded.Close(); closeErr != nil {
				log.Error("error stopping embedded broker", "error", closeErr)
			}
		}()
		cfg.MQTT.Broker.Host = embedded.Host()
		cfg.MQTT.Broker.Port = embedded.Port()
		log.Info("embedded broker started", "address", embedded.Addr())
	}

	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	registry := brick.NewRegistry(store)
	registry.SetLogger(log)
	if loadErr := registry.Load(ctx); loadErr != nil {
		return fmt.Errorf("loading bricks: %w", loadErr)
	}
	log.Info("brick registry initialised", "bricks", registry.Len())

	topics := mqtt.NewTopics(cfg.MQTT.Topics)
	sess := session.New(session.MQTTDialer(cfg.MQTT, log), session.Options{
		Topics: topics,
		QoS:    byte(cfg.MQTT.QoS),
	})
	sess.SetLogger(log.Component("session"))

	opts := controller.Options{StepDelay: cfg.GetShutdownStepDelay()}
	if opts.StepDelay == 0 {
		opts.StepDelay = -1 // explicit 0 in config means no pause
	}

	if cfg.InfluxDB.Enabled {
		influxClient, connErr := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Site.ID)
		if connErr != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", connErr)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		opts.Recorder = influxClient
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	ctrl := controller.New(registry, sess, opts)
	ctrl.SetLogger(log.Component("controller"))

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log.Component("api"),
			Controller: ctrl,
			Version:    version,
		})
		if err != nil {
			return fmt.Errorf("creating API server: %w", err)
		}
		if err := apiServer.Start(ctx); err != nil {
			return fmt.Errorf("starting API server: %w", err)
		}
	}

	log.Info("connecting to MQTT broker",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"topics", topics.All(),
	)
	go logSessionResult(log, ctrl.OpenSession(ctx))

	log.Info("initialisation complete, waiting for shutdown signal")
	<-ctx.Done()
	log.Info("shutdown signal received, cleaning up")

	if apiServer != nil {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg, registry.Len()))
	defer cancel()
	if shutdownErr := ctrl.Shutdown(shutdownCtx); shutdownErr != nil {
		log.Warn("brick shutdown incomplete", "error", shutdownErr)
	}

	log.Info("BrickCommander stopped")
	return nil
}

// openStore returns the configured brick store and a function that
// releases it.
func openStore(ctx context.Context, cfg *config.Config, log *logging.Logger) (brick.Store, func(), error) {
	switch cfg.Store.Backend {
	case config.StoreBackendSQLite:
		db, err := database.Open(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("opening database: %w", err)
		}
		closeDB := func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}
		if err := db.Migrate(ctx); err != nil {
			closeDB()
			return nil, nil, fmt.Errorf("running migrations: %w", err)
		}
		log.Info("brick store opened", "backend", cfg.Store.Backend, "path", db.Path())
		return brick.NewSQLiteStore(db.DB), closeDB, nil

	default:
		store, err := brick.NewFileStore(cfg.Store.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("opening brick file: %w", err)
		}
		log.Info("brick store opened", "backend", config.StoreBackendJSON, "path", store.Path())
		return store, func() {}, nil
	}
}

func logSessionResult(log *logging.Logger, result <-chan error) {
	err := <-result
	switch {
	case err == nil:
		log.Info("MQTT session connected")
	case errors.Is(err, session.ErrClosed):
		log.Debug("MQTT session closed before connecting")
	default:
		log.Warn("MQTT session not connected; reopen it from the API", "error", err)
	}
}

// shutdownTimeout allows two paused commands per brick plus a grace period.
func shutdownTimeout(cfg *config.Config, bricks int) time.Duration {
	step := cfg.GetShutdownStepDelay()
	return time.Duration(2*bricks)*step + shutdownGrace
}

func getConfigPath() string {
	if path := os.Getenv("BRICKCOMMANDER_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
