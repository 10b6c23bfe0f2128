// brickgate - LEGO brick telemetry daemon
//
// This is the main entry point for the brickgate daemon. It connects to
// one EV3 or NXT brick over a serial transport, polls the configured
// sensors through the command pipeline, and fans the readings out to
// MQTT and a local SQLite datalog.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/brickgate/brickgate/internal/datalog"
	"github.com/brickgate/brickgate/internal/infrastructure/config"
	"github.com/brickgate/brickgate/internal/infrastructure/database"
	"github.com/brickgate/brickgate/internal/infrastructure/logging"
	"github.com/brickgate/brickgate/internal/telemetry"
	"github.com/brickgate/brickgate/pkg/protocol/ev3"
	"github.com/brickgate/brickgate/pkg/protocol/nxt"
	"github.com/brickgate/brickgate/pkg/robot"
	"github.com/brickgate/brickgate/pkg/transport"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// pruneInterval is how often old readings are purged from the datalog.
const pruneInterval = time.Hour

// keepAwakeMinutes is the brick sleep timer written by each EV3 keep-alive.
const keepAwakeMinutes = 10

// flushTimeout bounds the critical-command flush during shutdown.
const flushTimeout = 2 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting brickgate",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open datalog (optional)
	var store *datalog.Store
	if cfg.Datalog.Enabled {
		db, openErr := database.Open(database.Config{
			Path:        cfg.Database.Path,
			WALMode:     cfg.Database.WALMode,
			BusyTimeout: cfg.Database.BusyTimeout,
		})
		if openErr != nil {
			return fmt.Errorf("opening database: %w", openErr)
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		store, err = datalog.New(ctx, db)
		if err != nil {
			return fmt.Errorf("initialising datalog: %w", err)
		}
		log.Info("datalog ready", "retention", cfg.Datalog.Retention)
	} else {
		log.Info("datalog disabled")
	}

	// Connect to MQTT broker (optional)
	var tele *telemetry.Client
	if cfg.MQTT.Enabled {
		tele, err = telemetry.Connect(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("connecting to MQTT: %w", err)
		}
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := tele.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", cfg.BrokerURL(),
			"client_id", cfg.MQTT.Broker.ClientID,
		)

		tele.SetOnConnect(func() {
			log.Info("MQTT reconnected")
		})
		tele.SetOnDisconnect(func(err error) {
			log.Warn("MQTT disconnected", "error", err)
		})
	} else {
		log.Info("MQTT disabled")
	}

	// Connect to the brick
	rb, err := connectRobot(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connecting to robot: %w", err)
	}
	defer func() {
		log.Info("disconnecting from robot", "robot", cfg.Robot.Name)
		flushCtx, flushCancel := context.WithTimeout(context.Background(), flushTimeout)
		defer flushCancel()
		if flushErr := robot.DefaultRegistry.FlushAll(flushCtx); flushErr != nil {
			log.Warn("flushing pipelines", "error", flushErr)
		}
		if closeErr := rb.close(); closeErr != nil {
			log.Error("error closing robot", "error", closeErr)
		}
		if tele != nil {
			if pubErr := tele.PublishRobotStatus(cfg.Robot.Name, telemetry.StatusOffline); pubErr != nil {
				log.Warn("publishing robot offline status", "error", pubErr)
			}
		}
	}()
	log.Info("robot connected",
		"robot", cfg.Robot.Name,
		"class", cfg.Robot.Class,
		"firmware", rb.firmware,
		"sensors", len(rb.pollers),
	)

	if tele != nil {
		if pubErr := tele.PublishRobotStatus(cfg.Robot.Name, telemetry.StatusOnline); pubErr != nil {
			log.Warn("publishing robot online status", "error", pubErr)
		}
	}

	// Background loops: keep-alive, sensor polling, datalog pruning.
	// All stop when ctx is cancelled; wg.Wait runs before the deferred
	// closes so no loop touches a closed pipeline.
	var wg sync.WaitGroup
	defer wg.Wait()

	if cfg.Robot.KeepAliveInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keepAlive(ctx, rb, cfg.Robot.KeepAliveInterval, log)
		}()
	}

	for _, p := range rb.pollers {
		wg.Add(1)
		go func(p poller) {
			defer wg.Done()
			pollSensor(ctx, p, cfg, tele, store, log)
		}(p)
	}

	if store != nil && cfg.Datalog.Retention > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pruneLoop(ctx, store, cfg.Datalog.Retention, log)
		}()
	}

	log.Info("initialisation complete, polling sensors")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses BRICKGATE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("BRICKGATE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// poller is one configured sensor with a family-specific read function.
type poller struct {
	name string
	port string
	kind string
	read func(ctx context.Context) (float64, bool)
}

// brick abstracts the family-specific robot handle for the daemon loops.
type brick struct {
	firmware  string
	close     func() error
	keepAwake func() error
	pollers   []poller
}

// connectRobot opens the configured serial port, constructs the handle
// for the configured brick family and builds one poller per sensor.
func connectRobot(ctx context.Context, cfg *config.Config, log *logging.Logger) (*brick, error) {
	tr, err := transport.OpenSerial(transport.SerialConfig{
		Name: cfg.Robot.Port,
		Baud: cfg.Robot.Baud,
	})
	if err != nil {
		return nil, fmt.Errorf("opening serial port %s: %w", cfg.Robot.Port, err)
	}

	opts := []robot.Option{
		robot.WithTransport(tr),
		robot.WithLogger(log),
	}
	if cfg.Robot.MinFirmware != "" {
		opts = append(opts, robot.WithMinFirmware(cfg.Robot.MinFirmware))
	}

	switch cfg.Robot.Class {
	case "ev3":
		h, err := robot.NewEV3(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return &brick{
			firmware:  h.Firmware,
			close:     h.Close,
			keepAwake: func() error { return h.KeepAwake(keepAwakeMinutes) },
			pollers:   ev3Pollers(h, cfg.Sensors),
		}, nil
	case "nxt":
		h, err := robot.NewNXT(ctx, opts...)
		if err != nil {
			return nil, err
		}
		return &brick{
			firmware:  h.Firmware,
			close:     h.Close,
			keepAwake: h.KeepAwake,
			pollers:   nxtPollers(h, cfg.Sensors),
		}, nil
	default:
		// Validate() rejects other classes, this is unreachable from Load.
		return nil, fmt.Errorf("unknown robot class %q", cfg.Robot.Class)
	}
}

// ev3Pollers maps sensor configs to typed EV3 reads.
func ev3Pollers(h *robot.EV3, sensors []config.SensorConfig) []poller {
	pollers := make([]poller, 0, len(sensors))
	for _, sc := range sensors {
		s := h.Sensor(ev3.InPort(sc.Port - 1))
		var read func(ctx context.Context) (float64, bool)

		switch sc.Kind {
		case "touch":
			read = func(ctx context.Context) (float64, bool) {
				pressed, ok := s.Pressed(ctx)
				return boolValue(pressed), ok
			}
		case "color":
			read = func(ctx context.Context) (float64, bool) {
				code, ok := s.ColorCode(ctx)
				return float64(code), ok
			}
		case "ambient":
			read = s.Ambient
		case "ultrasonic":
			read = s.DistanceCM
		case "gyro":
			read = s.Angle
		case "infrared":
			read = s.Proximity
		default:
			continue
		}

		pollers = append(pollers, poller{
			name: sc.Name,
			port: "in" + strconv.Itoa(sc.Port),
			kind: sc.Kind,
			read: read,
		})
	}
	return pollers
}

// nxtPollers maps sensor configs to typed NXT reads.
func nxtPollers(h *robot.NXT, sensors []config.SensorConfig) []poller {
	pollers := make([]poller, 0, len(sensors))
	for _, sc := range sensors {
		s := h.Sensor(nxt.SensorPort(sc.Port - 1))
		var read func(ctx context.Context) (float64, bool)

		switch sc.Kind {
		case "touch":
			read = func(ctx context.Context) (float64, bool) {
				pressed, ok := s.Pressed(ctx)
				return boolValue(pressed), ok
			}
		case "light":
			read = func(ctx context.Context) (float64, bool) {
				pct, ok := s.LightPercent(ctx, true)
				return float64(pct), ok
			}
		case "sound":
			read = func(ctx context.Context) (float64, bool) {
				db, ok := s.SoundDB(ctx, true)
				return float64(db), ok
			}
		case "ultrasonic":
			read = func(ctx context.Context) (float64, bool) {
				cm, ok := s.DistanceCM(ctx)
				return float64(cm), ok
			}
		default:
			continue
		}

		pollers = append(pollers, poller{
			name: sc.Name,
			port: "in" + strconv.Itoa(sc.Port),
			kind: sc.Kind,
			read: read,
		})
	}
	return pollers
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// keepAlive periodically resets the brick's sleep timer so it does not
// power down while the daemon is attached.
func keepAlive(ctx context.Context, b *brick, interval time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := b.keepAwake(); err != nil {
			log.Warn("keep-alive failed", "error", err)
		}
	}
}

// pollSensor samples one sensor at the configured interval and fans the
// reading out to MQTT and the datalog. A read absence counts as a failed
// sample; the loop stops after the configured ceiling of consecutive
// failures, matching the polling helpers' retry semantics.
func pollSensor(ctx context.Context, p poller, cfg *config.Config, tele *telemetry.Client, store *datalog.Store, log *logging.Logger) {
	log = log.With("sensor", p.name, "port", p.port, "kind", p.kind)

	ticker := time.NewTicker(cfg.Poll.Interval)
	defer ticker.Stop()

	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		value, ok := p.read(ctx)
		if !ok {
			failures++
			if failures >= cfg.Poll.FailureCeiling {
				log.Error("sensor poll stopped", "consecutive_failures", failures)
				return
			}
			log.Debug("sample absent", "consecutive_failures", failures)
			continue
		}
		failures = 0

		msg := telemetry.NewReading(cfg.Robot.Name, p.port, p.kind, value)

		if tele != nil {
			if err := tele.PublishReading(msg); err != nil {
				log.Warn("publishing reading", "error", err)
			}
		}

		if store != nil {
			_, err := store.Insert(ctx, datalog.Reading{
				Robot:      msg.Robot,
				Port:       msg.Port,
				Sensor:     msg.Sensor,
				Value:      msg.Value,
				RecordedAt: msg.RecordedAt,
			})
			if err != nil {
				log.Warn("recording reading", "error", err)
			}
		}
	}
}

// pruneLoop deletes readings older than the retention window, once at
// startup and then hourly.
func pruneLoop(ctx context.Context, store *datalog.Store, retention time.Duration, log *logging.Logger) {
	ticker := time.NewTicker(pruneInterval)
	defer ticker.Stop()

	for {
		deleted, err := store.Prune(ctx, retention)
		if err != nil {
			log.Warn("pruning datalog", "error", err)
		} else if deleted > 0 {
			log.Info("pruned datalog", "deleted", deleted, "retention", retention)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
