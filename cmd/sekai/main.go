package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/pkg/profile"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sekai/sekai/internal/config"
	"github.com/sekai/sekai/internal/data"
)

const version = "0.1.0"

var printer = message.NewPrinter(language.English)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Printf("\033[36;1m  │\033[0m              sekai  v%s               \033[36;1m│\033[0m\n", version)
	fmt.Println("\033[36;1m  │\033[0m      discrete-time agent simulation       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := printer.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main simulation logic ─────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/sekai.toml"
	if p := os.Getenv("SEKAI_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	if mode := os.Getenv("SEKAI_PROFILE"); mode != "" {
		defer startProfile(mode).Stop()
	}

	printBanner()

	// 3. Load scenario
	printSection("Scenario")
	sc, err := data.LoadScenario(cfg.Simulation.Scenario, cfg.World.Dimensions)
	if err != nil {
		return fmt.Errorf("load scenario: %w", err)
	}
	printOK(fmt.Sprintf("%s (%s, %dD)", cfg.Simulation.Scenario, sc.Kind, sc.Dims))
	printStat("Entities", sc.Count())
	printStat("Stimuli", len(sc.Stimuli))

	// 4. Build world and systems
	sim, err := build(sc, cfg, log)
	if err != nil {
		return fmt.Errorf("build world: %w", err)
	}
	defer sim.Close()

	maxTicks := cfg.Simulation.MaxTicks
	if sc.Ticks > 0 {
		maxTicks = sc.Ticks
	}

	// 5. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(shutdownCh)

	var tickC <-chan time.Time
	if cfg.Simulation.TickRate > 0 {
		ticker := time.NewTicker(cfg.Simulation.TickRate)
		defer ticker.Stop()
		tickC = ticker.C
	}

	printSection("Running")
	if maxTicks > 0 {
		printReady(printer.Sprintf("%d ticks (tick: %s)", maxTicks, cfg.Simulation.TickRate))
	} else {
		printReady(fmt.Sprintf("until interrupted (tick: %s)", cfg.Simulation.TickRate))
	}
	fmt.Println()

	started := time.Now()
	for maxTicks == 0 || sim.stats.Ticks < maxTicks {
		if sig, stop := wait(tickC, shutdownCh); stop {
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			break
		}
		sim.runner.Tick(cfg.Simulation.TickRate)
		if sim.population() == 0 {
			log.Info("population extinct", zap.Uint64("tick", sim.stats.Ticks))
			break
		}
	}

	printSummary(sim, time.Since(started))
	return nil
}

// wait blocks until the next tick is due. It reports a pending shutdown
// signal instead when one arrives first.
func wait(tickC <-chan time.Time, shutdownCh <-chan os.Signal) (os.Signal, bool) {
	if tickC == nil {
		select {
		case sig := <-shutdownCh:
			return sig, true
		default:
			return nil, false
		}
	}
	select {
	case <-tickC:
		return nil, false
	case sig := <-shutdownCh:
		return sig, true
	}
}

func printSummary(sim *simulation, elapsed time.Duration) {
	fmt.Println()
	printSection("Summary")
	printStat("Ticks", int(sim.stats.Ticks))
	printStat("Population", sim.population())
	printStat("Messages", sim.stats.Messages)
	printStat("Deliveries", sim.stats.Delivered)
	printStat("Spawned", sim.stats.Spawned)
	printStat("Despawned", sim.stats.Despawned)
	printStat("Skipped deliveries", sim.stats.Skipped)
	printStat("Rejected stimuli", sim.stats.Rejected)
	printStat("Faults", sim.stats.Faults)
	printOK(fmt.Sprintf("finished in %s", elapsed.Round(time.Millisecond)))
	if sim.board != nil && sim.board.Width <= 80 {
		fmt.Println()
		printSection("Board")
		for _, row := range strings.Split(strings.TrimRight(sim.board.String(), "\n"), "\n") {
			fmt.Printf("  %s\n", row)
		}
	}
	fmt.Println()
}

// startProfile starts a pkg/profile session writing to the working
// directory. mode is cpu, mem, block, mutex or trace.
func startProfile(mode string) interface{ Stop() } {
	var kind func(*profile.Profile)
	switch mode {
	case "mem":
		kind = profile.MemProfile
	case "block":
		kind = profile.BlockProfile
	case "mutex":
		kind = profile.MutexProfile
	case "trace":
		kind = profile.TraceProfile
	default:
		kind = profile.CPUProfile
	}
	return profile.Start(kind, profile.ProfilePath("."), profile.NoShutdownHook)
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
