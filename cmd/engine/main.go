package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/config"
	"github.com/l1jgo/engine/internal/core/coordinator"
	"github.com/l1jgo/engine/internal/core/event"
	"github.com/l1jgo/engine/internal/data"
	"github.com/l1jgo/engine/internal/editor"
	"github.com/l1jgo/engine/internal/persist"
	"github.com/l1jgo/engine/internal/scripting"
	"github.com/l1jgo/engine/internal/serial"
	"github.com/l1jgo/engine/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

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
	fmt.Println("\033[36;1m  │\033[0m             l1jgo engine  v0.1.0          \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

// ── Engine ─────────────────────────────────────────────────────────

// logRenderer writes each frame's draw list to the debug log.
type logRenderer struct{ log *zap.Logger }

func (r logRenderer) Submit(items []system.DrawItem) {
	if ce := r.log.Check(zapcore.DebugLevel, "frame"); ce != nil {
		ce.Write(zap.Int("items", len(items)))
	}
}

func run() error {
	// 1. Load config
	cfgPath := "config/engine.toml"
	if p := os.Getenv("ENGINE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if errors.Is(err, fs.ErrNotExist) {
		cfg = config.Default()
	} else if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. World and systems
	printSection("world")
	c := coordinator.New(
		coordinator.WithMaxEntities(cfg.Engine.MaxEntities),
		coordinator.WithLogger(log),
	)
	if err := component.RegisterAll(c); err != nil {
		return err
	}
	printStat("component types", len(c.AllComponentTypes()))

	if _, err := system.RegisterAll(c, logRenderer{log: log.Named("render")}); err != nil {
		return err
	}

	var lua *scripting.Engine
	if cfg.Scripting.Dir != "" {
		lua = scripting.NewEngine(c, log.Named("lua"))
		defer lua.Close()
		scripts, err := lua.LoadDir(cfg.Scripting.Dir)
		if err != nil {
			return fmt.Errorf("load scripts: %w", err)
		}
		for _, s := range scripts {
			if err := lua.Register(s); err != nil {
				return err
			}
		}
		printStat("lua systems", len(scripts))
	}
	printStat("systems", len(c.Systems()))

	event.Subscribe(c.Events(), func(ev event.EntitiesChanged) {
		log.Debug("entities changed", zap.Stringer("kind", ev.Kind), zap.Stringer("entity", ev.Entity))
	})

	ser := serial.New(c, log)

	// 4. Optional snapshot store
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var snapshots *persist.SnapshotRepo
	restored := false
	if cfg.Database.Enabled {
		printSection("database")
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if _, err := persist.RunMigrations(ctx, db.Pool, log); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("migrations applied")
		st, err := db.Health(ctx)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		printStat("stored snapshots", int(st.Snapshots))
		snapshots = persist.NewSnapshotRepo(db)

		if cfg.Database.Restore {
			ids, found, err := persist.RestoreLatest(ctx, snapshots, ser, log)
			if err != nil && len(ids) == 0 {
				return fmt.Errorf("restore: %w", err)
			}
			if err != nil {
				log.Warn("snapshot partially restored", zap.Error(err))
			}
			if found {
				restored = true
				printStat("entities restored", len(ids))
			}
		}
		fmt.Println()
	}

	// 5. Prefabs and initial spawns; a restored world already holds them
	if !restored {
		spawned, err := spawnPrefabs(cfg.Data, ser)
		if err != nil {
			return err
		}
		printStat("entities spawned", spawned)
		fmt.Println()
	}

	save := func(label string) {
		if snapshots == nil {
			return
		}
		doc, err := ser.Snapshot()
		if err != nil {
			log.Error("snapshot failed", zap.Error(err))
			return
		}
		saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := snapshots.Save(saveCtx, label, doc); err != nil {
			log.Error("snapshot save failed", zap.Error(err))
		}
	}

	// 6. Editor console
	var commands <-chan string
	ed := editor.New(c, log.Named("editor"))
	if cfg.Engine.Console {
		commands = readLines(os.Stdin)
	}

	// 7. Frame loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Engine.TickRate)
	defer ticker.Stop()

	log.Info("frame loop started", zap.Duration("tick", cfg.Engine.TickRate), zap.Int("entities", c.EntityCount()))

	frame := 0
	last := time.Now()
	for {
		select {
		case now := <-ticker.C:
			dt := now.Sub(last)
			last = now

			c.Events().Flush()
			if err := c.UpdateSystems(dt); err != nil {
				log.Warn("deferred commands failed", zap.Int("frame", frame), zap.Error(err))
			}

			frame++
			if cfg.Database.SnapshotEvery > 0 && frame%cfg.Database.SnapshotEvery == 0 {
				save(fmt.Sprintf("frame-%d", frame))
			}
			if cfg.Engine.Frames > 0 && frame >= cfg.Engine.Frames {
				log.Info("frame limit reached", zap.Int("frames", frame), zap.Int("entities", c.EntityCount()))
				save("final")
				return nil
			}
		case line, ok := <-commands:
			if !ok {
				commands = nil
				continue
			}
			if err := ed.Exec(line, os.Stdout); err != nil {
				fmt.Fprintf(os.Stdout, "error: %v\n", err)
			}
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()), zap.Int("frames", frame))
			save("shutdown")
			return nil
		}
	}
}

// spawnPrefabs loads the prefab table and instantiates the configured spawns.
// A missing prefab file is only an error when spawns reference it.
func spawnPrefabs(cfg config.DataConfig, ser *serial.Serializer) (int, error) {
	table, err := data.LoadPrefabTable(cfg.PrefabPath)
	if errors.Is(err, fs.ErrNotExist) && len(cfg.Spawn) == 0 {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load prefabs: %w", err)
	}
	printStat("prefabs", table.Count())

	n := 0
	for _, sp := range cfg.Spawn {
		p := table.Get(sp.Prefab)
		if p == nil {
			return n, fmt.Errorf("spawn: unknown prefab %q", sp.Prefab)
		}
		for i := 0; i < sp.Count; i++ {
			if _, err := ser.Instantiate(p); err != nil {
				return n, fmt.Errorf("spawn %s: %w", sp.Prefab, err)
			}
			n++
		}
	}
	return n, nil
}

// readLines feeds stdin lines to the frame loop so editor commands run on
// the simulation goroutine.
func readLines(f *os.File) <-chan string {
	ch := make(chan string)
	go func() {
		defer close(ch)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			ch <- sc.Text()
		}
	}()
	return ch
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
