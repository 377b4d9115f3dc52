//go:build !windows || dev

package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	conf "github.com/bartek5186/pcm2feed/internal/config"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/integrations/feeds"
	logs "github.com/bartek5186/pcm2feed/internal/logs"
	"github.com/bartek5186/pcm2feed/internal/observability"
	syncer "github.com/bartek5186/pcm2feed/internal/syncer"
)

var ver = "1.0.0"

func main() {
	appDir := mustAppDataDir("pcm2feed")
	log := logs.New(filepath.Join(appDir, "app.log"), true)
	conf.LoadEnv(appDir)

	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	if firstRun {
		log.Info().Msgf("Utworzono domyślną konfigurację: %s", cfgPath)
	}
	logs.SetLevel(cfg.LogLevel)

	dbh, err := db.Open(appDir, cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("DB open error")
	}
	if err := dbh.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("DB migrate error")
	}
	log.Info().Str("db", dbh.Path).Str("driver", dbh.Driver).Msg("DB ready")
	defer dbh.Close()

	metrics := observability.NewMetrics()
	if srv := observability.Start(log, cfg.MetricsPort, metrics); srv != nil {
		defer srv.Close()
	}

	log.Info().Msg("Aplikacja (CLI) uruchomiona")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := syncer.New(log, cfg, dbh.DB, metrics)

	// AutoStart tak jak w GUI
	if cfg.AutoStart {
		if err := s.Start(ctx); err != nil {
			log.Error().Msgf("AutoStart nieudany: %v", err)
		} else {
			log.Info().Msgf("PCM2FEED %s — działa", ver)
		}
	}

	// Prosta pętla poleceń w terminalu
	fmt.Println("PCM2FEED CLI", ver)
	fmt.Println("Komendy: start | stop | export | import | reload | status | paths | quit")
	reader := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			// EOF na stdin (np. uruchomienie z pipe) – zamknij łagodnie
			s.Stop()
			return
		}
		cmd := strings.TrimSpace(strings.ToLower(line))

		switch cmd {
		case "start":
			if err := s.Start(ctx); err != nil {
				log.Error().Msgf("Start error: %v", err)
				fmt.Println("Błąd startu:", err)
				continue
			}
			fmt.Println("Start OK")
		case "stop":
			s.Stop()
			fmt.Println("Zatrzymano")
		case "export":
			if err := s.RunNow(ctx, "feeds"); err != nil {
				fmt.Println("Eksport z błędami:", err)
				continue
			}
			fmt.Println("Eksport OK")
		case "import":
			if err := s.RunNow(ctx, "importer"); err != nil {
				fmt.Println("Import nieudany:", err)
				continue
			}
			fmt.Println("Import OK")
		case "reload":
			newCfg, _, err := conf.LoadOrCreate(cfgPath)
			if err != nil {
				log.Error().Msgf("Błąd reloadu: %v", err)
				fmt.Println("Błąd reloadu:", err)
				continue
			}
			cfg = newCfg
			logs.SetLevel(cfg.LogLevel)
			s.UpdateConfig(cfg)
			log.Info().Msg("Konfiguracja przeładowana")
			fmt.Println("Konfiguracja przeładowana")
		case "status":
			if s.IsRunning() {
				fmt.Println("Status: DZIAŁA")
			} else {
				fmt.Println("Status: ZATRZYMANY")
			}
			if last, ok := db.GetKV(dbh.DB, feeds.KVLastExport); ok {
				fmt.Println("Ostatni eksport:", last)
			}
		case "paths":
			fmt.Println("Logi:", filepath.Join(appDir, "app.log"))
			fmt.Println("Config:", cfgPath)
			fmt.Println("DB:", dbh.Path)
			var fc feeds.Config
			if err := cfg.UnmarshalIntegration("feeds", &fc); err == nil {
				fmt.Println("Feedy:", fc.RootDir)
			}
		case "quit", "exit":
			cancel()
			s.Stop()
			time.Sleep(50 * time.Millisecond)
			return
		case "":
			// enter – ignoruj
		default:
			fmt.Println("Nieznana komenda. Użyj: start | stop | export | import | reload | status | paths | quit")
		}
	}
}

func mustAppDataDir(name string) string {
	base, err := os.UserConfigDir()
	if err != nil {
		panic(err)
	}
	p := filepath.Join(base, name)
	_ = os.MkdirAll(p, 0o755)
	return p
}
