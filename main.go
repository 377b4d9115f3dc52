//go:build windows && !dev

package main

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/getlantern/systray"

	conf "github.com/bartek5186/pcm2feed/internal/config"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/integrations/feeds"
	logs "github.com/bartek5186/pcm2feed/internal/logs"
	"github.com/bartek5186/pcm2feed/internal/observability"
	syncer "github.com/bartek5186/pcm2feed/internal/syncer"
)

//go:embed assets/icon.ico
var iconData []byte

// wersję możesz nadpisać przez: -ldflags "-X 'main.ver=1.0.1'"
var ver = "1.0.0"

func main() {
	// katalog danych aplikacji (logi, config, baza)
	appDir := mustAppDataDir("pcm2feed")
	log := logs.New(filepath.Join(appDir, "app.log"), false)
	conf.LoadEnv(appDir)

	cfgPath := filepath.Join(appDir, "config.json")
	cfg, firstRun, err := conf.LoadOrCreate(cfgPath)
	if err != nil {
		panic(err)
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
	defer dbh.Close()

	metrics := observability.NewMetrics()
	observability.Start(log, cfg.MetricsPort, metrics)

	// kontekst sterujący życiem procesu (CTRL+C / zamknięcie sesji)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	s := syncer.New(log, cfg, dbh.DB, metrics)

	// jeśli proces dostanie sygnał – zatrzymaj syncer i zamknij tray
	go func() {
		<-ctx.Done()
		s.Stop()
		systray.Quit()
	}()

	systray.Run(func() {
		// onReady
		if len(iconData) > 0 {
			systray.SetIcon(iconData)
		}
		systray.SetTooltip(fmt.Sprintf("PCM2FEED %s", ver))

		mStart := systray.AddMenuItem("Start eksportu", "Uruchom harmonogram")
		mStop := systray.AddMenuItem("Stop eksportu", "Zatrzymaj harmonogram")
		mStop.Disable()
		mExport := systray.AddMenuItem("Eksportuj teraz", "Wygeneruj wszystkie feedy")

		systray.AddSeparator()
		mOpenFeeds := systray.AddMenuItem("Otwórz katalog feedów", "")
		mOpenLogs := systray.AddMenuItem("Otwórz logi", "Pokaż plik log")
		mOpenCfg := systray.AddMenuItem("Ustawienia (config.json)", "Otwórz plik konfiguracyjny")
		mReload := systray.AddMenuItem("Przeładuj konfigurację", "Wczytaj ponownie config.json")
		systray.AddSeparator()
		mAbout := systray.AddMenuItem(fmt.Sprintf("O programie (%s)", ver), "")
		mQuit := systray.AddMenuItem("Wyjście", "Zamknij aplikację")

		// AutoStart harmonogramu (nie mylić z autostartem Windows!)
		if cfg.AutoStart {
			if err := s.Start(ctx); err == nil {
				mStart.Disable()
				mStop.Enable()
				systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — działa", ver))
			} else {
				log.Error().Err(err).Msg("AutoStart nieudany")
				systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — błąd startu", ver))
			}
		}

		go func() {
			for {
				select {
				case <-mStart.ClickedCh:
					if err := s.Start(ctx); err != nil {
						log.Error().Err(err).Msg("Start error")
						systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — błąd startu", ver))
						continue
					}
					mStart.Disable()
					mStop.Enable()
					systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — działa", ver))

				case <-mStop.ClickedCh:
					s.Stop()
					mStop.Disable()
					mStart.Enable()
					systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — zatrzymane", ver))

				case <-mExport.ClickedCh:
					mExport.Disable()
					go func() {
						defer mExport.Enable()
						if err := s.RunNow(ctx, "feeds"); err != nil {
							log.Error().Err(err).Msg("Eksport na żądanie z błędami")
							systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — błąd eksportu", ver))
							return
						}
						systray.SetTooltip(fmt.Sprintf("PCM2FEED %s — eksport OK %s", ver, time.Now().Format("15:04")))
					}()

				case <-mOpenFeeds.ClickedCh:
					var fc feeds.Config
					if err := cfg.UnmarshalIntegration("feeds", &fc); err == nil {
						openInExplorer(fc.RootDir)
					}

				case <-mOpenLogs.ClickedCh:
					openInExplorer(filepath.Join(appDir, "app.log"))

				case <-mOpenCfg.ClickedCh:
					openInExplorer(cfgPath)

				case <-mReload.ClickedCh:
					newCfg, _, err := conf.LoadOrCreate(cfgPath)
					if err != nil {
						log.Error().Err(err).Msg("Błąd reloadu")
						continue
					}
					cfg = newCfg
					logs.SetLevel(cfg.LogLevel)
					s.UpdateConfig(cfg)
					log.Info().Msg("Konfiguracja przeładowana")

				case <-mAbout.ClickedCh:
					log.Info().Msgf("PCM2FEED %s | %s", ver, runtime.Version())

				case <-mQuit.ClickedCh:
					// łagodne zamykanie
					cancel()
					s.Stop()
					systray.Quit()
					return
				}
			}
		}()
	}, func() {
		// onExit — daj chwilę loggerowi na flush (jeśli potrzebuje)
		time.Sleep(50 * time.Millisecond)
	})
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

// przenośne otwieranie plików/katalogów w domyślnej aplikacji
func openInExplorer(path string) {
	switch runtime.GOOS {
	case "windows":
		// "start" musi być uruchomiony przez cmd /C, z pustym tytułem okna ""
		_ = exec.Command("cmd", "/C", "start", "", path).Start()
	case "darwin":
		_ = exec.Command("open", path).Start()
	default:
		_ = exec.Command("xdg-open", path).Start()
	}
}
