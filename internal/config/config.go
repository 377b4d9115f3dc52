// internal/config/config.go
package conf

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/feed"
	"github.com/bartek5186/pcm2feed/internal/integrations/feeds"
	"github.com/bartek5186/pcm2feed/internal/integrations/importer"
	"github.com/bartek5186/pcm2feed/internal/integrations/woocommerce"
	"github.com/joho/godotenv"
)

// Główny config aplikacji
type Config struct {
	AutoStart           bool                       `json:"auto_start"`
	SyncIntervalSeconds int                        `json:"sync_interval_seconds"` // heartbeat syncera
	Database            db.Config                  `json:"database"`
	MetricsPort         string                     `json:"metrics_port,omitempty"`
	LogLevel            string                     `json:"log_level,omitempty"` // debug | info | warn | error
	Integrations        map[string]json.RawMessage `json:"integrations"` // nazwa -> surowy JSON integracji
}

// Defaults – config zapisywany przy pierwszym uruchomieniu
func Defaults(appDir string) *Config {
	imp := importer.Config{
		WatchDir: filepath.Join(appDir, "imports"),
		PollSec:  10,
	}
	fds := feeds.Config{
		RootDir:     filepath.Join(appDir, "www"),
		BaseURL:     feed.DefaultBaseURL,
		IntervalSec: 3600,
		Feeds: []feeds.FeedConfig{
			{Directory: "feeds", Format: string(feed.FormatCSV)},
			{Directory: "feeds", Format: string(feed.FormatXML)},
			{Directory: "feeds/heureka", Format: string(feed.FormatHeureka)},
		},
	}
	woo := woocommerce.Config{
		Enabled:     false,
		BaseURL:     "https://example.com",
		Username:    "admin@example.com",
		ConsumerKey: "ck_xxx",
		ConsumerSec: "cs_xxx",
		PollSec:     600,
		Fields:      woocommerce.DefaultFields,
		PerPage:     100,
	}
	rawImp, _ := json.Marshal(imp)
	rawFeeds, _ := json.Marshal(fds)
	rawWoo, _ := json.Marshal(woo)

	return &Config{
		AutoStart:           false,
		SyncIntervalSeconds: 60,
		LogLevel:            "info",
		Database:            db.Config{Driver: db.DriverSQLite},
		Integrations: map[string]json.RawMessage{
			"importer":    rawImp,
			"feeds":       rawFeeds,
			"woocommerce": rawWoo,
		},
	}
}

func LoadOrCreate(path string) (*Config, bool, error) {
	// upewnij się, że katalog istnieje
	_ = os.MkdirAll(filepath.Dir(path), 0o755)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg := Defaults(filepath.Dir(path))
			if err := Save(path, cfg); err != nil {
				return nil, false, fmt.Errorf("błąd zapisu domyślnego configa: %w", err)
			}
			ApplyEnv(cfg)
			return cfg, true, nil
		}
		return nil, false, fmt.Errorf("błąd otwierania configa: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, false, fmt.Errorf("błąd parsowania configa: %w", err)
	}
	if cfg.Integrations == nil {
		cfg.Integrations = map[string]json.RawMessage{}
	}
	ApplyEnv(&cfg)
	return &cfg, false, nil
}

func Save(path string, cfg *Config) error {
	_ = os.MkdirAll(filepath.Dir(path), 0o755)
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(cfg)
}

// LoadEnv wczytuje .env z katalogu aplikacji i z katalogu bieżącego (jeśli są)
func LoadEnv(appDir string) {
	_ = godotenv.Load(filepath.Join(appDir, ".env"))
	_ = godotenv.Load()
}

// ApplyEnv – zmienne środowiskowe nadpisują plik
func ApplyEnv(cfg *Config) {
	if v := os.Getenv("PCM2FEED_DB_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("PCM2FEED_DB_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("PCM2FEED_METRICS_PORT"); v != "" {
		cfg.MetricsPort = v
	}
}

// Helper do odczytu konkretnej integracji do struktury docelowej
func (c *Config) UnmarshalIntegration(name string, v any) error {
	raw, ok := c.Integrations[name]
	if !ok {
		return fmt.Errorf("brak integracji %q w configu", name)
	}
	return json.Unmarshal(raw, v)
}
