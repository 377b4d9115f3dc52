// internal/integrations/woocommerce/woocommerce.go
package woocommerce

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	"github.com/bartek5186/pcm2feed/internal/integrations"
	"github.com/rs/zerolog"
)

const DefaultFields = "id,sku,name,slug,status,regular_price,sale_price,short_description,images,attributes,meta_data,ean"

type Config struct {
	Enabled     bool   `json:"enabled"`
	BaseURL     string `json:"base_url"` // https://shop.example.com
	Username    string `json:"username"` // tylko do logów
	ConsumerKey string `json:"consumer_key"`
	ConsumerSec string `json:"consumer_secret"`
	PollSec     int    `json:"poll_sec"` // co ile sekund odświeżać katalog
	Fields      string `json:"fields"`   // _fields dla /products
	PerPage     int    `json:"per_page"`
}

type Woo struct {
	log  zerolog.Logger
	cfg  Config
	http *http.Client
	repo *catalog.Repository

	ctx    context.Context
	cancel context.CancelFunc
}

func New(log zerolog.Logger, cfg Config, repo *catalog.Repository) *Woo {
	if cfg.Fields == "" {
		cfg.Fields = DefaultFields
	}
	if cfg.PerPage <= 0 {
		cfg.PerPage = 100
	}
	return &Woo{
		log:  log,
		cfg:  cfg,
		repo: repo,
		http: &http.Client{Timeout: 20 * time.Second},
	}
}

func (w *Woo) Name() string { return "woocommerce" }

func (w *Woo) Start(ctx context.Context) error {
	if !w.cfg.Enabled {
		w.log.Info().Str("integration", w.Name()).Msg("wyłączona w configu — pomijam")
		return nil
	}
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.log.Info().Str("integration", w.Name()).Str("shop", w.cfg.BaseURL).Msg("start")

	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()

	// pierwszy strzał
	w.tick()

	for {
		select {
		case <-w.ctx.Done():
			w.log.Info().Str("integration", w.Name()).Msg("stop")
			return nil
		case <-ticker.C:
			w.tick()
			// jeśli ktoś zmieni PollSec w locie → odśwież
			ticker.Reset(w.interval())
		}
	}
}

func (w *Woo) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
}

// RunOnce – jednorazowe pobranie katalogu ze sklepu
func (w *Woo) RunOnce(ctx context.Context) error {
	if !w.cfg.Enabled {
		return errors.New("woocommerce: integracja wyłączona")
	}
	_, err := w.syncCatalog(ctx)
	return err
}

func (w *Woo) interval() time.Duration {
	sec := w.cfg.PollSec
	if sec <= 0 {
		sec = 600
	}
	return time.Duration(sec) * time.Second
}

func (w *Woo) tick() {
	n, err := w.syncCatalog(w.ctx)
	if err != nil {
		w.log.Error().Err(err).Str("integration", w.Name()).Msg("sync katalogu nieudany")
		return
	}
	w.log.Info().Str("integration", w.Name()).Int("products", n).Msg("katalog z Woo zsynchronizowany")
}

func factory(deps integrations.Deps, raw json.RawMessage) (integrations.Integration, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return New(deps.Log, cfg, catalog.New(deps.DB)), nil
}

func init() {
	integrations.Register("woocommerce", factory)
}
