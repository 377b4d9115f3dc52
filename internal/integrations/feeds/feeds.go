// Package feeds – okresowy eksport katalogu do plików feedów.
package feeds

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/feed"
	"github.com/bartek5186/pcm2feed/internal/integrations"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// KVLastExport – klucz w tabeli kvs z czasem ostatniego udanego eksportu
const KVLastExport = "feeds.last_export"

type FeedConfig struct {
	Directory string `json:"directory"` // względem root_dir
	Format    string `json:"format"`    // csv | xml | xmlh (inne = csv)
}

type Config struct {
	RootDir     string       `json:"root_dir"`
	BaseURL     string       `json:"base_url"`
	IntervalSec int          `json:"interval_sec"`
	Feeds       []FeedConfig `json:"feeds"`
}

type Job struct {
	log      zerolog.Logger
	cfg      Config
	db       *gorm.DB
	repo     *catalog.Repository
	exporter *feed.Exporter

	runMu  sync.Mutex // tick i ręczny eksport nie mogą pisać tego samego pliku naraz
	ctx    context.Context
	cancel context.CancelFunc
}

func New(log zerolog.Logger, cfg Config, gdb *gorm.DB, metrics feed.Recorder) *Job {
	opts := []feed.Option{feed.WithBaseURL(cfg.BaseURL)}
	if metrics != nil {
		opts = append(opts, feed.WithMetrics(metrics))
	}
	root := expandHome(cfg.RootDir)
	return &Job{
		log:      log,
		cfg:      cfg,
		db:       gdb,
		repo:     catalog.New(gdb),
		exporter: feed.NewExporter(log, root, opts...),
	}
}

func (j *Job) Name() string { return "feeds" }

// Root – katalog, pod którym lądują feedy
func (j *Job) Root() string { return expandHome(j.cfg.RootDir) }

func (j *Job) Start(ctx context.Context) error {
	j.ctx, j.cancel = context.WithCancel(ctx)
	j.log.Info().Str("integration", j.Name()).Int("feeds", len(j.cfg.Feeds)).Msg("start")

	ticker := time.NewTicker(j.interval())
	defer ticker.Stop()

	j.tick()

	for {
		select {
		case <-j.ctx.Done():
			j.log.Info().Str("integration", j.Name()).Msg("stop")
			return nil
		case <-ticker.C:
			j.tick()
			ticker.Reset(j.interval())
		}
	}
}

func (j *Job) Stop() {
	if j.cancel != nil {
		j.cancel()
	}
}

func (j *Job) interval() time.Duration {
	if j.cfg.IntervalSec <= 0 {
		return time.Hour
	}
	return time.Duration(j.cfg.IntervalSec) * time.Second
}

func (j *Job) tick() {
	if err := j.RunOnce(j.ctx); err != nil {
		j.log.Error().Err(err).Str("integration", j.Name()).Msg("eksport feedów z błędami")
	}
}

// RunOnce czyta katalog raz i eksportuje każdy skonfigurowany feed.
func (j *Job) RunOnce(ctx context.Context) error {
	j.runMu.Lock()
	defer j.runMu.Unlock()

	if len(j.cfg.Feeds) == 0 {
		j.log.Warn().Msg("feeds: brak feedów w configu")
		return nil
	}

	products, err := j.repo.FeedProducts(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, fc := range j.cfg.Feeds {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		res := j.exporter.Export(feed.Request{
			Directory: fc.Directory,
			Format:    feed.Format(fc.Format),
			Products:  products,
		})
		j.record(fc, res)
		if !res.Success {
			errs = append(errs, fmt.Errorf("%s/%s: %s", fc.Directory, fc.Format, res.Message))
		}
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	if err := db.SetKV(j.db, KVLastExport, time.Now().UTC().Format(time.RFC3339)); err != nil {
		j.log.Warn().Err(err).Msg("feeds: zapis last_export nieudany")
	}
	return nil
}

func (j *Job) record(fc FeedConfig, res feed.Result) {
	run := db.FeedRun{
		Directory: fc.Directory,
		Format:    string(feed.ParseFormat(fc.Format)),
		Path:      res.Path,
		Items:     res.Items,
		Success:   res.Success,
		Message:   res.Message,
	}
	if err := j.db.Create(&run).Error; err != nil {
		j.log.Warn().Err(err).Msg("feeds: zapis feed_runs nieudany")
	}
}

func expandHome(p string) string {
	if strings.HasPrefix(p, "~") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func factory(deps integrations.Deps, raw json.RawMessage) (integrations.Integration, error) {
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	if cfg.RootDir == "" {
		return nil, errors.New("feeds: brak root_dir")
	}
	return New(deps.Log, cfg, deps.DB, deps.Metrics), nil
}

func init() {
	integrations.Register("feeds", factory)
}
