// internal/syncer/syncer.go
package syncer

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	conf "github.com/bartek5186/pcm2feed/internal/config"
	"github.com/bartek5186/pcm2feed/internal/feed"
	"github.com/bartek5186/pcm2feed/internal/integrations"
	_ "github.com/bartek5186/pcm2feed/internal/integrations/feeds" // rejestracja
	_ "github.com/bartek5186/pcm2feed/internal/integrations/importer"
	_ "github.com/bartek5186/pcm2feed/internal/integrations/woocommerce"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// wrapper na uruchomioną integrację (np. importer i feeds)
type runningInt struct {
	Name string
	Inst integrations.Integration
}

type Syncer struct {
	log     zerolog.Logger // logowanie
	db      *gorm.DB       // dostęp do bazy
	metrics feed.Recorder  // może być nil
	mu      sync.Mutex     // ochrona sekcji krytycznych
	cfg     *conf.Config   // aktualna konfiguracja
	running bool           // czy syncer działa
	cancel  context.CancelFunc
	wg      sync.WaitGroup // śledzi goroutines
	ticks   uint64         // licznik heartbeatów
	ints    []runningInt   // lista aktywnych integracji
}

func New(log zerolog.Logger, cfg *conf.Config, gdb *gorm.DB, metrics feed.Recorder) *Syncer {
	return &Syncer{log: log, cfg: cfg, db: gdb, metrics: metrics}
}

func (s *Syncer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true
	s.ticks = 0
	s.wg.Add(1)

	// zbuduj i odpal integracje
	ints := s.buildIntegrationsLocked()
	s.ints = ints
	s.mu.Unlock()

	s.log.Info().Msg("Syncer: start")
	go s.loop(ctx)

	// każda integracja w swojej gorutinie
	for i := range ints {
		s.wg.Add(1)
		go func(intg integrations.Integration) {
			defer s.wg.Done()
			if err := intg.Start(ctx); err != nil {
				s.log.Error().Err(err).Str("integration", intg.Name()).Msg("zakończona z błędem")
			}
		}(ints[i].Inst)
	}
	return nil
}

func (s *Syncer) buildIntegrationsLocked() []runningInt {
	var out []runningInt
	if s.cfg == nil || len(s.cfg.Integrations) == 0 {
		s.log.Warn().Msg("Integrations: brak lub puste (sprawdź config.json)")
		return out
	}

	// stała kolejność startu (mapa w Go jej nie daje)
	names := make([]string, 0, len(s.cfg.Integrations))
	for name := range s.cfg.Integrations {
		names = append(names, name)
	}
	sort.Strings(names)

	s.log.Info().Int("count", len(names)).Msg("Integrations in config")
	for _, name := range names {
		inst, err := s.build(name)
		if err != nil {
			s.log.Error().Err(err).Str("integration", name).Msg("błąd inicjalizacji")
			continue
		}
		out = append(out, runningInt{Name: name, Inst: inst})
	}
	s.log.Info().Int("started", len(out)).Msg("Integrations built")
	return out
}

func (s *Syncer) build(name string) (integrations.Integration, error) {
	raw, ok := s.cfg.Integrations[name]
	if !ok {
		return nil, fmt.Errorf("brak integracji %q w configu", name)
	}
	f, ok := integrations.Get(name)
	if !ok {
		return nil, fmt.Errorf("brak fabryki dla %q", name)
	}
	return f(integrations.Deps{
		Log:     s.log.With().Str("integration", name).Logger(),
		DB:      s.db,
		Metrics: s.metrics,
	}, raw)
}

func (s *Syncer) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	ints := s.ints
	s.ints = nil
	s.cancel = nil
	s.mu.Unlock()

	for _, ri := range ints {
		ri.Inst.Stop()
	}
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
	s.log.Info().Msg("Syncer: stop")
}

// RunNow odpala jednorazowo integrację (np. "feeds") poza harmonogramem.
// Działa także, gdy syncer jest zatrzymany.
func (s *Syncer) RunNow(ctx context.Context, name string) error {
	s.mu.Lock()
	var inst integrations.Integration
	for _, ri := range s.ints {
		if ri.Name == name {
			inst = ri.Inst
		}
	}
	if inst == nil {
		var err error
		if inst, err = s.build(name); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	s.mu.Unlock()

	r, ok := inst.(integrations.Runner)
	if !ok {
		return fmt.Errorf("integracja %q nie obsługuje uruchomienia na żądanie", name)
	}
	return r.RunOnce(ctx)
}

func (s *Syncer) UpdateConfig(cfg *conf.Config) {
	s.mu.Lock()
	s.cfg = cfg
	isRunning := s.running
	s.mu.Unlock()

	s.log.Info().Msg("Syncer: config zaktualizowany")

	if isRunning {
		// szybki restart integracji, żeby wzięły nową konfigurację
		s.log.Info().Msg("Syncer: restart integracji po zmianie configu")
		s.Stop()
		_ = s.Start(context.Background())
	}
}

func (s *Syncer) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Syncer) interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cfg != nil && s.cfg.SyncIntervalSeconds > 0 {
		return time.Duration(s.cfg.SyncIntervalSeconds) * time.Second
	}
	return time.Minute
}

func (s *Syncer) loop(ctx context.Context) {
	defer s.wg.Done()

	// pierwszy strzał od razu
	s.tickOnce(ctx)

	current := s.interval()
	ticker := time.NewTicker(current)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Syncer: koniec pętli")
			return
		case <-ticker.C:
			// jeśli ktoś zmienił interwał w cfg — odśwież ticker
			if next := s.interval(); next != current {
				current = next
				ticker.Reset(current)
			}
			s.tickOnce(ctx)
		}
	}
}

// heartbeat: stan katalogu do logów
func (s *Syncer) tickOnce(ctx context.Context) {
	s.mu.Lock()
	s.ticks++
	n := s.ticks
	s.mu.Unlock()

	if s.db == nil {
		s.log.Debug().Uint64("tick", n).Msg("Syncer: heartbeat")
		return
	}
	count, err := catalog.New(s.db).Count(ctx)
	if err != nil {
		s.log.Warn().Err(err).Uint64("tick", n).Msg("Syncer: heartbeat, odczyt katalogu nieudany")
		return
	}
	s.log.Debug().Uint64("tick", n).Int64("catalog_products", count).Msg("Syncer: heartbeat")
}
