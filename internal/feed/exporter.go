package feed

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

const feedFileName = "feed"

// Request – jeden przebieg eksportu: katalog docelowy (względem roota), format, produkty
type Request struct {
	Directory string
	Format    Format
	Products  []Product
}

// Result – wynik eksportu. Przy Success=false plik (jeśli powstał) jest niekompletny.
type Result struct {
	Success bool
	Message string
	Path    string
	Items   int
	Err     error
}

// Recorder – opcjonalny odbiorca statystyk (metryki)
type Recorder interface {
	ObserveExport(format string, items int, success bool)
}

type Exporter struct {
	log     zerolog.Logger
	root    string
	baseURL string
	dirs    DirMaker
	metrics Recorder
}

type Option func(*Exporter)

// WithBaseURL ustawia prefiks URL dla feedu Heureka
func WithBaseURL(u string) Option {
	return func(e *Exporter) {
		if u != "" {
			e.baseURL = u
		}
	}
}

func WithDirMaker(d DirMaker) Option {
	return func(e *Exporter) { e.dirs = d }
}

func WithMetrics(r Recorder) Option {
	return func(e *Exporter) { e.metrics = r }
}

// NewExporter – root to katalog główny aplikacji, Request.Directory jest względem niego
func NewExporter(log zerolog.Logger, root string, opts ...Option) *Exporter {
	e := &Exporter{
		log:     log,
		root:    root,
		baseURL: DefaultBaseURL,
		dirs:    OSDirs{},
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Export zapisuje produkty do root/Directory/feed.<ext>.
// Nigdy nie zwraca błędu wprost – każda porażka ląduje w Result.
func (e *Exporter) Export(req Request) Result {
	format := ParseFormat(string(req.Format))
	if format != req.Format {
		e.log.Warn().Str("format", string(req.Format)).Msg("unknown feed format, falling back to csv")
	}

	sink, err := OpenSink(e.dirs, e.root, req.Directory, feedFileName, format.Extension())
	if err != nil {
		return e.finish(format, Result{Err: err})
	}

	n, err := e.write(sink, format, req.Products)
	return e.finish(format, Result{Path: sink.Path(), Items: n, Err: err})
}

// write gwarantuje zamknięcie pliku, także po panice w writerze
func (e *Exporter) write(sink *Sink, format Format, products []Product) (n int, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &Error{Phase: PhaseWrite, Format: format, Path: sink.Path(), Err: fmt.Errorf("panic: %v", r)}
		}
		// błąd flush/close po udanym zapisie też oznacza niekompletny plik
		if cerr := sink.Close(); cerr != nil && err == nil {
			err = &Error{Phase: PhaseWrite, Format: format, Path: sink.Path(), Err: cerr}
		}
	}()

	n, err = writerFor(format, e.baseURL).Write(sink, products)
	if err != nil {
		err = &Error{Phase: PhaseWrite, Format: format, Path: sink.Path(), Err: err}
	}
	return n, err
}

func (e *Exporter) finish(format Format, res Result) Result {
	res.Success = res.Err == nil
	if res.Err != nil {
		res.Message = res.Err.Error()
	}

	if e.metrics != nil {
		e.metrics.ObserveExport(string(format), res.Items, res.Success)
	}

	if res.Success {
		e.log.Info().
			Str("format", string(format)).
			Str("path", res.Path).
			Int("items", res.Items).
			Msg("feed exported")
		return res
	}

	ev := e.log.Error().Err(res.Err).Str("format", string(format))
	var fe *Error
	if errors.As(res.Err, &fe) {
		ev = ev.Str("phase", string(fe.Phase)).Str("path", fe.Path)
	}
	ev.Msg("feed export failed")
	return res
}
