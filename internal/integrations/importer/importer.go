package importer

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/bartek5186/pcm2feed/internal/integrations"
	"github.com/rs/zerolog"
	"golang.org/x/net/html/charset"
	"gorm.io/gorm"
)

const sourcePCM = "pcm"

type Config struct {
	WatchDir        string `json:"watch_dir"`        // np. ~/pcm2feed/imports
	PollSec         int    `json:"poll_sec"`         // np. 5-10s w dev
	DeleteProcessed bool   `json:"delete_processed"` // usuń plik po udanym imporcie
}

type Importer struct {
	log  zerolog.Logger
	cfg  Config
	db   *gorm.DB
	repo *catalog.Repository

	ctx    context.Context
	cancel context.CancelFunc
}

type xmlTowar struct {
	TowarID   int64  `xml:"towar_id"`
	Kod       string `xml:"kod"`
	Nazwa     string `xml:"nazwa"`
	Opis1     string `xml:"opis1"`
	Producent string `xml:"producent"`

	DoUsuniecia string `xml:"do_usuniecia"` // "Y"/"N"
	AktywnyWSI  string `xml:"aktywny_w_SI"` // "Y"/"N"

	CenaDetal    string `xml:"cena_detal"`
	CenaDetPrzed string `xml:"cena_detal_przed_prom"`

	FolderZdjec string `xml:"folder_zdjec"`
	PlikZdjecia string `xml:"plik_zdjecia"`
}

func New(log zerolog.Logger, cfg Config, gdb *gorm.DB) *Importer {
	return &Importer{log: log, cfg: cfg, db: gdb, repo: catalog.New(gdb)}
}

func (i *Importer) Name() string { return "importer" }

func (i *Importer) Start(ctx context.Context) error {
	if i.db == nil {
		return errors.New("importer: brak *gorm.DB")
	}
	i.ctx, i.cancel = context.WithCancel(ctx)
	i.log.Info().Str("integration", i.Name()).Msg("start")

	dir := expandHome(i.cfg.WatchDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("watch_dir %s: %w", dir, err)
	}
	ticker := time.NewTicker(i.interval())
	defer ticker.Stop()

	// pierwszy przebieg
	i.scanOnce(i.ctx, dir)

	for {
		select {
		case <-i.ctx.Done():
			i.log.Info().Str("integration", i.Name()).Msg("stop")
			return nil
		case <-ticker.C:
			i.scanOnce(i.ctx, dir)
			ticker.Reset(i.interval())
		}
	}
}

func (i *Importer) Stop() {
	if i.cancel != nil {
		i.cancel()
	}
}

// RunOnce – jednorazowy skan katalogu (CLI)
func (i *Importer) RunOnce(ctx context.Context) error {
	i.scanOnce(ctx, expandHome(i.cfg.WatchDir))
	return nil
}

func (i *Importer) interval() time.Duration {
	if i.cfg.PollSec <= 0 {
		return 10 * time.Second
	}
	return time.Duration(i.cfg.PollSec) * time.Second
}

func isExportFile(name string) bool {
	return strings.HasPrefix(name, "exp_wyk_") && strings.HasSuffix(strings.ToLower(name), ".xml")
}

func (i *Importer) scanOnce(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		i.log.Error().Err(err).Str("dir", dir).Msg("nie mogę odczytać katalogu")
		return
	}

	for _, e := range entries {
		if ctx.Err() != nil {
			return
		}
		if e.IsDir() || !isExportFile(e.Name()) {
			continue
		}
		name := e.Name()
		full := filepath.Join(dir, name)

		// dedup po filename/sha/transmisja_id
		importID, already, err := i.registerFile(full, name)
		if err != nil {
			i.log.Error().Err(err).Str("file", name).Msg("rejestracja pliku nieudana")
			continue
		}

		if already {
			// sprawdź status — jeśli != done, to reprocess
			var rec db.ImportFile
			if err := i.db.Where("import_id = ?", importID).Take(&rec).Error; err == nil && rec.Status == db.ImportDone {
				i.log.Debug().Str("file", name).Msg("plik już był i DONE — pomijam")
				continue
			}
			i.log.Warn().Str("file", name).Uint("import_id", importID).Msg("plik istnieje, ale nie DONE — ponawiam przetwarzanie")
		}

		n, err := i.processFile(ctx, full)
		if err != nil {
			i.log.Error().Err(err).Str("file", name).Uint("import_id", importID).Msg("błąd przetwarzania pliku")
			_ = i.db.Model(&db.ImportFile{}).Where("import_id = ?", importID).
				Updates(map[string]any{"status": db.ImportError, "last_error": err.Error()})
			continue
		}

		// sukces: status=1, processed_at=now
		now := time.Now()
		_ = i.db.Model(&db.ImportFile{}).Where("import_id = ?", importID).
			Updates(map[string]any{"status": db.ImportDone, "processed_at": now, "last_error": ""})

		if i.cfg.DeleteProcessed {
			_ = os.Remove(full)
		}
		i.log.Info().Str("file", name).Uint("import_id", importID).Int("products", n).Msg("przetworzono OK")
	}
}

func (i *Importer) registerFile(fullPath, name string) (uint, bool, error) {
	fi, err := os.Stat(fullPath)
	if err != nil {
		return 0, false, err
	}

	h, err := fileSHA256(fullPath)
	if err != nil {
		return 0, false, err
	}

	transID, _ := readTransmisjaID(fullPath)

	// idempotencja: po SHA lub nazwie/transmisja_id
	var existing db.ImportFile
	if err := i.db.
		Where("sha256 = ? OR filename = ? OR (transmisja_id <> '' AND transmisja_id = ?)", h, name, transID).
		Take(&existing).Error; err == nil {
		return existing.ImportID, true, nil
	}

	rec := db.ImportFile{
		Filename:     name,
		FileTimeUTC:  inferTimeFromName(name),
		TransmisjaID: transID,
		SHA256:       h,
		SizeBytes:    fi.Size(),
		Status:       db.ImportPending,
	}
	if err := i.db.Create(&rec).Error; err != nil {
		return 0, false, err
	}
	return rec.ImportID, false, nil
}

// processFile – stream-parse XML → katalog (upsert partiami)
func (i *Importer) processFile(ctx context.Context, fullPath string) (int, error) {
	f, err := os.Open(fullPath)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	const batchSize = 500
	batch := make([]db.CatalogProduct, 0, batchSize)
	total := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := i.repo.Upsert(ctx, batch)
		if err != nil {
			i.log.Error().Err(err).Int("n", len(batch)).Msg("upsert catalog batch failed")
			return err
		}
		total += n
		batch = batch[:0]
		return nil
	}

	err = decodeTowary(bufio.NewReader(f), func(t xmlTowar) error {
		if strings.TrimSpace(t.Kod) == "" {
			i.log.Debug().Int64("towar_id", t.TowarID).Msg("towar bez kodu — pomijam")
			return nil
		}
		batch = append(batch, toCatalog(t))
		if len(batch) >= batchSize {
			return flush()
		}
		return nil
	})
	if err != nil {
		return total, err
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// decodeTowary czyta <towary><towar>..</towar></towary> element po elemencie
func decodeTowary(r io.Reader, fn func(xmlTowar) error) error {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(cs string, in io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(normalizeCharset(cs), in)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || !strings.EqualFold(se.Name.Local, "towar") {
			continue
		}
		var t xmlTowar
		if err := dec.DecodeElement(&t, &se); err != nil {
			return err
		}
		if err := fn(t); err != nil {
			return err
		}
	}
}

func toCatalog(t xmlTowar) db.CatalogProduct {
	name := strings.TrimSpace(t.Nazwa)
	price := dec(t.CenaDetal)
	special := dec(t.CenaDetPrzed)

	p := db.CatalogProduct{
		SKU:     strings.TrimSpace(t.Kod),
		Name:    name,
		Price:   price,
		URLKey:  slugify(name),
		Enabled: yn(t.AktywnyWSI) && !yn(t.DoUsuniecia),
		Source:  sourcePCM,
	}
	// promocja: cena przed promocją jest wyższa od detalicznej
	if special.GreaterThan(price) {
		p.Price = special
		p.SpecialPrice = price
	}

	attrs := map[string]string{
		"short_description": t.Opis1,
		"manufacturer":      strings.TrimSpace(t.Producent),
		"ts_hs_code":        cleanEAN(t.Kod),
	}
	if file := strings.TrimSpace(t.PlikZdjecia); file != "" {
		attrs["image"] = "/" + strings.Trim(filepath.ToSlash(filepath.Join(strings.TrimSpace(t.FolderZdjec), file)), "/")
	}
	p.Attributes = catalog.Attrs(attrs)
	return p
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func inferTimeFromName(name string) string {
	// exp_wyk_xxxx_yyyyMMddHHmmss.xml
	base := strings.TrimSuffix(name, filepath.Ext(name))
	parts := strings.Split(base, "_")
	if len(parts) < 3 {
		return ""
	}
	ts := parts[len(parts)-1]
	if len(ts) != 14 {
		return ""
	}
	return ts[:4] + "-" + ts[4:6] + "-" + ts[6:8] + " " + ts[8:10] + ":" + ts[10:12] + ":" + ts[12:14] + "Z"
}

func readTransmisjaID(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	dec := xml.NewDecoder(f)
	dec.CharsetReader = func(cs string, in io.Reader) (io.Reader, error) {
		return charset.NewReaderLabel(normalizeCharset(cs), in)
	}
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "transmisja_id" {
			var v string
			if err := dec.DecodeElement(&v, &se); err != nil {
				return "", err
			}
			return strings.TrimSpace(v), nil
		}
	}
	return "", nil
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
	return New(deps.Log, cfg, deps.DB), nil
}

func init() {
	integrations.Register("importer", factory)
}
