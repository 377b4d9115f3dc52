package woocommerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/bartek5186/pcm2feed/internal/catalog"
	"github.com/bartek5186/pcm2feed/internal/db"
	"github.com/shopspring/decimal"
)

const sourceWoo = "woocommerce"

// nazwy atrybutów Woo -> kody atrybutów feedu
var attributeCodes = map[string]string{
	"manufacturer": "manufacturer",
	"brand":        "manufacturer",
	"producent":    "manufacturer",
	"výrobca":      "manufacturer",
	"color":        "color",
	"colour":       "color",
	"kolor":        "color",
	"farba":        "color",
}

// meta_data, które przepisujemy 1:1
var metaCodes = []string{"heureka_name", "heureka_category", "ts_hs_code"}

// syncCatalog pobiera /wp-json/wc/v3/products strona po stronie i upsertuje do katalogu
func (w *Woo) syncCatalog(ctx context.Context) (int, error) {
	base, err := url.Parse(w.cfg.BaseURL)
	if err != nil {
		return 0, fmt.Errorf("base_url: %w", err)
	}
	base.Path = strings.TrimRight(base.Path, "/") + "/wp-json/wc/v3/products"

	total := 0
	for page := 1; ; page++ {
		items, err := w.fetchPage(ctx, *base, page)
		if err != nil {
			return total, err
		}
		if len(items) == 0 {
			break
		}

		rows := make([]db.CatalogProduct, 0, len(items))
		for _, p := range items {
			if strings.TrimSpace(p.SKU) == "" {
				w.log.Debug().Int64("woo_id", p.ID).Msg("produkt bez SKU — pomijam")
				continue
			}
			rows = append(rows, toCatalog(p))
		}

		n, err := w.repo.Upsert(ctx, rows)
		if err != nil {
			return total, fmt.Errorf("upsert page %d: %w", page, err)
		}
		total += n

		if len(items) < w.cfg.PerPage {
			break
		}
	}
	return total, nil
}

func (w *Woo) fetchPage(ctx context.Context, u url.URL, page int) ([]wcProduct, error) {
	q := u.Query()
	q.Set("orderby", "id")
	q.Set("order", "asc")
	q.Set("per_page", strconv.Itoa(w.cfg.PerPage))
	q.Set("page", strconv.Itoa(page))
	q.Set("_fields", w.cfg.Fields)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "pcm2feed 1.0")
	req.SetBasicAuth(w.cfg.ConsumerKey, w.cfg.ConsumerSec)

	resp, err := w.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("woo products page %d: %w", page, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("woo products page %d: http %d", page, resp.StatusCode)
	}

	var items []wcProduct
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	return items, nil
}

func toCatalog(p wcProduct) db.CatalogProduct {
	attrs := map[string]string{
		"short_description": p.ShortDescription,
		"ts_hs_code":        p.EAN,
	}
	if len(p.Images) > 0 {
		attrs["image"] = imagePath(p.Images[0].Src)
	}
	for _, a := range p.Attributes {
		code, ok := attributeCodes[strings.ToLower(strings.TrimSpace(a.Name))]
		if !ok || len(a.Options) == 0 {
			continue
		}
		attrs[code] = a.Options[0]
	}
	for _, m := range p.MetaData {
		for _, code := range metaCodes {
			if m.Key == code {
				if s, ok := m.Value.(string); ok && s != "" {
					attrs[code] = s
				}
			}
		}
	}

	return db.CatalogProduct{
		SKU:          strings.TrimSpace(p.SKU),
		Name:         p.Name,
		Price:        parsePrice(p.RegularPrice),
		SpecialPrice: parsePrice(p.SalePrice),
		URLKey:       p.Slug,
		Enabled:      p.Status == "publish",
		Source:       sourceWoo,
		Attributes:   catalog.Attrs(attrs),
	}
}

// feed dokleja własny base URL, więc trzymamy samą ścieżkę obrazka
func imagePath(src string) string {
	u, err := url.Parse(src)
	if err != nil || u.Path == "" {
		return src
	}
	return u.Path
}

// pomocniczo: Woo trzyma ceny jako string
func parsePrice(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
