package feed

import (
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

// DefaultBaseURL – prefiks dla URL i IMGURL w feedzie Heureka
const DefaultBaseURL = "https://threed.store"

var (
	vatMultiplier = decimal.RequireFromString("1.2")
	cpcRate       = decimal.RequireFromString("0.025")
	cpcMax        = decimal.NewFromInt(1)
)

type heurekaWriter struct {
	baseURL string
}

func (h heurekaWriter) Write(w io.Writer, products []Product) (int, error) {
	sw := &stickyWriter{w: w}
	sw.print(`<?xml version="1.0" encoding="utf-8"?>`, "\n")
	sw.print("<SHOP>\n")

	n := 0
	for _, p := range products {
		final := p.FinalPrice()
		// produkty bez ceny po cichu pomijamy
		if !final.IsPositive() {
			continue
		}
		h.writeItem(sw, p, final)
		if sw.err != nil {
			return n, sw.err
		}
		n++
	}

	sw.print("</SHOP>")
	return n, sw.err
}

func (h heurekaWriter) writeItem(sw *stickyWriter, p Product, final decimal.Decimal) {
	// porównanie dokładne: sam whitespace NIE przełącza na nazwę produktu
	productName := p.Attribute("heureka_name")
	if productName == "" {
		productName = p.Name()
	}
	manufacturer := p.Attribute("manufacturer")
	color := p.Attribute("color")

	sw.print("<SHOPITEM>\n")
	sw.print(" <ITEM_ID>", p.SKU(), "</ITEM_ID>\n")
	sw.print(" <PRODUCTNAME>", productName, "</PRODUCTNAME>\n")
	sw.print(" <PRODUCT>", p.Name(), "</PRODUCT>\n")
	sw.print(" <DESCRIPTION><![CDATA[", plainDescription(p.Attribute("short_description")), "]]></DESCRIPTION>\n")
	sw.print(" <CATEGORYTEXT>", p.Attribute("heureka_category"), "</CATEGORYTEXT>\n")
	sw.print(" <PRICE_VAT>", priceWithVAT(final).String(), "</PRICE_VAT>\n")
	sw.print(" <VAT>20%</VAT>\n")
	sw.print(" <URL>", h.baseURL, p.ProductURL(), "</URL>\n")
	sw.print(" <IMGURL>", h.baseURL, p.Attribute("image"), "</IMGURL>\n")
	sw.print(" <EAN>", p.Attribute("ts_hs_code"), "</EAN>\n")
	sw.print(" <HEUREKA_CPC>", clickPrice(final).String(), "</HEUREKA_CPC>\n")
	sw.print(" <DELIVERY_DATE>2</DELIVERY_DATE>\n")
	sw.print(" <DELIVERY>\n")
	sw.print("  <DELIVERY_ID>DPD Classic</DELIVERY_ID>\n")
	sw.print("  <DELIVERY_PRICE>3.50</DELIVERY_PRICE>\n")
	sw.print("  <DELIVERY_PRICE_COD>4.30</DELIVERY_PRICE_COD>\n")
	sw.print(" </DELIVERY>\n")

	if manufacturer != "" {
		sw.print(" <MANUFACTURER>", manufacturer, "</MANUFACTURER>\n")
	}
	if color != "" {
		sw.print(" <PARAM>\n")
		sw.print("  <PARAM_NAME>Farba</PARAM_NAME>\n")
		sw.print("  <VALUE>", color, "</VALUE>\n")
		sw.print(" </PARAM>\n")
	}

	sw.print("</SHOPITEM>\n")
}

// cena z VAT 20%, bez zaokrąglania
func priceWithVAT(final decimal.Decimal) decimal.Decimal {
	return final.Mul(vatMultiplier)
}

// clickPrice – stawka CPC: 2.5% ceny, maksymalnie 1
func clickPrice(final decimal.Decimal) decimal.Decimal {
	cpc := final.Mul(cpcRate)
	if cpc.GreaterThan(cpcMax) {
		cpc = cpcMax
	}
	return cpc
}

// plainDescription zamienia {{ }} na < > i wycina wszystkie tagi.
func plainDescription(s string) string {
	s = strings.ReplaceAll(s, "}}", ">")
	s = strings.ReplaceAll(s, "{{", "<")
	return stripTags(s)
}

// stripTags zostawia sam tekst (bez dekodowania encji), tagi i komentarze wylatują.
func stripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			// io.EOF – koniec wejścia
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}
