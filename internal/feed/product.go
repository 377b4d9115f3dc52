package feed

import "github.com/shopspring/decimal"

// Product to widok rekordu katalogu (tylko do odczytu), z którego budujemy feed.
type Product interface {
	SKU() string
	Name() string
	Price() decimal.Decimal      // cena bazowa
	FinalPrice() decimal.Decimal // cena efektywna (np. po promocji)
	// Attribute zwraca "" gdy atrybutu nie ma
	Attribute(name string) string
	ProductURL() string
}

// Item – prosta implementacja Product (repozytorium katalogu, testy)
type Item struct {
	Sku        string
	Title      string
	BasePrice  decimal.Decimal
	Final      decimal.Decimal
	URL        string
	Attributes map[string]string
}

func (i Item) SKU() string                 { return i.Sku }
func (i Item) Name() string                { return i.Title }
func (i Item) Price() decimal.Decimal      { return i.BasePrice }
func (i Item) FinalPrice() decimal.Decimal { return i.Final }
func (i Item) ProductURL() string          { return i.URL }

func (i Item) Attribute(name string) string {
	// odczyt z nil mapy jest bezpieczny
	return i.Attributes[name]
}
