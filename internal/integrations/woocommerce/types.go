// internal/integrations/woocommerce/types.go
package woocommerce

type wcProduct struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Slug             string        `json:"slug"`
	SKU              string        `json:"sku"`
	EAN              string        `json:"ean"`
	Status           string        `json:"status"`        // "publish","draft","trash"
	RegularPrice     string        `json:"regular_price"` // string w Woo
	SalePrice        string        `json:"sale_price"`    // string
	ShortDescription string        `json:"short_description"`
	Images           []wcImage     `json:"images"`
	Attributes       []wcAttribute `json:"attributes"`
	MetaData         []wcMeta      `json:"meta_data"`
}

type wcImage struct {
	Src string `json:"src"`
}

type wcAttribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

type wcMeta struct {
	Key   string `json:"key"`
	Value any    `json:"value"` // w Woo bywa string, liczba albo obiekt
}
