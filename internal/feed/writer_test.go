package feed

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(sku, name, price string) Item {
	p := decimal.RequireFromString(price)
	return Item{Sku: sku, Title: name, BasePrice: p, Final: p}
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after <= 0 {
		return 0, errors.New("disk full")
	}
	f.after--
	return len(p), nil
}

func TestCSVWriter_Lines(t *testing.T) {
	products := []Product{
		item("SKU-1", "Hrnček", "10.50"),
		item("SKU-2", "Tanier", "3"),
		item("SKU-3", "Zadarmo", "0"),
	}

	var buf bytes.Buffer
	n, err := csvWriter{}.Write(&buf, products)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "SKU-1|Hrnček|10.5\nSKU-2|Tanier|3\nSKU-3|Zadarmo|0\n", buf.String())
	assert.Equal(t, len(products), strings.Count(buf.String(), "\n"))
}

func TestCSVWriter_NoEscaping(t *testing.T) {
	var buf bytes.Buffer
	_, err := csvWriter{}.Write(&buf, []Product{item("A|B", "x", "1")})
	require.NoError(t, err)
	assert.Equal(t, "A|B|x|1\n", buf.String())
}

func TestCSVWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	n, err := csvWriter{}.Write(&buf, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, buf.String())
}

func TestCSVWriter_WriteError(t *testing.T) {
	n, err := csvWriter{}.Write(&failingWriter{after: 6}, []Product{item("A", "a", "1"), item("B", "b", "2")})
	require.Error(t, err)
	assert.Equal(t, 1, n)
}

func TestXMLWriter(t *testing.T) {
	var buf bytes.Buffer
	n, err := xmlWriter{}.Write(&buf, []Product{item("S1", "One", "12.00"), item("S2", "Two <b>", "7.25")})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	want := "<Products>\n" +
		"<Product>\n<sku>S1</sku>\n<name>One</name>\n<price>12</price>\n</Product>\n" +
		"<Product>\n<sku>S2</sku>\n<name>Two <b></name>\n<price>7.25</price>\n</Product>\n" +
		"</Products>"
	assert.Equal(t, want, buf.String())
}

func TestXMLWriter_Empty(t *testing.T) {
	var buf bytes.Buffer
	_, err := xmlWriter{}.Write(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, "<Products>\n</Products>", buf.String())
}

func TestWriterFor(t *testing.T) {
	assert.IsType(t, csvWriter{}, writerFor(FormatCSV, ""))
	assert.IsType(t, xmlWriter{}, writerFor(FormatXML, ""))
	assert.IsType(t, heurekaWriter{}, writerFor(FormatHeureka, ""))
	assert.IsType(t, csvWriter{}, writerFor(Format("pdf"), ""))
}

func TestParseFormat(t *testing.T) {
	assert.Equal(t, FormatCSV, ParseFormat("csv"))
	assert.Equal(t, FormatXML, ParseFormat("xml"))
	assert.Equal(t, FormatHeureka, ParseFormat("xmlh"))
	assert.Equal(t, FormatCSV, ParseFormat("pdf"))
	assert.Equal(t, FormatCSV, ParseFormat(""))

	assert.Equal(t, "xmlh", FormatHeureka.Extension())
	assert.Equal(t, "csv", Format("pdf").Extension())
}
