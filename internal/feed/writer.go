package feed

import "io"

const fieldSeparator = "|"

// Writer serializuje produkty do otwartego pliku i zwraca liczbę zapisanych pozycji.
//
// Żaden wariant nie escapuje wartości (separator w CSV, znaki specjalne w XML).
// Tak wygląda format, którego oczekują odbiorcy feedów, więc wartości
// zawierające "|", nową linię albo "<" dadzą niejednoznaczny plik.
type Writer interface {
	Write(w io.Writer, products []Product) (int, error)
}

func writerFor(f Format, baseURL string) Writer {
	switch f {
	case FormatXML:
		return xmlWriter{}
	case FormatHeureka:
		return heurekaWriter{baseURL: baseURL}
	default:
		return csvWriter{}
	}
}

// stickyWriter zapamiętuje pierwszy błąd i ignoruje dalsze zapisy
type stickyWriter struct {
	w   io.Writer
	err error
}

func (s *stickyWriter) print(parts ...string) {
	for _, p := range parts {
		if s.err != nil {
			return
		}
		_, s.err = io.WriteString(s.w, p)
	}
}

// sku|name|price
type csvWriter struct{}

func (csvWriter) Write(w io.Writer, products []Product) (int, error) {
	sw := &stickyWriter{w: w}
	n := 0
	for _, p := range products {
		sw.print(p.SKU(), fieldSeparator, p.Name(), fieldSeparator, p.Price().String(), "\n")
		if sw.err != nil {
			return n, sw.err
		}
		n++
	}
	return n, nil
}

// <Products><Product>...</Product></Products>, bez prologu
type xmlWriter struct{}

func (xmlWriter) Write(w io.Writer, products []Product) (int, error) {
	sw := &stickyWriter{w: w}
	sw.print("<Products>\n")

	n := 0
	for _, p := range products {
		sw.print("<Product>\n")
		sw.print("<sku>", p.SKU(), "</sku>\n")
		sw.print("<name>", p.Name(), "</name>\n")
		sw.print("<price>", p.Price().String(), "</price>\n")
		sw.print("</Product>\n")
		if sw.err != nil {
			return n, sw.err
		}
		n++
	}

	// bez końcowego \n
	sw.print("</Products>")
	return n, sw.err
}
