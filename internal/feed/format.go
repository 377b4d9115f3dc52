package feed

// Format – zamknięty zbiór formatów feedu
type Format string

const (
	FormatCSV     Format = "csv"
	FormatXML     Format = "xml"
	FormatHeureka Format = "xmlh" // Heureka (porównywarka cen)
)

// ParseFormat mapuje token z configa na format.
// Nieznany token (np. "pdf") to CSV, nie błąd.
func ParseFormat(token string) Format {
	f := Format(token)
	if f.Valid() {
		return f
	}
	return FormatCSV
}

func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatXML, FormatHeureka:
		return true
	}
	return false
}

// Extension zwraca rozszerzenie pliku feedu (csv | xml | xmlh)
func (f Format) Extension() string {
	if !f.Valid() {
		return string(FormatCSV)
	}
	return string(f)
}

func (f Format) label() string {
	switch f {
	case FormatXML:
		return "XML"
	case FormatHeureka:
		return "Heureka XML"
	default:
		return "CSV"
	}
}
