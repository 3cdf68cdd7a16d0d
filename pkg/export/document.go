package export

// Field is a labelled value printed above the tables.
type Field struct {
	Label string
	Value string
}

// Table is one tabular section of a document. Rows must have the same
// number of cells as Headers.
type Table struct {
	Title   string
	Headers []string
	Rows    [][]string
	// Align holds a gofpdf alignment per column ("L", "C", "R"). Missing
	// entries default to left.
	Align []string
}

// Document is the exportable form of a report.
type Document struct {
	Title  string
	Fields []Field
	Tables []Table
	Footer []Field
}

func (t Table) align(col int) string {
	if col < len(t.Align) && t.Align[col] != "" {
		return t.Align[col]
	}
	return "L"
}
