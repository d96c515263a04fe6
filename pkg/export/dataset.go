package export

import "fmt"

// Dataset defines tabular export content. Rows are positional and must have
// the same width as Headers.
type Dataset struct {
	Title   string
	Sheet   string
	Headers []string
	Rows    [][]string
}

// Validate checks the dataset shape shared by every renderer.
func (d Dataset) Validate() error {
	if len(d.Headers) == 0 {
		return fmt.Errorf("dataset requires at least one header")
	}
	for i, row := range d.Rows {
		if len(row) != len(d.Headers) {
			return fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(d.Headers))
		}
	}
	return nil
}

// Renderer produces an encoded document for a dataset.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}
