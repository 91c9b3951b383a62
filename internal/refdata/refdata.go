// Package refdata loads the static dengue reference dataset.  The summary is
// embedded into generative prompts; loading is best-effort and a failure
// degrades to an empty summary rather than blocking startup.
package refdata

import (
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// summaryRows is how many data rows the summary includes, mirroring the
// "brief summary, first rows only" framing of the prompts.
const summaryRows = 5

// Dataset holds the loaded reference CSV.
type Dataset struct {
	header []string
	rows   [][]string
}

// Load reads the CSV at path.  On any failure it logs a warning and returns
// an empty dataset whose Summary is "".
func Load(path string, log *slog.Logger) *Dataset {
	if log == nil {
		log = slog.Default()
	}
	ds, err := load(path)
	if err != nil {
		log.Warn("reference data unavailable, prompts will omit it", "path", path, "error", err)
		return &Dataset{}
	}
	return ds
}

func load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open reference csv: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // tolerate ragged rows in the source file
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read reference csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("reference csv %s is empty", path)
	}
	return &Dataset{header: records[0], rows: records[1:]}, nil
}

// Summary formats the header and the first rows as text for prompt
// embedding.  Empty datasets summarize to "".
func (d *Dataset) Summary() string {
	if len(d.header) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(d.header, " | "))
	for i, row := range d.rows {
		if i >= summaryRows {
			break
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(row, " | "))
	}
	return b.String()
}

// Rows returns the number of data rows loaded.
func (d *Dataset) Rows() int { return len(d.rows) }
