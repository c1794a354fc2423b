package cli

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mkadlec/binsim/bitvec"
	"github.com/mkadlec/binsim/internal/models"
	"github.com/mkadlec/binsim/measure"
)

func matrixCmd() *cobra.Command {
	var measureName, input string

	cmd := &cobra.Command{
		Use:   "matrix",
		Short: "Compute a pairwise matrix over an NDJSON fingerprint file",
		Long: `Read fingerprints from an NDJSON file (one {"name":...,"bits":...} object
per line), compute the pairwise matrix for one measure and write it as CSV
to stdout. Cells where the measure is undefined are left empty.`,
		RunE: func(c *cobra.Command, _ []string) error {
			m, ok := measure.Lookup(measureName)
			if !ok {
				return fmt.Errorf("unknown measure %q (try 'binsim measures')", measureName)
			}

			f, err := os.Open(input)
			if err != nil {
				return err
			}
			defer f.Close()

			names, vectors, err := readFingerprints(f)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				return fmt.Errorf("no fingerprints in %s", input)
			}

			return writeMatrixCSV(c.OutOrStdout(), m, names, vectors)
		},
	}

	cmd.Flags().StringVarP(&measureName, "measure", "m", "jaccard", "measure name or alias")
	cmd.Flags().StringVarP(&input, "input", "i", "", "NDJSON fingerprint file")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

type fingerprintLine struct {
	Name string           `json:"name"`
	Bits models.BitsField `json:"bits"`
}

// readFingerprints parses NDJSON fingerprint records, preserving file order.
func readFingerprints(r io.Reader) ([]string, []bitvec.Vector, error) {
	var names []string
	var vectors []bitvec.Vector

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec fingerprintLine
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.Name == "" {
			return nil, nil, fmt.Errorf("line %d: missing name", line)
		}
		v, err := bitvec.ParseBitString(rec.Bits.String())
		if err != nil {
			return nil, nil, fmt.Errorf("line %d (%s): %w", line, rec.Name, err)
		}
		names = append(names, rec.Name)
		vectors = append(vectors, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	return names, vectors, nil
}

// writeMatrixCSV emits a header row of names and one row per fingerprint.
// Pairs of unequal length or undefined values leave the cell empty.
func writeMatrixCSV(out io.Writer, m measure.Measure, names []string, vectors []bitvec.Vector) error {
	w := csv.NewWriter(out)
	header := append([]string{"name"}, names...)
	if err := w.Write(header); err != nil {
		return err
	}
	for i := range names {
		row := make([]string, 1, len(names)+1)
		row[0] = names[i]
		for j := range names {
			value, err := m.Evaluate(vectors[i], vectors[j], nil)
			if err != nil || !isFinite(value) {
				row = append(row, "")
				continue
			}
			row = append(row, formatValue(value))
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
