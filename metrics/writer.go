package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Standing is one row of the final standings.
type Standing struct {
	Rank        int
	Name        string
	Territories int
	Armies      int
	Score       int
}

type Writer struct {
	baseDir string
}

func NewWriter(baseDir string) (*Writer, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{baseDir: baseDir}, nil
}

// WriteStandings stores the standings of a finished game in a CSV file named
// by the game's end time and returns its path.
func (w *Writer) WriteStandings(end time.Time, duration time.Duration, standings []Standing) (string, error) {
	name := fmt.Sprintf("standings-%s.csv", end.UTC().Format("20060102T150405.000Z"))
	path := filepath.Join(w.baseDir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create standings file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)

	header := []string{"rank", "name", "territories", "armies", "score", "duration"}
	if err := writer.Write(header); err != nil {
		return "", fmt.Errorf("failed to write standings header: %w", err)
	}

	for _, s := range standings {
		row := []string{
			strconv.Itoa(s.Rank),
			s.Name,
			strconv.Itoa(s.Territories),
			strconv.Itoa(s.Armies),
			strconv.Itoa(s.Score),
			duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return "", fmt.Errorf("failed to write standings row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return "", fmt.Errorf("failed to flush standings: %w", err)
	}
	return path, nil
}
