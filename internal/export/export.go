// Package export renders the final lead list for delivery: flat CSV, a
// multi-sheet XLSX workbook, and a JSON dump.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// columns is the ordered flat-export header. These names are the stable
// contract consumers of the files depend on.
var columns = []string{
	"company",
	"category",
	"city",
	"street",
	"housenumber",
	"postcode",
	"phone",
	"email",
	"website",
	"score",
	"source",
	"proof_contact_url",
	"proof_impressum_url",
	"lat",
	"lon",
}

// Writer renders lead exports into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "export: create dir %s", dir)
	}
	return &Writer{dir: dir}, nil
}

// NewRunID returns a fresh id tying one hunt's export files together.
func NewRunID() string {
	return uuid.New().String()[:8]
}

// filename builds "leads_<category>_<location>_<runID>.<ext>" with path-safe
// category and location fragments.
func (w *Writer) filename(category, location, runID, ext string) string {
	return filepath.Join(w.dir, fmt.Sprintf("leads_%s_%s_%s.%s",
		sanitize(category), sanitize(location), runID, ext))
}

func sanitize(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	if b.Len() == 0 {
		return "all"
	}
	return b.String()
}

// WriteCSV writes the flat tabular dump. Returns the written path.
func (w *Writer) WriteCSV(leads []model.Lead, category, location, runID string) (string, error) {
	path := w.filename(category, location, runID, "csv")

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "export: create csv")
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if err := cw.Write(columns); err != nil {
		return "", eris.Wrap(err, "export: write csv header")
	}
	for _, l := range leads {
		if err := cw.Write(leadRow(l)); err != nil {
			return "", eris.Wrap(err, "export: write csv row")
		}
	}

	return path, nil
}

// WriteJSON writes the leads as a pretty-printed JSON array.
func (w *Writer) WriteJSON(leads []model.Lead, category, location, runID string) (string, error) {
	path := w.filename(category, location, runID, "json")

	f, err := os.Create(path)
	if err != nil {
		return "", eris.Wrap(err, "export: create json")
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(leads); err != nil {
		return "", eris.Wrap(err, "export: encode json")
	}
	return path, nil
}

// leadRow maps a Lead to the flat column order. Nil coordinates render as
// empty cells, never as zero.
func leadRow(l model.Lead) []string {
	return []string{
		l.Company,
		l.Category,
		l.City,
		l.Street,
		l.Housenumber,
		l.Postcode,
		l.Phone,
		l.Email,
		l.Website,
		strconv.Itoa(l.Score),
		l.Source,
		l.ProofContactURL,
		l.ProofImpressumURL,
		coord(l.Lat),
		coord(l.Lon),
	}
}

func coord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// cityStats aggregates scores per city for the summary sheet.
type cityStats struct {
	City  string
	Count int
	Sum   int
	Max   int
	Min   int
}

// Avg returns the mean score rounded to two decimals.
func (s cityStats) Avg() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

// statsByCity groups leads by city, sorted by city name.
func statsByCity(leads []model.Lead) []cityStats {
	byCity := make(map[string]*cityStats)
	for _, l := range leads {
		city := l.City
		if city == "" {
			city = "(unknown)"
		}
		s, ok := byCity[city]
		if !ok {
			s = &cityStats{City: city, Min: l.Score}
			byCity[city] = s
		}
		s.Count++
		s.Sum += l.Score
		if l.Score > s.Max {
			s.Max = l.Score
		}
		if l.Score < s.Min {
			s.Min = l.Score
		}
	}

	out := make([]cityStats, 0, len(byCity))
	for _, s := range byCity {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].City < out[j].City })
	return out
}

// topByScore returns the n highest-scoring leads, score descending with a
// stable order for ties.
func topByScore(leads []model.Lead, n int) []model.Lead {
	sorted := make([]model.Lead, len(leads))
	copy(sorted, leads)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Score > sorted[j].Score })
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}
