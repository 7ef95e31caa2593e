package export

import (
	"fmt"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/leadradar/leadradar-cli/internal/model"
)

// topSheetSize caps the Top sheet of the workbook.
const topSheetSize = 10

// WriteXLSX writes the workbook with three sheets: Raw (all fields), ByCity
// (count/avg/max/min score per city), and Top (highest-scoring leads).
func (w *Writer) WriteXLSX(leads []model.Lead, category, location, runID string) (string, error) {
	path := w.filename(category, location, runID, "xlsx")

	f := xlsx.NewFile()

	raw, err := f.AddSheet("Raw")
	if err != nil {
		return "", eris.Wrap(err, "export: add raw sheet")
	}
	writeLeadSheet(raw, leads)

	byCity, err := f.AddSheet("ByCity")
	if err != nil {
		return "", eris.Wrap(err, "export: add bycity sheet")
	}
	writeCitySheet(byCity, leads)

	top, err := f.AddSheet("Top")
	if err != nil {
		return "", eris.Wrap(err, "export: add top sheet")
	}
	writeLeadSheet(top, topByScore(leads, topSheetSize))

	if err := f.Save(path); err != nil {
		return "", eris.Wrapf(err, "export: save workbook %s", path)
	}
	return path, nil
}

func writeLeadSheet(sheet *xlsx.Sheet, leads []model.Lead) {
	header := sheet.AddRow()
	for _, col := range columns {
		header.AddCell().Value = col
	}

	for _, l := range leads {
		row := sheet.AddRow()
		for i, v := range leadRow(l) {
			cell := row.AddCell()
			// Score stays numeric so spreadsheet sorting works.
			if columns[i] == "score" {
				n, _ := strconv.Atoi(v)
				cell.SetInt(n)
				continue
			}
			cell.Value = v
		}
	}
}

func writeCitySheet(sheet *xlsx.Sheet, leads []model.Lead) {
	header := sheet.AddRow()
	for _, col := range []string{"city", "leads", "avg_score", "max_score", "min_score"} {
		header.AddCell().Value = col
	}

	for _, s := range statsByCity(leads) {
		row := sheet.AddRow()
		row.AddCell().Value = s.City
		row.AddCell().SetInt(s.Count)
		row.AddCell().Value = fmt.Sprintf("%.2f", s.Avg())
		row.AddCell().SetInt(s.Max)
		row.AddCell().SetInt(s.Min)
	}
}
