package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/jordanlanch/fieldsales/pkg/domain"
)

// columns maps a folded header name to its index
type columns map[string]int

// requiredColumns are folded names; "regionId" and "region_id" both fold
// to "regionid"
var requiredColumns = []string{"uid", "name", "phone", "regionid", "areaid", "distributorid", "territoryid"}

var displayNames = map[string]string{
	"regionid":      "regionId",
	"areaid":        "areaId",
	"distributorid": "distributorId",
	"territoryid":   "territoryId",
}

func foldHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

func mapHeader(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		name := foldHeader(h)
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := cols[name]; !ok {
			if d, ok := displayNames[name]; ok {
				name = d
			}
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, domain.NewValidationError("missing required columns: " + strings.Join(missing, ", "))
	}
	return cols, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	table, err := reader.ReadAll()
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("CSV parsing error: %v", err))
	}
	return table, nil
}

// readXLSX returns the rows of the first sheet
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("XLSX parsing error: %v", err))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.NewValidationError("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("XLSX parsing error: %v", err))
	}
	return rows, nil
}
