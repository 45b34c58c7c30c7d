// Package roster reads participant tables (CSV or XLSX) into participant
// records, one per non-empty row, in file order.
package roster

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"certify/internal/certificate"
	"certify/internal/pkg/errors"
)

// Column headers, matched case-insensitively.
const (
	ColName        = "NAME"
	ColAffiliation = "AFFILIATION"
	ColPoster      = "POSTER"
	ColTalk        = "TALK"
	ColAward       = "AWARD"
	ColRole        = "ROLE"
)

// Load reads the participant table at path. The format follows the
// extension: .csv, or .xlsx/.xlsm for workbooks (first sheet).
func Load(path string) ([]certificate.Participant, error) {
	var (
		rows [][]string
		err  error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		rows, err = readCSV(path)
	case ".xlsx", ".xlsm":
		rows, err = readXLSX(path)
	default:
		return nil, errors.ValidationField("settings.participants_data", "unsupported participant table "+filepath.Base(path)).
			WithOp("roster.load")
	}
	if err != nil {
		return nil, err
	}

	return Parse(rows)
}

// Parse maps raw rows (header first) to participants. Missing columns and
// short rows read as empty cells; rows with no content are skipped.
func Parse(rows [][]string) ([]certificate.Participant, error) {
	if len(rows) == 0 {
		return nil, errors.Validation("participant table has no header row").WithOp("roster.parse")
	}

	cols := map[string]int{}
	for i, h := range rows[0] {
		h = strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	if _, ok := cols[ColName]; !ok {
		return nil, errors.ValidationField(ColName, "participant table has no NAME column").WithOp("roster.parse")
	}

	get := func(row []string, name string) string {
		if idx, ok := cols[name]; ok && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	out := make([]certificate.Participant, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blank(row) {
			continue
		}
		out = append(out, certificate.Participant{
			Name:        get(row, ColName),
			Affiliation: get(row, ColAffiliation),
			PosterTitle: get(row, ColPoster),
			TalkTitle:   get(row, ColTalk),
			AwardTitle:  get(row, ColAward),
			Role:        get(row, ColRole),
		})
	}
	return out, nil
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func readCSV(path string) ([][]string, error) {
	fp, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NotFound("participant table", path).WithOp("roster.load")
		}
		return nil, errors.Wrapf(err, "roster.load", "open %s", path)
	}
	defer fp.Close()

	r := csv.NewReader(fp)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "roster.load", "parse "+path)
	}
	return rows, nil
}

func readXLSX(path string) ([][]string, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errors.NotFound("participant table", path).WithOp("roster.load")
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "roster.load", "open "+path)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.Validation("workbook has no sheets").WithOp("roster.load")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeValidation, "roster.load", "read sheet "+sheets[0])
	}
	return rows, nil
}
