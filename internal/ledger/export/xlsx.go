package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const sheetName = "Statement"

// renderExcel serialises the statement as an xlsx workbook with a header
// block describing the account and range.
func (s *Service) renderExcel(statement Statement) ([]byte, error) {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	meta := [][]any{
		{"Account", statement.Account.Number},
		{"Currency", statement.Account.Currency},
		{"Period", fmt.Sprintf("%s to %s", dateLabel(statement.From), dateLabel(statement.To))},
	}
	for i, row := range meta {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	headerRow := len(meta) + 2
	header := make([]any, len(statementHeader))
	for i, h := range statementHeader {
		header[i] = h
	}
	cell, _ := excelize.CoordinatesToCellName(1, headerRow)
	if err := f.SetSheetRow(sheetName, cell, &header); err != nil {
		return nil, err
	}

	for i, record := range s.rows(statement) {
		row := make([]any, len(record))
		for j, v := range record {
			row[j] = v
		}
		cell, _ := excelize.CoordinatesToCellName(1, headerRow+1+i)
		if err := f.SetSheetRow(sheetName, cell, &row); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
