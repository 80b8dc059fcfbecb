package export

import (
	"bytes"
	"encoding/csv"
)

// renderCSV serialises the statement as CSV, one record per transaction.
func (s *Service) renderCSV(statement Statement) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(statementHeader); err != nil {
		return nil, err
	}
	for _, record := range s.rows(statement) {
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
