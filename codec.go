package sheetboard

// Decode converts sheet rows into records. The first row is the header;
// cells missing from a shorter row become "". Empty input yields no records.
func Decode(rows [][]string) []*Record {
	records := make([]*Record, 0)
	if len(rows) == 0 {
		return records
	}

	headers := rows[0]
	for i, row := range rows[1:] {
		record := &Record{
			Row:     i + 2,
			Columns: make([]string, 0, len(headers)),
			Values:  make(map[string]string, len(headers)),
		}
		for j, col := range headers {
			value := ""
			if j < len(row) {
				value = row[j]
			}
			record.Set(col, value)
		}
		records = append(records, record)
	}

	return records
}

// Encode projects a record onto the header order. Headers the record
// does not have become "".
func Encode(record *Record, headers []string) []string {
	row := make([]string, len(headers))
	if record == nil {
		return row
	}
	for i, col := range headers {
		row[i] = record.Values[col]
	}
	return row
}

// Headers returns the header row of rows, or nil when rows is empty
func Headers(rows [][]string) []string {
	if len(rows) == 0 {
		return nil
	}
	headers := make([]string, len(rows[0]))
	copy(headers, rows[0])
	return headers
}
