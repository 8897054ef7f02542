package sheetboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Record is one data row of a sheet, keyed by column name.
type Record struct {
	Row     int               // Sheet row number (data starts at 2, row 1 is the header); 0 if not read from a sheet
	Columns []string          // Column names in order
	Values  map[string]string // Column name -> cell value
}

// NewRecord creates an empty record
func NewRecord() *Record {
	return &Record{
		Values: make(map[string]string),
	}
}

// Get returns the value of col, or "" when the record has no such column
func (r *Record) Get(col string) string {
	return r.Values[col]
}

// Lookup returns the value of col and whether the record has it
func (r *Record) Lookup(col string) (string, bool) {
	v, ok := r.Values[col]
	return v, ok
}

// Set stores a value. New columns are appended after the existing ones.
func (r *Record) Set(col string, value string) {
	if r.Values == nil {
		r.Values = make(map[string]string)
	}
	if _, exists := r.Values[col]; !exists {
		r.Columns = append(r.Columns, col)
	}
	r.Values[col] = value
}

// Len returns the number of columns in the record
func (r *Record) Len() int {
	return len(r.Columns)
}

// Clone returns a copy of the record
func (r *Record) Clone() *Record {
	c := &Record{
		Row:     r.Row,
		Columns: make([]string, len(r.Columns)),
		Values:  make(map[string]string, len(r.Values)),
	}
	copy(c.Columns, r.Columns)
	for k, v := range r.Values {
		c.Values[k] = v
	}
	return c
}

// Merge returns a shallow merge of updates over r. Existing columns keep
// their position; columns only present in updates are appended.
func (r *Record) Merge(updates *Record) *Record {
	merged := r.Clone()
	if updates == nil {
		return merged
	}
	for _, col := range updates.Columns {
		merged.Set(col, updates.Values[col])
	}
	return merged
}

// MarshalJSON encodes the record as a JSON object in column order
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.Columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.Values[col])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object into the record, keeping key order.
// Non-string values are stored as their JSON text; null becomes "".
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("record must be a JSON object")
	}

	rec := NewRecord()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode %q: %w", key, err)
		}
		value, err := cellText(raw)
		if err != nil {
			return fmt.Errorf("failed to decode %q: %w", key, err)
		}
		rec.Set(key, value)
	}

	// closing brace
	if _, err := dec.Token(); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return fmt.Errorf("unexpected data after record object")
	}

	*r = *rec
	return nil
}

// cellText converts a raw JSON value to the text written into a cell
func cellText(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		return s, nil
	case 'n':
		return "", nil
	case '{', '[':
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		// numbers and booleans keep their literal text
		return string(raw), nil
	}
}
