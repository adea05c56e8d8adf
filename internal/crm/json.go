package crm

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON renders the table as an array of flat objects whose keys
// follow the table's column order. Null cells are written as null.
func (t Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, r := range t.Records {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeRecord(&buf, t.Columns, r); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func writeRecord(buf *bytes.Buffer, columns []string, r Record) error {
	buf.WriteByte('{')
	for i, c := range columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return err
		}
		buf.Write(key)
		buf.WriteByte(':')
		v, ok := r.Get(c)
		if !ok {
			buf.WriteString("null")
			continue
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}
