package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// StringList stores a []string as a JSON column. It implements
// driver.Valuer and sql.Scanner so repositories can bind it directly.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var byteSlice []byte
	switch v := value.(type) {
	case []byte:
		byteSlice = v
	case string:
		byteSlice = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList scan: %T", value)
	}
	if len(byteSlice) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(byteSlice, (*[]string)(l))
}

// Contains reports whether the list holds the given entry.
func (l StringList) Contains(s string) bool {
	for _, v := range l {
		if v == s {
			return true
		}
	}
	return false
}

// RawNumber is a numeric form field that clients send either as a JSON
// number or as a string. The raw text is kept as-is; coercion to float64
// (with defaulting of unparsable input) happens at the service layer.
type RawNumber string

func (n *RawNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = RawNumber(s)
		return nil
	}
	*n = RawNumber(data)
	return nil
}

func (n RawNumber) String() string { return string(n) }
