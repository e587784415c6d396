package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// FlexID decodes an identifier that the upstream serves inconsistently: some
// payloads carry it as a JSON number, others as a numeric string.
type FlexID int

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return fmt.Errorf("empty id")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("id %q is not numeric: %w", s, err)
		}
		*f = FlexID(v)
		return nil
	}

	var v int
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("id %s is not an integer: %w", data, err)
	}
	*f = FlexID(v)
	return nil
}

func (f FlexID) Int() int {
	return int(f)
}
