package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BitsField decodes a vector from either JSON form: the string "0101" or
// the array [0,1,0,1]. Both normalize to the string rendering; syntactic
// validation beyond 0/1 digits belongs to the validation package.
type BitsField string

func (b *BitsField) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*b = ""
		return nil
	}
	switch {
	case strings.HasPrefix(trimmed, `"`):
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*b = BitsField(s)
		return nil
	case strings.HasPrefix(trimmed, "["):
		var ints []int
		if err := json.Unmarshal(data, &ints); err != nil {
			return err
		}
		var sb strings.Builder
		sb.Grow(len(ints))
		for i, v := range ints {
			switch v {
			case 0:
				sb.WriteByte('0')
			case 1:
				sb.WriteByte('1')
			default:
				return fmt.Errorf("bits array element %d is %d, want 0 or 1", i, v)
			}
		}
		*b = BitsField(sb.String())
		return nil
	default:
		return fmt.Errorf("bits must be a string or an array of 0/1")
	}
}

func (b BitsField) String() string { return string(b) }
