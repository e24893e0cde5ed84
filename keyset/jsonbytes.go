package keyset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// byteArray (de)serializes as a JSON array of byte values ([12,0,255,...])
// rather than Go's default base64-string encoding for []byte, matching
// the keyfile format's literal byte arrays (spec.md §6).
type byteArray []byte

func (b byteArray) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, v := range b {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(strconv.Itoa(int(v)))
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

func (b *byteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("byteArray: %w", err)
	}
	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byteArray: value %d out of byte range", v)
		}
		out[i] = byte(v)
	}
	*b = out
	return nil
}
