package manifest

import (
	"encoding/hex"
	"strings"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

func hexDecode(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, ltmerr.Newf(ltmerr.CodeBadAddress, "invalid hex literal %q: %v", s, err)
	}
	return b, nil
}
