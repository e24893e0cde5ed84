package txcodec

import (
	"encoding/binary"

	"github.com/LEA-Blockchain/ltm/ltmerr"
)

var vmMagic = [4]byte{'L', 'E', 'A', 'B'}

const vmVersion = 0x01

// WrapVM prepends the optional VM wrapper header: magic "LEAB",
// version 0x01, and the 8-byte little-endian length of tx
// (spec.md §3, §6).
func WrapVM(tx []byte) []byte {
	out := make([]byte, 0, 4+1+8+len(tx))
	out = append(out, vmMagic[:]...)
	out = append(out, vmVersion)
	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], uint64(len(tx)))
	out = append(out, lenBuf[:]...)
	out = append(out, tx...)
	return out
}

// StripVM validates and removes the VM wrapper header, returning the
// wrapped transaction bytes.
func StripVM(buf []byte) ([]byte, error) {
	const headerLen = 4 + 1 + 8
	if len(buf) < headerLen {
		return nil, ltmerr.New(ltmerr.CodeVmHeaderInvalid, "buffer shorter than the VM wrapper header")
	}
	if [4]byte(buf[:4]) != vmMagic {
		return nil, ltmerr.New(ltmerr.CodeVmHeaderInvalid, "bad VM wrapper magic")
	}
	if buf[4] != vmVersion {
		return nil, ltmerr.Newf(ltmerr.CodeVmHeaderInvalid, "unsupported VM wrapper version %d", buf[4])
	}
	length := binary.LittleEndian.Uint64(buf[5:13])
	rest := buf[headerLen:]
	if uint64(len(rest)) != length {
		return nil, ltmerr.Newf(ltmerr.CodeVmHeaderInvalid, "declared length %d does not match remaining buffer length %d", length, len(rest))
	}
	return rest, nil
}
