package storage

import (
	"encoding/binary"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/blake2b"

	"github.com/matsen/hardneg/internal/corpus"
)

// CorpusFingerprint returns a hex BLAKE2b-256 digest over all pairs in
// order. Any change to pair text, order, or count produces a different
// fingerprint, which is how stale mining results are detected.
func CorpusFingerprint(pairs []corpus.Pair) string {
	h, _ := blake2b.New256(nil)
	for _, p := range pairs {
		writeLengthPrefixed(h, p.Query)
		writeLengthPrefixed(h, p.Answer)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// writeLengthPrefixed writes the string with a length prefix so adjacent
// fields can never be confused for one another.
func writeLengthPrefixed(w io.Writer, s string) {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(s)))
	w.Write(lenBuf[:])
	io.WriteString(w, s)
}
