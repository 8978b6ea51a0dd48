package api

import (
	"encoding/hex"
	"sort"

	"github.com/zeebo/blake3"
)

// Hash returns a deterministic BLAKE3 hash of the draft content.
// Keys are visited in sorted order; key and value are NUL-terminated.
func (d Draft) Hash() string {
	h := blake3.New()

	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte{0})
		h.Write([]byte(d[k]))
		h.Write([]byte{0})
	}

	sum := h.Sum(nil)
	return hex.EncodeToString(sum)
}
