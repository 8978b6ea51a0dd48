package api

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"time"
)

// NewID generates a sortable-ish ID using time and randomness.
func NewID() string {
	now := time.Now().UnixNano()
	ts := strconv.FormatInt(now, 36)
	var buf [6]byte
	_, _ = rand.Read(buf[:])
	return ts + "-" + hex.EncodeToString(buf[:])
}

const reportAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// NewReportID returns "RPT-" followed by n characters from [A-Z0-9].
func NewReportID(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	out := make([]byte, 0, 4+n)
	out = append(out, "RPT-"...)
	for _, b := range buf {
		out = append(out, reportAlphabet[int(b)%len(reportAlphabet)])
	}
	return string(out)
}
