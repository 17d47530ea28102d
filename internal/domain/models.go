package domain

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strconv"
)

// LogEntry is one record from the backend's log feed. The feed is returned
// whole on every poll, so Index is the entry's position in that list.
type LogEntry struct {
	Index int
	Key   string
	Raw   json.RawMessage
}

// NewLogEntry keys raw by its position and the SHA-256 of its compacted JSON
// form. Identical lines at different positions get distinct keys; whitespace
// differences between polls do not.
func NewLogEntry(index int, raw json.RawMessage) LogEntry {
	canonical := raw
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		canonical = buf.Bytes()
	}

	h := sha256.New()
	h.Write([]byte(strconv.Itoa(index)))
	h.Write([]byte{0})
	h.Write(canonical)
	return LogEntry{Index: index, Key: hex.EncodeToString(h.Sum(nil)), Raw: raw}
}
