package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// Fingerprint hashes every field that changes the per-song analysis output.
// Cached song analyses are keyed by this value, so editing any of these
// settings invalidates existing caches instead of silently replaying stale
// band levels.
func (c Config) Fingerprint() string {
	var b strings.Builder
	ap := c.AudioProcessing
	fmt.Fprintf(&b, "channels=%d;", c.ChannelCount())
	fmt.Fprintf(&b, "min=%g;max=%g;chunk=%d;scale=%s;",
		ap.MinFrequency, ap.MaxFrequency, ap.ChunkSize, strings.ToLower(strings.TrimSpace(ap.BandScale)))
	fmt.Fprintf(&b, "mapping=%v;breakpoints=%v;", ap.CustomChannelMapping, ap.CustomChannelFrequencies)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
