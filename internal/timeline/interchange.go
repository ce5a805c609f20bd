package timeline

import (
	"bytes"
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// ClipDocument is the interchange form of a clip list. Clips appear in
// replay order: loading a document adds them one after another, so a later
// clip wins wherever two placements overlap.
type ClipDocument struct {
	Clips []Clip `toml:"clip" json:"clips"`
}

// MarshalClipsTOML renders clips as a TOML document of [[clip]] tables.
// TOML integers are signed, so instants beyond math.MaxInt64 microseconds
// are rejected by the encoder.
func MarshalClipsTOML(clips []Clip) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(ClipDocument{Clips: clips}); err != nil {
		return nil, fmt.Errorf("encode clip document: %w", err)
	}
	return buf.Bytes(), nil
}

// UnmarshalClipsTOML parses a document produced by MarshalClipsTOML.
func UnmarshalClipsTOML(data []byte) ([]Clip, error) {
	var doc ClipDocument
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parse clip document: %w", err)
	}
	return doc.Clips, nil
}

// Replay adds clips to track in slice order.
func Replay(track *Track, clips []Clip) {
	for _, clip := range clips {
		track.Add(clip)
	}
}
