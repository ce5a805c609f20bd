// Package ffprobe reads asset metadata through the ffprobe executable.
//
// Inspect runs ffprobe and decodes its JSON report; Probe reduces that
// report to an Asset carrying the microsecond duration and primary video
// geometry used when placing clips. Decoding itself stays behind
// media.Source.
package ffprobe
