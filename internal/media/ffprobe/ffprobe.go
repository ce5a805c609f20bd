package ffprobe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"
)

// ErrNoDuration reports a probe result without a usable duration.
var ErrNoDuration = errors.New("ffprobe: asset duration unavailable")

// Result represents the parsed output from an ffprobe inspection.
type Result struct {
	Streams []Stream `json:"streams"`
	Format  Format   `json:"format"`
}

// Stream describes a single stream in the media container.
type Stream struct {
	Index        int    `json:"index"`
	CodecName    string `json:"codec_name"`
	CodecType    string `json:"codec_type"`
	Duration     string `json:"duration"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	AvgFrameRate string `json:"avg_frame_rate"`
	SampleRate   string `json:"sample_rate"`
	Channels     int    `json:"channels"`
}

// Format captures container-level metadata.
type Format struct {
	Filename   string `json:"filename"`
	NBStreams  int    `json:"nb_streams"`
	Duration   string `json:"duration"`
	FormatName string `json:"format_name"`
}

// Asset is the subset of probe output needed to place a clip.
type Asset struct {
	Path         string  `json:"path"`
	Format       string  `json:"format"`
	Duration     uint64  `json:"duration_us"`
	Width        int     `json:"width,omitempty"`
	Height       int     `json:"height,omitempty"`
	FrameRate    float64 `json:"frame_rate,omitempty"`
	VideoStreams int     `json:"video_streams"`
	AudioStreams int     `json:"audio_streams"`
}

// Inspect executes ffprobe against path and decodes the JSON response.
func Inspect(ctx context.Context, binary string, path string) (Result, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "ffprobe"
	}
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, errors.New("ffprobe inspect: empty path")
	}

	cmd := exec.CommandContext(ctx, binary, "-v", "error", "-hide_banner", "-show_format", "-show_streams", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Result{}, fmt.Errorf("ffprobe inspect %s: %w: %s", path, err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return Result{}, fmt.Errorf("ffprobe inspect %s: %w", path, err)
	}

	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoStreamCount returns the number of video streams discovered.
func (r Result) VideoStreamCount() int {
	return r.countStreams("video")
}

// AudioStreamCount returns the number of audio streams discovered.
func (r Result) AudioStreamCount() int {
	return r.countStreams("audio")
}

func (r Result) countStreams(codecType string) int {
	count := 0
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, codecType) {
			count++
		}
	}
	return count
}

// PrimaryVideo returns the first video stream.
func (r Result) PrimaryVideo() (Stream, bool) {
	for _, stream := range r.Streams {
		if strings.EqualFold(stream.CodecType, "video") {
			return stream, true
		}
	}
	return Stream{}, false
}

// DurationMicros returns the container duration in microseconds, falling
// back to the longest stream when the container omits it.
func (r Result) DurationMicros() (uint64, error) {
	seconds := parseFloat(r.Format.Duration)
	if !usableSeconds(seconds) {
		seconds = 0
		for _, stream := range r.Streams {
			if d := parseFloat(stream.Duration); usableSeconds(d) && d > seconds {
				seconds = d
			}
		}
	}
	if seconds <= 0 {
		return 0, ErrNoDuration
	}
	return uint64(math.Round(seconds * 1e6)), nil
}

// FrameRate parses the stream's average frame rate ("30000/1001"), or 0.
func (s Stream) FrameRate() float64 {
	num, den, ok := strings.Cut(strings.TrimSpace(s.AvgFrameRate), "/")
	if !ok {
		if v := parseFloat(num); usableSeconds(v) {
			return v
		}
		return 0
	}
	n, d := parseFloat(num), parseFloat(den)
	if !usableSeconds(n) || !usableSeconds(d) || d == 0 {
		return 0
	}
	return n / d
}

// Asset summarizes the result for the file at path.
func (r Result) Asset(path string) (Asset, error) {
	duration, err := r.DurationMicros()
	if err != nil {
		return Asset{}, fmt.Errorf("%s: %w", path, err)
	}
	asset := Asset{
		Path:         path,
		Format:       r.Format.FormatName,
		Duration:     duration,
		VideoStreams: r.VideoStreamCount(),
		AudioStreams: r.AudioStreamCount(),
	}
	if video, ok := r.PrimaryVideo(); ok {
		asset.Width = video.Width
		asset.Height = video.Height
		asset.FrameRate = video.FrameRate()
	}
	return asset, nil
}

// Probe inspects path and summarizes it.
func Probe(ctx context.Context, binary, path string) (Asset, error) {
	result, err := Inspect(ctx, binary, path)
	if err != nil {
		return Asset{}, err
	}
	return result.Asset(path)
}

func usableSeconds(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v >= 0
}

func parseFloat(value string) float64 {
	cleaned := strings.TrimSpace(value)
	if cleaned == "" {
		return 0
	}
	if parsed, err := strconv.ParseFloat(cleaned, 64); err == nil {
		return parsed
	}
	return math.NaN()
}
