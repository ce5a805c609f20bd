package timeline

import (
	"errors"
	"fmt"
	"strings"
)

// ErrTrackNotFound reports a track index that the timeline never handed out.
var ErrTrackNotFound = errors.New("track not found")

// TrackKind distinguishes the two track address spaces of a timeline.
type TrackKind int

const (
	KindVideo TrackKind = iota
	KindAudio
)

func (k TrackKind) String() string {
	switch k {
	case KindVideo:
		return "video"
	case KindAudio:
		return "audio"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseTrackKind accepts "video"/"v" and "audio"/"a", case-insensitively.
func ParseTrackKind(value string) (TrackKind, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "video", "v":
		return KindVideo, nil
	case "audio", "a":
		return KindAudio, nil
	default:
		return 0, fmt.Errorf("track kind: unsupported value %q", value)
	}
}

// Timeline is an ordered collection of video and audio tracks. Tracks are
// only appended, so an index stays valid for the timeline's lifetime.
type Timeline struct {
	VideoTracks []*Track
	AudioTracks []*Track
}

// New returns a timeline without tracks.
func New() *Timeline {
	return &Timeline{}
}

// AddVideoTrack appends an empty video track and returns its index.
func (tl *Timeline) AddVideoTrack() int {
	tl.VideoTracks = append(tl.VideoTracks, NewTrack())
	return len(tl.VideoTracks) - 1
}

// AddAudioTrack appends an empty audio track and returns its index.
func (tl *Timeline) AddAudioTrack() int {
	tl.AudioTracks = append(tl.AudioTracks, NewTrack())
	return len(tl.AudioTracks) - 1
}

// AddTrack appends an empty track of the given kind.
func (tl *Timeline) AddTrack(kind TrackKind) int {
	if kind == KindAudio {
		return tl.AddAudioTrack()
	}
	return tl.AddVideoTrack()
}

// Track returns the track of kind at index.
func (tl *Timeline) Track(kind TrackKind, index int) (*Track, error) {
	tracks := tl.tracks(kind)
	if index < 0 || index >= len(tracks) {
		return nil, fmt.Errorf("%s track %d: %w", kind, index, ErrTrackNotFound)
	}
	return tracks[index], nil
}

// VideoTrack returns the video track at index.
func (tl *Timeline) VideoTrack(index int) (*Track, error) {
	return tl.Track(KindVideo, index)
}

// AudioTrack returns the audio track at index.
func (tl *Timeline) AudioTrack(index int) (*Track, error) {
	return tl.Track(KindAudio, index)
}

// TrackCount returns how many tracks of kind exist.
func (tl *Timeline) TrackCount(kind TrackKind) int {
	return len(tl.tracks(kind))
}

// Duration returns the latest clip end across all tracks.
func (tl *Timeline) Duration() uint64 {
	var end uint64
	for _, tracks := range [][]*Track{tl.VideoTracks, tl.AudioTracks} {
		for _, track := range tracks {
			if track.Len() == 0 {
				continue
			}
			end = max(end, track.Span().End())
		}
	}
	return end
}

// Snapshot returns a copy that later edits to tl do not affect.
func (tl *Timeline) Snapshot() *Timeline {
	out := &Timeline{
		VideoTracks: make([]*Track, len(tl.VideoTracks)),
		AudioTracks: make([]*Track, len(tl.AudioTracks)),
	}
	for i, track := range tl.VideoTracks {
		out.VideoTracks[i] = track.Clone()
	}
	for i, track := range tl.AudioTracks {
		out.AudioTracks[i] = track.Clone()
	}
	return out
}

func (tl *Timeline) tracks(kind TrackKind) []*Track {
	if kind == KindAudio {
		return tl.AudioTracks
	}
	return tl.VideoTracks
}
