// Package timeline models the editable time axis of an edit session.
//
// TimeRange is a half-open span in microseconds. A Clip places a trimmed
// window of a source asset on a track. Track is an ordered interval store
// with overwrite-on-overlap insertion: a newly added clip always wins the
// span it covers, and older clips it intersects are cut back to the
// remainders that still show. Timeline groups video and audio tracks behind
// stable indices.
//
// Nothing here is synchronized. Editing code owns a Timeline exclusively;
// readers on other goroutines should work from Snapshot, which is cheap
// because tracks share their index copy-on-write.
//
// Clips and time ranges carry two encodings: a byte-exact little-endian
// layout (MarshalBinary) for mapping straight into storage, and a TOML/JSON
// document form for interchange.
package timeline
