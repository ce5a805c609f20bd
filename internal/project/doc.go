// Package project persists timelines in a single-file SQLite database.
//
// A project file stores its tracks and an append-only journal of edits
// (clip insertions and ripple deletes). Opening a project replays the
// journal in sequence order onto empty tracks, which rebuilds exactly the
// timeline that was edited because every edit is deterministic given the
// edits before it. Compact rewrites the journal as one insertion per stored
// clip.
//
// Each open project holds an exclusive advisory lock next to the database
// file so two editors cannot interleave journals. The schema is versioned;
// a file written by a different schema version is refused with
// ErrSchemaMismatch rather than migrated.
package project
