// Package main hosts the nle CLI entrypoint and command graph.
//
// The Cobra command tree edits project files (tracks, clips, ripple
// deletes, TOML import and export), probes media files with ffprobe and
// runs headless renders through the playback resolver. It resolves configuration once per invocation and
// builds the structured logger from it, so subcommands only deal with
// flags and output.
package main
