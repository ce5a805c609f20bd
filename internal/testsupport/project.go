package testsupport

import (
	"context"
	"testing"

	"nle/internal/config"
	"nle/internal/logging"
	"nle/internal/project"
)

// MustCreateProject creates a project under cfg's project directory and
// registers cleanup.
func MustCreateProject(t testing.TB, cfg *config.Config, name string, videoTracks, audioTracks int) *project.Project {
	t.Helper()

	p, err := project.Create(context.Background(), cfg.ProjectPath(name), name, project.Options{
		Logger:      logging.NewNop(),
		VideoTracks: videoTracks,
		AudioTracks: audioTracks,
	})
	if err != nil {
		t.Fatalf("project.Create: %v", err)
	}
	t.Cleanup(func() {
		_ = p.Close()
	})
	return p
}

// MustOpenProject opens an existing project and registers cleanup.
func MustOpenProject(t testing.TB, cfg *config.Config, name string) *project.Project {
	t.Helper()

	p, err := project.Open(context.Background(), cfg.ProjectPath(name), project.Options{Logger: logging.NewNop()})
	if err != nil {
		t.Fatalf("project.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = p.Close()
	})
	return p
}
