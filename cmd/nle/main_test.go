package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"nle/internal/config"
	"nle/internal/project"
	"nle/internal/testsupport"
	"nle/internal/timeline"
)

const testAsset = "7b0c7e3e-9f0e-4d55-9a1c-2f6f5b6b2a10"

func writeTestConfig(t *testing.T, mutate ...func(*config.Config)) string {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Logging.Level = "error"
	for _, fn := range mutate {
		fn(cfg)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	path := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), err
}

func mustRun(t *testing.T, configPath string, args ...string) string {
	t.Helper()
	out, err := runCLI(t, configPath, args...)
	if err != nil {
		t.Fatalf("nle %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func mustQuery(t *testing.T, configPath string, args ...string) queryResult {
	t.Helper()
	out := mustRun(t, configPath, append([]string{"timeline", "query", "--json"}, args...)...)
	var res queryResult
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("decode query output %q: %v", out, err)
	}
	return res
}

func TestTimelineEditingCommands(t *testing.T) {
	cfgPath := writeTestConfig(t)

	mustRun(t, cfgPath, "timeline", "new", "demo", "--video", "1", "--audio", "0")
	mustRun(t, cfgPath, "timeline", "add-clip", "demo", "--name", "A", "--asset", testAsset, "--in", "5s", "--duration", "10s")
	mustRun(t, cfgPath, "timeline", "add-clip", "demo", "--name", "B", "--asset", testAsset, "--at", "4s", "--duration", "2s")

	if res := mustQuery(t, cfgPath, "demo", "--at", "5s"); !res.Found || res.Clip.Name != "B" {
		t.Fatalf("expected B at 5s, got %+v", res)
	}
	res := mustQuery(t, cfgPath, "demo", "--at", "7000000")
	if !res.Found || res.Clip.Name != "A" || res.SourceTime != 12_000_000 {
		t.Fatalf("expected right remainder of A mapping to source 12s, got %+v", res)
	}

	out := mustRun(t, cfgPath, "timeline", "ripple-delete", "demo", "--start", "4s", "--duration", "2s")
	if !strings.Contains(out, "Removed") {
		t.Fatalf("unexpected ripple output %q", out)
	}
	res = mustQuery(t, cfgPath, "demo", "--at", "5s")
	if !res.Found || res.Clip.Name != "A" || res.SourceTime != 12_000_000 {
		t.Fatalf("expected shifted A at 5s mapping to source 12s, got %+v", res)
	}
	if res := mustQuery(t, cfgPath, "demo", "--at", "8s"); res.Found {
		t.Fatalf("expected gap after the shifted clip, got %+v", res)
	}

	var view timelineView
	if err := json.Unmarshal([]byte(mustRun(t, cfgPath, "timeline", "show", "demo", "--json")), &view); err != nil {
		t.Fatalf("decode show output: %v", err)
	}
	if view.Project != "demo" || len(view.Tracks) != 1 || len(view.Tracks[0].Clips) != 2 {
		t.Fatalf("unexpected view %+v", view)
	}
	if view.Duration != 8_000_000 {
		t.Fatalf("duration = %d, want 8000000", view.Duration)
	}

	table := mustRun(t, cfgPath, "timeline", "show", "demo")
	if !strings.Contains(table, "Video 0") || !strings.Contains(table, testAsset) {
		t.Fatalf("table output missing track or asset:\n%s", table)
	}
}

func TestTimelineCommandErrors(t *testing.T) {
	cfgPath := writeTestConfig(t)
	mustRun(t, cfgPath, "timeline", "new", "demo")

	cases := []struct {
		name string
		args []string
	}{
		{"missing duration", []string{"timeline", "add-clip", "demo", "--name", "A"}},
		{"bad kind", []string{"timeline", "add-clip", "demo", "--kind", "subtitle", "--duration", "1s"}},
		{"zero duration", []string{"timeline", "add-clip", "demo", "--duration", "0"}},
		{"bad asset", []string{"timeline", "add-clip", "demo", "--asset", "nope", "--duration", "1s"}},
		{"missing track", []string{"timeline", "query", "demo", "--track", "3"}},
		{"bad instant", []string{"timeline", "query", "demo", "--at", "soon"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := runCLI(t, cfgPath, tc.args...); err == nil {
				t.Fatalf("expected error for %v", tc.args)
			}
		})
	}

	if _, err := runCLI(t, cfgPath, "timeline", "show", "missing"); !errors.Is(err, project.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := runCLI(t, cfgPath, "timeline", "new", "demo"); !errors.Is(err, project.ErrExists) {
		t.Fatalf("expected ErrExists, got %v", err)
	}
}

func TestExportImportCommands(t *testing.T) {
	cfgPath := writeTestConfig(t)
	mustRun(t, cfgPath, "timeline", "new", "src")
	mustRun(t, cfgPath, "timeline", "add-clip", "src", "--name", "A", "--asset", testAsset, "--duration", "3s")
	mustRun(t, cfgPath, "timeline", "add-clip", "src", "--name", "B", "--asset", testAsset, "--at", "5s", "--duration", "1s")

	doc := filepath.Join(t.TempDir(), "clips.toml")
	mustRun(t, cfgPath, "timeline", "export", "src", "--output", doc)

	mustRun(t, cfgPath, "timeline", "new", "dst", "--video", "0", "--audio", "0")
	mustRun(t, cfgPath, "timeline", "add-track", "dst", "--kind", "audio")
	out := mustRun(t, cfgPath, "timeline", "import", "dst", doc, "--kind", "audio")
	if !strings.Contains(out, "Imported 2 clips") {
		t.Fatalf("unexpected import output %q", out)
	}

	var src, dst timelineView
	if err := json.Unmarshal([]byte(mustRun(t, cfgPath, "timeline", "show", "src", "--json")), &src); err != nil {
		t.Fatalf("decode src: %v", err)
	}
	if err := json.Unmarshal([]byte(mustRun(t, cfgPath, "timeline", "show", "dst", "--json")), &dst); err != nil {
		t.Fatalf("decode dst: %v", err)
	}
	if len(dst.Tracks) != 1 || dst.Tracks[0].Kind != "audio" {
		t.Fatalf("unexpected dst tracks %+v", dst.Tracks)
	}
	want, got := src.Tracks[0].Clips, dst.Tracks[0].Clips
	if len(got) != len(want) {
		t.Fatalf("imported %d clips, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("clip %d = %+v, want %+v", i, got[i], want[i])
		}
	}

	out = mustRun(t, cfgPath, "timeline", "compact", "dst")
	if !strings.Contains(out, "from 2 to 2 edits") {
		t.Fatalf("unexpected compact output %q", out)
	}
}

func TestRenderCommand(t *testing.T) {
	cfgPath := writeTestConfig(t)
	mustRun(t, cfgPath, "timeline", "new", "demo")
	mustRun(t, cfgPath, "timeline", "add-clip", "demo", "--name", "A", "--asset", testAsset, "--duration", "1s")

	var report renderReport
	out := mustRun(t, cfgPath, "render", "demo", "--frames", "60", "--json")
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode render output %q: %v", out, err)
	}
	if report.Frames != 60 || report.Decoded != 30 || report.Gaps != 30 || report.Failed != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if report.SessionID == "" {
		t.Fatal("expected session id")
	}
	if len(report.Decoders) != 1 || report.Decoders[0].Asset != testAsset || report.Decoders[0].Served != 30 {
		t.Fatalf("unexpected decoder stats %+v", report.Decoders)
	}

	text := mustRun(t, cfgPath, "render", "demo", "--frames", "3", "--verbose")
	if !strings.Contains(text, "Rendered 3 frames") || !strings.Contains(text, "cpu") {
		t.Fatalf("unexpected render output:\n%s", text)
	}
}

func TestConfigCommands(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nle", "config.toml")
	cmd := newRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("sample config missing: %v", err)
	}

	cmd = newRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"config", "init", "--path", target})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected error when config exists without --overwrite")
	}

	out := mustRun(t, writeTestConfig(t), "config", "validate")
	if !strings.Contains(out, "Configuration valid") || !strings.Contains(out, "decoder.backend") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}
}

func TestProbeAndAddClipFromFile(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("ffprobe stub requires a POSIX shell")
	}
	stub := filepath.Join(t.TempDir(), "ffprobe")
	script := `#!/bin/sh
cat <<'EOF'
{"streams":[{"codec_type":"video","width":640,"height":360,"avg_frame_rate":"25/1"}],"format":{"duration":"8.0","format_name":"mov"}}
EOF
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	cfgPath := writeTestConfig(t, func(cfg *config.Config) { cfg.Decoder.FFprobe = stub })
	media := filepath.Join(t.TempDir(), "interview.mov")

	var view probeView
	if err := json.Unmarshal([]byte(mustRun(t, cfgPath, "probe", media, "--json")), &view); err != nil {
		t.Fatalf("decode probe output: %v", err)
	}
	if view.Duration != 8_000_000 || view.Width != 640 || view.AssetID != assetIDForFile(media).String() {
		t.Fatalf("unexpected probe view %+v", view)
	}

	mustRun(t, cfgPath, "timeline", "new", "demo")
	mustRun(t, cfgPath, "timeline", "add-clip", "demo", "--probe", media, "--in", "2s")
	res := mustQuery(t, cfgPath, "demo", "--at", "5s")
	if !res.Found || res.Clip.Name != "interview" || res.Clip.AssetID != assetIDForFile(media) {
		t.Fatalf("unexpected probed clip %+v", res)
	}
	if res.Clip.TimelineRange.Duration != 6_000_000 || res.SourceTime != 7_000_000 {
		t.Fatalf("expected clip to run to the end of the asset, got %+v", res)
	}
	if _, err := runCLI(t, cfgPath, "timeline", "add-clip", "demo", "--probe", media, "--in", "5s", "--duration", "4s"); err == nil {
		t.Fatal("expected error for a source range past the end of the asset")
	}
}

func TestParseInstant(t *testing.T) {
	cases := []struct {
		in      string
		want    uint64
		wantErr bool
	}{
		{"0", 0, false},
		{"1500000", 1_500_000, false},
		{"1.5s", 1_500_000, false},
		{"2m", 120_000_000, false},
		{"250ms", 250_000, false},
		{"-1s", 0, true},
		{"", 0, true},
		{"later", 0, true},
	}
	for _, tc := range cases {
		got, err := parseInstant(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseInstant(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Fatalf("parseInstant(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestFormatting(t *testing.T) {
	if got := formatMicros(3_723_000_042); got != "1:02:03.000042" {
		t.Fatalf("formatMicros = %q", got)
	}
	if got := kindLabel(timeline.KindVideo, 2); got != "Video 2" {
		t.Fatalf("kindLabel = %q", got)
	}
	if got := projectName("/tmp/projects/demo.nle"); got != "demo" {
		t.Fatalf("projectName = %q", got)
	}
}
