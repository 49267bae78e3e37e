package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sessionchart/internal/config"
)

const tuzCSV = `Date,Lst
2025-09-17 18:00,104-08
2025-09-17 18:05,104-09
2025-09-18 15:55,104-10+
2025-09-18 16:30,104-11
2025-09-18 18:00,104-10
2025-09-18 18:05,104-08
`

func newTestApp(t *testing.T) (*App, string, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tuz5.csv"), []byte(tuzCSV), 0o644))

	cfgPath := filepath.Join(dir, "config.yaml")
	body := fmt.Sprintf(`
loader:
  base_dir: %q
output:
  dir: %q
session:
  default_year: 2025
`, dir, filepath.Join(dir, "out"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(body), 0o644))

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)

	var out bytes.Buffer
	a := NewApp(cfg, zerolog.Nop())
	a.Out = &out
	return a, dir, &out
}

func TestRenderOnce(t *testing.T) {
	a, dir, _ := newTestApp(t)
	require.NoError(t, a.Render(context.Background(), RenderOptions{}))

	outDir := filepath.Join(dir, "out")
	for _, name := range []string{"index.html", "TUZ5.png", "TUZ5_sessions.csv", "TUZ5_average.csv"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	_, err := os.Stat(filepath.Join(outDir, "FVZ5.png"))
	assert.True(t, os.IsNotExist(err))

	html, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "TUZ5 Futures Yield: Sep 17 – Sep 18, 2025")
	assert.Contains(t, page, `src="TUZ5.png"`)
	assert.Contains(t, page, "Missing `fvz5.csv` in the folder.")
	assert.Contains(t, page, "Missing `tyz5.csv` in the folder.")

	sessions, err := os.ReadFile(filepath.Join(outDir, "TUZ5_sessions.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(sessions)), "\n")
	// The 16:30 row falls in the gap and is dropped.
	assert.Len(t, lines, 6)
}

func TestRenderWithoutPNG(t *testing.T) {
	a, dir, _ := newTestApp(t)
	a.Config.Output.PNG = false
	require.NoError(t, a.Render(context.Background(), RenderOptions{OutDir: filepath.Join(dir, "alt")}))

	html, err := os.ReadFile(filepath.Join(dir, "alt", "index.html"))
	require.NoError(t, err)
	assert.NotContains(t, string(html), "<img")
	_, err = os.Stat(filepath.Join(dir, "alt", "TUZ5.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderKeepsPageWhenArtifactWriteFails(t *testing.T) {
	a, dir, _ := newTestApp(t)
	outDir := filepath.Join(dir, "out")
	// A directory in place of the chart file makes the PNG write fail.
	require.NoError(t, os.MkdirAll(filepath.Join(outDir, "TUZ5.png"), 0o755))

	require.NoError(t, a.Render(context.Background(), RenderOptions{}))

	html, err := os.ReadFile(filepath.Join(outDir, "index.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "write output for TUZ5")
	assert.NotContains(t, page, `src="TUZ5.png"`)
	assert.Contains(t, page, "Missing `fvz5.csv` in the folder.")
}

func TestShow(t *testing.T) {
	a, _, out := newTestApp(t)
	require.NoError(t, a.Show(context.Background(), ShowOptions{}))

	text := out.String()
	assert.Contains(t, text, "== 2Y – TUZ5 ==")
	assert.Contains(t, text, "TUZ5 Futures Yield: Sep 17 – Sep 18, 2025")
	assert.Contains(t, text, "Sep 17")
	assert.Contains(t, text, "warning: Missing `fvz5.csv` in the folder.")
}

func TestShowSingleInstrument(t *testing.T) {
	a, _, out := newTestApp(t)
	require.NoError(t, a.Show(context.Background(), ShowOptions{Instrument: "tuz5"}))
	assert.NotContains(t, out.String(), "FVZ5")

	assert.Error(t, a.Show(context.Background(), ShowOptions{Instrument: "ZNZ5"}))
}

func TestExport(t *testing.T) {
	a, dir, _ := newTestApp(t)
	csvPath := filepath.Join(dir, "export", "tuz5.csv")
	pngPath := filepath.Join(dir, "export", "tuz5.png")

	require.NoError(t, a.Export(context.Background(), ExportOptions{Instrument: "TUZ5", CSVPath: csvPath, PNGPath: pngPath}))
	for _, p := range []string{csvPath, pngPath} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	err := a.Export(context.Background(), ExportOptions{Instrument: "FVZ5", CSVPath: csvPath})
	require.Error(t, err)
	assert.Equal(t, "Missing `fvz5.csv` in the folder.", err.Error())

	assert.Error(t, a.Export(context.Background(), ExportOptions{Instrument: "TUZ5"}))
}

func TestPrintConfig(t *testing.T) {
	a, _, out := newTestApp(t)
	require.NoError(t, a.PrintConfig())

	text := out.String()
	assert.Contains(t, text, "open_hour: 18")
	assert.Contains(t, text, "name: TUZ5")
	assert.Contains(t, text, "read_timeout: 10s")
}

func TestRenderPeriodicStopsOnCancel(t *testing.T) {
	a, dir, _ := newTestApp(t)
	index := filepath.Join(dir, "out", "index.html")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			if _, err := os.Stat(index); err == nil {
				cancel()
				return
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
	}()

	done := make(chan error, 1)
	go func() { done <- a.Render(ctx, RenderOptions{Every: time.Hour}) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatalf("periodic render did not stop")
	}
	_, err := os.Stat(index)
	assert.NoError(t, err)
}

func TestRenderRejectsBadCron(t *testing.T) {
	a, _, _ := newTestApp(t)
	assert.Error(t, a.Render(context.Background(), RenderOptions{Cron: "every tuesday"}))
}
