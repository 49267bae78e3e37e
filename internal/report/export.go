package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"sessionchart/internal/pipeline"
)

// WriteSessionsCSV writes the per-session rebased series.
func WriteSessionsCSV(w io.Writer, res *pipeline.Result) error {
	writer := csv.NewWriter(w)

	header := []string{"session", "label", "session_date", "timestamp", "minutes_since_open", "price", "yield"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, p := range res.Points {
		record := []string{
			p.Session,
			p.Label,
			p.SessionDate.Format(time.DateOnly),
			p.Time.Format("2006-01-02 15:04:05"),
			formatMinutes(p.MinutesSinceOpen()),
			p.Price.String(),
			p.Yield.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteAverageCSV writes the average session curve.
func WriteAverageCSV(w io.Writer, res *pipeline.Result) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"minutes_since_open", "yield", "sessions"}); err != nil {
		return err
	}
	for _, a := range res.Average {
		record := []string{
			formatMinutes(a.MinutesSinceOpen()),
			a.Yield.StringFixed(8),
			strconv.Itoa(a.Sessions),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile creates path (and its directory) and fills it with write.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(file); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func formatMinutes(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
