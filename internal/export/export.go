package export

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
)

// Supported formats.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
)

// FileName is the dated export file name for format, e.g.
// smokebreak-export-2026-10-14.json.
func FileName(format string, now time.Time) string {
	return fmt.Sprintf("smokebreak-export-%s.%s", now.Format(stats.DateLayout), format)
}

// Write exports to a dated file in dir and returns its path.
func Write(dir, format string, s settings.Settings, st stats.Statistics, now time.Time) (string, error) {
	path := filepath.Join(dir, FileName(format, now))

	switch format {
	case FormatJSON:
		return path, ToJSON(NewReport(s, st, now), path)
	case FormatCSV:
		return path, ToCSV(st, path)
	}
	return "", fmt.Errorf("unknown export format %q", format)
}
