package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/smokebreak/internal/settings"
	"github.com/sadopc/smokebreak/internal/stats"
)

// Report is the exported snapshot of configuration and history.
type Report struct {
	ExportDate string            `json:"exportDate"`
	Settings   settings.Settings `json:"settings"`
	Statistics stats.Statistics  `json:"statistics"`
}

func NewReport(s settings.Settings, st stats.Statistics, now time.Time) Report {
	if st.Sessions == nil {
		st.Sessions = []stats.Entry{}
	}
	return Report{
		ExportDate: now.UTC().Format(time.RFC3339),
		Settings:   s,
		Statistics: st,
	}
}

func ToJSON(r Report, path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
