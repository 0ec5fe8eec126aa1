package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/sadopc/smokebreak/internal/stats"
)

// ToCSV writes the session log, one row per active day in log order.
func ToCSV(st stats.Statistics, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"date", "count", "focus_minutes"}); err != nil {
		return err
	}

	for _, e := range st.Sessions {
		row := []string{
			e.Date,
			strconv.Itoa(e.Count),
			strconv.Itoa(e.FocusMinutes),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FormatMinutes renders a minute total as "1h 05m", or "25m" under an hour.
func FormatMinutes(total int) string {
	if total < 60 {
		return fmt.Sprintf("%dm", total)
	}
	return fmt.Sprintf("%dh %02dm", total/60, total%60)
}
