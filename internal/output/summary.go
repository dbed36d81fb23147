package output

import (
	"time"

	"github.com/klytics/sheetkit/internal/history"
)

// FileSummary is the row-less view of a history entry used in listings.
type FileSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Sheet       string    `json:"sheet,omitempty"`
	Columns     []string  `json:"columns"`
	Rows        int       `json:"rows"`
	ByReference bool      `json:"byReference,omitempty"`
	Selected    bool      `json:"selected,omitempty"`
	ImportedAt  time.Time `json:"importedAt"`
}

// Summarize builds summaries for files, flagging selectedID.
func Summarize(files []history.FileRecord, selectedID string) []FileSummary {
	out := make([]FileSummary, len(files))
	for i, f := range files {
		out[i] = FileSummary{
			ID:          f.ID,
			Name:        f.Name,
			Sheet:       f.Sheet,
			Columns:     f.Columns,
			Rows:        len(f.Rows),
			ByReference: f.ByReference(),
			Selected:    f.ID == selectedID,
			ImportedAt:  f.ImportedAt,
		}
	}
	return out
}
