package internal

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/starford/voicememo/internal/models"
)

const maxErrorWidth = 60

// renderMemos formats journal records as a rounded table followed by a
// "showing N of M" caption. Dead letters are starred.
func renderMemos(items []models.MemoRecord, total int, now time.Time) string {
	if len(items) == 0 {
		return "No memos recorded."
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"ID", "File", "Status", "Stage", "Size", "Started", "Error"})

	for _, rec := range items {
		id := rec.ID
		if len(id) > 8 {
			id = id[:8]
		}
		status := rec.Status
		if rec.DeadLetter() {
			status += " *"
		}
		tw.AppendRow(table.Row{
			id,
			rec.Filename,
			status,
			rec.Stage,
			humanize.Bytes(uint64(max(rec.Size, 0))),
			humanize.RelTime(rec.StartedAt, now, "ago", "from now"),
			text.Trim(rec.Error, maxErrorWidth),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	tw.SetCaption(fmt.Sprintf("showing %d of %d (* audio left in the watch directory)", len(items), total))

	return tw.Render()
}
