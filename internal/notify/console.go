package notify

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/deusflow/ainews/internal/news"
)

// Console prints the digest as a table instead of sending it. Used for dry runs.
type Console struct {
	out io.Writer
}

func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

func (c *Console) Name() string { return "console" }

func (c *Console) Notify(_ context.Context, digests []news.Digest) error {
	t := table.NewWriter()
	t.SetOutputMirror(c.out)
	t.SetStyle(table.StyleLight)
	t.SetTitle("AI News Digest")
	t.AppendHeader(table.Row{"#", "Title", "Summary", "Source", "URL"})
	for i, d := range digests {
		summary := d.Summary
		if len(d.KeyPoints) > 0 {
			summary += "\n- " + strings.Join(d.KeyPoints, "\n- ")
		}
		t.AppendRow(table.Row{i + 1, d.Title, summary, sourceName(d), link(d)})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d items", len(digests))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, WidthMax: 40},
		{Number: 3, WidthMax: 60},
	})
	t.Render()
	return nil
}
