// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kongjun0320/zf-webpack/internal/compiler"
	"github.com/kongjun0320/zf-webpack/internal/issue"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// renderAssets prints a summary line and a table of the emitted assets.
func renderAssets(w io.Writer, stats *compiler.Stats) {
	fmt.Fprintf(w, "%s compiled %d modules into %s in %s\n",
		SuccessStyle.Render("✓"),
		len(stats.Modules),
		KeyStyle.Render(displayPath(stats.OutputPath)),
		stats.Duration.Round(time.Millisecond))

	rows := make([][]string, 0, len(stats.Assets))
	for _, a := range stats.Assets {
		rows = append(rows, []string{a.Filename, a.Chunk, formatSize(len(a.Content)), a.Hash})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(tableBorderStyle).
		Headers("Asset", "Chunk", "Size", "Hash").
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			return tableCellStyle
		})
	fmt.Fprintln(w, t.Render())
}

// renderStatsJSON prints stats without module sources.
func renderStatsJSON(w io.Writer, stats *compiler.Stats) error {
	out := stats.ToJSON(compiler.StatsOptions{Modules: true, Chunks: true, Assets: true})
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// renderFailure prints an explained build error. Verbose mode adds the
// error chain and the longer guide for the error kind.
func renderFailure(w io.Writer, err error, verbose bool) {
	fmt.Fprintln(w, ErrorStyle.Render("✗ build failed"))
	explained := issue.Explain(err)
	fmt.Fprintln(w, explained.Format(verbose))
	if !verbose {
		return
	}
	if details := explained.Details(); details != nil {
		if rendered, renderErr := details.Render("auto"); renderErr == nil {
			fmt.Fprint(w, rendered)
		}
	}
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// displayPath shortens path relative to the working directory when it is
// inside it.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return path
	}
	return rel
}
