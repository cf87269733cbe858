// Package report serializes check results for terminals, files, and pipes.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"gatecheck/internal/check"
	"gatecheck/internal/status"
)

// Format identifies an output serialization.
type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
)

// ParseFormat validates a user-supplied format name.
func ParseFormat(name string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(name))) {
	case FormatTable:
		return FormatTable, nil
	case FormatCSV:
		return FormatCSV, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q (expected table, csv, or json)", name)
	}
}

// DefaultFormat picks a human format for terminals and a machine format for
// pipes and redirects.
func DefaultFormat(w io.Writer) Format {
	if file, ok := w.(*os.File); ok {
		fd := file.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return FormatTable
		}
	}
	return FormatCSV
}

var columns = []string{
	"Container", "Terminal", "Available", "Line Operator", "Dimensions",
	"Location", "Customs Hold", "Line Hold", "CBPA Hold", "Terminal Hold",
}

// Render writes the run's results to w in the given format. Rows follow the
// normalized input order.
func Render(w io.Writer, rep *check.Report, format Format) error {
	switch format {
	case FormatJSON:
		return renderJSON(w, rep)
	case FormatCSV:
		return renderCSV(w, rep)
	case FormatTable:
		_, err := fmt.Fprintln(w, renderTable(rep))
		return err
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// RenderFile writes the report to path, creating or truncating it.
func RenderFile(path string, rep *check.Report, format Format) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	if err := Render(file, rep, format); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close report file: %w", err)
	}
	return nil
}

func orderedRecords(rep *check.Report) []status.Record {
	records := make([]status.Record, 0, len(rep.Numbers))
	for _, number := range rep.Numbers {
		records = append(records, rep.Results[number])
	}
	return records
}

func fields(record status.Record) []string {
	return []string{
		record.ContainerNumber,
		record.Terminal,
		record.Available,
		record.LineOperator,
		record.Dimensions,
		record.Location,
		record.CustomsHold,
		record.LineHold,
		record.CBPAHold,
		record.TerminalHold,
	}
}

func renderJSON(w io.Writer, rep *check.Report) error {
	payload := struct {
		RunID      string          `json:"run_id"`
		Mode       check.Mode      `json:"mode"`
		StartedAt  string          `json:"started_at"`
		FinishedAt string          `json:"finished_at"`
		Results    []status.Record `json:"results"`
	}{
		RunID:      rep.RunID,
		Mode:       rep.Mode,
		StartedAt:  rep.StartedAt.UTC().Format(time.RFC3339),
		FinishedAt: rep.FinishedAt.UTC().Format(time.RFC3339),
		Results:    orderedRecords(rep),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func renderCSV(w io.Writer, rep *check.Report) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for _, record := range orderedRecords(rep) {
		if err := cw.Write(fields(record)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func renderTable(rep *check.Report) string {
	rows := make([][]string, 0, len(rep.Numbers))
	for _, record := range orderedRecords(rep) {
		rows = append(rows, fields(record))
	}
	return Grid(columns, rows)
}

// Grid renders arbitrary headers and rows in the same rounded style the
// result table uses, so history listings match check output. Columns named in
// numeric (zero-based) are right-aligned for counts and durations.
func Grid(headers []string, rows [][]string, numeric ...int) string {
	if len(headers) == 0 {
		return ""
	}

	rightAligned := make(map[int]struct{}, len(numeric))
	for _, index := range numeric {
		rightAligned[index] = struct{}{}
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, name := range headers {
		header[i] = name
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, value := range row {
			r[i] = value
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if _, ok := rightAligned[i]; ok {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}
