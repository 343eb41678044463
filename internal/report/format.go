package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/popshot/internal/balance"
)

// Format is a report output format.
type Format string

const (
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
	FormatTable Format = "table"
	FormatText  Format = "text"
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTable, FormatText}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if f == "yml" {
		return FormatYAML, nil
	}
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("report: unknown format %q (use json, yaml, table or text)", s)
}

// Extension returns the file extension for f.
func (f Format) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".txt"
	}
}

// Write renders b in format f.
func Write(w io.Writer, b *Batch, f Format) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(b); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		_, err := io.WriteString(w, Table(b)+"\n")
		return err
	case FormatText:
		_, err := io.WriteString(w, Text(b))
		return err
	default:
		return fmt.Errorf("report: unknown format %q", f)
	}
}

// WriteFile renders b into path, creating parent directories. The file is
// written only after rendering succeeds.
func WriteFile(path string, b *Batch, f Format) error {
	var buf bytes.Buffer
	if err := Write(&buf, b, f); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("report: cannot create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("report: cannot write %s: %w", path, err)
	}
	return nil
}

// Read decodes a JSON or YAML report.
func Read(r io.Reader, f Format) (*Batch, error) {
	var b Batch
	switch f {
	case FormatJSON:
		if err := json.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("report: invalid JSON: %w", err)
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&b); err != nil {
			return nil, fmt.Errorf("report: invalid YAML: %w", err)
		}
	default:
		return nil, fmt.Errorf("report: cannot read %s reports", f)
	}
	return &b, nil
}

// ReadFile decodes the report at path, choosing the format by extension.
func ReadFile(path string) (*Batch, error) {
	f := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f = FormatYAML
	case ".json":
	default:
		return nil, fmt.Errorf("report: unsupported report file %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("report: %w", err)
	}
	defer file.Close()
	return Read(file, f)
}

// TableHeaders are the columns of the tabular format.
var TableHeaders = []string{"Level", "Persona", "Verdict", "Completion", "Avg Score", "Health", "Runs", "Failed", "Confidence"}

// Rows returns one row per (level, persona) pair.
func Rows(b *Batch) [][]string {
	var rows [][]string
	for _, l := range b.Levels {
		for _, p := range l.Personas {
			rows = append(rows, PersonaRow(p))
		}
	}
	return rows
}

// PersonaRow formats one persona report as a table row.
func PersonaRow(p balance.PersonaReport) []string {
	return []string{
		p.LevelID,
		p.PersonaID,
		string(p.Classification),
		Percent(p.Observed.CompletionRate),
		fmt.Sprintf("%.1f", p.Summary.AvgScore),
		fmt.Sprintf("%.2f", p.Health),
		humanize.Comma(int64(p.Runs)),
		humanize.Comma(int64(p.FailedRuns)),
		fmt.Sprintf("%.2f", p.Confidence),
	}
}

// Table renders the batch as a bordered table.
func Table(b *Batch) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(TableHeaders...).
		Rows(Rows(b)...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col >= 3 {
				return cell.Align(lipgloss.Right)
			}
			return cell
		})
	return t.String()
}

// Text renders the batch as a human-readable report.
func Text(b *Batch) string {
	var sb strings.Builder
	totals := b.Totals()

	fmt.Fprintf(&sb, "Balance report %s\n", b.ShortID())
	fmt.Fprintf(&sb, "Started %s, took %s\n", b.StartedAt.Format("2006-01-02 15:04:05"), b.Duration().Round(time.Millisecond))
	fmt.Fprintf(&sb, "Sessions: %s (%s successful, %s failed), %d run(s) per pair, parallelism %d\n",
		humanize.Comma(int64(totals.Sessions)),
		humanize.Comma(int64(totals.Successful)),
		humanize.Comma(int64(totals.Failed)),
		b.Settings.Runs, b.Settings.Parallelism)
	if totals.CriticalLevels > 0 {
		fmt.Fprintf(&sb, "Critical levels: %d of %d\n", totals.CriticalLevels, len(b.Levels))
	}

	for _, l := range b.Levels {
		sb.WriteString("\n")
		marker := ""
		if l.Critical {
			marker = "  [CRITICAL]"
		}
		fmt.Fprintf(&sb, "%s (%s)  health %.2f%s\n", l.LevelName, l.LevelID, l.Health, marker)
		for _, issue := range l.CriticalIssues {
			fmt.Fprintf(&sb, "  ! %s\n", issue)
		}
		for _, p := range l.Personas {
			fmt.Fprintf(&sb, "  %-12s %-12s completion %5s  score %7.1f  health %.2f  n=%d failed=%d confidence %.2f\n",
				p.PersonaID, p.Classification, Percent(p.Observed.CompletionRate), p.Summary.AvgScore,
				p.Health, p.SuccessfulRuns, p.FailedRuns, p.Confidence)
			for _, issue := range p.Issues {
				fmt.Fprintf(&sb, "      - %s\n", issue)
			}
		}
		if len(l.Recommendations) > 0 {
			sb.WriteString("  Recommendations:\n")
			for _, r := range l.Recommendations {
				fmt.Fprintf(&sb, "    * %s\n", r)
			}
		}
	}
	return sb.String()
}

// Percent formats a [0,1] rate.
func Percent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}
