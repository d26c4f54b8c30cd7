package display

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"forum-tenant-sync/internal/engine"
	"forum-tenant-sync/internal/errors"

	"gopkg.in/yaml.v3"
)

const timestampLayout = "2006-01-02 15:04:05 MST"

// OutputFormat selects how operation reports are rendered
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseOutputFormat validates a user-supplied format name
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(name)) {
	case FormatTable, "":
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return FormatTable, errors.NewValidationError(
			fmt.Sprintf("unsupported output format %q (table, json, yaml)", name), nil)
	}
}

// Printer renders operation reports to a writer
type Printer struct {
	writer io.Writer
	colors *ColorSystem
	format OutputFormat
}

// NewPrinter creates a report printer
func NewPrinter(writer io.Writer, colors *ColorSystem, format OutputFormat) *Printer {
	return &Printer{writer: writer, colors: colors, format: format}
}

// PrintReport renders one operation report in the configured format
func (p *Printer) PrintReport(report *engine.Report) error {
	switch p.format {
	case FormatJSON:
		encoder := json.NewEncoder(p.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case FormatYAML:
		encoder := yaml.NewEncoder(p.writer)
		defer encoder.Close()
		return encoder.Encode(report)
	default:
		p.printTable(report)
		return nil
	}
}

func (p *Printer) printTable(report *engine.Report) {
	status := p.colors.Success("SUCCESS")
	if !report.Success {
		status = p.colors.Failure("FAILED")
	} else if len(report.Errors) > 0 {
		status = p.colors.Warning("PARTIAL")
	}

	fmt.Fprintln(p.writer, p.colors.Header(strings.ToUpper(report.Operation)+" REPORT"))
	fmt.Fprintf(p.writer, "  Status:          %s\n", status)
	if report.TenantID != "" {
		fmt.Fprintf(p.writer, "  Tenant:          %s\n", report.TenantID)
	}
	fmt.Fprintf(p.writer, "  Items processed: %d\n", report.ItemsProcessed)
	fmt.Fprintf(p.writer, "  Items recovered: %d\n", report.ItemsRecovered)
	fmt.Fprintf(p.writer, "  Duration:        %s\n", report.Duration.Round(time.Millisecond))
	fmt.Fprintf(p.writer, "  Timestamp:       %s\n", report.Timestamp.Format(timestampLayout))

	if len(report.Errors) > 0 {
		fmt.Fprintf(p.writer, "  Errors (%d):\n", len(report.Errors))
		for _, msg := range report.Errors {
			fmt.Fprintf(p.writer, "    - %s\n", p.colors.Muted(msg))
		}
	}
}

// PrintBundleList renders stored bundle locations one per line
func (p *Printer) PrintBundleList(locations []string) error {
	switch p.format {
	case FormatJSON:
		encoder := json.NewEncoder(p.writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(locations)
	case FormatYAML:
		encoder := yaml.NewEncoder(p.writer)
		defer encoder.Close()
		return encoder.Encode(locations)
	default:
		if len(locations) == 0 {
			fmt.Fprintln(p.writer, p.colors.Muted("no bundles found"))
			return nil
		}
		for _, location := range locations {
			fmt.Fprintln(p.writer, location)
		}
		return nil
	}
}
