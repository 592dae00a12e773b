package output

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const ContractVersion = "1.0"

var Formats = []string{"json", "jsonl", "yaml", "table", "csv"}

type Envelope struct {
	ContractVersion string     `json:"contract_version" yaml:"contract_version"`
	Command         string     `json:"command" yaml:"command"`
	Timestamp       string     `json:"timestamp" yaml:"timestamp"`
	RequestID       string     `json:"request_id" yaml:"request_id"`
	Success         bool       `json:"success" yaml:"success"`
	Data            any        `json:"data,omitempty" yaml:"data,omitempty"`
	Paging          any        `json:"paging,omitempty" yaml:"paging,omitempty"`
	Error           *ErrorInfo `json:"error,omitempty" yaml:"error,omitempty"`
}

type ErrorInfo struct {
	Type        string       `json:"type" yaml:"type"`
	Code        string       `json:"code,omitempty" yaml:"code,omitempty"`
	StatusCode  int          `json:"status_code,omitempty" yaml:"status_code,omitempty"`
	Message     string       `json:"message" yaml:"message"`
	RequestID   string       `json:"request_id,omitempty" yaml:"request_id,omitempty"`
	Retryable   bool         `json:"retryable" yaml:"retryable"`
	Remediation *Remediation `json:"remediation,omitempty" yaml:"remediation,omitempty"`
}

type Remediation struct {
	Category string   `json:"category" yaml:"category"`
	Summary  string   `json:"summary" yaml:"summary"`
	Actions  []string `json:"actions,omitempty" yaml:"actions,omitempty"`
}

func NewEnvelope(command string, success bool, data any, paging any, errorInfo *ErrorInfo) Envelope {
	return Envelope{
		ContractVersion: ContractVersion,
		Command:         command,
		Timestamp:       time.Now().UTC().Format(time.RFC3339),
		RequestID:       uuid.NewString(),
		Success:         success,
		Data:            data,
		Paging:          paging,
		Error:           errorInfo,
	}
}

// ValidFormat reports whether format is one of Formats.
func ValidFormat(format string) bool {
	for _, candidate := range Formats {
		if candidate == format {
			return true
		}
	}
	return false
}

func Write(w io.Writer, format string, envelope Envelope) error {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		return writeJSON(w, envelope)
	case "jsonl":
		return writeJSONL(w, envelope)
	case "yaml":
		return writeYAML(w, envelope)
	case "table":
		return writeTable(w, envelope)
	case "csv":
		return writeCSV(w, envelope)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeJSON(w io.Writer, envelope Envelope) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(envelope)
}

func writeYAML(w io.Writer, envelope Envelope) error {
	generic, err := toGeneric(envelope)
	if err != nil {
		return err
	}
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(generic); err != nil {
		return err
	}
	return encoder.Close()
}

func writeJSONL(w io.Writer, envelope Envelope) error {
	data, err := toGeneric(envelope.Data)
	if err != nil {
		return err
	}
	items, ok := data.([]any)
	if !ok {
		encoded, err := json.Marshal(envelope)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(encoded))
		return err
	}
	for _, item := range items {
		line := envelope
		line.Data = item
		encoded, err := json.Marshal(line)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, string(encoded)); err != nil {
			return err
		}
	}
	return nil
}

func writeTable(w io.Writer, envelope Envelope) error {
	rows, headers, err := normalizeRows(envelope)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, strings.Join(headers, "\t")); err != nil {
		return err
	}
	for _, row := range rows {
		values := make([]string, 0, len(headers))
		for _, header := range headers {
			values = append(values, cell(row[header]))
		}
		if _, err := fmt.Fprintln(tw, strings.Join(values, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func writeCSV(w io.Writer, envelope Envelope) error {
	rows, headers, err := normalizeRows(envelope)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, 0, len(headers))
		for _, header := range headers {
			record = append(record, cell(row[header]))
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// normalizeRows flattens the envelope data to rows. Failed envelopes render
// their error as a single row.
func normalizeRows(envelope Envelope) ([]map[string]any, []string, error) {
	source := envelope.Data
	if !envelope.Success && envelope.Error != nil {
		source = envelope.Error
	}
	generic, err := toGeneric(source)
	if err != nil {
		return nil, nil, err
	}

	var rows []map[string]any
	switch typed := generic.(type) {
	case map[string]any:
		rows = []map[string]any{typed}
	case []any:
		rows = make([]map[string]any, 0, len(typed))
		for _, item := range typed {
			row, ok := item.(map[string]any)
			if !ok {
				return nil, nil, errors.New("table/csv output requires object rows")
			}
			rows = append(rows, row)
		}
	default:
		return nil, nil, errors.New("table/csv output requires map or list data")
	}
	return rows, orderedHeaders(rows), nil
}

func orderedHeaders(rows []map[string]any) []string {
	set := map[string]struct{}{}
	for _, row := range rows {
		for key := range row {
			set[key] = struct{}{}
		}
	}
	headers := make([]string, 0, len(set))
	for key := range set {
		headers = append(headers, key)
	}
	sort.Strings(headers)
	return headers
}

func cell(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case map[string]any, []any:
		encoded, err := json.Marshal(typed)
		if err != nil {
			return fmt.Sprint(typed)
		}
		return string(encoded)
	default:
		return fmt.Sprint(typed)
	}
}

// toGeneric round-trips value through JSON so typed results render with their
// json field names in every format.
func toGeneric(value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("encode output data: %w", err)
	}
	var generic any
	if err := json.Unmarshal(encoded, &generic); err != nil {
		return nil, fmt.Errorf("decode output data: %w", err)
	}
	return generic, nil
}
