package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"schutztat/internal/domain/riskhub"
	"schutztat/internal/errs"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// writeStructured renders rows as JSON or YAML. Table output is written by each
// command since the columns differ.
func writeStructured(out io.Writer, format string, rows any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return errs.Wrap(enc.Encode(rows), "encode json output")
	case formatYAML:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(rows); err != nil {
			return errs.Wrap(err, "encode yaml output")
		}
		return errs.Wrap(enc.Close(), "flush yaml output")
	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func outputFormat(raw string) (string, error) {
	switch f := strings.ToLower(strings.TrimSpace(raw)); f {
	case "", formatTable:
		return formatTable, nil
	case formatJSON, formatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want table, json or yaml)", raw)
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx] + " ..."
	}
	return s
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(riskhub.DateLayout)
}

func formatInt(n *int64) string {
	if n == nil {
		return ""
	}
	return fmt.Sprintf("%d", *n)
}

func formatLink(link riskhub.ParentLink) string {
	switch link.State() {
	case riskhub.LinkResolved:
		return link.ExternalID
	case riskhub.LinkPending:
		return link.ExternalID + " (pending)"
	default:
		return ""
	}
}
