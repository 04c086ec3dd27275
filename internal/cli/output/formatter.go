package output

import (
	"fmt"
	"io"
	"strings"
)

// Format represents the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --output value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Formatter formats data for output.
type Formatter interface {
	Format(w io.Writer, data any) error
}

// NewFormatter creates a formatter for the given format.
func NewFormatter(format Format) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{}
	case FormatYAML:
		return &YAMLFormatter{}
	default:
		return &TextFormatter{}
	}
}

// Nil is the result of reading an absent key.
type Nil struct{}

// Status is a simple status reply such as OK or PONG.
type Status string

// TextFormatter renders results the way redis-cli does.
type TextFormatter struct{}

// Format writes one line per result.
func (f *TextFormatter) Format(w io.Writer, data any) error {
	var line string
	switch v := data.(type) {
	case nil, Nil:
		line = "(nil)"
	case Status:
		line = string(v)
	case string:
		line = fmt.Sprintf("%q", v)
	case bool:
		line = "(integer) 0"
		if v {
			line = "(integer) 1"
		}
	case int, int64:
		line = fmt.Sprintf("(integer) %d", v)
	case fmt.Stringer:
		line = v.String()
	default:
		line = fmt.Sprint(v)
	}
	_, err := fmt.Fprintln(w, line)
	return err
}
