// Package errors renders the diagnostics of a replay for different consumers.
//
// Domain error types stay in their packages (ledger, loader, accounting); this
// package only inspects them through small getter interfaces:
//   - TextFormatter: human readable output for the CLI
//   - JSONFormatter: structured output for scripts
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/robinvdvleuten/costbasis/asset"
	"github.com/robinvdvleuten/costbasis/event"
	"github.com/robinvdvleuten/costbasis/output"
)

// Formatter formats errors for output in different formats.
type Formatter interface {
	Format(err error) string
	FormatAll(errs []error) string
}

type positioned interface {
	GetFilename() string
	GetLine() int
}

type assetError interface {
	GetAsset() asset.Asset
}

type timedError interface {
	GetTime() event.Timestamp
}

// TextFormatter formats errors for command-line output.
type TextFormatter struct {
	sourceContent []byte
	styles        *output.Styles
}

// TextFormatterOption is an option for configuring TextFormatter.
type TextFormatterOption func(*TextFormatter)

// WithSource sets the stream content used to show the lines around a load error.
func WithSource(source []byte) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.sourceContent = source
	}
}

// WithStyles highlights the asset of a diagnostic.
func WithStyles(styles *output.Styles) TextFormatterOption {
	return func(tf *TextFormatter) {
		tf.styles = styles
	}
}

// NewTextFormatter creates a new text formatter.
func NewTextFormatter(opts ...TextFormatterOption) *TextFormatter {
	tf := &TextFormatter{}
	for _, opt := range opts {
		opt(tf)
	}
	return tf
}

// Format formats a single error.
func (tf *TextFormatter) Format(err error) string {
	if e, ok := err.(positioned); ok && tf.sourceContent != nil {
		return tf.formatWithSourceContext(e.GetLine(), err.Error())
	}

	if e, ok := err.(assetError); ok {
		label := "[" + e.GetAsset().String() + "]"
		if tf.styles != nil {
			label = tf.styles.Asset(label)
		}
		return label + " " + err.Error()
	}

	return err.Error()
}

// FormatAll formats multiple errors, separating them with blank lines.
func (tf *TextFormatter) FormatAll(errs []error) string {
	parts := make([]string, 0, len(errs))
	for _, err := range errs {
		parts = append(parts, tf.Format(err))
	}
	return strings.Join(parts, "\n\n")
}

// formatWithSourceContext shows two lines before and one after the failing
// line, marking the failing one.
func (tf *TextFormatter) formatWithSourceContext(line int, message string) string {
	var buf bytes.Buffer
	buf.WriteString(message)
	buf.WriteString("\n\n")

	lines := strings.Split(string(tf.sourceContent), "\n")
	start := max(line-3, 0)
	end := min(line, len(lines)-1)

	for i := start; i <= end; i++ {
		marker := "   "
		if i == line-1 {
			marker = " > "
		}
		fmt.Fprintf(&buf, "%s%4d | %s\n", marker, i+1, lines[i])
	}
	return buf.String()
}

// JSONFormatter formats errors as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// ErrorJSON represents an error in JSON format.
type ErrorJSON struct {
	Type     string         `json:"type"`
	Message  string         `json:"message"`
	Position *PositionJSON  `json:"position,omitempty"`
	Details  map[string]any `json:"details,omitempty"`
}

// PositionJSON represents a line of an event stream.
type PositionJSON struct {
	Filename string `json:"filename"`
	Line     int    `json:"line"`
}

// Format formats a single error as JSON.
func (jf *JSONFormatter) Format(err error) string {
	data, _ := json.Marshal(jf.toJSON(err))
	return string(data)
}

// FormatAll formats multiple errors as a JSON array.
func (jf *JSONFormatter) FormatAll(errs []error) string {
	data, _ := json.MarshalIndent(jf.FormatAllToSlice(errs), "", "  ")
	return string(data)
}

// FormatAllToSlice returns errors as a slice of ErrorJSON structs.
func (jf *JSONFormatter) FormatAllToSlice(errs []error) []ErrorJSON {
	result := make([]ErrorJSON, 0, len(errs))
	for _, err := range errs {
		result = append(result, jf.toJSON(err))
	}
	return result
}

func (jf *JSONFormatter) toJSON(err error) ErrorJSON {
	errJSON := ErrorJSON{
		Type:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Details: make(map[string]any),
	}

	if e, ok := err.(positioned); ok {
		errJSON.Position = &PositionJSON{Filename: e.GetFilename(), Line: e.GetLine()}
	}
	if e, ok := err.(assetError); ok {
		errJSON.Details["asset"] = e.GetAsset().String()
	}
	if e, ok := err.(timedError); ok {
		errJSON.Details["time"] = e.GetTime().Time().Format(time.RFC3339)
	}
	if e, ok := err.(interface {
		GetFound() decimal.Decimal
		GetMissing() decimal.Decimal
	}); ok {
		errJSON.Details["found"] = e.GetFound().String()
		errJSON.Details["missing"] = e.GetMissing().String()
	}

	if len(errJSON.Details) == 0 {
		errJSON.Details = nil
	}
	return errJSON
}
