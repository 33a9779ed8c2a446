// detail.go renders the values attached to log lines, contexts and failures.

package diag

import (
	"fmt"
	"strconv"
	"strings"
)

// Renderer is implemented by values that know how to describe themselves in
// diagnostic output. It takes precedence over error and fmt.Stringer.
type Renderer interface {
	RenderText() string
}

// Detail is one pre-rendered item of a diagnostic message: either a bare
// literal (Name is empty) or a named value rendered as "name = value".
type Detail struct {
	Name string
	Text string
}

// Lit returns a bare literal detail.
func Lit(text string) Detail {
	return Detail{Text: text}
}

// V returns a named detail holding the rendered value.
func V(name string, value any) Detail {
	return Detail{Name: name, Text: RenderValue(value)}
}

// String renders the detail as it appears in output.
func (d Detail) String() string {
	if d.Name == "" {
		return d.Text
	}
	return d.Name + " = " + d.Text
}

// RenderValue returns the natural text representation of value.
func RenderValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "(null)"
	case Renderer:
		return v.RenderText()
	case error:
		return v.Error()
	case fmt.Stringer:
		return v.String()
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int8:
		return strconv.FormatInt(int64(v), 10)
	case int16:
		return strconv.FormatInt(int64(v), 10)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint:
		return strconv.FormatUint(uint64(v), 10)
	case uint8:
		return strconv.FormatUint(uint64(v), 10)
	case uint16:
		return strconv.FormatUint(uint64(v), 10)
	case uint32:
		return strconv.FormatUint(uint64(v), 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case uintptr:
		return "0x" + strconv.FormatUint(uint64(v), 16)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// joinDetails renders details in order, separated by "; ".
func joinDetails(details []Detail) string {
	if len(details) == 0 {
		return ""
	}
	parts := make([]string, len(details))
	for i, d := range details {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

// joinMessage renders a leading message followed by its details.
// An empty message contributes nothing.
func joinMessage(message string, details []Detail) string {
	rest := joinDetails(details)
	switch {
	case message == "":
		return rest
	case rest == "":
		return message
	default:
		return message + "; " + rest
	}
}
