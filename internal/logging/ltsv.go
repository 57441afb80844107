// Package logging builds the daemon's structured logger. Every line is
// emitted as LTSV (Labeled Tab-Separated Values): key=value pairs joined
// by tabs, with `\`, newline, tab, and `=` backslash-escaped in any field.
package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"sort"
)

// ltsvWriter adapts a zerolog JSON event stream into LTSV lines. zerolog
// always hands us one complete JSON object per Write call.
type ltsvWriter struct {
	out io.Writer
}

// newLTSVWriter wraps out, transcoding every JSON line written to it
// into an LTSV line before forwarding.
func newLTSVWriter(out io.Writer) *ltsvWriter {
	return &ltsvWriter{out: out}
}

func (w *ltsvWriter) Write(p []byte) (int, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(p, &fields); err != nil {
		// Not valid JSON (shouldn't happen with zerolog) — pass through raw.
		return w.out.Write(p)
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var buf bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte('\t')
		}
		buf.WriteString(escapeLTSV(k))
		buf.WriteByte('=')
		buf.WriteString(escapeLTSVValue(fields[k]))
	}
	buf.WriteByte('\n')

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return 0, err
	}
	return len(p), nil
}

// escapeLTSV escapes `\`, tab, newline, and `=` in a label/key.
func escapeLTSV(s string) string {
	return escapeLTSVValue(s)
}

func escapeLTSVValue(v interface{}) string {
	s := stringify(v)
	var buf bytes.Buffer
	buf.Grow(len(s))
	for _, r := range s {
		switch r {
		case '\\':
			buf.WriteString(`\\`)
		case '\n':
			buf.WriteString(`\n`)
		case '\t':
			buf.WriteString(`\t`)
		case '=':
			buf.WriteString(`\=`)
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func stringify(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
