// Package format renders content documents the way the site's authoring tools
// write them: two-space indentation, non-ASCII text kept literal, no HTML
// escaping, and no trailing newline.
package format

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Indent is the indentation unit used for every document navkit writes.
const Indent = "  "

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM drops a leading UTF-8 byte order mark, which some editors add and
// encoding/json rejects.
func StripBOM(input []byte) []byte {
	return bytes.TrimPrefix(input, utf8BOM)
}

// PrettifyJSON re-indents input without touching key order or string contents.
// An empty indent compacts instead. Returns the output and whether it differs
// from the input.
func PrettifyJSON(input []byte, indent string) ([]byte, bool, error) {
	src := StripBOM(input)
	if !json.Valid(src) {
		return nil, false, fmt.Errorf("invalid JSON")
	}

	var buf bytes.Buffer
	if indent == "" {
		if err := json.Compact(&buf, src); err != nil {
			return nil, false, err
		}
	} else {
		if err := json.Indent(&buf, src, "", indent); err != nil {
			return nil, false, err
		}
	}

	output := bytes.TrimRight(buf.Bytes(), "\n")
	return output, !bytes.Equal(input, output), nil
}

// MarshalIndent encodes v with the document conventions above.
func MarshalIndent(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", Indent)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
