// Package location finds the line and column of a document path in JSON
// source, so errors can point back into the file.
package location

import (
	"strconv"

	"github.com/buger/jsonparser"

	"github.com/bpxgo/validator/pkg/issue"
)

// Location represents a position in the source JSON.
type Location struct {
	Line   int
	Column int

	// Exact is false when the path itself does not exist and the location
	// is that of its deepest existing ancestor
	Exact bool
}

// Find locates the value at segments in jsonData. Segments that index into
// an array are decimal positions. When the full path does not exist (a
// missing required field, say) the deepest existing ancestor is returned.
// Returns nil for empty or unparsable input.
func Find(jsonData []byte, segments []string) *Location {
	if len(jsonData) == 0 {
		return nil
	}

	keys := make([]string, 0, len(segments))
	for _, seg := range segments {
		_, typ, _, err := jsonparser.Get(jsonData, keys...)
		if err != nil {
			break
		}
		if typ == jsonparser.Array {
			if _, err := strconv.Atoi(seg); err != nil {
				break
			}
			seg = "[" + seg + "]"
		}
		if _, _, _, err := jsonparser.Get(jsonData, append(keys, seg)...); err != nil {
			break
		}
		keys = append(keys, seg)
	}

	value, typ, end, err := jsonparser.Get(jsonData, keys...)
	if err != nil {
		return nil
	}
	start := end - len(value)
	if typ == jsonparser.String {
		start -= 2
	}
	line, col := offsetToLineCol(jsonData, start)
	return &Location{Line: line, Column: col, Exact: len(keys) == len(segments)}
}

// offsetToLineCol converts a byte offset to line and column numbers.
// Line and column are 1-indexed (human-readable).
func offsetToLineCol(input []byte, offset int) (line, col int) {
	line = 1
	col = 1
	for i := 0; i < offset && i < len(input); i++ {
		if input[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return
}

// Enrich sets the source position on err when it is an *issue.Error whose
// path can be found in jsonData. It returns err unchanged otherwise.
func Enrich(jsonData []byte, err error) error {
	e, ok := issue.AsError(err)
	if !ok {
		return err
	}
	if loc := Find(jsonData, e.Path); loc != nil {
		e.SetLocation(loc.Line, loc.Column)
	}
	return err
}
