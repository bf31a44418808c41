// Package diag turns positioned evaluation errors into messages for people.
package diag

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"go.uber.org/multierr"
)

// MaxSuggestionDistance bounds how different a suggested name may be.
const MaxSuggestionDistance = 2

// Suggest returns the candidate closest to name by edit distance, or "" when
// none is within MaxSuggestionDistance. Ties go to the earlier candidate.
func Suggest(name string, candidates []string) string {
	best, bestDist := "", MaxSuggestionDistance+1
	for _, c := range candidates {
		if c == name {
			continue
		}
		if d := levenshtein.ComputeDistance(name, c); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// Positioned is implemented by errors that know their source offset.
type Positioned interface {
	error
	Pos() int
}

// Format rewrites each positioned error in err (which may combine several
// with multierr) into a message followed by the offending source line and a
// caret under the position.
func Format(source string, err error) error {
	if err == nil {
		return nil
	}
	var errs []error
	for _, e := range multierr.Errors(err) {
		var p Positioned
		if errors.As(e, &p) && p.Pos() >= 0 && p.Pos() <= len(source) {
			e = formatPositioned(source, p)
		}
		errs = append(errs, e)
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return errors.Join(errs...)
}

func formatPositioned(source string, err Positioned) error {
	line, lineNo, col := lineOf(source, err.Pos())
	var b strings.Builder
	fmt.Fprintf(&b, "%s (line %d, column %d):\n%s\n", err, lineNo, col+1, line)
	b.WriteString(strings.Repeat(" ", col))
	b.WriteByte('^')
	return &formatted{msg: b.String(), err: err}
}

// lineOf returns the line holding offset, its 1-based number and the
// 0-based column of offset within it.
func lineOf(source string, offset int) (string, int, int) {
	start := strings.LastIndexByte(source[:offset], '\n') + 1
	end := strings.IndexByte(source[offset:], '\n')
	if end < 0 {
		end = len(source)
	} else {
		end += offset
	}
	return source[start:end], strings.Count(source[:start], "\n") + 1, offset - start
}

// formatted keeps the original error reachable through errors.As.
type formatted struct {
	msg string
	err error
}

func (f *formatted) Error() string {
	return f.msg
}

func (f *formatted) Unwrap() error {
	return f.err
}
