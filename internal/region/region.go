// Package region reads named #region/#endregion sections of source files so
// code blocks can be kept in sync with them.
package region

import (
	"errors"
	"fmt"
	"regexp"
)

// A marker line is an optional indent, a comment leader made of punctuation,
// the directive and an optional comment trailer.
const (
	punct     = `[!"#$%%&'()*+,\-./:;<=>?@[\\\]^_{|}~]`
	lineBegin = `(?m)^[[:blank:]]*`
	lineEnd   = `*[[:blank:]]*\r?\n`

	beginFormat = lineBegin + punct + `+[[:blank:]]*#region[[:blank:]]+%s[[:blank:]]*` + punct + lineEnd
	endFormat   = lineBegin + punct + `+[[:blank:]]*#endregion[[:blank:]]+%s[[:blank:]]*` + punct + lineEnd
)

var (
	reAnyBegin = regexp.MustCompile(fmt.Sprintf(beginFormat, `\w+`))
	reAnyEnd   = regexp.MustCompile(lineBegin + punct + `+[[:blank:]]*#endregion([[:blank:]]+\w+)?[[:blank:]]*` + punct + lineEnd)
)

// ErrMissingEndregion is returned when a #region marker has no matching
// #endregion.
var ErrMissingEndregion = errors.New("missing #endregion")

// Region is the body of a named region: the bytes between the end of its
// #region line and the start of its #endregion line.
type Region struct {
	Name  string
	Start int
	End   int
}

// Find locates the named region in source. A region closed by an unnamed
// #endregion is accepted when no named one follows.
func Find(source []byte, name string) (Region, bool, error) {
	quoted := regexp.QuoteMeta(name)

	reBegin, err := regexp.Compile(fmt.Sprintf(beginFormat, quoted))
	if err != nil {
		return Region{}, false, err
	}

	begin := reBegin.FindIndex(source)
	if begin == nil {
		return Region{}, false, nil
	}

	reEnd, err := regexp.Compile(fmt.Sprintf(endFormat, quoted))
	if err != nil {
		return Region{}, false, err
	}

	rest := source[begin[1]:]

	end := reEnd.FindIndex(rest)
	if end == nil {
		end = reAnyEnd.FindIndex(rest)
	}

	if end == nil {
		return Region{}, false, fmt.Errorf("%w for region %q", ErrMissingEndregion, name)
	}

	return Region{Name: name, Start: begin[1], End: begin[1] + end[0]}, true, nil
}

// Read returns the body of the named region. The bool return reports whether
// the region exists.
func Read(source []byte, name string) ([]byte, bool, error) {
	r, found, err := Find(source, name)
	if err != nil || !found {
		return nil, found, err
	}

	return source[r.Start:r.End], true, nil
}

// Outline returns source with the body of every region removed, keeping the
// #region and #endregion lines. The bool return reports whether any region
// was found.
func Outline(source []byte) ([]byte, bool, error) {
	var (
		res   []byte
		found bool
		idx   int
	)

	for idx < len(source) {
		begin := reAnyBegin.FindIndex(source[idx:])
		if begin == nil {
			break
		}

		bodyStart := idx + begin[1]

		end := reAnyEnd.FindIndex(source[bodyStart:])
		if end == nil {
			return nil, false, ErrMissingEndregion
		}

		found = true

		res = append(res, source[idx:bodyStart]...)
		res = append(res, source[bodyStart+end[0]:bodyStart+end[1]]...)

		idx = bodyStart + end[1]
	}

	res = append(res, source[idx:]...)

	return res, found, nil
}
