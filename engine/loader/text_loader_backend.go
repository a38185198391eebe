package loader

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

type textSection int

const (
	sectionNone textSection = iota
	sectionPoints
	sectionIndices
)

// textLoaderBackend parses the sectioned text geometry format. Blank lines and '#' comments are
// ignored; everything else must sit under a [points] or [indices] header.
type textLoaderBackend struct{}

var _ loaderBackend = &textLoaderBackend{}

func newTextLoaderBackend() loaderBackend {
	return &textLoaderBackend{}
}

func (b *textLoaderBackend) LoadReader(r io.Reader) (*Geometry, error) {
	g := &Geometry{}
	section := sectionNone
	scanner := bufio.NewScanner(r)
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") {
			switch line {
			case "[points]":
				section = sectionPoints
			case "[indices]":
				section = sectionIndices
			default:
				return nil, errors.Wrapf(ErrGeometryFormat, "line %d: unknown section %s", lineNo, line)
			}
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case sectionPoints:
			for _, f := range fields {
				v, err := strconv.ParseFloat(f, 32)
				if err != nil {
					return nil, errors.Wrapf(ErrGeometryFormat, "line %d: point %q is not a float", lineNo, f)
				}
				g.Points = append(g.Points, float32(v))
			}
		case sectionIndices:
			for _, f := range fields {
				v, err := strconv.ParseUint(f, 10, 16)
				if err != nil {
					return nil, errors.Wrapf(ErrGeometryFormat, "line %d: index %q is not a uint16", lineNo, f)
				}
				g.Indices = append(g.Indices, uint16(v))
			}
		default:
			return nil, errors.Wrapf(ErrGeometryFormat, "line %d: data outside of a section", lineNo)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "scan geometry"), ErrGeometryRead)
	}
	if len(g.Points) == 0 {
		return nil, errors.Wrap(ErrGeometryFormat, "no points")
	}
	return g, nil
}
