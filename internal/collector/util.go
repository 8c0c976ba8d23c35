package collector

import (
	"strconv"

	"golang.org/x/exp/constraints"
)

type Numeric interface {
	constraints.Integer | constraints.Float
}

func percent[T Numeric](part, total T) float64 {
	if total == 0 {
		return 0.0
	}
	return (float64(part) / float64(total)) * 100.0
}

// makeUintParser returns a function that parses fields[i] as uint64.
// The first failure is stored in *errp as a *ParseError naming source;
// later calls return 0 without parsing.
func makeUintParser(fields []string, source string, errp *error) func(int) uint64 {
	return func(index int) uint64 {
		if *errp != nil {
			return 0
		}
		v, err := strconv.ParseUint(fields[index], 10, 64)
		if err != nil {
			*errp = &ParseError{Path: source, Contents: fields[index], Err: err}
			return 0
		}
		return v
	}
}
