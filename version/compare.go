// Package version checks for newer releases of the application.
package version

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

type semver struct {
	major, minor, patch int
	pre                 string
}

func parse(s string) (semver, error) {
	var v semver
	core, pre, _ := strings.Cut(strings.TrimPrefix(s, "v"), "-")
	v.pre = pre
	_, err := fmt.Sscanf(core, "%d.%d.%d", &v.major, &v.minor, &v.patch)
	if err != nil {
		return v, fmt.Errorf("version %q: %w", s, err)
	}
	return v, nil
}

// Compare performs a semantic comparison between two version strings.
// Returns 1 if a > b, -1 if a < b, and 0 if equal. A pre-release sorts
// before its release.
func Compare(a, b string) (int, error) {
	av, err := parse(a)
	if err != nil {
		return 0, err
	}

	bv, err := parse(b)
	if err != nil {
		return 0, err
	}

	for _, pair := range []lo.Tuple2[int, int]{
		{A: av.major, B: bv.major},
		{A: av.minor, B: bv.minor},
		{A: av.patch, B: bv.patch},
	} {
		if pair.A > pair.B {
			return 1, nil
		}

		if pair.A < pair.B {
			return -1, nil
		}
	}

	switch {
	case av.pre == bv.pre:
		return 0, nil
	case av.pre == "":
		return 1, nil
	case bv.pre == "":
		return -1, nil
	default:
		return strings.Compare(av.pre, bv.pre), nil
	}
}
