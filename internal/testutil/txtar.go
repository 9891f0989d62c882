// Package testutil provides the fixture-loading and heap-construction
// helpers every other package's tests share: txtar-bundled scenario
// descriptions (spec.md §8's six end-to-end scenarios) and a small
// heap-builder API standing in for the external parser our tests can't
// depend on (§1 places parsing out of core scope).
package testutil

import (
	"fmt"

	"golang.org/x/tools/txtar"
)

// Fixture is one named scenario loaded from a txtar archive: a
// human-readable description plus the expected outcome, keyed by file
// name within the archive (e.g. "description.txt", "expect.txt").
type Fixture struct {
	Name  string
	Files map[string]string
}

// ParseFixtures splits a txtar archive into named fixtures, one per
// top-level comment-delimited section. Each archive is expected to
// carry a "name" file identifying the scenario, grouping the
// remaining files under it until the next "name" file.
func ParseFixtures(data []byte) ([]Fixture, error) {
	ar := txtar.Parse(data)
	var out []Fixture
	var cur *Fixture
	for _, f := range ar.Files {
		if f.Name == "name" {
			if cur != nil {
				out = append(out, *cur)
			}
			cur = &Fixture{Name: string(trimNL(f.Data)), Files: map[string]string{}}
			continue
		}
		if cur == nil {
			return nil, fmt.Errorf("txtar fixture file %q appears before any \"name\" section", f.Name)
		}
		cur.Files[f.Name] = string(f.Data)
	}
	if cur != nil {
		out = append(out, *cur)
	}
	return out, nil
}

func trimNL(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}
