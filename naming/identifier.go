// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package naming

import (
	"fmt"
	"regexp"
	"strconv"
)

// DefaultIdentifierPrefix is the leading character of sample names in the
// study's VCF headers.
const DefaultIdentifierPrefix = "W"

var foldRE = regexp.MustCompile(`f(\d+)`)

// Identifier is a (sample, fold) pair recovered from a VCF sample column.
type Identifier struct {
	Sample string
	Fold   Fold
}

// MalformedIdentifierError is returned when a VCF sample column does not
// contain both a sample name and a fold.
type MalformedIdentifierError struct {
	// Line is the offending header entry.
	Line string
	// Missing names the part that could not be found: "sample" or "fold".
	Missing string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: no %s found", e.Line, e.Missing)
}

// IdentifierParser extracts identifiers of the form <prefix><word>.<digits>
// followed somewhere by f<digits>.
type IdentifierParser struct {
	sampleRE *regexp.Regexp
}

// NewIdentifierParser creates a parser for sample names starting with
// prefix. An empty prefix selects DefaultIdentifierPrefix.
func NewIdentifierParser(prefix string) *IdentifierParser {
	if prefix == "" {
		prefix = DefaultIdentifierPrefix
	}
	return &IdentifierParser{
		sampleRE: regexp.MustCompile(regexp.QuoteMeta(prefix) + `\w+\.\d+`),
	}
}

// Parse extracts the identifier from one line of "bcftools query -l" output.
// The first match of each pattern wins.
func (p *IdentifierParser) Parse(line string) (Identifier, error) {
	sample := p.sampleRE.FindString(line)
	if sample == "" {
		return Identifier{}, &MalformedIdentifierError{Line: line, Missing: "sample"}
	}
	m := foldRE.FindStringSubmatch(line)
	if m == nil {
		return Identifier{}, &MalformedIdentifierError{Line: line, Missing: "fold"}
	}
	fold, err := strconv.Atoi(m[1])
	if err != nil {
		// Digits that overflow int.
		return Identifier{}, &MalformedIdentifierError{Line: line, Missing: "fold"}
	}
	return Identifier{Sample: sample, Fold: Fold(fold)}, nil
}

// ParseIdentifier parses line with the default prefix.
func ParseIdentifier(line string) (Identifier, error) {
	return NewIdentifierParser("").Parse(line)
}
