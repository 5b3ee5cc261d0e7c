// Package sslogread is the random-access reader/query library for a
// finished sslog log directory (§4.4): it validates and loads the
// catalog, decodes every intact record from the chunk files into memory,
// and evaluates rule-based queries over them.
package sslogread

import (
	"strconv"

	"github.com/pkg/errors"
)

// CorruptCatalogError is returned by Open when the catalog header or
// string table cannot be parsed, naming the byte offset the parser was
// at when it gave up (§7's "init returns an error with the offending
// offset").
type CorruptCatalogError struct {
	Path   string
	Offset int
	Err    error
}

func (e *CorruptCatalogError) Error() string {
	return errors.Wrapf(e.Err, "sslogread: corrupt catalog %q at offset %d", e.Path, e.Offset).Error()
}

func (e *CorruptCatalogError) Unwrap() error { return e.Err }

// MalformedRuleError is returned by ParseArgPredicate when a rule's
// textual form cannot be parsed, naming the offending token (§7).
type MalformedRuleError struct {
	Token  string
	Reason string
}

func (e *MalformedRuleError) Error() string {
	return "sslogread: malformed rule token " + strconv.Quote(e.Token) + ": " + e.Reason
}
