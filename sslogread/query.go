package sslogread

import (
	"strconv"
	"strings"
	"sync"

	"github.com/sslog-project/sslog"
)

// ArgPredicate is one parsed "name op value" argument criterion (§4.5).
// A predicate with Op == "" means "present": it passes if the record has
// any argument named Name, regardless of value.
type ArgPredicate struct {
	Name  string
	Op    string // one of "", "=", "==", "<", "<=", ">", ">="
	Value string // compared as a number when the argument is numeric, else as a string
}

// Rule is one AND-group of filter criteria (§4.5); a Query passes a
// record iff at least one of its Rules passes it.
type Rule struct {
	LevelMin, LevelMax           sslog.Level
	BufferSizeMin, BufferSizeMax int

	Category   string
	NoCategory string
	Thread     string
	NoThread   string
	Format     string
	NoFormat   string

	Arguments []ArgPredicate
}

// DefaultRule returns a Rule with the spec's default ranges and no
// pattern/argument constraints — it matches every record (§8 property 6).
func DefaultRule() Rule {
	return Rule{
		LevelMin:      sslog.LevelTrace,
		LevelMax:      sslog.LevelCritical,
		BufferSizeMin: 0,
		BufferSizeMax: 65535,
	}
}

// Query is an ordered list of Rules, OR-combined (§4.5). A nil or empty
// Query is equivalent to a single DefaultRule (§8 property 7).
type Query struct {
	Rules []Rule
}

// effectiveRules normalizes q to a non-empty rule list.
func (q Query) effectiveRules() []Rule {
	if len(q.Rules) == 0 {
		return []Rule{DefaultRule()}
	}
	return q.Rules
}

// patternCache memoizes exact (no-wildcard) pattern checks per interned
// string id for the duration of a session, the "interned-id equality
// short-circuits many cases" optimization from §4.5.
type patternCache struct {
	mu    sync.Mutex
	exact map[string]map[uint32]bool
}

func newPatternCache() *patternCache {
	return &patternCache{exact: make(map[string]map[uint32]bool)}
}

func (c *patternCache) lookup(pattern string, id uint32, compute func() bool) bool {
	if strings.ContainsAny(pattern, "*?") {
		return compute()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	byID, ok := c.exact[pattern]
	if !ok {
		byID = make(map[uint32]bool)
		c.exact[pattern] = byID
	}
	if v, ok := byID[id]; ok {
		return v
	}
	v := compute()
	byID[id] = v
	return v
}

// matchesRule evaluates r against one decoded record, in the cheap-first
// order §4.5 specifies: level, buffer size, then patterns (exact lookups
// cached), then argument predicates.
func matchesRule(r Rule, rec Record, s *Session) bool {
	if rec.Level < r.LevelMin || rec.Level > r.LevelMax {
		return false
	}
	if len(rec.Buffer) < r.BufferSizeMin || len(rec.Buffer) > r.BufferSizeMax {
		return false
	}

	if r.Category != "" && !matchPattern(s, r.Category, rec.CategoryIdx) {
		return false
	}
	if r.NoCategory != "" && matchPattern(s, r.NoCategory, rec.CategoryIdx) {
		return false
	}
	if r.Thread != "" && !matchPattern(s, r.Thread, rec.ThreadIdx) {
		return false
	}
	if r.NoThread != "" && matchPattern(s, r.NoThread, rec.ThreadIdx) {
		return false
	}
	if r.Format != "" && !matchPattern(s, r.Format, rec.FormatIdx) {
		return false
	}
	if r.NoFormat != "" && matchPattern(s, r.NoFormat, rec.FormatIdx) {
		return false
	}

	for _, p := range r.Arguments {
		if !matchesArgPredicate(p, rec, s) {
			return false
		}
	}
	return true
}

func matchPattern(s *Session, pattern string, id uint32) bool {
	return s.patterns.lookup(pattern, id, func() bool {
		return matchWildcard(pattern, string(s.GetIndexedString(id)))
	})
}

// matchesArgPredicate locates the first argument named p.Name (via the
// format string's parsed ArgNameAndUnit hints) and evaluates the
// comparison, per §4.5's grammar.
func matchesArgPredicate(p ArgPredicate, rec Record, s *Session) bool {
	names := s.GetIndexedStringArgNameAndUnit(rec.FormatIdx)
	idx := -1
	for i, n := range names {
		if n.Name == p.Name {
			idx = i
			break
		}
	}
	if idx < 0 || idx >= len(rec.Args) {
		return false
	}
	if p.Op == "" {
		return true
	}

	arg := rec.Args[idx]
	if f, ok := arg.Float(); ok {
		want, err := strconv.ParseFloat(p.Value, 64)
		if err != nil {
			return false
		}
		return compareFloat(f, p.Op, want)
	}

	got := arg.DisplayString(s.resolveString)
	return compareString(got, p.Op, p.Value)
}

func compareFloat(got float64, op string, want float64) bool {
	switch op {
	case "=", "==":
		return got == want
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	default:
		return false
	}
}

func compareString(got, op, want string) bool {
	switch op {
	case "=", "==":
		return got == want
	case "<":
		return got < want
	case "<=":
		return got <= want
	case ">":
		return got > want
	case ">=":
		return got >= want
	default:
		return false
	}
}

// ParseArgPredicate parses "name op value" per §4.5's grammar: op is one
// of "=", "==", "<", "<=", ">", ">="; a bare name with no operator means
// "present".
func ParseArgPredicate(token string) (ArgPredicate, error) {
	for _, op := range []string{"<=", ">=", "==", "=", "<", ">"} {
		if i := strings.Index(token, op); i >= 0 {
			name := strings.TrimSpace(token[:i])
			value := strings.TrimSpace(token[i+len(op):])
			if name == "" || value == "" {
				return ArgPredicate{}, &MalformedRuleError{Token: token, Reason: "empty name or value"}
			}
			return ArgPredicate{Name: name, Op: op, Value: value}, nil
		}
	}
	name := strings.TrimSpace(token)
	if name == "" {
		return ArgPredicate{}, &MalformedRuleError{Token: token, Reason: "empty predicate"}
	}
	return ArgPredicate{Name: name}, nil
}
