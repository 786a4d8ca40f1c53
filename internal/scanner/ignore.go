package scanner

import (
	"path"
	"strings"
)

// Pattern is one gitignore-style rule.
type Pattern struct {
	raw      string
	negate   bool
	dirOnly  bool
	anchored bool     // matched against the whole relative path
	segments []string // split on "/", "**" spans any number of segments
	base     string   // directory of the ignore file, "" for the root
}

// ParsePattern parses a line of an ignore file.
func ParsePattern(line string) Pattern {
	p := Pattern{raw: line}
	if strings.HasPrefix(line, "!") {
		p.negate = true
		line = line[1:]
	}
	if strings.HasSuffix(line, "/") {
		p.dirOnly = true
		line = strings.TrimSuffix(line, "/")
	}
	if strings.HasPrefix(line, "/") {
		p.anchored = true
		line = line[1:]
	}
	if strings.Contains(line, "/") {
		p.anchored = true
	}
	p.segments = strings.Split(line, "/")
	return p
}

func (p Pattern) String() string { return p.raw }

// Negated reports whether the rule re-includes what it matches.
func (p Pattern) Negated() bool { return p.negate }

// Match reports whether the slash-separated path, relative to the scan root,
// is matched by the rule.
func (p Pattern) Match(rel string, isDir bool) bool {
	if p.dirOnly && !isDir {
		return false
	}
	if p.base != "" {
		if !strings.HasPrefix(rel, p.base+"/") {
			return false
		}
		rel = strings.TrimPrefix(rel, p.base+"/")
	}
	parts := strings.Split(rel, "/")
	if p.anchored {
		return matchSegments(p.segments, parts)
	}
	return matchSegments(p.segments, parts[len(parts)-1:])
}

func matchSegments(pattern, parts []string) bool {
	if len(pattern) == 0 {
		return len(parts) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(parts); i++ {
			if matchSegments(pattern[1:], parts[i:]) {
				return true
			}
		}
		return false
	}
	if len(parts) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], parts[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], parts[1:])
}

// ruleSet applies rules in order, later rules overriding earlier ones.
type ruleSet []Pattern

func (rs ruleSet) ignored(rel string, isDir bool) bool {
	ignored := false
	for _, p := range rs {
		if p.Match(rel, isDir) {
			ignored = !p.negate
		}
	}
	return ignored
}
