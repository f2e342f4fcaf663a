package extract

import (
	"regexp"
	"strings"

	j "github.com/goccy/go-json"
)

var fenceRe = regexp.MustCompile("```(?:json)?\\s*([\\s\\S]*?)```")

// maxCandidates bounds how many openers of each kind are tried, so a long
// reply full of unmatched brackets costs linear time.
const maxCandidates = 64

// jsonBlock finds the JSON document in a model reply: the first fenced code
// block when it holds valid JSON, otherwise the first balanced object or
// array that parses among the first maxCandidates openers. It returns "" when
// there is none.
func jsonBlock(s string) string {
	if strings.Contains(s, "```") {
		for _, m := range fenceRe.FindAllStringSubmatch(s, -1) {
			body := strings.TrimSpace(m[1])
			if body != "" && j.Valid([]byte(body)) {
				return body
			}
		}
	}
	for _, open := range []byte{'{', '['} {
		tried := 0
		for i := 0; i < len(s) && tried < maxCandidates; i++ {
			if s[i] != open {
				continue
			}
			tried++
			if end := balanced(s, i); end > 0 && j.Valid([]byte(s[i:end])) {
				return s[i:end]
			}
		}
	}
	return ""
}

// balanced returns the index just past the bracket closing s[start], or -1.
// Brackets inside string literals are skipped.
func balanced(s string, start int) int {
	open := s[start]
	closer := byte('}')
	if open == '[' {
		closer = ']'
	}
	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case open:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i + 1
			}
		}
	}
	return -1
}
