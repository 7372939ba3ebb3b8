package helpers

import (
	"errors"
	"regexp"
	"strings"
)

var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// StripThinking removes <think>...</think> reasoning blocks emitted by
// reasoning models before the actual answer.
func StripThinking(s string) string {
	return strings.TrimSpace(thinkBlock.ReplaceAllString(s, ""))
}

// ExtractJSON returns the first balanced JSON object or array in s. Markdown
// fences and reasoning blocks around the payload are ignored, and braces
// inside string literals do not count towards balance.
func ExtractJSON(s string) (string, error) {
	s = StripThinking(strings.TrimPrefix(strings.TrimSpace(s), "\uFEFF"))
	if inner, ok := unfence(s); ok {
		s = strings.TrimSpace(inner)
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		if end, ok := balancedEnd(s, i); ok {
			return s[i : end+1], nil
		}
	}
	return "", errors.New("no balanced JSON object/array found")
}

// unfence returns the body of a leading ``` or ~~~ block.
func unfence(s string) (string, bool) {
	for _, fence := range []string{"```", "~~~"} {
		if !strings.HasPrefix(s, fence) {
			continue
		}
		rest := s[len(fence):]
		nl := strings.IndexByte(rest, '\n')
		if nl < 0 {
			return "", false
		}
		rest = rest[nl+1:]
		if end := strings.Index(rest, fence); end >= 0 {
			return rest[:end], true
		}
		return rest, true
	}
	return "", false
}

// balancedEnd returns the index of the bracket closing the one at start.
func balancedEnd(s string, start int) (int, bool) {
	var (
		stack    []byte
		inString bool
		escaped  bool
	)
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) == 0 {
				return 0, false
			}
			open := stack[len(stack)-1]
			if (open == '{' && c != '}') || (open == '[' && c != ']') {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}
