package filter

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Matcher checks text against a fixed keyword vocabulary. Keywords are literal and matched
// case-insensitively anywhere in the text.
type Matcher struct {
	pattern *regexp.Regexp
}

func NewMatcher(keywords []string) (*Matcher, error) {
	if len(keywords) == 0 {
		return nil, errors.New("the keyword list is empty")
	}

	quoted := make([]string, 0, len(keywords))
	for _, keyword := range keywords {
		if strings.TrimSpace(keyword) == "" {
			return nil, fmt.Errorf("got an empty keyword in %q", keywords)
		}
		quoted = append(quoted, regexp.QuoteMeta(keyword))
	}

	pattern, err := regexp.Compile(`(?i)` + strings.Join(quoted, "|"))
	if err != nil {
		return nil, fmt.Errorf("failed to compile keyword pattern: %w", err)
	}

	return &Matcher{pattern: pattern}, nil
}

func (m *Matcher) Match(text string) bool {
	return m.pattern.MatchString(text)
}
