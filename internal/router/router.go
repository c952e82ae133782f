// Package router implements the keyword heuristic that decides whether a
// free-text message is addressed to one specific advisor or should broadcast
// to the whole panel.
package router

import (
	"regexp"
	"strings"
	"sync"

	"github.com/griffinb3/agvisor/internal/advisor"
)

// addressingPhrases gate routing: a keyword hit only targets an advisor when
// the message also reads like it is addressed to someone.
var addressingPhrases = []string{
	"ask the",
	"talk to",
	"speak to",
	"from the",
	"question for",
}

// "hey" needs a word boundary so it does not fire inside "they".
var heyPattern = regexp.MustCompile(`(?i)\bhey\b`)

var (
	patternsOnce sync.Once
	patterns     map[string]*regexp.Regexp
)

// keywordPattern returns a cached whole-word, case-insensitive matcher for kw.
func keywordPattern(kw string) *regexp.Regexp {
	patternsOnce.Do(func() {
		patterns = make(map[string]*regexp.Regexp)
		for _, a := range advisor.All() {
			for _, k := range a.Keywords {
				patterns[k] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`)
			}
		}
	})
	return patterns[kw]
}

// DetectTarget inspects message for an explicit advisor address. It walks the
// active advisors in canonical registry order and each advisor's keywords in
// declaration order; the first keyword hit wins. Routing requires both a
// whole-word keyword match and an addressing phrase somewhere in the text.
// The second return is false when the message should broadcast.
func DetectTarget(message string, activeIDs []string) (string, bool) {
	lower := strings.ToLower(message)

	addressed := heyPattern.MatchString(message)
	if !addressed {
		for _, phrase := range addressingPhrases {
			if strings.Contains(lower, phrase) {
				addressed = true
				break
			}
		}
	}
	if !addressed {
		return "", false
	}

	active := make(map[string]bool, len(activeIDs))
	for _, id := range activeIDs {
		active[id] = true
	}

	for _, a := range advisor.All() {
		if !active[a.ID] {
			continue
		}
		for _, kw := range a.Keywords {
			if p := keywordPattern(kw); p != nil && p.MatchString(message) {
				return a.ID, true
			}
		}
	}
	return "", false
}
