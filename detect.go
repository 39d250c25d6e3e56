package examsplit

import (
	"regexp"
	"sort"
	"strconv"
)

var (
	bareNumberRe      = regexp.MustCompile(`^\d{1,2}$`)
	numberWithTextRe  = regexp.MustCompile(`^(\d{1,2})\s+[A-Z]`)
	paddedNumberRe    = regexp.MustCompile(`^0?\d{1,2}$`)
	numberWithDotRe   = regexp.MustCompile(`^\d{1,2}\.$`)
	numberWithParenRe = regexp.MustCompile(`^\d{1,2}\)$`)
)

// startRule is one question-start detection heuristic: a pure predicate
// over a single span, plus the question number it parsed. Rules carry a
// static confidence and run in priority order; a number claimed by an
// earlier rule is skipped by later ones.
type startRule struct {
	name       string
	confidence float64
	match      func(s TextSpan) (int, bool)
}

// startRules is the fixed strategy chain, highest priority first. New
// rules can be appended or reordered here without touching merge logic.
var startRules = []startRule{
	{
		// Standalone numbers at the left margin (most reliable).
		name:       "standalone_number",
		confidence: 0.90,
		match: func(s TextSpan) (int, bool) {
			if !s.AtLeftMargin() || !fontInRange(s, 6, 20) || !bareNumberRe.MatchString(s.Text) {
				return 0, false
			}
			return atoi(s.Text)
		},
	},
	{
		// Number followed by a capitalized word in the same span.
		name:       "number_with_text",
		confidence: 0.85,
		match: func(s TextSpan) (int, bool) {
			if !s.AtLeftMargin() || !fontInRange(s, 6, 20) {
				return 0, false
			}
			m := numberWithTextRe.FindStringSubmatch(s.Text)
			if m == nil {
				return 0, false
			}
			return atoi(m[1])
		},
	},
	{
		name:       "bold_number",
		confidence: 0.80,
		match: func(s TextSpan) (int, bool) {
			if !s.IsBold || !s.NearLeft() || !fontInRange(s, 8, 18) || !bareNumberRe.MatchString(s.Text) {
				return 0, false
			}
			return atoi(s.Text)
		},
	},
	{
		// Numbers with an optional leading zero, e.g. "07".
		name:       "two_digit_number",
		confidence: 0.85,
		match: func(s TextSpan) (int, bool) {
			if !s.AtLeftMargin() || !fontInRange(s, 6, 20) || !paddedNumberRe.MatchString(s.Text) {
				return 0, false
			}
			return atoi(s.Text)
		},
	},
	{
		name:       "number_with_dot",
		confidence: 0.75,
		match: func(s TextSpan) (int, bool) {
			if !s.AtLeftMargin() || !fontInRange(s, 6, 20) || !numberWithDotRe.MatchString(s.Text) {
				return 0, false
			}
			return atoi(s.Text[:len(s.Text)-1])
		},
	},
	{
		name:       "number_with_parenthesis",
		confidence: 0.70,
		match: func(s TextSpan) (int, bool) {
			if !s.AtLeftMargin() || !fontInRange(s, 6, 20) || !numberWithParenRe.MatchString(s.Text) {
				return 0, false
			}
			return atoi(s.Text[:len(s.Text)-1])
		},
	},
	{
		// Oversized numbers near the left margin.
		name:       "large_font_number",
		confidence: 0.80,
		match: func(s TextSpan) (int, bool) {
			if !s.NearLeft() || s.FontSize < 12 || !bareNumberRe.MatchString(s.Text) {
				return 0, false
			}
			return atoi(s.Text)
		},
	},
}

func fontInRange(s TextSpan, lo, hi float64) bool {
	return s.FontSize >= lo && s.FontSize <= hi
}

func atoi(text string) (int, bool) {
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}

// detectStarts runs every rule over the full span inventory and collects
// candidates. A rule may propose the same number for several spans (the
// merge step resolves those); numbers claimed by a higher-priority rule
// are not re-proposed by later rules.
func detectStarts(spans []TextSpan, maxQuestions int) []StartCandidate {
	var candidates []StartCandidate
	claimed := make(map[int]bool)

	for _, rule := range startRules {
		var found []StartCandidate
		for _, s := range spans {
			n, ok := rule.match(s)
			if !ok || n < 1 || n > maxQuestions || claimed[n] {
				continue
			}
			found = append(found, StartCandidate{
				Number:     n,
				Span:       s,
				Strategy:   rule.name,
				Confidence: rule.confidence,
			})
		}
		for _, c := range found {
			claimed[c.Number] = true
		}
		candidates = append(candidates, found...)
	}

	return candidates
}

// mergeStarts deduplicates candidates into one ordered start per question
// number. Candidates are sorted by (page, y, confidence descending) and
// the first occurrence of each number wins. The sort is stable, so a full
// tie falls back to insertion order, which is strategy-priority order.
// That tiebreak is deliberate, not incidental.
func mergeStarts(candidates []StartCandidate) []StartCandidate {
	sorted := make([]StartCandidate, len(candidates))
	copy(sorted, candidates)

	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Span.Page != b.Span.Page {
			return a.Span.Page < b.Span.Page
		}
		if a.Span.Y() != b.Span.Y() {
			return a.Span.Y() < b.Span.Y()
		}
		return a.Confidence > b.Confidence
	})

	seen := make(map[int]bool)
	unique := make([]StartCandidate, 0, len(sorted))
	for _, c := range sorted {
		if seen[c.Number] {
			continue
		}
		seen[c.Number] = true
		unique = append(unique, c)
	}

	return unique
}
