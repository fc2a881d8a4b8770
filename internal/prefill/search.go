package prefill

import (
	"regexp"
	"sort"
	"strings"
)

var (
	separatorRe = regexp.MustCompile(`[_\.\-\s]+`)
	camelRe     = regexp.MustCompile(`([a-z])([A-Z])`)
)

// tokenize splits text into lowercase search tokens.
// Handles camelCase, snake_case, dot notation and spaces.
func tokenize(text string) []string {
	tokens := make(map[string]bool)

	for _, part := range separatorRe.Split(camelRe.ReplaceAllString(text, "$1 $2"), -1) {
		if part != "" {
			tokens[strings.ToLower(part)] = true
		}
	}

	result := make([]string, 0, len(tokens))
	for token := range tokens {
		result = append(result, token)
	}
	sort.Strings(result)
	return result
}

// SearchFields filters options to those matching every token of query.
//
// A query token matches when it is a prefix of any token of the option's
// id, label, form name or path. Results are ordered by the number of exact
// token hits, then by their input order. An empty query returns options
// unchanged.
func SearchFields(options []FieldOption, query string) []FieldOption {
	queryTokens := tokenize(query)
	if len(queryTokens) == 0 {
		return options
	}

	type hit struct {
		opt   FieldOption
		score int
		pos   int
	}

	var hits []hit
	for i, opt := range options {
		optTokens := tokenize(strings.Join([]string{opt.ID, opt.Label, opt.FormName, opt.Path}, " "))

		score := 0
		matched := true
		for _, qt := range queryTokens {
			found := false
			for _, ot := range optTokens {
				if ot == qt {
					score++
					found = true
					break
				}
				if strings.HasPrefix(ot, qt) {
					found = true
				}
			}
			if !found {
				matched = false
				break
			}
		}

		if matched {
			hits = append(hits, hit{opt: opt, score: score, pos: i})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})

	out := make([]FieldOption, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.opt)
	}
	return out
}
