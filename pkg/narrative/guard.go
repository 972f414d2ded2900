// Package narrative implements the Narrative Guard: a declarative,
// state-scoped text validator. It never repairs text beyond its own
// canonical rewrite replacements; any rule that cannot be compiled or is
// missing a required field causes construction to fail closed rather than
// silently skip that rule.
package narrative

import (
	"regexp"
	"strings"

	pipeerr "github.com/hikmetpinarbas/hpfa-go/pkg/errors"
	"github.com/hikmetpinarbas/hpfa-go/pkg/epistemic"
)

// Decision is the outcome of running text through the guard.
type Decision string

const (
	DecisionPass    Decision = "PASS"
	DecisionDeny    Decision = "DENY"
	DecisionRewrite Decision = "REWRITE"
)

// RewriteSpec declares one state-scoped rewrite rule.
type RewriteSpec struct {
	Pattern     string
	Replacement string
}

var quotedSpanRe = regexp.MustCompile(`"[^"]*"`)

// Guard holds the compiled deny-list, the two state-scoped rewrite rules,
// and the UNVALIDATED gate regex. Construct with NewGuard; the zero value
// is not usable.
type Guard struct {
	denyTerms       []*regexp.Regexp
	rewriteRules    map[epistemic.PossessionState]compiledRewrite
	unvalidatedGate *regexp.Regexp
}

type compiledRewrite struct {
	pattern     *regexp.Regexp
	replacement string
}

// NewGuard compiles every rule up front. Any missing field or regex
// compilation failure returns an error; callers must treat a construction
// failure as fail-closed DENY for every subsequent evaluation, since no
// usable Guard exists.
func NewGuard(denyTerms []string, rewrites map[epistemic.PossessionState]RewriteSpec, unvalidatedGatePattern string) (*Guard, error) {
	g := &Guard{rewriteRules: map[epistemic.PossessionState]compiledRewrite{}}

	for _, term := range denyTerms {
		t := strings.TrimSpace(term)
		if t == "" {
			return nil, pipeerr.New(pipeerr.RuntimeParse, "narrative guard: empty deny term")
		}
		re, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(t) + `\b`)
		if err != nil {
			return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "narrative guard: deny term compile failed")
		}
		g.denyTerms = append(g.denyTerms, re)
	}

	for state, spec := range rewrites {
		if spec.Pattern == "" || spec.Replacement == "" {
			return nil, pipeerr.New(pipeerr.RuntimeParse, "narrative guard: rewrite rule missing field").With("state", string(state))
		}
		re, err := regexp.Compile(spec.Pattern)
		if err != nil {
			return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "narrative guard: rewrite pattern compile failed").With("state", string(state))
		}
		g.rewriteRules[state] = compiledRewrite{pattern: re, replacement: spec.Replacement}
	}

	if unvalidatedGatePattern == "" {
		return nil, pipeerr.New(pipeerr.RuntimeParse, "narrative guard: unvalidated gate pattern required")
	}
	re, err := regexp.Compile(unvalidatedGatePattern)
	if err != nil {
		return nil, pipeerr.Wrap(pipeerr.RuntimeParse, err, "narrative guard: unvalidated gate compile failed")
	}
	g.unvalidatedGate = re

	return g, nil
}

// Evaluate runs text through the guard for the given possession state and
// returns the decision plus, for REWRITE, the replacement text.
func (g *Guard) Evaluate(text string, state epistemic.PossessionState) (Decision, string) {
	clean := preprocess(text)

	if state == epistemic.StateUnvalidated {
		if g.unvalidatedGate.MatchString(clean) {
			return DecisionPass, ""
		}
		return DecisionDeny, ""
	}

	for _, re := range g.denyTerms {
		if re.MatchString(clean) {
			return DecisionDeny, ""
		}
	}

	if rule, ok := g.rewriteRules[state]; ok && rule.pattern.MatchString(clean) {
		return DecisionRewrite, rule.replacement
	}

	return DecisionPass, ""
}

// preprocess drops lines beginning with '>' and neutralizes the content of
// double-quoted spans so that quoted speech is never scanned for
// uncertainty terms or rewrite triggers.
func preprocess(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), ">") {
			continue
		}
		kept = append(kept, line)
	}
	joined := strings.Join(kept, "\n")
	return quotedSpanRe.ReplaceAllString(joined, `""`)
}
