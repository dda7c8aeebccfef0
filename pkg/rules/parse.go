package rules

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

var ruleLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Birth", Pattern: `[Bb]`},
	{Name: "Survive", Pattern: `[Ss]`},
	{Name: "Digit", Pattern: `[0-9]`},
	{Name: "Slash", Pattern: `/`},
	{Name: "whitespace", Pattern: `[ \t]+`},
})

type ruleExpr struct {
	Birth   []string `parser:"Birth @Digit*"`
	Survive []string `parser:"Slash Survive @Digit*"`
}

type digitsExpr struct {
	Digits []string `parser:"@Digit*"`
}

var (
	parseRuleExpr   = participle.MustBuild[ruleExpr](participle.Lexer(ruleLexer))
	parseDigitsExpr = participle.MustBuild[digitsExpr](participle.Lexer(ruleLexer))
)

// Named lists well-known Life-like rules by name.
var Named = map[string]string{
	"life":       "B3/S23",
	"highlife":   "B36/S23",
	"seeds":      "B2/S",
	"replicator": "B1/S12",
	"maze":       "B3/S12",
	"b2s34":      "B2/S34",
}

// Parse reads a rule in B<digits>/S<digits> form (or a name from Named) as a
// degree-d rule. Digits may repeat and appear in any order.
func Parse(s string, d int) (Rule, error) {
	if alias, ok := Named[strings.ToLower(strings.TrimSpace(s))]; ok {
		s = alias
	}
	expr, err := parseRuleExpr.ParseString("", s)
	if err != nil {
		return Rule{}, errors.Wrapf(ErrSyntax, "%q: %v", s, err)
	}
	birth, err := atoiAll(expr.Birth)
	if err != nil {
		return Rule{}, err
	}
	survive, err := atoiAll(expr.Survive)
	if err != nil {
		return Rule{}, err
	}
	return FromCounts(birth, survive, d)
}

// ParseDigits reads a digit string such as "023" into neighbor counts, in
// the order written.
func ParseDigits(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	expr, err := parseDigitsExpr.ParseString("", s)
	if err != nil {
		return nil, errors.Wrapf(ErrSyntax, "digits %q: %v", s, err)
	}
	return atoiAll(expr.Digits)
}

func atoiAll(digits []string) ([]int, error) {
	out := make([]int, 0, len(digits))
	for _, s := range digits {
		k, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(ErrSyntax, "digit %q", s)
		}
		out = append(out, k)
	}
	return out, nil
}

// Resolve accepts anything a user may type for a rule: a rule index, a
// B/S string or a name from Named.
func Resolve(s string, d int) (Rule, error) {
	if i, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64); err == nil {
		return Decode(Index(i), d)
	}
	return Parse(s, d)
}
