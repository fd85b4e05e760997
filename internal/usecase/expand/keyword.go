package expand

import (
	"strings"
	"unicode"
)

// synonyms maps a query token to lexical variants.
var synonyms = map[string][]string{
	"price":        {"cost"},
	"prices":       {"costs"},
	"cost":         {"price"},
	"buy":          {"purchase"},
	"purchase":     {"buy"},
	"feature":      {"capability"},
	"features":     {"capabilities"},
	"setup":        {"installation"},
	"install":      {"setup"},
	"error":        {"issue"},
	"bug":          {"defect"},
	"fast":         {"performance"},
	"speed":        {"performance"},
	"cheap":        {"affordable"},
	"job":          {"career"},
	"jobs":         {"careers"},
	"docs":         {"documentation"},
	"guide":        {"tutorial"},
	"limit":        {"quota"},
	"limits":       {"quotas"},
	"customer":     {"client"},
	"cancel":       {"cancellation"},
	"refund":       {"money back"},
	"login":        {"sign in"},
	"onboarding":   {"getting started"},
	"architecture": {"system design"},
}

// domainRule adds fixed terms when any trigger token is present.
type domainRule struct {
	triggers []string
	terms    []string
}

var domainRules = []domainRule{
	{
		triggers: []string{"price", "prices", "pricing", "cost", "costs", "expensive", "cheap", "billing"},
		terms:    []string{"pricing plans", "subscription options"},
	},
	{
		triggers: []string{"compare", "comparison", "vs", "versus", "alternative", "alternatives", "competitor", "competitors"},
		terms:    []string{"competitive comparison", "differentiators"},
	},
	{
		triggers: []string{"security", "secure", "compliance", "gdpr", "soc", "encryption", "privacy"},
		terms:    []string{"security compliance", "data protection"},
	},
	{
		triggers: []string{"integrate", "integration", "integrations", "api", "webhook", "connect", "connector"},
		terms:    []string{"integrations", "api documentation"},
	},
	{
		triggers: []string{"support", "help", "issue", "problem", "troubleshoot", "broken"},
		terms:    []string{"customer support", "troubleshooting guide"},
	},
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// keywordTerms returns rule-based variants of text: domain rule terms first,
// then token synonyms, in query order. No network, deterministic.
func keywordTerms(text string) []string {
	tokens := tokenize(text)
	present := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		present[t] = true
	}

	var out []string
	for _, rule := range domainRules {
		for _, trig := range rule.triggers {
			if present[trig] {
				out = append(out, rule.terms...)
				break
			}
		}
	}
	for _, t := range tokens {
		out = append(out, synonyms[t]...)
	}
	return out
}
