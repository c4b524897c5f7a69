package sanitization

import "regexp"

type (
	// Sanitizer rewrites a user-supplied name so it satisfies a provider's
	// naming rules, applying each rule in order and truncating to maxLength.
	Sanitizer struct {
		rules     []Rule
		maxLength int
	}

	Rule struct {
		Pattern     *regexp.Regexp
		Replacement string
	}
)

func NewSanitizer(rules []Rule, maxLength int) *Sanitizer {
	return &Sanitizer{rules: rules, maxLength: maxLength}
}

func (s *Sanitizer) Apply(input string) string {
	output := input
	for _, rule := range s.rules {
		output = rule.Pattern.ReplaceAllString(output, rule.Replacement)
	}
	if s.maxLength > 0 && len(output) > s.maxLength {
		output = output[:s.maxLength]
	}
	return output
}
