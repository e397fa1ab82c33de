package translate

import "git.home.luguber.info/inful/twm/internal/resource"

// DefaultRules returns the built-in extension rules for lang: .js with the
// MainCall translator, plus .ts renamed to .js for ts projects.
func DefaultRules(lang resource.Lang) []resource.ExtensionRule {
	rules := []resource.ExtensionRule{
		{Extname: ".js", Translator: MainCall{}, TranslatorName: NameMainCall},
	}
	if lang == resource.LangTS {
		rules = append(rules, resource.ExtensionRule{Extname: ".ts", Replace: ".js", Translator: MainCall{}, TranslatorName: NameMainCall})
	}
	return rules
}
