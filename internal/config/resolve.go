package config

import (
	"git.home.luguber.info/inful/twm/internal/classify"
	"git.home.luguber.info/inful/twm/internal/compiler"
	"git.home.luguber.info/inful/twm/internal/foundation/errors"
	"git.home.luguber.info/inful/twm/internal/resource"
	"git.home.luguber.info/inful/twm/internal/retry"
	"git.home.luguber.info/inful/twm/internal/translate"
)

// Rules returns the built-in rules for the configured language followed by
// the user extensions, with translators resolved from reg.
func (c *Config) Rules(reg *translate.Registry) ([]resource.ExtensionRule, error) {
	lang := resource.Lang(c.Lang)
	rules := translate.DefaultRules(lang)
	for _, ext := range c.Extensions {
		name := ext.Translator
		if name == "" {
			name = translate.NamePassthrough
		}
		t, err := reg.Get(name)
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "resolve extension translator").
				WithContext("extname", ext.Extname).
				WithContext("translator", name).
				Build()
		}
		rules = append(rules, resource.ExtensionRule{
			Extname:        ext.Extname,
			Replace:        ext.Replace,
			Translator:     t,
			TranslatorName: name,
		})
	}
	return rules, nil
}

// NewContext builds the runtime context.
func (c *Config) NewContext(reg *translate.Registry) (*resource.Context, error) {
	rules, err := c.Rules(reg)
	if err != nil {
		return nil, err
	}
	rc, err := resource.NewContext(c.InputPath, c.OutputPath, c.BuildPath, resource.Lang(c.Lang), rules)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryConfig, "build context").Build()
	}
	return rc, nil
}

// ClassifyOptions returns the discovery options.
func (c *Config) ClassifyOptions() classify.Options {
	return classify.Options{
		Include:          c.Include,
		OnlyCopy:         c.OnlyCopy,
		RespectGitignore: c.RespectGitignore,
	}
}

// NewCompiler returns the external compiler for ts projects and a no-op for js.
func (c *Config) NewCompiler() compiler.Compiler {
	if resource.Lang(c.Lang) != resource.LangTS {
		return compiler.Noop{}
	}
	bc := compiler.NewBinaryCompiler(c.Compiler.Command, c.Compiler.Args)
	bc.Timeout = c.Compiler.Timeout
	return bc
}

// RetryPolicy returns the executor retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	if c.Retry.MaxRetries <= 0 {
		return retry.None()
	}
	mode, _ := retry.ParseMode(c.Retry.Backoff)
	return retry.NewPolicy(mode, c.Retry.InitialDelay, c.Retry.MaxDelay, c.Retry.MaxRetries)
}
