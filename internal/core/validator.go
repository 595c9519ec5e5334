package core

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// Validate checks that the step is complete enough to be executed.
// All problems are reported together as an ErrorList.
func (s Step) Validate() error {
	var errs ErrorList

	switch {
	case s.Name == "":
		errs = append(errs, NewValidationError("name", nil, ErrStepNameRequired))
	case strings.ContainsAny(s.Name, `/\`) || s.Name == "." || s.Name == "..":
		errs = append(errs, NewValidationError("name", s.Name, ErrStepNameInvalidChars))
	}

	if !s.Executor.IsValid() {
		errs = append(errs, NewValidationError("executor", s.Executor, ErrUnknownExecutor))
	}

	if len(s.Outputs) == 0 {
		errs = append(errs, NewValidationError("outputs", nil, ErrStepOutputsRequired))
	}

	for _, env := range s.Env {
		if k, _, ok := strings.Cut(env, "="); !ok || k == "" {
			errs = append(errs, NewValidationError("env", env, ErrInvalidEnvValue))
		}
	}

	if strings.TrimSpace(s.Script) == "" {
		errs = append(errs, NewValidationError("script", nil, ErrStepScriptRequired))
	} else if _, err := ParseScript(s.Name, s.Script); err != nil {
		errs = append(errs, NewValidationError("script", err.Error(), ErrStepScriptSyntax))
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ParseScript parses a step script with the POSIX/Bash parser used by the
// direct executor.
func ParseScript(name, script string) (*syntax.File, error) {
	return syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(strings.NewReader(script), name)
}

