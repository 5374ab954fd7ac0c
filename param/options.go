package param

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Policy selects how ${} placeholders are rendered.
type Policy int

const (
	// QuoteUniform renders ${} exactly like #{}.
	QuoteUniform Policy = iota
	// QuoteRawDollar inlines the raw string form of ${} values, for identifiers
	// and other fragments that must not be quoted.
	QuoteRawDollar
)

func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "uniform":
		return QuoteUniform, nil
	case "raw_dollar", "raw-dollar", "rawdollar":
		return QuoteRawDollar, nil
	}
	return 0, fmt.Errorf("unknown quoting policy %q", s)
}

// InjectionMode controls screening of textual values with libinjection.
type InjectionMode int

const (
	InjectionOff InjectionMode = iota
	InjectionWarn
	InjectionReject
)

func ParseInjectionMode(s string) (InjectionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "off", "none":
		return InjectionOff, nil
	case "warn":
		return InjectionWarn, nil
	case "reject":
		return InjectionReject, nil
	}
	return 0, fmt.Errorf("unknown injection check mode %q", s)
}

type Option func(*Parameterizer)

func WithPolicy(p Policy) Option {
	return func(z *Parameterizer) { z.policy = p }
}

// WithEscapeQuotes doubles single quotes inside quoted values.
func WithEscapeQuotes(on bool) Option {
	return func(z *Parameterizer) { z.escape = on }
}

func WithInjectionMode(m InjectionMode) Option {
	return func(z *Parameterizer) { z.injection = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(z *Parameterizer) {
		if l != nil {
			z.logger = l
		}
	}
}
