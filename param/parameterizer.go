package param

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	libinjection "github.com/corazawaf/libinjection-go"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/Konsultn-Engineering/dynsql/apperrors"
	"github.com/Konsultn-Engineering/dynsql/context"
)

var placeholderPattern = regexp.MustCompile(`[#$]\{(.*?)\}`)

// Resolver supplies binding values. *context.DynamicContext implements it.
type Resolver interface {
	Lookup(name string) (any, bool)
	LookupPath(path string) (any, bool)
}

// Parameterizer replaces #{} and ${} placeholders with SQL literals.
type Parameterizer struct {
	policy    Policy
	escape    bool
	injection InjectionMode
	logger    *zap.Logger
}

func New(opts ...Option) *Parameterizer {
	p := &Parameterizer{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Placeholder is one parsed placeholder occurrence.
type Placeholder struct {
	Text    string // full span, e.g. "#{user.name:VARCHAR}"
	Raw     bool   // ${} rather than #{}
	Payload string // text between the braces
	Key     string // lookup key
	Path    bool   // Key is a dotted path resolved from its root
}

// ParseKey extracts the lookup key from a placeholder payload. Attributes
// (",jdbcType=...") and a type annotation (":VARCHAR") are dropped. A dotted
// reference keeps only its last segment, except when rooted at a loop binding,
// in which case the whole path is kept. Distinct parameters sharing a field
// name therefore resolve to the same binding.
func ParseKey(payload string) (key string, path bool) {
	key = payload
	if i := strings.IndexByte(key, ','); i >= 0 {
		key = key[:i]
	}
	if i := strings.LastIndexByte(key, ':'); i >= 0 {
		key = key[:i]
	}
	key = strings.TrimSpace(key)

	dot := strings.IndexByte(key, '.')
	if dot < 0 {
		return key, false
	}
	if strings.HasPrefix(key[:dot], context.LoopPrefix) {
		return key, true
	}
	return key[strings.LastIndexByte(key, '.')+1:], false
}

// Extract lists every placeholder occurrence in sql, in order.
func Extract(sql string) []Placeholder {
	matches := placeholderPattern.FindAllStringSubmatchIndex(sql, -1)
	out := make([]Placeholder, 0, len(matches))
	for _, m := range matches {
		payload := sql[m[2]:m[3]]
		key, path := ParseKey(payload)
		out = append(out, Placeholder{
			Text:    sql[m[0]:m[1]],
			Raw:     sql[m[0]] == '$',
			Payload: payload,
			Key:     key,
			Path:    path,
		})
	}
	return out
}

// Substitute replaces every placeholder in sql with its formatted binding.
// Placeholders whose binding is missing or nil are left as they are.
func (p *Parameterizer) Substitute(sql string, r Resolver) (string, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(sql, -1)
	if len(matches) == 0 {
		return sql, nil
	}

	var b strings.Builder
	b.Grow(len(sql) + len(matches)*8)
	last := 0
	for _, m := range matches {
		b.WriteString(sql[last:m[0]])
		last = m[1]

		span := sql[m[0]:m[1]]
		key, v, ok := resolve(sql[m[2]:m[3]], r)
		if !ok || v == nil {
			b.WriteString(span)
			continue
		}

		lit, err := p.render(key, v, span[0] == '$')
		if err != nil {
			return "", err
		}
		b.WriteString(lit)
	}
	b.WriteString(sql[last:])
	return b.String(), nil
}

// Bind prepares sql for driver-side binding: each #{} placeholder becomes
// mark(n), n counting from 1, and its value is appended to args (nil when the
// binding is missing). ${} placeholders are inlined as Substitute would.
func (p *Parameterizer) Bind(sql string, r Resolver, mark func(n int) string) (string, []any, error) {
	matches := placeholderPattern.FindAllStringSubmatchIndex(sql, -1)
	if len(matches) == 0 {
		return sql, nil, nil
	}

	var (
		b    strings.Builder
		args []any
		last int
	)
	for _, m := range matches {
		b.WriteString(sql[last:m[0]])
		last = m[1]

		span := sql[m[0]:m[1]]
		key, v, ok := resolve(sql[m[2]:m[3]], r)
		if span[0] == '#' {
			if !ok {
				v = nil
			}
			args = append(args, v)
			b.WriteString(mark(len(args)))
			continue
		}
		if !ok || v == nil {
			b.WriteString(span)
			continue
		}
		lit, err := p.render(key, v, true)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(lit)
	}
	b.WriteString(sql[last:])
	return b.String(), args, nil
}

func resolve(payload string, r Resolver) (string, any, bool) {
	key, path := ParseKey(payload)
	if key == "" {
		return "", nil, false
	}
	if path {
		v, ok := r.LookupPath(key)
		return key, v, ok
	}
	v, ok := r.Lookup(key)
	return key, v, ok
}

func (p *Parameterizer) render(key string, v any, dollar bool) (string, error) {
	if dollar && p.policy == QuoteRawDollar {
		s, err := FormatRaw(v)
		if err != nil {
			return "", fmt.Errorf("placeholder %q: %w", key, err)
		}
		if err := p.screen(key, s); err != nil {
			return "", err
		}
		return s, nil
	}

	s, quoted, err := Format(v)
	if err != nil {
		return "", fmt.Errorf("placeholder %q: %w", key, err)
	}
	if !quoted {
		return s, nil
	}
	if screened(v) {
		if err := p.screen(key, s[1:len(s)-1]); err != nil {
			return "", err
		}
	}
	if p.escape {
		s = escapeQuoted(s)
	}
	return s, nil
}

// screened reports whether a quoted value carries free text. Timestamps and
// generated identifiers are rendered by this package and skip screening.
func screened(v any) bool {
	switch v.(type) {
	case time.Time, uuid.UUID, ulid.ULID:
		return false
	}
	return true
}

// screen runs libinjection over a textual value according to the mode.
func (p *Parameterizer) screen(key, value string) error {
	if p.injection == InjectionOff || value == "" {
		return nil
	}
	sqli, fingerprint := libinjection.IsSQLi(value)
	if !sqli {
		return nil
	}
	if p.injection == InjectionReject {
		return fmt.Errorf("%w: placeholder %q (fingerprint %s)",
			apperrors.ErrInjectionSuspected, key, fingerprint)
	}
	p.logger.Warn("possible sql injection in parameter value",
		zap.String("placeholder", key),
		zap.String("fingerprint", string(fingerprint)))
	return nil
}
