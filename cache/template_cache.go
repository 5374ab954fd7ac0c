package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/Konsultn-Engineering/dynsql/ast"
	"github.com/Konsultn-Engineering/dynsql/utils"
)

const DefaultTemplateCacheSize = 256

// templateKey hashes markup into its cache slot.
var templateKey = utils.FingerprintString

// templateEntry keeps the source next to the parsed template so that two
// markups sharing a fingerprint never return each other's template.
type templateEntry struct {
	markup string
	tpl    *ast.Template
}

// TemplateCache holds parsed markup keyed by the fingerprint of its source text.
// The underlying LRU is internally synchronized.
type TemplateCache struct {
	cache *lru.Cache[uint64, templateEntry]
}

func NewTemplateCache(size int) (*TemplateCache, error) {
	if size <= 0 {
		size = DefaultTemplateCacheSize
	}
	c, err := lru.New[uint64, templateEntry](size)
	if err != nil {
		return nil, err
	}
	return &TemplateCache{cache: c}, nil
}

func (t *TemplateCache) Get(markup string) (*ast.Template, bool) {
	e, ok := t.cache.Get(templateKey(markup))
	if !ok || e.markup != markup {
		return nil, false
	}
	return e.tpl, true
}

func (t *TemplateCache) Set(markup string, tpl *ast.Template) {
	t.cache.Add(templateKey(markup), templateEntry{markup: markup, tpl: tpl})
}

// GetOrParse returns the cached template for markup, parsing and storing it on
// a miss. Concurrent misses may parse twice; the last one stored wins.
func (t *TemplateCache) GetOrParse(markup string, parse func(string) (*ast.Template, error)) (*ast.Template, bool, error) {
	if tpl, ok := t.Get(markup); ok {
		return tpl, true, nil
	}

	tpl, err := parse(markup)
	if err != nil {
		return nil, false, err
	}
	t.Set(markup, tpl)
	return tpl, false, nil
}

func (t *TemplateCache) Len() int { return t.cache.Len() }

func (t *TemplateCache) Purge() { t.cache.Purge() }
