package translation

import (
	"context"

	"rpgm-translator/internal/cache"

	"github.com/rs/zerolog/log"
)

// CachedTranslator answers from a translation cache before calling next.
type CachedTranslator struct {
	next  Translator
	cache *cache.TranslationCache
}

// NewCachedTranslator wraps next with c.
func NewCachedTranslator(next Translator, c *cache.TranslationCache) *CachedTranslator {
	return &CachedTranslator{next: next, cache: c}
}

// Translate implements Translator.
func (ct *CachedTranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	if v, ok := ct.cache.Get(ctx, from, to, text); ok {
		log.Debug().Str("from", from).Str("to", to).Msg("Translation cache hit")
		return v, nil
	}

	translated, err := ct.next.Translate(ctx, text, from, to)
	if err != nil {
		return "", err
	}

	if err := ct.cache.Set(ctx, from, to, text, translated); err != nil {
		log.Warn().Err(err).Msg("Failed to cache translation")
	}
	return translated, nil
}
