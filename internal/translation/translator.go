package translation

import (
	"context"
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Translator translates one text between two languages.
type Translator interface {
	Translate(ctx context.Context, text, from, to string) (string, error)
}

// ParseLanguages validates source and target language tags.
func ParseLanguages(from, to string) (language.Tag, language.Tag, error) {
	src, err := language.Parse(from)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("parse source language %q: %w", from, err)
	}
	dst, err := language.Parse(to)
	if err != nil {
		return language.Und, language.Und, fmt.Errorf("parse target language %q: %w", to, err)
	}
	return src, dst, nil
}

// LanguageName returns the English name of tag, falling back to the tag.
func LanguageName(tag language.Tag) string {
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return tag.String()
}

type fileKey struct{}

// WithFile attaches the name of the file being translated to ctx.
func WithFile(ctx context.Context, file string) context.Context {
	return context.WithValue(ctx, fileKey{}, file)
}

// FileFrom returns the file attached by WithFile.
func FileFrom(ctx context.Context) string {
	file, _ := ctx.Value(fileKey{}).(string)
	return file
}
