package i18n

import (
	"context"
	"fmt"
)

// Fetcher loads the remote table for a language.
type Fetcher interface {
	Fetch(ctx context.Context, lang string) (Table, error)
}

type DictionaryAPI interface {
	Translations(ctx context.Context, language string) (map[string]string, error)
}

// DictionaryFetcher asks the server for its ready-made dictionary.
type DictionaryFetcher struct {
	API DictionaryAPI
}

func (f DictionaryFetcher) Fetch(ctx context.Context, lang string) (Table, error) {
	t, err := f.API.Translations(ctx, lang)
	if err != nil {
		return nil, fmt.Errorf("fetch translations %s: %w", lang, err)
	}
	return t, nil
}

type BatchAPI interface {
	BatchTranslate(ctx context.Context, language string, texts map[string]string) (map[string]string, error)
}

// BatchFetcher sends the source table to the server and gets it back
// translated.
type BatchFetcher struct {
	API    BatchAPI
	Source Table
}

func (f BatchFetcher) Fetch(ctx context.Context, lang string) (Table, error) {
	t, err := f.API.BatchTranslate(ctx, lang, f.Source)
	if err != nil {
		return nil, fmt.Errorf("batch translate %s: %w", lang, err)
	}
	return t, nil
}
