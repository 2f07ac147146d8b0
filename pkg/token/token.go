// Package token splits raw text into the terms a trained model understands.
package token

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

const (
	LangEnglish = "en"
	LangChinese = "zh"

	minLengthDefault = 2
)

var (
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// Languages lists the supported language selectors.
	Languages = []string{LangEnglish, LangChinese}
)

// Tokenizer turns raw text into an ordered sequence of terms.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Option configures a Splitter.
type Option func(*Splitter)

// WithMinLength drops word tokens shorter than n runes. Han characters are
// always kept.
func WithMinLength(n int) Option {
	return func(s *Splitter) {
		s.minLen = n
	}
}

// WithStopWords replaces the built-in stop word list.
func WithStopWords(words ...string) Option {
	return func(s *Splitter) {
		s.stop = toSet(words)
	}
}

// Splitter normalizes text (NFKC, case folded) and splits it on any rune that
// is neither a letter nor a digit. Han characters become one token each.
type Splitter struct {
	lang   string
	minLen int
	stop   map[string]struct{}
}

// New returns a Splitter for the given language.
func New(lang string, opts ...Option) (*Splitter, error) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	words, ok := stopWords[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q (supported: %s)", ErrUnsupportedLanguage, lang, strings.Join(Languages, ", "))
	}

	s := &Splitter{
		lang:   lang,
		minLen: minLengthDefault,
		stop:   toSet(words),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Language returns the language selector of the splitter.
func (s *Splitter) Language() string {
	return s.lang
}

// Tokenize implements Tokenizer.
func (s *Splitter) Tokenize(text string) []string {
	// Caser is stateful, one per call
	text = cases.Fold().String(norm.NFKC.String(text))

	var (
		out  []string
		word []rune
	)

	flush := func() {
		if len(word) == 0 {
			return
		}
		w := string(word)
		word = word[:0]
		if len([]rune(w)) < s.minLen {
			return
		}
		if _, ok := s.stop[w]; ok {
			return
		}
		out = append(out, w)
	}

	for _, r := range text {
		switch {
		case unicode.Is(unicode.Han, r):
			flush()
			if _, ok := s.stop[string(r)]; !ok {
				out = append(out, string(r))
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			word = append(word, r)
		default:
			flush()
		}
	}
	flush()

	return out
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
