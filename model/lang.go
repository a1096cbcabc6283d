package model

import "github.com/abadojack/whatlanggo"

type Lang int

const (
	LangOther Lang = iota
	LangSpanish
)

// DetectorInterface classifies a question's language. The pipeline only
// cares about Spanish vs everything else; the second return value
// reports whether the classification is trustworthy.
type DetectorInterface interface {
	Detect(text string) (Lang, bool)
}

// WhatlangDetector is the production detector built on whatlanggo's
// trigram classifier.
type WhatlangDetector struct{}

func NewWhatlangDetector() WhatlangDetector {
	return WhatlangDetector{}
}

func (WhatlangDetector) Detect(text string) (Lang, bool) {
	info := whatlanggo.Detect(text)
	lang := LangOther
	if info.Lang == whatlanggo.Spa {
		lang = LangSpanish
	}
	return lang, info.IsReliable()
}
