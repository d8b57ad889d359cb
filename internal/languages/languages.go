// Package languages holds the static catalog of language codes the
// translation providers are prompted with.
package languages

import (
	"sort"
	"strings"
)

// Language describes one supported target or source language
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Native string `json:"native_name"`
}

var catalog = map[string]Language{
	"en":    {Code: "en", Name: "English", Native: "English"},
	"ar":    {Code: "ar", Name: "Arabic", Native: "العربية"},
	"fr":    {Code: "fr", Name: "French", Native: "Français"},
	"es":    {Code: "es", Name: "Spanish", Native: "Español"},
	"de":    {Code: "de", Name: "German", Native: "Deutsch"},
	"it":    {Code: "it", Name: "Italian", Native: "Italiano"},
	"pt":    {Code: "pt", Name: "Portuguese", Native: "Português"},
	"ru":    {Code: "ru", Name: "Russian", Native: "Русский"},
	"zh":    {Code: "zh", Name: "Chinese", Native: "中文"},
	"zh-tw": {Code: "zh-tw", Name: "Traditional Chinese", Native: "中文(繁體)"},
	"ja":    {Code: "ja", Name: "Japanese", Native: "日本語"},
	"ko":    {Code: "ko", Name: "Korean", Native: "한국어"},
	"hi":    {Code: "hi", Name: "Hindi", Native: "हिन्दी"},
	"ur":    {Code: "ur", Name: "Urdu", Native: "اردو"},
	"tr":    {Code: "tr", Name: "Turkish", Native: "Türkçe"},
	"nl":    {Code: "nl", Name: "Dutch", Native: "Nederlands"},
	"sv":    {Code: "sv", Name: "Swedish", Native: "Svenska"},
	"da":    {Code: "da", Name: "Danish", Native: "Dansk"},
	"no":    {Code: "no", Name: "Norwegian", Native: "Norsk"},
	"fi":    {Code: "fi", Name: "Finnish", Native: "Suomi"},
}

// Name returns the English name for a language code.
// Unknown codes are returned unchanged.
func Name(code string) string {
	if lang, ok := catalog[normalize(code)]; ok {
		return lang.Name
	}
	return code
}

// Lookup returns the catalog entry for a code
func Lookup(code string) (Language, bool) {
	lang, ok := catalog[normalize(code)]
	return lang, ok
}

// IsSupported reports whether the code is part of the catalog
func IsSupported(code string) bool {
	_, ok := catalog[normalize(code)]
	return ok
}

// All returns every catalog entry sorted by code
func All() []Language {
	result := make([]Language, 0, len(catalog))
	for _, lang := range catalog {
		result = append(result, lang)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Code < result[j].Code
	})
	return result
}

func normalize(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
