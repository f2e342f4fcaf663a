package i18n

import (
	"strings"
	"sync"
)

// Translator retrieves localized messages for Issue codes.
// data provides optional metadata to embed in the message (for example,
// "expected" or "min").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator. Templates use
// {name} placeholders filled from data; unknown placeholders are left as is.
type dictTranslator struct{ lang string }

var dict = map[string]map[string]string{
	"en": {
		"invalid_type":            "invalid type, expected {expected}",
		"required":                "required property missing",
		"duplicate_key":           "duplicate key",
		"too_small":               "value must be {op} {limit}",
		"too_big":                 "value must be {op} {limit}",
		"too_short":               "length must be at least {min}",
		"too_long":                "length must be at most {max}",
		"pattern":                 "value does not match pattern {pattern}",
		"not_multiple_of":         "value must be a multiple of {multiple_of}",
		"too_many_digits":         "no more than {max_digits} digits in total",
		"too_many_decimal_places": "no more than {decimal_places} decimal places",
		"not_finite":              "value must be finite",
		"invalid_literal":         "value must be one of {expected}",
		"invalid_union":           "value does not match any allowed type",
		"invalid_format":          "invalid format",
		"parse_error":             "parse error",
		"overflow":                "value out of range",
		"empty":                   "must not be empty",
		"unknown_shape":           "unrecognized type definition",
		"invalid_regexp":          "invalid regular expression",
		"negative":                "must be greater than or equal to 0",
	},
	"ja": {
		"invalid_type":            "型が不正です ({expected} が必要です)",
		"required":                "必須プロパティが不足しています",
		"duplicate_key":           "キーが重複しています",
		"too_small":               "値は {op} {limit} である必要があります",
		"too_big":                 "値は {op} {limit} である必要があります",
		"too_short":               "短すぎます (最小 {min})",
		"too_long":                "長すぎます (最大 {max})",
		"pattern":                 "パターン {pattern} に一致しません",
		"not_multiple_of":         "{multiple_of} の倍数である必要があります",
		"too_many_digits":         "桁数は最大 {max_digits} です",
		"too_many_decimal_places": "小数点以下は最大 {decimal_places} 桁です",
		"not_finite":              "有限の値である必要があります",
		"invalid_literal":         "{expected} のいずれかである必要があります",
		"invalid_union":           "許可されたいずれの型にも一致しません",
		"invalid_format":          "形式が不正です",
		"parse_error":             "解析エラー",
		"overflow":                "値が範囲外です",
		"empty":                   "空にできません",
		"unknown_shape":           "型定義を認識できません",
		"invalid_regexp":          "正規表現が不正です",
		"negative":                "0 以上である必要があります",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	tmpl, ok := dict[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		// drop unresolved trailing qualifiers such as ", expected {expected}"
		if i := strings.Index(tmpl, ", expected {"); i >= 0 {
			return tmpl[:i]
		}
		return tmpl
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

var (
	mu                           = sync.RWMutex{}
	currentTranslator Translator = dictTranslator{lang: "en"}
)

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	mu.Lock()
	currentTranslator = dictTranslator{lang: lang}
	mu.Unlock()
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	mu.Lock()
	defer mu.Unlock()
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string {
	mu.RLock()
	tr := currentTranslator
	mu.RUnlock()
	return tr.Message(code, data)
}
