package i18n

import "strings"

// Translator retrieves localized messages for issue codes.
// data fills the {placeholders} of the message (for example "kind" or
// "anchor").
type Translator interface {
	Message(code string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

var catalogs = map[string]map[string]string{
	"en": {
		"unknown_node_kind":         "node kind {kind} is not supported",
		"unknown_constraint":        "constraint {constraint} is not supported on {kind}",
		"duplicate_anchor":          "link target {anchor} is declared more than once",
		"dangling_link":             "link references undeclared link target {anchor}",
		"respecialization_conflict": "definition {name} has already been specialized",
		"name_exhaustion":           "could not generate a unique definition name for {name}",
		"field_shadow":              "variant field {field} overrides the base field with a different shape",
		"missing_definition":        "include {name} has no definition",
		"invalid_choose":            "invalid choose: {reason}",
		"schema_syntax":             "schema syntax error: {reason}",
		"duplicate_key":             "duplicate key {key}",
	},
	"ja": {
		"unknown_node_kind":         "ノード種別 {kind} はサポートされていません",
		"unknown_constraint":        "{kind} では制約 {constraint} はサポートされていません",
		"duplicate_anchor":          "リンクターゲット {anchor} が重複しています",
		"dangling_link":             "未宣言のリンクターゲット {anchor} を参照しています",
		"respecialization_conflict": "定義 {name} は既に特殊化されています",
		"name_exhaustion":           "{name} の一意な定義名を生成できません",
		"field_shadow":              "バリアントのフィールド {field} が異なる形でベースを上書きしています",
		"missing_definition":        "インクルード {name} の定義がありません",
		"invalid_choose":            "不正な choose: {reason}",
		"schema_syntax":             "スキーマ構文エラー: {reason}",
		"duplicate_key":             "キー {key} が重複しています",
	},
}

func (t dictTranslator) Message(code string, data map[string]string) string {
	msg, ok := catalogs[t.lang][code]
	if !ok {
		return code
	}
	if len(data) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(data)*2)
	for k, v := range data {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given code using the current Translator.
func T(code string, data map[string]string) string { return currentTranslator.Message(code, data) }
