package i18n

import "testing"

func TestTranslator_DefaultAndJapanese(t *testing.T) {
	// default is en
	if msg := T("dangling_link", map[string]string{"anchor": "widget"}); msg != "link references undeclared link target widget" {
		t.Fatalf("unexpected english message %q", msg)
	}

	SetLanguage("ja")
	if msg := T("dangling_link", map[string]string{"anchor": "widget"}); msg == "link references undeclared link target widget" {
		t.Fatalf("expected japanese message, got %q", msg)
	}

	// reset to en
	SetLanguage("en")
}

func TestTranslator_UnknownCodeFallsBackToCode(t *testing.T) {
	if msg := T("no_such_code", nil); msg != "no_such_code" {
		t.Fatalf("want code echoed back, got %q", msg)
	}
}

type fixed string

func (f fixed) Message(string, map[string]string) string { return string(f) }

func TestSetTranslator_Replaces(t *testing.T) {
	SetTranslator(fixed("x"))
	defer SetTranslator(nil)
	if msg := T("dangling_link", nil); msg != "x" {
		t.Fatalf("custom translator not used, got %q", msg)
	}
}
