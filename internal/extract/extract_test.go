package extract

import "testing"

func TestJSONFromProse(t *testing.T) {
	got := JSON("Sure! Here it is:\n{\"a\": [1, 2], \"b\": \"}\"}\nHope that helps.")
	if got != `{"a": [1, 2], "b": "}"}` {
		t.Fatalf("unexpected span: %q", got)
	}
}

func TestJSONPrefersFencedBlock(t *testing.T) {
	text := "Broken was {x}.\n```json\n{\"ok\": true}\n```"
	if got := JSON(text); got != `{"ok": true}` {
		t.Fatalf("unexpected span: %q", got)
	}
}

func TestJSONSkipsMismatchedSpan(t *testing.T) {
	if got := JSON(`{"a": ] then [1]`); got != "[1]" {
		t.Fatalf("unexpected span: %q", got)
	}
}

func TestJSONNothingFound(t *testing.T) {
	if got := JSON("no json here"); got != "" {
		t.Fatalf("expected empty span, got %q", got)
	}
}

func TestXMLWithDeclaration(t *testing.T) {
	text := "Fixed XML:\n<?xml version=\"1.0\"?>\n<root><a>1</a></root>\nDone."
	want := "<?xml version=\"1.0\"?>\n<root><a>1</a></root>"
	if got := XML(text); got != want {
		t.Fatalf("unexpected span: %q", got)
	}
}

func TestXMLWithoutDeclaration(t *testing.T) {
	if got := XML("output: <note id=\"1\"><to>x</to></note> trailing"); got != `<note id="1"><to>x</to></note>` {
		t.Fatalf("unexpected span: %q", got)
	}
}

func TestXMLNothingFound(t *testing.T) {
	if got := XML("a < b"); got != "" {
		t.Fatalf("expected empty span, got %q", got)
	}
}
