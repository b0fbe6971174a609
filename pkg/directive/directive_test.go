package directive

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/vango-dev/weave/internal/errors"
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/render"
)

func parse(t *testing.T, markup string) *dom.Node {
	t.Helper()
	doc := dom.NewDocument()
	host := doc.CreateElement("div")
	doc.Root().AppendChild(host)
	if err := doc.ParseInto(host, markup); err != nil {
		t.Fatalf("ParseInto: %v", err)
	}
	return host
}

func TestParseIf(t *testing.T) {
	host := parse(t, `<p if=" show ">hi</p>`)
	el := host.FirstChild

	d, err := ParseIf(el)
	if err != nil {
		t.Fatalf("ParseIf: %v", err)
	}
	if d.Kind != If || d.Expression != "show" {
		t.Errorf("descriptor = %v %q, want if show", d.Kind, d.Expression)
	}
	if host.FirstChild != d.Placeholder || d.Placeholder.Kind != dom.KindComment {
		t.Error("placeholder not in the element's position")
	}
	if d.Template != el || el.Parent != nil {
		t.Error("template should be the detached element")
	}
	if el.HasAttr("if") {
		t.Error("if attribute not stripped from the template")
	}
	if got := render.String(d.Template); got != "<p>hi</p>" {
		t.Errorf("template = %q", got)
	}
}

func TestParseIfAbsent(t *testing.T) {
	host := parse(t, `<p>plain</p>`)
	d, err := ParseIf(host.FirstChild)
	if d != nil || err != nil {
		t.Errorf("ParseIf = %v, %v; want nil, nil", d, err)
	}
}

func TestParseForEach(t *testing.T) {
	host := parse(t, `<ul><li for-each="item in data.items" key="item.id">{{ item.label }}</li></ul>`)
	ul := host.FirstChild

	d, err := ParseForEach(ul.FirstChild)
	if err != nil {
		t.Fatalf("ParseForEach: %v", err)
	}
	want := Descriptor{Kind: ForEach, Expression: "data.items", ItemName: "item", KeyExpression: "item.id"}
	got := Descriptor{Kind: d.Kind, Expression: d.Expression, ItemName: d.ItemName, KeyExpression: d.KeyExpression}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("descriptor mismatch (-want +got):\n%s", diff)
	}
	if !d.Keyed() {
		t.Error("Keyed() = false")
	}
	if ul.FirstChild != d.Placeholder || d.Placeholder.Text != "for-each" {
		t.Error("for-each placeholder missing")
	}
	if d.Template.HasAttr("key") || d.Template.HasAttr("for-each") {
		t.Error("directive attributes not stripped")
	}
}

func TestParseForEachSplitsOnFirstIn(t *testing.T) {
	host := parse(t, `<li for-each="x in lists in order"></li>`)
	d, err := ParseForEach(host.FirstChild)
	if err != nil {
		t.Fatalf("ParseForEach: %v", err)
	}
	if d.ItemName != "x" || d.Expression != "lists in order" {
		t.Errorf("split = %q / %q", d.ItemName, d.Expression)
	}
	if d.Keyed() {
		t.Error("Keyed() = true without a key attribute")
	}
}

func TestStructuralErrors(t *testing.T) {
	tests := []struct {
		markup string
		code   string
	}{
		{`<li for-each="items"></li>`, "W101"},
		{`<li for-each=" in items"></li>`, "W102"},
		{`<li for-each="item in  "></li>`, "W103"},
		{`<li if="a" for-each="x in xs"></li>`, "W104"},
		{`<li if="  "></li>`, "W105"},
	}
	for _, tt := range tests {
		host := parse(t, tt.markup)
		_, err := Scan(host)
		if !errors.HasCode(err, tt.code) {
			t.Errorf("Scan(%s) error = %v, want %s", tt.markup, err, tt.code)
		}
		if host.FirstChild.Kind != dom.KindElement {
			t.Errorf("Scan(%s) modified the tree on error", tt.markup)
		}
	}
}

func TestScanRejectsDirectiveOnRoot(t *testing.T) {
	host := parse(t, `<p>x</p>`)
	host.SetAttr("if", "x")
	if _, err := Scan(host); !errors.HasCode(err, "W106") {
		t.Errorf("Scan error = %v, want W106", err)
	}
}

func TestScanReturnsOutermostOnly(t *testing.T) {
	host := parse(t, `
		<section if="a">
			<p if="b">nested</p>
		</section>
		<ul><li for-each="x in xs"><span if="x.on">on</span></li></ul>
		<footer>plain</footer>`)

	found, err := Scan(host)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	var kinds []string
	for _, d := range found {
		kinds = append(kinds, d.Kind.String()+":"+d.Expression)
	}
	if diff := cmp.Diff([]string{"if:a", "for-each:xs"}, kinds); diff != "" {
		t.Errorf("Scan mismatch (-want +got):\n%s", diff)
	}

	// Nested directives stay in the templates for later passes.
	nested, err := Scan(found[0].Template)
	if err != nil {
		t.Fatalf("Scan(template): %v", err)
	}
	if len(nested) != 1 || nested[0].Expression != "b" {
		t.Errorf("nested Scan = %v", nested)
	}
}

func TestDetect(t *testing.T) {
	doc := dom.NewDocument()
	el := doc.CreateElement("div")
	if k, _ := Detect(el); k != None {
		t.Errorf("Detect(plain) = %v, want none", k)
	}
	el.SetAttr("for-each", "a in b")
	if k, _ := Detect(el); k != ForEach {
		t.Errorf("Detect = %v, want for-each", k)
	}
	if k, _ := Detect(doc.CreateText("x")); k != None {
		t.Errorf("Detect(text) = %v, want none", k)
	}
}

func TestValidateFindsNestedErrors(t *testing.T) {
	host := parse(t, `<section if="a"><ul><li for-each="items"></li></ul></section>`)
	before := render.String(host)

	err := Validate(host)
	if !errors.HasCode(err, "W101") {
		t.Errorf("Validate error = %v, want W101", err)
	}
	if after := render.String(host); after != before {
		t.Errorf("Validate modified the tree:\n%s\n%s", before, after)
	}

	ok := parse(t, `<section if="a"><li for-each="x in xs" key="x"><b if="x.on"></b></li></section>`)
	if err := Validate(ok); err != nil {
		t.Errorf("Validate(valid) = %v", err)
	}
}
