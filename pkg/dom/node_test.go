package dom

import "testing"

func connectedElement(tag string) (*Document, *Node) {
	doc := NewDocument()
	n := doc.CreateElement(tag)
	doc.Root().AppendChild(n)
	doc.TakePatches()
	return doc, n
}

func TestSetAttrRecordsOnlyChanges(t *testing.T) {
	doc, n := connectedElement("div")
	n.SetAttr("title", "a")
	n.SetAttr("title", "a")
	n.SetAttr("title", "b")
	n.RemoveAttr("title")
	n.RemoveAttr("title")

	counts := CountOps(doc.TakePatches())
	if counts[PatchSetAttr] != 2 {
		t.Errorf("SetAttr patches = %d, want 2", counts[PatchSetAttr])
	}
	if counts[PatchRemoveAttr] != 1 {
		t.Errorf("RemoveAttr patches = %d, want 1", counts[PatchRemoveAttr])
	}
}

func TestToggleClass(t *testing.T) {
	_, n := connectedElement("div")
	n.SetAttr("class", "a b")
	n.ToggleClass("c", true)
	n.ToggleClass("a", false)
	n.ToggleClass("b", true)

	if v, _ := n.Attr("class"); v != "b c" {
		t.Errorf("class = %q, want %q", v, "b c")
	}
	n.ToggleClass("b", false)
	n.ToggleClass("c", false)
	if n.HasAttr("class") {
		t.Error("empty class list should remove the attribute")
	}
}

func TestSetStyle(t *testing.T) {
	_, n := connectedElement("div")
	n.SetAttr("style", "color: red; margin: 0")
	n.SetStyle("color", "blue")
	n.SetStyle("padding", "2px")
	n.SetStyle("margin", "")

	if v, _ := n.Attr("style"); v != "color: blue; padding: 2px" {
		t.Errorf("style = %q", v)
	}
	if got := n.Style("padding"); got != "2px" {
		t.Errorf("Style(padding) = %q, want 2px", got)
	}
	n.SetStyle("color", "")
	n.SetStyle("padding", "")
	if n.HasAttr("style") {
		t.Error("empty style should remove the attribute")
	}
}

func TestFormProperties(t *testing.T) {
	doc, n := connectedElement("input")
	n.SetValue("x")
	n.SetValue("x")
	n.SetChecked(true)
	n.SetSelected(false)
	n.SetBoolAttr("disabled", true)

	if n.Value() != "x" || !n.Checked() || n.Selected() {
		t.Errorf("properties = %q %v %v", n.Value(), n.Checked(), n.Selected())
	}
	if !n.HasAttr("disabled") {
		t.Error("disabled attribute missing")
	}
	counts := CountOps(doc.TakePatches())
	if counts[PatchSetValue] != 1 || counts[PatchSetChecked] != 1 || counts[PatchSetSelected] != 1 {
		t.Errorf("property patches = %v", counts)
	}
}

func TestSetInnerHTML(t *testing.T) {
	doc, n := connectedElement("div")
	n.AppendChild(doc.CreateText("old"))
	doc.TakePatches()

	if err := n.SetInnerHTML("<b>new</b> text"); err != nil {
		t.Fatal(err)
	}
	if got := n.TextContent(); got != "new text" {
		t.Errorf("TextContent() = %q, want %q", got, "new text")
	}
	patches := doc.TakePatches()
	if len(patches) != 1 || patches[0].Op != PatchSetHTML {
		t.Errorf("patches = %v, want one SetHTML", patches)
	}
}
