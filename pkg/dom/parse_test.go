package dom

import "testing"

func TestParseFragmentKeepsDirectiveSyntax(t *testing.T) {
	doc := NewDocument()
	nodes, err := doc.ParseFragment(`<li for-each="item in items" :class.Active="item.on" @click="pick">{{ item.label }}</li>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Tag != "li" {
		t.Fatalf("nodes = %v", nodes)
	}
	li := nodes[0]
	for _, key := range []string{"for-each", ":class.active", "@click"} {
		if !li.HasAttr(key) {
			t.Errorf("missing attribute %q in %v", key, li.Attrs())
		}
	}
	if li.FirstChild == nil || li.FirstChild.Text != "{{ item.label }}" {
		t.Errorf("text child = %+v", li.FirstChild)
	}
}

func TestParseFragmentTableRows(t *testing.T) {
	doc := NewDocument()
	nodes, err := doc.ParseFragment(`<tr><td>a</td></tr>`)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 1 || nodes[0].Tag != "tr" {
		t.Fatalf("expected a single <tr>, got %v", nodes)
	}
}

func TestParseFragmentComments(t *testing.T) {
	doc := NewDocument()
	nodes, _ := doc.ParseFragment(`<!--marker--><p></p>`)
	if len(nodes) != 2 || nodes[0].Kind != KindComment || nodes[0].Text != "marker" {
		t.Errorf("nodes = %v", nodes)
	}
}
