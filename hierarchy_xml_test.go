package labeltree

import (
	"strings"
	"testing"
)

func buildSampleHierarchy(t *testing.T) *Hierarchy {
	t.Helper()
	h := NewHierarchy()
	kv, err := h.AddItem(Item{Name: "GroupA", ID: "MESH:D001"}, "")
	if err != nil {
		t.Fatalf("add GroupA: %v", err)
	}
	kv.Set("k", "v")
	kv.Set("alpha", "first")
	for _, add := range []struct{ name, parent string }{
		{"Leaf1", "GroupA"},
		{"Leaf2", "GroupA"},
		{"GroupB", ""},
		{"Leaf3", "GroupB"},
	} {
		if _, err := h.AddItem(NewItem(add.name), add.parent); err != nil {
			t.Fatalf("add %s: %v", add.name, err)
		}
	}
	return h
}

// treesEqual compares names, IDs, side tables (in order) and child order.
func treesEqual(t *testing.T, path string, a, b *Item) {
	t.Helper()
	if a.Name != b.Name {
		t.Errorf("%s: name %q != %q", path, a.Name, b.Name)
	}
	if a.ID != b.ID {
		t.Errorf("%s: id %q != %q", path, a.ID, b.ID)
	}
	var aPairs, bPairs []KVPair
	if a.ExtraInfo != nil {
		aPairs = a.ExtraInfo.All()
	}
	if b.ExtraInfo != nil {
		bPairs = b.ExtraInfo.All()
	}
	if len(aPairs) != len(bPairs) {
		t.Errorf("%s: side table sizes %d != %d", path, len(aPairs), len(bPairs))
	} else {
		for i := range aPairs {
			if aPairs[i] != bPairs[i] {
				t.Errorf("%s: side table entry %d: %+v != %+v", path, i, aPairs[i], bPairs[i])
			}
		}
	}
	if len(a.Children) != len(b.Children) {
		t.Fatalf("%s: child counts %d != %d", path, len(a.Children), len(b.Children))
	}
	for i := range a.Children {
		treesEqual(t, path+"/"+a.Children[i].Name, &a.Children[i], &b.Children[i])
	}
}

func TestHierarchyXML_RoundTrip(t *testing.T) {
	h := buildSampleHierarchy(t)

	text, err := h.WriteXMLToString()
	if err != nil {
		t.Fatalf("write XML: %v", err)
	}

	h2 := NewHierarchy()
	if err := h2.ReadXMLFromString(text); err != nil {
		t.Fatalf("read XML back: %v", err)
	}
	treesEqual(t, "", h.Root(), h2.Root())
}

func TestHierarchyXML_WriteFormat(t *testing.T) {
	h := NewHierarchy()
	kv, err := h.AddItem(NewItem("A"), "")
	if err != nil {
		t.Fatalf("add A: %v", err)
	}
	kv.Set("k", "v")

	text, err := h.WriteXMLToString()
	if err != nil {
		t.Fatalf("write XML: %v", err)
	}
	for _, want := range []string{
		`<CaretHierarchy Version="1">`,
		`<Item Name="A">`,
		`<InfoItem Key="k" Value="v">`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestHierarchyXML_ReadExample(t *testing.T) {
	const text = `<CaretHierarchy Version="1">
  <Item Name="GroupA">
    <Info><InfoItem Key="k" Value="v"/></Info>
    <Item Name="Leaf1"/>
  </Item>
</CaretHierarchy>`

	h := NewHierarchy()
	if err := h.ReadXMLFromString(text); err != nil {
		t.Fatalf("read: %v", err)
	}
	root := h.Root()
	if len(root.Children) != 1 || root.Children[0].Name != "GroupA" {
		t.Fatalf("unexpected top level: %+v", root.Children)
	}
	groupA := &root.Children[0]
	if v, ok := groupA.ExtraInfo.Get("k"); !ok || v != "v" {
		t.Errorf("GroupA info k = %q, %v", v, ok)
	}
	if len(groupA.Children) != 1 || groupA.Children[0].Name != "Leaf1" {
		t.Errorf("unexpected children of GroupA: %+v", groupA.Children)
	}
}

func TestHierarchyXML_ReadErrors(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"missing version", `<CaretHierarchy><Item Name="A"/></CaretHierarchy>`},
		{"unknown version", `<CaretHierarchy Version="2"><Item Name="A"/></CaretHierarchy>`},
		{"missing root", `<Item Name="A"/>`},
		{"duplicate root", `<CaretHierarchy Version="1"></CaretHierarchy><CaretHierarchy Version="1"></CaretHierarchy>`},
		{"unknown tag", `<CaretHierarchy Version="1"><Thing Name="A"/></CaretHierarchy>`},
		{"missing name", `<CaretHierarchy Version="1"><Item/></CaretHierarchy>`},
		{"duplicate name", `<CaretHierarchy Version="1"><Item Name="A"/><Item Name="A"/></CaretHierarchy>`},
		{"info at root", `<CaretHierarchy Version="1"><Info/></CaretHierarchy>`},
		{"bad info child", `<CaretHierarchy Version="1"><Item Name="A"><Info><Bogus/></Info></Item></CaretHierarchy>`},
		{"malformed", `<CaretHierarchy Version="1"><Item Name="A">`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHierarchy()
			// Pre-populate to prove failure clears the tree.
			if _, err := h.AddItem(NewItem("Existing"), ""); err != nil {
				t.Fatalf("seed: %v", err)
			}
			err := h.ReadXMLFromString(tc.text)
			if err == nil {
				t.Fatal("expected a parse error")
			}
			if !strings.HasPrefix(err.Error(), "Hierarchy XML error: ") {
				t.Errorf("error not prefixed: %v", err)
			}
			if !h.IsEmpty() {
				t.Error("failed read left a partial tree")
			}
		})
	}
}

func TestHierarchyXML_IDAttributeRoundTrip(t *testing.T) {
	h := NewHierarchy()
	if _, err := h.AddItem(Item{Name: "A", ID: "UBERON:0000955"}, ""); err != nil {
		t.Fatalf("add A: %v", err)
	}
	text, err := h.WriteXMLToString()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(text, `ID="UBERON:0000955"`) {
		t.Fatalf("ID attribute not written:\n%s", text)
	}

	h2 := NewHierarchy()
	if err := h2.ReadXMLFromString(text); err != nil {
		t.Fatalf("read back: %v", err)
	}
	if got := h2.Root().Children[0].ID; got != "UBERON:0000955" {
		t.Errorf("ID = %q after round trip", got)
	}
}

func TestHierarchyXML_FileRoundTrip(t *testing.T) {
	h := buildSampleHierarchy(t)
	path := t.TempDir() + "/hier.xml"
	if err := h.WriteXMLFile(path); err != nil {
		t.Fatalf("write file: %v", err)
	}
	h2 := NewHierarchy()
	if err := h2.ReadXMLFile(path); err != nil {
		t.Fatalf("read file: %v", err)
	}
	treesEqual(t, "", h.Root(), h2.Root())
}
