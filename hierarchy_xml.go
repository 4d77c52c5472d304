package labeltree

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// XML format constants. The root element carries a format version attribute;
// version "1" is the only version currently defined.
const (
	xmlRootTag     = "CaretHierarchy"
	xmlItemTag     = "Item"
	xmlInfoTag     = "Info"
	xmlInfoItemTag = "InfoItem"
	xmlVersion     = "1"
)

// WriteXML writes the hierarchy to w as indented XML. The implicit root is
// not written; top-level items appear directly inside the root element.
func (h *Hierarchy) WriteXML(w io.Writer) error {
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")

	root := xml.StartElement{
		Name: xml.Name{Local: xmlRootTag},
		Attr: []xml.Attr{{Name: xml.Name{Local: "Version"}, Value: xmlVersion}},
	}
	if err := enc.EncodeToken(root); err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	for i := range h.root.Children {
		if err := writeItemXML(enc, &h.root.Children[i]); err != nil {
			return err
		}
	}
	if err := enc.EncodeToken(root.End()); err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	return nil
}

// WriteXMLToString returns the hierarchy serialized as an XML string.
func (h *Hierarchy) WriteXMLToString() (string, error) {
	var sb strings.Builder
	if err := h.WriteXML(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeItemXML(enc *xml.Encoder, item *Item) error {
	attrs := []xml.Attr{{Name: xml.Name{Local: "Name"}, Value: item.Name}}
	if item.ID != "" {
		attrs = append(attrs, xml.Attr{Name: xml.Name{Local: "ID"}, Value: item.ID})
	}
	start := xml.StartElement{Name: xml.Name{Local: xmlItemTag}, Attr: attrs}
	if err := enc.EncodeToken(start); err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}

	if item.ExtraInfo != nil && item.ExtraInfo.Len() > 0 {
		info := xml.StartElement{Name: xml.Name{Local: xmlInfoTag}}
		if err := enc.EncodeToken(info); err != nil {
			return fmt.Errorf("labeltree: %w", err)
		}
		for _, pair := range item.ExtraInfo.All() {
			entry := xml.StartElement{
				Name: xml.Name{Local: xmlInfoItemTag},
				Attr: []xml.Attr{
					{Name: xml.Name{Local: "Key"}, Value: pair.Key},
					{Name: xml.Name{Local: "Value"}, Value: pair.Value},
				},
			}
			if err := enc.EncodeToken(entry); err != nil {
				return fmt.Errorf("labeltree: %w", err)
			}
			if err := enc.EncodeToken(entry.End()); err != nil {
				return fmt.Errorf("labeltree: %w", err)
			}
		}
		if err := enc.EncodeToken(info.End()); err != nil {
			return fmt.Errorf("labeltree: %w", err)
		}
	}

	for i := range item.Children {
		if err := writeItemXML(enc, &item.Children[i]); err != nil {
			return err
		}
	}
	return enc.EncodeToken(start.End())
}

// ReadXML replaces the hierarchy with the contents of the XML document read
// from r. Any error (malformed XML, wrong version, unknown tags, duplicate
// or missing names) aborts the whole read and leaves the hierarchy cleared.
func (h *Hierarchy) ReadXML(r io.Reader) error {
	h.Clear()
	if err := h.readXML(xml.NewDecoder(r)); err != nil {
		h.Clear()
		return fmt.Errorf("Hierarchy XML error: %w", err)
	}
	return nil
}

// ReadXMLFromString replaces the hierarchy with the contents of the XML text.
func (h *Hierarchy) ReadXMLFromString(text string) error {
	return h.ReadXML(strings.NewReader(text))
}

// readXML is a single forward scan over the token stream. Rather than
// recursive descent, it keeps an explicit stack of open parent names so that
// AddItem can validate each Item as its start tag is seen, and a parallel
// stack of side-table handles so an Info block can populate the item that
// was already inserted.
func (h *Hierarchy) readXML(dec *xml.Decoder) error {
	parents := []string{""} // the implicit root handles the top-level case
	var addedInfo []*KVStore
	haveRoot := false
	rootEnded := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case xmlRootTag:
				if haveRoot {
					return fmt.Errorf("found root '%s' element more than once", xmlRootTag)
				}
				haveRoot = true
				version, ok := attrValue(t, "Version")
				if !ok {
					return fmt.Errorf("no Version attribute in hierarchy XML")
				}
				if version != xmlVersion {
					return fmt.Errorf("unknown hierarchy version '%s'", version)
				}
			case xmlItemTag:
				if !haveRoot {
					return fmt.Errorf("hierarchy XML is missing root element")
				}
				if rootEnded {
					return fmt.Errorf("found Item tag after closing root tag in hierarchy XML")
				}
				name, _ := attrValue(t, "Name")
				id, _ := attrValue(t, "ID")
				// Add immediately so the item exists as a parent for its children.
				kv, err := h.AddItem(Item{Name: name, ID: id}, parents[len(parents)-1])
				if err != nil {
					return fmt.Errorf("failed to add item '%s' to hierarchy, check for a duplicate, empty, or missing Name attribute", name)
				}
				addedInfo = append(addedInfo, kv)
				parents = append(parents, name)
			case xmlInfoTag:
				if len(addedInfo) == 0 {
					return fmt.Errorf("Info element not allowed at root level")
				}
				// Consumes through the Info end tag, so the end-element
				// cases below never see it.
				if err := readInfoXML(dec, addedInfo[len(addedInfo)-1]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("unexpected element '%s' in hierarchy XML", t.Name.Local)
			}
		case xml.EndElement:
			switch t.Name.Local {
			case xmlItemTag:
				addedInfo = addedInfo[:len(addedInfo)-1]
				parents = parents[:len(parents)-1]
			case xmlRootTag:
				rootEnded = true
			}
			// Start-element handling already rejected unknown tags.
		}
	}
	if !haveRoot {
		return fmt.Errorf("hierarchy XML is missing root element")
	}
	return nil
}

// readInfoXML reads InfoItem entries into kv until the closing Info tag.
// Existing entries are discarded first.
func readInfoXML(dec *xml.Decoder, kv *KVStore) error {
	kv.Clear()
	for {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != xmlInfoItemTag {
				return fmt.Errorf("found unexpected element in Info context: %s", t.Name.Local)
			}
			key, _ := attrValue(t, "Key")
			value, _ := attrValue(t, "Value")
			kv.Set(key, value)
		case xml.EndElement:
			if t.Name.Local != xmlInfoItemTag {
				return nil
			}
		}
	}
}

func attrValue(el xml.StartElement, name string) (string, bool) {
	for _, a := range el.Attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// ReadXMLFile replaces the hierarchy with the contents of the named XML file.
func (h *Hierarchy) ReadXMLFile(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	defer f.Close()
	return h.ReadXML(f)
}

// WriteXMLFile writes the hierarchy to the named file as XML.
func (h *Hierarchy) WriteXMLFile(filename string) (err error) {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("labeltree: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("labeltree: %w", cerr)
		}
	}()
	return h.WriteXML(f)
}
