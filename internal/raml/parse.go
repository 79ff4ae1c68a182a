package raml

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/beevik/etree"
)

// ErrParse is wrapped by every error returned from Parse and ParseFile.
var ErrParse = errors.New("xml parse error")

// Prefixes bound without a declaration.
const (
	prefixXML   = "xml"
	prefixXMLNS = "xmlns"
)

// ParseFile reads and parses the XML document at path.
// Unreadable files, malformed XML and documents without exactly one root
// element all return an error wrapping ErrParse.
func ParseFile(path string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("%w: failed to read %s: %v", ErrParse, path, err)
	}
	if err := checkDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return doc, nil
}

// Parse parses an XML document from r.
func Parse(r io.Reader) (*etree.Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if err := checkDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return doc, nil
}

// SourceLabel returns the value written to the FILENAME column for path:
// the file's base name, extension included.
func SourceLabel(path string) string {
	return filepath.Base(path)
}

// checkDocument rejects what the etree reader lets through but a
// well-formed document may not contain: anything other than a single root
// element at the top level (besides whitespace, comments, processing
// instructions and directives), and prefixes that were never declared.
func checkDocument(doc *etree.Document) error {
	roots := 0
	for _, token := range doc.Child {
		switch t := token.(type) {
		case *etree.Element:
			roots++
		case *etree.CharData:
			if !t.IsWhitespace() {
				return fmt.Errorf("text outside the root element")
			}
		}
	}

	switch {
	case roots == 0:
		return fmt.Errorf("document has no root element")
	case roots > 1:
		return fmt.Errorf("junk after document element: %d root elements", roots)
	}

	var err error
	walk(doc.Root(), func(el *etree.Element) {
		if err != nil {
			return
		}
		if !prefixBound(el, el.Space) {
			err = fmt.Errorf("unbound prefix %q on element %s", el.Space, el.FullTag())
			return
		}
		for _, a := range el.Attr {
			if !prefixBound(el, a.Space) {
				err = fmt.Errorf("unbound prefix %q on attribute %s of element %s", a.Space, a.FullKey(), el.FullTag())
				return
			}
		}
	})
	return err
}

// prefixBound reports whether prefix is declared on el or one of its
// ancestors. The empty prefix is always bound.
func prefixBound(el *etree.Element, prefix string) bool {
	switch prefix {
	case "", prefixXML, prefixXMLNS:
		return true
	}
	for e := el; e != nil; e = e.Parent() {
		for _, a := range e.Attr {
			if a.Space == prefixXMLNS && a.Key == prefix {
				return true
			}
		}
	}
	return false
}
