// =============================================================================
// RAML XML to CSV Converter - Flattener
// =============================================================================
//
// This module turns a parsed RAML managed-object dump into one row per
// managedObject element.
//
// DOCUMENT SHAPE:
//   <raml xmlns="raml20.xsd">
//     <cmData>
//       <header>
//         <log dateTime="2024-01-01T00:00:00" action="created"/>
//       </header>
//       <managedObject class="BTS" version="R1" distName="PLMN-1/BTS-1" id="1">
//         <p name="name">Site 1</p>
//         <p name="adminState">1</p>
//       </managedObject>
//     </cmData>
//   </raml>
//
// ROW LAYOUT:
//   FILENAME, DATETIME, VERSION, DISTNAME, MOID, then one column per <p>
//   child in document order. Absent attributes become "No <attribute>".
//
// NAMESPACES:
//   Every looked-up element must resolve to the configured namespace URI.
//   Elements in any other namespace are ignored, including ones with the
//   right local name.
//
// =============================================================================

package raml

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/RAML-XML-to-CSV-conversion/internal/types"
)

// =============================================================================
// CONSTANTS
// =============================================================================

// DefaultNamespace is the namespace URI used by RAML 2.0 dumps.
const DefaultNamespace = "raml20.xsd"

// Element names looked up in the document.
const (
	tagHeader        = "header"
	tagLog           = "log"
	tagManagedObject = "managedObject"
	tagProperty      = "p"
)

// Attribute names read from the document.
const (
	attrDateTime = "dateTime"
	attrVersion  = "version"
	attrDistName = "distName"
	attrID       = "id"
	attrName     = "name"
)

// Placeholders written when an attribute is absent.
const (
	NoDateTime = "No dateTime"
	NoVersion  = "No version"
	NoDistName = "No distName"
	NoID       = "No id"
	Unnamed    = "Unnamed"
)

// =============================================================================
// FLATTEN
// =============================================================================

// Flatten maps a parsed document to its RowSet.
//
// PARAMETERS:
//   - doc: A successfully parsed document. A nil document or one without a
//          root element yields an empty RowSet.
//   - namespace: The namespace URI every looked-up element must carry.
//   - sourceLabel: Written verbatim into the FILENAME column of every row.
//
// RETURNS:
//   - One row per managedObject, in depth-first document order. An empty
//     RowSet means there was nothing to extract; it is not an error.
//
// Duplicate <p name="..."> siblings overwrite each other: the last value
// wins and the column keeps the position of the first occurrence.
func Flatten(doc *etree.Document, namespace, sourceLabel string) types.RowSet {
	if doc == nil || doc.Root() == nil {
		return types.RowSet{}
	}
	root := doc.Root()

	dateTime := headerDateTime(root, namespace)

	rows := types.RowSet{}
	walk(root, func(el *etree.Element) {
		if !isQualified(el, tagManagedObject, namespace) {
			return
		}
		rows = append(rows, buildRow(el, namespace, sourceLabel, dateTime))
	})

	return rows
}

// buildRow creates the row for a single managedObject element.
func buildRow(mo *etree.Element, namespace, sourceLabel, dateTime string) *types.Row {
	row := types.NewRow()
	row.Set(types.ColumnFilename, sourceLabel)
	row.Set(types.ColumnDateTime, dateTime)
	row.Set(types.ColumnVersion, attrOr(mo, attrVersion, NoVersion))
	row.Set(types.ColumnDistName, attrOr(mo, attrDistName, NoDistName))
	row.Set(types.ColumnMOID, attrOr(mo, attrID, NoID))

	// Only direct <p> children count; nested lists and items are skipped.
	for _, child := range mo.ChildElements() {
		if !isQualified(child, tagProperty, namespace) {
			continue
		}
		row.Set(attrOr(child, attrName, Unnamed), child.Text())
	}

	return row
}

// headerDateTime returns the dateTime of the first <log> that is a direct
// child of a <header>, or NoDateTime.
func headerDateTime(root *etree.Element, namespace string) string {
	var found *etree.Element

	walk(root, func(el *etree.Element) {
		if found != nil || !isQualified(el, tagLog, namespace) {
			return
		}
		parent := el.Parent()
		if parent != nil && isQualified(parent, tagHeader, namespace) {
			found = el
		}
	})

	if found == nil {
		return NoDateTime
	}
	return attrOr(found, attrDateTime, NoDateTime)
}

// =============================================================================
// HELPERS
// =============================================================================

// walk visits el and all of its descendant elements in depth-first pre-order.
func walk(el *etree.Element, visit func(*etree.Element)) {
	visit(el)
	for _, child := range el.ChildElements() {
		walk(child, visit)
	}
}

// isQualified reports whether el has the local name tag in namespace.
func isQualified(el *etree.Element, tag, namespace string) bool {
	return el.Tag == tag && el.NamespaceURI() == namespace
}

// attrOr returns the value of the unqualified attribute key, or fallback.
func attrOr(el *etree.Element, key, fallback string) string {
	for _, a := range el.Attr {
		if a.Space == "" && a.Key == key {
			return a.Value
		}
	}
	return fallback
}
