// Package rels handles the Open Packaging Conventions plumbing shared by the
// reader and the writer: relationship parts (.rels), [Content_Types].xml and
// the namespace and relationship-type URIs.
package rels

import (
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
)

// Namespaces.
const (
	NamespaceMain          = "http://schemas.openxmlformats.org/spreadsheetml/2006/main"
	NamespaceOfficeRels    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	NamespacePackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"
	NamespaceContentTypes  = "http://schemas.openxmlformats.org/package/2006/content-types"
	relationshipTypePrefix = NamespaceOfficeRels + "/"
)

// Relationship types.
const (
	TypeOfficeDocument = relationshipTypePrefix + "officeDocument"
	TypeWorksheet      = relationshipTypePrefix + "worksheet"
	TypeSharedStrings  = relationshipTypePrefix + "sharedStrings"
	TypeStyles         = relationshipTypePrefix + "styles"
)

// Relationship is one entry in a .rels part.
type Relationship struct {
	ID     string `xml:"Id,attr"`
	Type   string `xml:"Type,attr"`
	Target string `xml:"Target,attr"`
}

type relationships struct {
	Relationships []Relationship `xml:"Relationship"`
}

// Parse decodes a .rels part.  Relationship parts are small, so the whole
// document is unmarshalled at once.
func Parse(r io.Reader) ([]Relationship, error) {
	var doc relationships
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("rels: parse: %w", err)
	}
	return doc.Relationships, nil
}

// ByID indexes rs by relationship id.
func ByID(rs []Relationship) map[string]Relationship {
	m := make(map[string]Relationship, len(rs))
	for _, r := range rs {
		m[r.ID] = r
	}
	return m
}

// FindType returns the first relationship of the given type.
func FindType(rs []Relationship, typ string) (Relationship, bool) {
	for _, r := range rs {
		if r.Type == typ {
			return r, true
		}
	}
	return Relationship{}, false
}

// PartPath returns the location of the .rels part describing part, e.g.
// "xl/workbook.xml" → "xl/_rels/workbook.xml.rels".
func PartPath(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// ResolveTarget turns a relationship target into a ZIP entry name.  Absolute
// targets are taken from the package root; relative targets are resolved
// against the directory of source, the part that owns the relationship.
func ResolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return strings.TrimPrefix(path.Join(path.Dir(source), target), "/")
}

// Write emits a .rels part.
func Write(w io.Writer, rs []Relationship) error {
	xw := xmlstream.NewWriter(w)
	xw.Header()
	xw.Start("Relationships", xmlstream.Attr{Name: "xmlns", Value: NamespacePackageRels})
	for _, r := range rs {
		xw.Empty("Relationship",
			xmlstream.Attr{Name: "Id", Value: r.ID},
			xmlstream.Attr{Name: "Type", Value: r.Type},
			xmlstream.Attr{Name: "Target", Value: r.Target},
		)
	}
	xw.CloseAll()
	if err := xw.Flush(); err != nil {
		return fmt.Errorf("rels: write: %w", err)
	}
	return nil
}
