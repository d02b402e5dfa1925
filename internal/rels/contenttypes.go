package rels

import (
	"fmt"
	"io"

	"github.com/TsubasaBE/go-xlsxstream/internal/xmlstream"
)

// Content types of the parts the writer produces.
const (
	ContentTypeRelationships = "application/vnd.openxmlformats-package.relationships+xml"
	ContentTypeXML           = "application/xml"
	ContentTypeWorkbook      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet.main+xml"
	ContentTypeWorksheet     = "application/vnd.openxmlformats-officedocument.spreadsheetml.worksheet+xml"
	ContentTypeSharedStrings = "application/vnd.openxmlformats-officedocument.spreadsheetml.sharedStrings+xml"
	ContentTypeStyles        = "application/vnd.openxmlformats-officedocument.spreadsheetml.styles+xml"
)

// Override assigns a content type to one part.  PartName is absolute
// ("/xl/workbook.xml").
type Override struct {
	PartName    string
	ContentType string
}

// WriteContentTypes emits [Content_Types].xml with defaults for the rels
// and xml extensions plus the given overrides.
func WriteContentTypes(w io.Writer, overrides []Override) error {
	xw := xmlstream.NewWriter(w)
	xw.Header()
	xw.Start("Types", xmlstream.Attr{Name: "xmlns", Value: NamespaceContentTypes})
	xw.Empty("Default",
		xmlstream.Attr{Name: "Extension", Value: "rels"},
		xmlstream.Attr{Name: "ContentType", Value: ContentTypeRelationships},
	)
	xw.Empty("Default",
		xmlstream.Attr{Name: "Extension", Value: "xml"},
		xmlstream.Attr{Name: "ContentType", Value: ContentTypeXML},
	)
	for _, o := range overrides {
		xw.Empty("Override",
			xmlstream.Attr{Name: "PartName", Value: o.PartName},
			xmlstream.Attr{Name: "ContentType", Value: o.ContentType},
		)
	}
	xw.CloseAll()
	if err := xw.Flush(); err != nil {
		return fmt.Errorf("rels: write content types: %w", err)
	}
	return nil
}
