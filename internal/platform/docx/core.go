package docx

import (
	"encoding/xml"
	"fmt"
)

const corePropsPath = "docProps/core.xml"

// coreProperties replaces the template's docProps/core.xml, which godocx
// carries through unchanged.
type coreProperties struct {
	XMLName  xml.Name `xml:"cp:coreProperties"`
	CP       string   `xml:"xmlns:cp,attr"`
	DC       string   `xml:"xmlns:dc,attr"`
	DCTerms  string   `xml:"xmlns:dcterms,attr"`
	XSI      string   `xml:"xmlns:xsi,attr"`
	Title    string   `xml:"dc:title"`
	Creator  string   `xml:"dc:creator"`
	Revision string   `xml:"cp:revision"`
}

func (d *Document) coreProps() ([]byte, error) {
	out, err := xml.Marshal(coreProperties{
		CP:       "http://schemas.openxmlformats.org/package/2006/metadata/core-properties",
		DC:       "http://purl.org/dc/elements/1.1/",
		DCTerms:  "http://purl.org/dc/terms/",
		XSI:      "http://www.w3.org/2001/XMLSchema-instance",
		Title:    d.title,
		Creator:  d.creator,
		Revision: "1",
	})
	if err != nil {
		return nil, fmt.Errorf("docx: marshal core properties: %w", err)
	}
	return append([]byte(xml.Header), out...), nil
}
