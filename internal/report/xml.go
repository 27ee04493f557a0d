package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/Maksym-Tokariev/csv-parser/internal/types"
)

// =============================================================================
// XML REPORT
// =============================================================================
//
// STRUCTURE:
//
//   <report>
//     <totalLines>3</totalLines>
//     <validLines>2</validLines>
//     <invalidLines>1</invalidLines>
//     <skippedRows>1</skippedRows>
//     <stat>
//       <totalItems>5</totalItems>
//       <totalRevenue>52.50</totalRevenue>
//       <dimension name="categories" column="category" count="2">
//         <entry key="Books">
//           <items>2</items>
//           <revenue>21.00</revenue>
//           <avgPrice>10.5</avgPrice>
//         </entry>
//       </dimension>
//     </stat>
//   </report>
//
// =============================================================================

const (
	xmlDeclaration = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n"
	xmlIndent      = "  "
)

// element is one node of the XML tree.
type element struct {
	name       string
	attributes []attribute
	value      string
	children   []element
}

type attribute struct {
	name  string
	value string
}

// EncodeXML renders the report as an indented XML document.
func EncodeXML(rep types.Report) ([]byte, error) {
	var buffer bytes.Buffer

	buffer.WriteString(xmlDeclaration)
	writeElement(&buffer, buildReportElement(rep), 0)

	return buffer.Bytes(), nil
}

// buildReportElement constructs the document tree.
func buildReportElement(rep types.Report) element {
	stat := rep.Stat
	digits := stat.FractionDigits

	statElement := element{name: "stat", children: []element{
		textElement("totalItems", strconv.FormatInt(stat.TotalItems, 10)),
		textElement("totalRevenue", stat.TotalRevenue.StringFixed(digits)),
	}}

	for _, dim := range stat.Dimensions {
		dimElement := element{
			name: "dimension",
			attributes: []attribute{
				{"name", dim.Name},
				{"column", dim.Column},
				{"count", strconv.Itoa(dim.Count)},
			},
		}
		for _, key := range dim.Stats.Keys {
			dimElement.children = append(dimElement.children, element{
				name:       "entry",
				attributes: []attribute{{"key", key}},
				children: []element{
					textElement("items", strconv.FormatInt(dim.Stats.Items[key], 10)),
					textElement("revenue", dim.Stats.Revenue[key].StringFixed(digits)),
					textElement("avgPrice", dim.Stats.AvgPrice[key].String()),
				},
			})
		}
		statElement.children = append(statElement.children, dimElement)
	}

	return element{name: "report", children: []element{
		textElement("totalLines", strconv.Itoa(rep.TotalLines)),
		textElement("validLines", strconv.Itoa(rep.ValidLines)),
		textElement("invalidLines", strconv.Itoa(rep.InvalidLines)),
		textElement("skippedRows", strconv.Itoa(rep.SkippedRows)),
		statElement,
	}}
}

func textElement(name, value string) element {
	return element{name: name, value: value}
}

// writeElement writes an element to the buffer with indentation.
func writeElement(buffer *bytes.Buffer, e element, level int) {
	for i := 0; i < level; i++ {
		buffer.WriteString(xmlIndent)
	}

	buffer.WriteString("<")
	buffer.WriteString(e.name)
	for _, attr := range e.attributes {
		fmt.Fprintf(buffer, " %s=\"%s\"", attr.name, escapeXML(attr.value))
	}

	if len(e.children) == 0 && e.value == "" {
		buffer.WriteString("/>\n")
		return
	}

	buffer.WriteString(">")

	if len(e.children) == 0 {
		buffer.WriteString(escapeXML(e.value))
	} else {
		buffer.WriteString("\n")
		for _, child := range e.children {
			writeElement(buffer, child, level+1)
		}
		for i := 0; i < level; i++ {
			buffer.WriteString(xmlIndent)
		}
	}

	buffer.WriteString("</")
	buffer.WriteString(e.name)
	buffer.WriteString(">\n")
}

// escapeXML escapes special characters for XML.
func escapeXML(s string) string {
	var buffer bytes.Buffer

	for _, r := range s {
		switch r {
		case '&':
			buffer.WriteString("&amp;")
		case '<':
			buffer.WriteString("&lt;")
		case '>':
			buffer.WriteString("&gt;")
		case '"':
			buffer.WriteString("&quot;")
		case '\'':
			buffer.WriteString("&apos;")
		default:
			buffer.WriteRune(r)
		}
	}

	return buffer.String()
}
