package rowsource

import (
	"archive/zip"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/FocuswithJustin/selah-index/core/errors"
	"github.com/FocuswithJustin/selah-index/core/rows"
)

const (
	workbookPart = "xl/workbook.xml"
	relsPart     = "xl/_rels/workbook.xml.rels"
	sharedPart   = "xl/sharedStrings.xml"
)

var (
	sheetExpr = xpath.MustCompile("//sheets/sheet")
	relExpr   = xpath.MustCompile("//Relationship")
)

// xlsxReader streams the rows of one worksheet. The shared strings table is
// loaded up front; sheet rows are parsed one <row> element at a time.
type xlsxReader struct {
	path    string
	zip     *zip.ReadCloser
	sheet   io.ReadCloser
	sp      *xmlquery.StreamParser
	shared  []string
	nextRow int // 1-based number of the next physical row

	gap  int // blank rows owed before held
	held rows.Row
	hold bool
}

func openXLSX(filename, sheetName string) (*xlsxReader, error) {
	zr, err := zip.OpenReader(filename)
	if err != nil {
		return nil, errors.NewIO("open workbook", filename, err)
	}
	x := &xlsxReader{path: filename, zip: zr, nextRow: 1}

	if err := x.open(sheetName); err != nil {
		x.Close()
		return nil, err
	}
	return x, nil
}

func (x *xlsxReader) open(sheetName string) error {
	parts := make(map[string]*zip.File, len(x.zip.File))
	for _, f := range x.zip.File {
		parts[f.Name] = f
	}

	target, err := sheetPart(parts, sheetName)
	if err != nil {
		return errors.Wrapf(err, "workbook %s", x.path)
	}

	if f, ok := parts[sharedPart]; ok {
		x.shared, err = readSharedStrings(f)
		if err != nil {
			return errors.NewIO("read shared strings of", x.path, err)
		}
	}

	f, ok := parts[target]
	if !ok {
		return errors.NewNotFound("worksheet part", target)
	}
	x.sheet, err = f.Open()
	if err != nil {
		return errors.NewIO("open worksheet of", x.path, err)
	}
	x.sp, err = xmlquery.CreateStreamParser(x.sheet, "//sheetData/row")
	if err != nil {
		return errors.NewIO("parse worksheet of", x.path, err)
	}
	return nil
}

// sheetPart resolves the zip part holding the named sheet, or the first
// sheet when name is empty.
func sheetPart(parts map[string]*zip.File, name string) (string, error) {
	wb, err := parsePart(parts, workbookPart)
	if err != nil {
		return "", err
	}
	var relID string
	for _, s := range xmlquery.QuerySelectorAll(wb, sheetExpr) {
		if name == "" || strings.EqualFold(attrLocal(s, "name"), name) {
			relID = attrLocal(s, "id")
			break
		}
	}
	if relID == "" {
		if name == "" {
			return "", errors.NewNotFound("worksheet", "")
		}
		return "", errors.NewNotFound("worksheet", name)
	}

	rels, err := parsePart(parts, relsPart)
	if err != nil {
		return "", err
	}
	for _, r := range xmlquery.QuerySelectorAll(rels, relExpr) {
		if attrLocal(r, "Id") != relID {
			continue
		}
		target := attrLocal(r, "Target")
		if strings.HasPrefix(target, "/") {
			return strings.TrimPrefix(target, "/"), nil
		}
		return path.Clean(path.Join("xl", target)), nil
	}
	return "", errors.NewNotFound("worksheet relationship", relID)
}

func parsePart(parts map[string]*zip.File, name string) (*xmlquery.Node, error) {
	f, ok := parts[name]
	if !ok {
		return nil, errors.NewNotFound("workbook part", name)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return xmlquery.Parse(rc)
}

// readSharedStrings streams the <si> items of the shared strings table.
// Rich text runs are concatenated; phonetic runs are ignored.
func readSharedStrings(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	sp, err := xmlquery.CreateStreamParser(rc, "//sst/si")
	if err != nil {
		return nil, err
	}
	var out []string
	for {
		si, err := sp.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		var b strings.Builder
		for _, el := range elements(si) {
			switch el.Data {
			case "t":
				b.WriteString(el.InnerText())
			case "r":
				for _, t := range elements(el) {
					if t.Data == "t" {
						b.WriteString(t.InnerText())
					}
				}
			}
		}
		out = append(out, b.String())
	}
}

// Next returns the next physical row. Rows missing from the sheet (Excel
// omits empty rows) come back as blank rows so that row counts match what
// the user sees.
func (x *xlsxReader) Next() (rows.Row, error) {
	if x.gap > 0 {
		x.gap--
		x.nextRow++
		return rows.Row{}, nil
	}
	if x.hold {
		x.hold = false
		x.nextRow++
		return x.held, nil
	}

	n, err := x.sp.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, errors.NewIO("read worksheet of", x.path, err)
	}

	row := x.decodeRow(n)
	if num, err := strconv.Atoi(attrLocal(n, "r")); err == nil && num > x.nextRow {
		x.gap = num - x.nextRow
		x.held, x.hold = row, true
		return x.Next()
	}
	x.nextRow++
	return row, nil
}

func (x *xlsxReader) decodeRow(n *xmlquery.Node) rows.Row {
	var row rows.Row
	pos := 0
	for _, c := range elements(n) {
		if c.Data != "c" {
			continue
		}
		if col, ok := columnIndex(attrLocal(c, "r")); ok {
			pos = col
		}
		for len(row) <= pos {
			row = append(row, rows.Cell{})
		}
		row[pos] = x.decodeCell(c)
		pos++
	}
	return row
}

func (x *xlsxReader) decodeCell(c *xmlquery.Node) rows.Cell {
	var v, inline string
	hasV := false
	for _, el := range elements(c) {
		switch el.Data {
		case "v":
			v, hasV = el.InnerText(), true
		case "is":
			inline = el.InnerText()
		}
	}

	switch attrLocal(c, "t") {
	case "s":
		i, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || i < 0 || i >= len(x.shared) {
			return rows.Cell{}
		}
		return rows.Text(x.shared[i])
	case "inlineStr":
		return rows.Text(inline)
	case "str", "e":
		return rows.Text(v)
	case "b":
		if !hasV {
			return rows.Cell{}
		}
		if strings.TrimSpace(v) == "1" {
			return rows.Text("TRUE")
		}
		return rows.Text("FALSE")
	default:
		if !hasV {
			return rows.Cell{}
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return rows.Text(v)
		}
		return rows.Num(f)
	}
}

// Close releases the worksheet stream and the archive.
func (x *xlsxReader) Close() error {
	if x.sheet != nil {
		x.sheet.Close()
	}
	return x.zip.Close()
}

// columnIndex converts the column letters of a cell reference ("C12") to a
// zero-based index.
func columnIndex(ref string) (int, bool) {
	col := 0
	n := 0
	for _, r := range ref {
		if r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		if r < 'A' || r > 'Z' {
			break
		}
		col = col*26 + int(r-'A'+1)
		n++
	}
	if n == 0 {
		return 0, false
	}
	return col - 1, true
}

// attrLocal returns the value of the attribute with the given local name,
// whatever its namespace prefix.
func attrLocal(n *xmlquery.Node, local string) string {
	for _, a := range n.Attr {
		if a.Name.Local == local {
			return a.Value
		}
	}
	return ""
}

func elements(n *xmlquery.Node) []*xmlquery.Node {
	var out []*xmlquery.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			out = append(out, c)
		}
	}
	return out
}
