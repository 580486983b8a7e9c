package cleanup

import (
	"fmt"
	"regexp"

	"fptidy/internal/dom"
	"fptidy/internal/resolver"

	"go.uber.org/zap"
)

var rowGroupTags = []string{"thead", "tbody", "tfoot"}

// tableRows collects the rows of table, looking into row groups. stray is
// set when anything but rows, row groups and whitespace is found.
func tableRows(table *dom.Element) (rows []*dom.Element, stray bool) {
	for _, n := range table.Children() {
		switch v := n.(type) {
		case *dom.Text:
			if !dom.IsBlank(v.Value) {
				stray = true
			}
		case *dom.Element:
			switch {
			case v.Tag == "tr":
				rows = append(rows, v)
			case dom.IsElement(v, rowGroupTags...):
				sub, s := tableRows(v)
				rows = append(rows, sub...)
				stray = stray || s
			default:
				stray = true
			}
		}
	}
	return rows, stray
}

// rowCells returns the cells of a row. stray is set when the row holds
// anything else besides whitespace.
func rowCells(row *dom.Element) (cells []*dom.Element, stray bool) {
	for _, n := range row.Children() {
		switch v := n.(type) {
		case *dom.Text:
			if !dom.IsBlank(v.Value) {
				stray = true
			}
		case *dom.Element:
			if dom.IsElement(v, "td", "th") {
				cells = append(cells, v)
			} else {
				stray = true
			}
		}
	}
	return cells, stray
}

// RemoveSingleCellTable drops a table that has no content, and replaces a
// table with exactly one cell by a <div> holding the cell content. The div
// gets the alignment the cell content had.
func (c *Cleaner) RemoveSingleCellTable(table *dom.Element) {
	rows, stray := tableRows(table)
	if stray || len(rows) > 1 {
		return
	}
	if len(rows) == 0 {
		c.log.Debug("Removing empty table")
		dom.Extract(table)
		return
	}

	cells, stray := rowCells(rows[0])
	switch {
	case stray || len(cells) > 1:
		return
	case len(cells) == 0:
		c.log.Debug("Removing table with empty row")
		dom.Extract(table)
		return
	}

	cell := cells[0]
	// cell content is left aligned unless said otherwise
	align := c.align.GetAlignment(cell)
	if align == "" {
		align = resolver.AlignLeft
		if cell.Tag == "th" {
			align = resolver.AlignCenter
		}
	}

	div := dom.NewElement("div", dom.Attribute{Key: "style", Val: "text-align: " + align})
	mustUpdate(dom.InsertBefore(table, div))
	dom.MoveContentsInto(cell, div, 0, 0)
	dom.Extract(table)
	c.stats.TablesElided++
}

// bulletRow reports whether row is a two-cell row whose first cell holds
// nothing but a bullet image.
func bulletRow(row *dom.Element, bullet *regexp.Regexp) (bool, error) {
	cells, stray := rowCells(row)
	if stray {
		return false, structuralf("table row contains content outside cells")
	}
	if len(cells) != 2 || dom.HasNonWhitespaceText(cells[0]) {
		return false, nil
	}
	imgs := cells[0].ChildElements()
	if len(imgs) != 1 || imgs[0].Tag != "img" {
		return false, nil
	}
	src, ok := imgs[0].Attr("src")
	return ok && bullet.MatchString(src), nil
}

// ConvertTableToList replaces a table used to lay out bullet points by a
// <ul>. Every row must have two cells, the first holding only an image
// whose src matches bullet. The list is left aligned like the table cells
// were; the alignment resolver removes that again where it is redundant.
//
// Tables with content outside rows and cells fail with
// ErrStructuralAssumption.
func (c *Cleaner) ConvertTableToList(table *dom.Element, bullet *regexp.Regexp) (bool, error) {
	for _, el := range table.ChildElements() {
		if dom.IsElement(el, "caption", "colgroup", "col") {
			return false, nil
		}
	}
	rows, stray := tableRows(table)
	if stray {
		return false, structuralf("table contains content outside rows")
	}
	if len(rows) == 0 {
		return false, nil
	}
	for _, row := range rows {
		ok, err := bulletRow(row, bullet)
		if err != nil || !ok {
			return false, err
		}
	}

	ul := dom.NewElement("ul", dom.Attribute{Key: "style", Val: "text-align: " + resolver.AlignLeft})
	if err := dom.InsertBefore(table, ul); err != nil {
		return false, fmt.Errorf("failed to insert list: %w", err)
	}
	ul.AppendChild(dom.NewText("\n"))
	for _, row := range rows {
		cells, _ := rowCells(row)
		li := dom.NewElement("li")
		ul.AppendChild(li)

		content := cells[1]
		if p, ok := soleParagraph(content); ok {
			for _, a := range p.Attrs() {
				li.SetAttr(a.Key, a.Val)
			}
			content = p
		}
		dom.MoveContentsInto(content, li, 0, 0)
		ul.AppendChild(dom.NewText("\n"))
	}
	dom.Extract(table)

	c.stats.ListsCreated++
	c.log.Debug("Converted bullet table", zap.Int("items", len(rows)))
	return true, nil
}

// soleParagraph returns the <p> that is the only content of cell
func soleParagraph(cell *dom.Element) (*dom.Element, bool) {
	kids := cell.ChildElements()
	if len(kids) != 1 || kids[0].Tag != "p" || dom.HasNonWhitespaceText(cell) {
		return nil, false
	}
	return kids[0], true
}
