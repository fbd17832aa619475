package ingest

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricelist/internal"
)

// parseHTMLTable extracts the first non-trivial <table> from an HTML
// document (suppliers pasting price lists into mail bodies).
func parseHTMLTable(html string) (internal.IngestResult, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return internal.IngestResult{}, fmt.Errorf("parse html: %w", err)
	}

	result := internal.IngestResult{Kind: internal.KindHTMLTable}
	var grid [][]string
	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		rows := table.Find("tr")
		if rows.Length() < 2 {
			return true
		}
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if !rowIsBlank(cells) {
				grid = append(grid, cells)
			}
		})
		return false
	})

	result.Table = tableFromRows(grid)
	return result, nil
}
