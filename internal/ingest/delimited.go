package ingest

import "strings"

var delimiterPreference = []rune{'\t', ',', ';'}

// DetectDelimiter scans the first physical record with quote-state tracking
// and returns whichever of tab, comma, semicolon occurs most often outside
// quotes. Ties break tab > comma > semicolon.
func DetectDelimiter(text string) rune {
	counts := map[rune]int{'\t': 0, ',': 0, ';': 0}
	inQuotes := false
	for _, r := range stripBOM(text) {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == '\n' && !inQuotes:
			goto done
		case !inQuotes:
			if _, ok := counts[r]; ok {
				counts[r]++
			}
		}
	}
done:
	best := delimiterPreference[0]
	for _, d := range delimiterPreference[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// ParseDelimited tokenizes the whole text into rows of cells: doubled quotes
// inside a quoted field collapse to a literal quote, newlines inside quotes
// stay part of the cell, entirely blank rows are dropped.
func ParseDelimited(text string, delimiter rune) [][]string {
	text = strings.ReplaceAll(stripBOM(text), "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	rows := make([][]string, 0)
	row := make([]string, 0)
	var cell strings.Builder
	inQuotes := false

	flushCell := func() {
		row = append(row, cell.String())
		cell.Reset()
	}
	flushRow := func() {
		flushCell()
		if !rowIsBlank(row) {
			rows = append(rows, row)
		}
		row = make([]string, 0)
	}

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cell.WriteRune('"')
				i++
			} else {
				inQuotes = !inQuotes
			}
		case r == delimiter && !inQuotes:
			flushCell()
		case r == '\n' && !inQuotes:
			flushRow()
		default:
			cell.WriteRune(r)
		}
	}
	if cell.Len() > 0 || len(row) > 0 {
		flushRow()
	}

	return rows
}

func stripBOM(text string) string {
	return strings.TrimPrefix(text, "﻿")
}

func rowIsBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
