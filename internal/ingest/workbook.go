package ingest

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/extrame/xls"
	"github.com/richardlehane/mscfb"
	"github.com/xuri/excelize/v2"
)

// Inflation limits for workbook archives.
const (
	unzipSizeLimit    int64 = 1 << 30
	unzipXMLSizeLimit int64 = 64 << 20
)

// Legacy workbooks are read into memory whole.
const (
	legacySizeLimit  int64 = 64 << 20
	legacyMaxColumns       = 256
)

// cfbSignature opens every OLE compound file, which is the container of
// BIFF (.xls) workbooks.
var cfbSignature = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// sheetCollector turns the rows of a first sheet into headers and data rows.
// Leading empty rows are ignored. Blank rows between data rows are kept when
// keepBlank is set; trailing blank rows never are.
type sheetCollector struct {
	name      string
	limit     int
	keepBlank bool
	headers   []string
	rows      [][]string
	blanks    int
}

func newSheetCollector(name string, limit int) *sheetCollector {
	return &sheetCollector{name: name, limit: limit, keepBlank: limit >= 0}
}

// add consumes one sheet row and reports whether the limit has been reached.
func (c *sheetCollector) add(cells []string) (bool, error) {
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	if allBlank(cells) {
		if c.headers == nil {
			if len(cells) > 0 {
				return false, parseErr(KindNoHeaders, c.name, nil)
			}
			return false, nil
		}
		if c.keepBlank {
			c.blanks++
		}
		return false, nil
	}
	if c.headers == nil {
		c.headers = cells
		return limitReached(0, c.limit), nil
	}
	for ; c.blanks > 0; c.blanks-- {
		c.rows = append(c.rows, nil)
		if limitReached(len(c.rows), c.limit) {
			return true, nil
		}
	}
	c.rows = append(c.rows, cells)
	return limitReached(len(c.rows), c.limit), nil
}

func (c *sheetCollector) result() ([]string, [][]string, error) {
	if c.headers == nil {
		return nil, nil, parseErr(KindUnreadable, c.name, errors.New("first sheet has no rows"))
	}
	return c.headers, c.rows, nil
}

// readWorkbook reads the first sheet of a workbook. Cells are read as raw
// cached values: formulas are never calculated and no other workbook
// content is interpreted. OLE compound files are read as BIFF workbooks,
// everything else as Office Open XML.
func readWorkbook(ctx context.Context, name string, r io.Reader, limit int) ([]string, [][]string, error) {
	br := bufio.NewReader(r)
	if magic, _ := br.Peek(len(cfbSignature)); bytes.Equal(magic, cfbSignature) {
		return readLegacyWorkbook(ctx, name, br, limit)
	}

	f, err := excelize.OpenReader(br, excelize.Options{
		UnzipSizeLimit:    unzipSizeLimit,
		UnzipXMLSizeLimit: unzipXMLSizeLimit,
	})
	if err != nil {
		return nil, nil, parseErr(KindUnreadable, name, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, parseErr(KindUnreadable, name, errors.New("workbook has no sheets"))
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, nil, parseErr(KindUnreadable, name, err)
	}
	defer rows.Close()

	c := newSheetCollector(name, limit)
	seen := 0
	for rows.Next() {
		seen++
		if seen%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		cells, err := rows.Columns(excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, nil, err
		}
		done, err := c.add(cells)
		if err != nil {
			return nil, nil, err
		}
		if done {
			break
		}
	}
	if err := rows.Error(); err != nil {
		return nil, nil, err
	}
	return c.result()
}

// readLegacyWorkbook reads the first sheet of a BIFF workbook. The compound
// file is checked with mscfb before the BIFF reader sees it, since the
// latter does not bound its sector chains. Formula records are dropped by
// the BIFF reader, so formula cells read as empty.
func readLegacyWorkbook(ctx context.Context, name string, r io.Reader, limit int) ([]string, [][]string, error) {
	data, err := io.ReadAll(io.LimitReader(r, legacySizeLimit+1))
	if err != nil {
		return nil, nil, parseErr(KindUnreadable, name, err)
	}
	if int64(len(data)) > legacySizeLimit {
		return nil, nil, parseErr(KindUnreadable, name, fmt.Errorf("workbook exceeds %d bytes", legacySizeLimit))
	}
	if err := checkCompoundFile(data); err != nil {
		return nil, nil, parseErr(KindUnreadable, name, err)
	}

	sheet, err := openLegacySheet(data)
	if err != nil {
		return nil, nil, parseErr(KindUnreadable, name, err)
	}

	c := newSheetCollector(name, limit)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		if i%1000 == 999 {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
		}
		done, err := c.add(legacyCells(sheet, i))
		if err != nil {
			return nil, nil, err
		}
		if done {
			break
		}
	}
	return c.result()
}

// checkCompoundFile requires a readable Workbook stream.
func checkCompoundFile(data []byte) error {
	doc, err := mscfb.New(bytes.NewReader(data))
	if err != nil {
		return err
	}
	for entry, err := doc.Next(); err == nil; entry, err = doc.Next() {
		if entry.Name != "Workbook" && entry.Name != "Book" {
			continue
		}
		if _, err := io.Copy(io.Discard, entry); err != nil {
			return fmt.Errorf("reading workbook stream: %w", err)
		}
		return nil
	}
	return errors.New("no workbook stream")
}

func openLegacySheet(data []byte) (sheet *xls.WorkSheet, err error) {
	defer func() {
		if p := recover(); p != nil {
			sheet, err = nil, fmt.Errorf("malformed workbook: %v", p)
		}
	}()
	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if wb == nil || wb.NumSheets() == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	sheet = wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("workbook has no sheets")
	}
	return sheet, nil
}

// legacyCells returns the cells of row i, or nil when the row is absent.
func legacyCells(sheet *xls.WorkSheet, i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	row := sheet.Row(i)
	if row == nil {
		return nil
	}
	width := row.LastCol()
	if width <= 0 || width > legacyMaxColumns {
		width = legacyMaxColumns
	}
	cells = make([]string, width)
	for j := range cells {
		cells[j] = row.Col(j)
	}
	last := len(cells)
	for last > 0 && cells[last-1] == "" {
		last--
	}
	return cells[:last]
}
