package extract

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/Bhuvaneshwar-bit/Strat-MU-FinAgent-sub001/internal/common"
)

// oleMagic starts every Compound File Binary document: legacy .xls and encrypted .xlsx alike.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// readXLSX reads every sheet of an Office Open XML workbook.
func readXLSX(data []byte, password string) (*Result, error) {
	if bytes.HasPrefix(data, oleMagic) && password == "" {
		// Either a mislabeled legacy workbook or an encrypted one.
		if res, err := readXLS(data); err == nil {
			return res, nil
		}
		return nil, common.ErrPasswordRequired
	}

	f, err := excelize.OpenReader(bytes.NewReader(data), excelize.Options{Password: password})
	if err != nil {
		if errors.Is(err, excelize.ErrWorkbookPassword) {
			return nil, common.ErrIncorrectPassword
		}
		return nil, fmt.Errorf("%w: xlsx: %v", common.ErrUnsupportedDocument, err)
	}
	defer func() { _ = f.Close() }()

	res := &Result{}
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("%w: xlsx sheet %q: %v", common.ErrUnsupportedDocument, sheet, err)
		}
		res.Tables = append(res.Tables, sheetTable(sheet, i+1, rows))
	}
	return res, nil
}

// readXLS reads every sheet of a legacy BIFF workbook.
func readXLS(data []byte) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = nil, fmt.Errorf("%w: xls: %v", common.ErrUnsupportedDocument, r)
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("%w: xls: %v", common.ErrUnsupportedDocument, err)
	}

	res = &Result{}
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}
		var rows [][]string
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		res.Tables = append(res.Tables, sheetTable(sheet.Name, i+1, rows))
	}
	return res, nil
}

func sheetTable(name string, page int, rows [][]string) Table {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		out = append(out, trimCells(row))
	}
	return Table{Name: name, Rows: out, Page: page}
}
