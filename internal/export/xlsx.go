package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/Billy-Davies-2/adp-draft-board/internal/models"
)

// SheetName is the worksheet holding the exported board
const SheetName = "Board"

// WriteBoardXLSX writes the visible rows of the board as an XLSX workbook.
// Drafted rows are struck through and the best available row is filled green.
func WriteBoardXLSX(w io.Writer, view models.BoardView) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}

	headers := append([]string{"POS", "Player", "Team", "ADP"}, view.Sources...)
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return err
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return err
	}

	draftedStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Strike: true, Color: "808080"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"EEEEEE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	bestStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C6EFCE"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	row := 1
	for _, r := range view.Rows {
		if r.Hidden {
			continue
		}
		row++

		values := []any{r.Position, r.Player, r.Team, adpCell(r.ADP)}
		for _, rank := range r.Ranks {
			values = append(values, rankCell(rank))
		}
		first, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(SheetName, first, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", row, err)
		}

		last, _ := excelize.CoordinatesToCellName(len(headers), row)
		switch {
		case r.BestAvailable:
			err = f.SetCellStyle(SheetName, first, last, bestStyle)
		case r.Drafted:
			err = f.SetCellStyle(SheetName, first, last, draftedStyle)
		}
		if err != nil {
			return err
		}
	}

	if err := f.SetColWidth(SheetName, "B", "B", 28); err != nil {
		return err
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	return f.Write(w)
}

// adpCell keeps ADP numeric in the sheet; unranked players stay blank
func adpCell(adp string) any {
	if v, err := strconv.ParseFloat(adp, 64); err == nil {
		return v
	}
	return adp
}

func rankCell(rank string) any {
	if v, err := strconv.ParseFloat(rank, 64); err == nil {
		return v
	}
	return rank
}
