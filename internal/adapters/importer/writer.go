package importer

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/okian/admetrics/internal/domain/model"
)

const sheetName = "History"

func record(d model.CampaignDay) []string {
	return []string{
		d.Date.Format(dateLayout),
		d.Channel,
		strconv.FormatFloat(d.Spend, 'f', 2, 64),
		strconv.FormatInt(d.Impressions, 10),
		strconv.FormatInt(d.Clicks, 10),
		strconv.FormatInt(d.Conversions, 10),
		strconv.FormatFloat(d.Revenue, 'f', 2, 64),
		d.ID,
	}
}

// WriteFile writes days to an .xlsx or .csv file with the canonical header.
func WriteFile(path string, days []model.CampaignDay) error {
	format, err := Format(path)
	if err != nil {
		return err
	}
	if format == "xlsx" {
		return writeXLSX(path, days)
	}
	return writeCSV(path, days)
}

func writeCSV(path string, days []model.CampaignDay) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(Columns); err != nil {
		return err
	}
	for _, d := range days {
		if err := w.Write(record(d)); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeXLSX(path string, days []model.CampaignDay) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	header := make([]any, len(Columns))
	for i, c := range Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	for i, d := range days {
		cellName, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{
			d.Date.Format(dateLayout), d.Channel, d.Spend,
			d.Impressions, d.Clicks, d.Conversions, d.Revenue, d.ID,
		}
		if err := f.SetSheetRow(sheetName, cellName, &row); err != nil {
			return err
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save xlsx: %w", err)
	}
	return nil
}
