// Package report filters the sales history and exports it as CSV or XLSX.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"bistrogest/internal/models"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	sheetName      = "Ventes"
	walkInCustomer = "Comptoir"
	noTable        = "-"
	dateLayout     = "02/01/2006"
	timeLayout     = "15:04:05"
	utf8BOM        = "\ufeff"
	csvSeparator   = ';'
)

var Headers = []string{"Date", "Heure", "Ticket", "Client", "Table", "Total_FCFA", "Paiement", "Caissier"}

// Filter keeps sales whose ticket, table, customer, transaction id or any
// product name contains q (case-insensitive). An empty q keeps everything.
func Filter(sales []models.Sale, q string) []models.Sale {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return sales
	}

	out := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		if matches(s, q) {
			out = append(out, s)
		}
	}
	return out
}

func matches(s models.Sale, q string) bool {
	for _, f := range []string{s.TransactionID, s.OrderNumber, s.TableNumber, s.CustomerName} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	for _, it := range s.Items {
		if strings.Contains(strings.ToLower(it.ProductName), q) {
			return true
		}
	}
	return false
}

// Range keeps sales with from <= timestamp < to. Zero bounds are open.
func Range(sales []models.Sale, from, to time.Time) []models.Sale {
	if from.IsZero() && to.IsZero() {
		return sales
	}
	out := make([]models.Sale, 0, len(sales))
	for _, s := range sales {
		if !from.IsZero() && s.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && !s.Timestamp.Before(to) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func Total(sales []models.Sale) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range sales {
		sum = sum.Add(s.Total)
	}
	return sum
}

func row(s models.Sale, loc *time.Location) []string {
	t := s.Timestamp.In(loc)
	customer := s.CustomerName
	if customer == "" {
		customer = walkInCustomer
	}
	table := s.TableNumber
	if table == "" {
		table = noTable
	}
	return []string{
		t.Format(dateLayout),
		t.Format(timeLayout),
		s.OrderNumber,
		customer,
		table,
		s.Total.String(),
		string(s.PaymentMethod),
		s.ManagedBy,
	}
}

// WriteCSV writes a UTF-8 BOM, the header line and one line per sale, ';' separated.
func WriteCSV(w io.Writer, sales []models.Sale, loc *time.Location) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	cw.Comma = csvSeparator
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, s := range sales {
		if err := cw.Write(row(s, loc)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the same columns as the CSV plus a closing total row.
func WriteXLSX(w io.Writer, sales []models.Sale, loc *time.Location) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return err
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, "A1", "H1", bold); err != nil {
		return err
	}

	for i, s := range sales {
		cells := row(s, loc)
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		values[5] = s.Total.InexactFloat64()

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return err
		}
	}

	totalRow := len(sales) + 2
	if err := f.SetCellValue(sheetName, fmt.Sprintf("E%d", totalRow), "TOTAL"); err != nil {
		return err
	}
	if err := f.SetCellValue(sheetName, fmt.Sprintf("F%d", totalRow), Total(sales).InexactFloat64()); err != nil {
		return err
	}
	if err := f.SetCellStyle(sheetName, fmt.Sprintf("E%d", totalRow), fmt.Sprintf("F%d", totalRow), bold); err != nil {
		return err
	}
	if err := f.SetColWidth(sheetName, "A", "H", 16); err != nil {
		return err
	}

	return f.Write(w)
}

// FileName is Ventes_<bistro>_<yyyy-mm-dd>.<ext>.
func FileName(bistroName, ext string, t time.Time) string {
	name := strings.NewReplacer(" ", "_", "/", "_", `\`, "_").Replace(strings.TrimSpace(bistroName))
	if name == "" {
		name = "Bistro"
	}
	return fmt.Sprintf("Ventes_%s_%s.%s", name, t.Format("2006-01-02"), ext)
}
