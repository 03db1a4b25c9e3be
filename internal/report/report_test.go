package report

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"bistrogest/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var day = time.Date(2024, 6, 14, 20, 30, 5, 0, time.UTC)

func sampleSales() []models.Sale {
	return []models.Sale{
		{
			ID: "b", OrderNumber: "CMD-002", Timestamp: day.Add(time.Hour), CustomerName: "Jean", TableNumber: "7",
			Items:         models.SaleItems{{ProductName: "Castel 65cl", Quantity: 2}},
			Total:         decimal.NewFromInt(1400),
			PaymentMethod: models.PaymentAirtelMoney, TransactionID: "AM-42", ManagedBy: "Moussa Nguema",
		},
		{
			ID: "a", OrderNumber: "CMD-001", Timestamp: day,
			Items:         models.SaleItems{{ProductName: "Regab 65cl", Quantity: 5}},
			Total:         decimal.NewFromInt(3000),
			PaymentMethod: models.PaymentCash, ManagedBy: "Admin",
		},
	}
}

type fakeSource struct{ sales []models.Sale }

func (f fakeSource) Sales() []models.Sale { return f.sales }
func (f fakeSource) Settings() models.Settings { return models.Settings{BistroName: "Chez Awa"} }

func TestFilter(t *testing.T) {
	sales := sampleSales()
	assert.Len(t, Filter(sales, ""), 2)
	assert.Len(t, Filter(sales, "regab"), 1)
	assert.Len(t, Filter(sales, "am-42"), 1)
	assert.Len(t, Filter(sales, "cmd-00"), 2)
	assert.Len(t, Filter(sales, " JEAN "), 1)
	assert.Empty(t, Filter(sales, "pizza"))
}

func TestRange(t *testing.T) {
	sales := sampleSales()
	got := Range(sales, day.Add(30*time.Minute), time.Time{})
	require.Len(t, got, 1)
	assert.Equal(t, "CMD-002", got[0].OrderNumber)
	assert.Len(t, Range(sales, time.Time{}, day.Add(time.Hour)), 1)
}

func TestWriteCSV(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteCSV(buf, sampleSales(), time.UTC))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "\ufeffDate;Heure;Ticket;Client;Table;Total_FCFA;Paiement;Caissier\n"))
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "14/06/2024;21:30:05;CMD-002;Jean;7;1400;Airtel Money;Moussa Nguema", lines[1])
	assert.Equal(t, "14/06/2024;20:30:05;CMD-001;Comptoir;-;3000;Espèces;Admin", lines[2])
}

func TestWriteXLSX(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, WriteXLSX(buf, sampleSales(), time.UTC))

	f, err := excelize.OpenReader(buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, Headers, rows[0])
	assert.Equal(t, "CMD-001", rows[2][2])
	assert.Equal(t, "TOTAL", rows[3][4])
	assert.Equal(t, "4400", rows[3][5])
}

func TestExportHandlers(t *testing.T) {
	src := fakeSource{sales: sampleSales()}
	app := fiber.New()
	app.Get("/sales", ListSalesHandler(src, time.UTC))
	app.Get("/sales/:id", GetSaleHandler(src))
	app.Get("/sales.csv", ExportCSVHandler(src, time.UTC))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/sales.csv?q=castel", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get(fiber.HeaderContentDisposition), "Ventes_Chez_Awa_")

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sales.csv?q=pizza", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sales?from=2024-06-15", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sales?from=15-06-2024", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/sales/CMD-002", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
