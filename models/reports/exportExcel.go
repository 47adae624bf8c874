package reports

import (
	"fmt"
	"net/http"

	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"github.com/xuri/excelize/v2"
)

// WritePaymentsReceivedExcel streams the report as an xlsx attachment.
func WritePaymentsReceivedExcel(w http.ResponseWriter, data []*PaymentReceived) error {

	f := excelize.NewFile()
	defer f.Close()

	// Add headers
	f.SetCellValue("Sheet1", "A1", "ReceiptNumber")
	f.SetCellValue("Sheet1", "B1", "PaymentDate")
	f.SetCellValue("Sheet1", "C1", "TenantName")
	f.SetCellValue("Sheet1", "D1", "UnitLabel")
	f.SetCellValue("Sheet1", "E1", "InvoiceNumber")
	f.SetCellValue("Sheet1", "F1", "Method")
	f.SetCellValue("Sheet1", "G1", "Status")
	f.SetCellValue("Sheet1", "H1", "PayerName")
	f.SetCellValue("Sheet1", "I1", "Amount")

	// Add data
	for i, d := range data {
		row := fmt.Sprint(i + 2)
		f.SetCellValue("Sheet1", "A"+row, d.ReceiptNumber)
		f.SetCellValue("Sheet1", "B"+row, d.PaymentDate.Format("2006-01-02"))
		f.SetCellValue("Sheet1", "C"+row, utils.DereferencePtr(d.TenantName, ""))
		f.SetCellValue("Sheet1", "D"+row, utils.DereferencePtr(d.UnitLabel, ""))
		f.SetCellValue("Sheet1", "E"+row, utils.DereferencePtr(d.InvoiceNumber, ""))
		f.SetCellValue("Sheet1", "F"+row, d.Method)
		f.SetCellValue("Sheet1", "G"+row, d.Status)
		f.SetCellValue("Sheet1", "H"+row, d.PayerName)
		f.SetCellValue("Sheet1", "I"+row, d.Amount.String())
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=payments-received.xlsx")
	return f.Write(w)
}
