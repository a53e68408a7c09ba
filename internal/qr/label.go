package qr

import (
	"bytes"
	"fmt"
	"image/png"

	"odl-backend/internal/models"
	"odl-backend/internal/timeutil"

	"github.com/boombuler/barcode"
	qrenc "github.com/boombuler/barcode/qr"
	"github.com/jung-kurt/gofpdf/v2"
)

// QRImage renders an encoded token as a PNG at size x size pixels.
func QRImage(token string, size int) ([]byte, error) {
	code, err := qrenc.Encode(token, qrenc.M, qrenc.Auto)
	if err != nil {
		return nil, fmt.Errorf("qr encode failed: %w", err)
	}

	code, err = barcode.Scale(code, size, size)
	if err != nil {
		return nil, fmt.Errorf("qr scale failed: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, code); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// LabelPDF renders the printable A6 label attached to the physical
// work order sheet: order number, part number and the scannable code.
func LabelPDF(order *models.WorkOrder, token string) ([]byte, error) {
	img, err := QRImage(token, 300)
	if err != nil {
		return nil, err
	}

	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetMargins(8, 8, 8)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.CellFormat(89, 10, fmt.Sprintf("ODL %s", order.OrderNumber), "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(89, 6, fmt.Sprintf("Part: %s", order.PartNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(89, 6, fmt.Sprintf("Qty: %d    Priority: %s", order.Quantity, order.Priority), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	opts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(img))
	pdf.ImageOptions("qr", 22.5, pdf.GetY(), 60, 60, false, opts, 0, "")

	pdf.SetY(pdf.GetY() + 64)
	pdf.SetFont("Arial", "", 8)
	pdf.CellFormat(89, 5, fmt.Sprintf("Printed: %s", timeutil.Now().Format(timeutil.DateTimeLayout)), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
