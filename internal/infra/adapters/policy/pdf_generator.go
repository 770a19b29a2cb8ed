package policy

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"telegram-insurance-bot/internal/domain"
	"telegram-insurance-bot/internal/domain/ports/adapter"
)

// Compile-time assurance this adapter satisfies the port
var _ adapter.PolicyGenerator = (*PDFGenerator)(nil)

// PDFGenerator renders the car insurance policy document.
type PDFGenerator struct{}

func NewPDFGenerator() *PDFGenerator {
	return &PDFGenerator{}
}

func (g *PDFGenerator) Generate(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	issued := time.Now().UTC().Format("2006-01-02")

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(18, 18, 18)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "Car Insurance Policy", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 12)
	pdf.MultiCell(0, 8, "This dummy policy covers the insured vehicle against accidents and theft.", "", "L", false)
	pdf.MultiCell(0, 8, fmt.Sprintf("Issued: %s", issued), "", "L", false)

	pdf.SetY(-30)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("Generated on %s.", issued), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: render pdf: %w", domain.ErrGenerationFailed, err)
	}
	return buf.Bytes(), nil
}
