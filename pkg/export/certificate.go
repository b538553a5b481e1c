package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateData carries the fields printed on a no-dues certificate.
type CertificateData struct {
	StudentName string
	RollNumber  string
	Sport       string
	ReferenceID string
	IssuedAt    time.Time
}

// CertificateRenderer produces no-dues certificates as PDF documents.
type CertificateRenderer struct {
	organization string
}

// NewCertificateRenderer constructs a renderer stamping the given
// organization name on each certificate.
func NewCertificateRenderer(organization string) *CertificateRenderer {
	if organization == "" {
		organization = "Sports Department"
	}
	return &CertificateRenderer{organization: organization}
}

// Render produces the certificate document.
func (r *CertificateRenderer) Render(data CertificateData) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 25, 20)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, r.organization, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 15)
	pdf.CellFormat(0, 10, "NO DUES CERTIFICATE", "", 1, "C", false, 0, "")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 11)
	body := fmt.Sprintf(
		"This is to certify that %s (Roll Number: %s, Sport: %s) has no outstanding sports equipment dues as of %s. All equipment borrowed by the student has been returned and approved.",
		data.StudentName, data.RollNumber, data.Sport, data.IssuedAt.Format("January 2, 2006"),
	)
	pdf.MultiCell(0, 7, body, "", "L", false)
	pdf.Ln(12)

	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 6, fmt.Sprintf("Reference: %s", data.ReferenceID), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued: %s", data.IssuedAt.Format(time.RFC3339)), "", 1, "L", false, 0, "")
	pdf.Ln(18)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(0, 6, "_______________________", "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, "Authorized Signatory", "", 1, "R", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}
