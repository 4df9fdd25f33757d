// Package export renders reports as printable HTML documents.
package export

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/salonledger/salonledger/internal/reports"
)

// CertificateFilename is the download name of the ownership certificate.
const CertificateFilename = "Certificado_Propiedad_MagicalHair.pdf"

//go:embed templates/*.html
var templateFS embed.FS

var printer = message.NewPrinter(language.MustParse("es-CO"))

var templates = template.Must(
	template.New("export").Funcs(template.FuncMap{"money": Money}).ParseFS(templateFS, "templates/*.html"),
)

var monthNames = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// SummaryFilename names the PDF of a daily closing.
func SummaryFilename(branch, day string) string {
	return fmt.Sprintf("Cierre_%s_%s.pdf", branch, day)
}

// Money formats an amount with Colombian digit grouping and no decimals.
func Money(v float64) string {
	return "$ " + printer.Sprint(number.Decimal(v, number.MaxFractionDigits(0)))
}

// LongDate renders t as "D de <Mes> de YYYY".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// SummaryHTML renders the daily closing document.
func SummaryHTML(p reports.Printable) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "summary.html", p); err != nil {
		return "", fmt.Errorf("export: render summary: %w", err)
	}
	return buf.String(), nil
}

// CertificateHTML renders the ownership certificate issued at now.
func CertificateHTML(now time.Time) (string, error) {
	var buf bytes.Buffer
	data := struct {
		Date        string
		GeneratedAt string
	}{LongDate(now), now.Format("2006-01-02 15:04:05")}
	if err := templates.ExecuteTemplate(&buf, "certificate.html", data); err != nil {
		return "", fmt.Errorf("export: render certificate: %w", err)
	}
	return buf.String(), nil
}
