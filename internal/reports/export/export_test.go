package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/salonledger/salonledger/internal/reports"
)

func TestFilenames(t *testing.T) {
	require.Equal(t, "Cierre_Principal_2025-06-01.pdf", SummaryFilename("Principal", "2025-06-01"))
	require.Equal(t, "Certificado_Propiedad_MagicalHair.pdf", CertificateFilename)
}

func TestLongDate(t *testing.T) {
	require.Equal(t, "5 de Marzo de 2025", LongDate(time.Date(2025, 3, 5, 9, 0, 0, 0, time.UTC)))
	require.Equal(t, "31 de Diciembre de 2024", LongDate(time.Date(2024, 12, 31, 23, 0, 0, 0, time.UTC)))
}

func TestSummaryHTMLEscapesAndLists(t *testing.T) {
	html, err := SummaryHTML(reports.Printable{
		Date:   "2025-06-01",
		Branch: "Principal",
		Rows: []reports.PrintableRow{
			{Stylist: "Monica <b>Lopez</b>", Description: "Tinte rubio", Amount: 100000, Commission: 50000, Kind: "Servicio", PaymentMethod: "Efectivo"},
		},
		Totals: reports.Totals{Sales: 100000, Commission: 50000, Profit: 50000},
	})
	require.NoError(t, err)
	require.Contains(t, html, "Tinte rubio")
	require.Contains(t, html, "Monica &lt;b&gt;Lopez&lt;/b&gt;")
	require.Contains(t, html, "Sede: Principal")
	require.NotContains(t, html, "Sin movimientos registrados.")

	empty, err := SummaryHTML(reports.Printable{Date: "2025-06-02", Branch: "Norte"})
	require.NoError(t, err)
	require.Contains(t, empty, "Sin movimientos registrados.")
}

func TestCertificateHTML(t *testing.T) {
	html, err := CertificateHTML(time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Contains(t, html, "Expedido el 1 de Junio de 2025.")
	require.Contains(t, html, "2025-06-01 10:30:00")
}

func TestMoneyGroupsThousands(t *testing.T) {
	got := Money(1234567)
	require.True(t, strings.HasPrefix(got, "$ "))
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, got)
	require.Equal(t, "1234567", digits)
	require.Greater(t, len(got), len("$ 1234567"))
}
