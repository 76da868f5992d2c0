package printing

import (
	"strings"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEngine(t *testing.T) *TemplateEngine {
	t.Helper()
	engine, err := NewTemplateEngine()
	require.NoError(t, err)
	return engine
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{valueobject.MustMoney("1234.56"), "1 234,56"},
		{valueobject.MustMoney("0"), "0,00"},
		{"999.999", "1 000,00"},
		{decimal.RequireFromString("-1234567.891"), "-1 234 567,89"},
		{int64(1500), "1 500,00"},
		{"12.5", "12,50"},
		{nil, "0,00"},
		{"not a number", "0,00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatAmount(tt.in), "%v", tt.in)
	}
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "1 234,56 DA", FormatMoney(valueobject.MustMoney("1234.56")))
	m := valueobject.MustMoney("75000")
	assert.Equal(t, "75 000,00 DA", FormatMoney(&m))
	assert.Equal(t, "0,00 DA", FormatMoney((*valueobject.Money)(nil)))
}

func TestFormatDates(t *testing.T) {
	at := time.Date(2025, 3, 7, 14, 5, 0, 0, time.UTC)
	assert.Equal(t, "07/03/2025", FormatDate(at))
	assert.Equal(t, "07/03/2025 14:05", FormatDateTime(at))
	assert.Equal(t, "07/03/2025", FormatDate(&at))
	assert.Equal(t, "", FormatDate(time.Time{}))
	assert.Equal(t, "", FormatDate((*time.Time)(nil)))
	assert.Equal(t, "07/03/2025", FormatDate("2025-03-07"))
	assert.Equal(t, "07/03/2025 14:05", FormatDateTime("2025-03-07 14:05:00"))
	assert.Equal(t, "", FormatDate("hier"))
}

func TestOrDefault(t *testing.T) {
	assert.Equal(t, "Caisse", orDefault("", "Caisse"))
	assert.Equal(t, "Caisse", orDefault(nil, "Caisse"))
	assert.Equal(t, "ECH", orDefault("ECH", "Caisse"))
}

func TestIsNumeric(t *testing.T) {
	cols := []Column{{Title: "Libellé"}, {Title: "Montant", Numeric: true}}
	assert.False(t, isNumeric(cols, 0))
	assert.True(t, isNumeric(cols, 1))
	assert.False(t, isNumeric(cols, 5))
}

func TestTemplateEngine_RenderDocument(t *testing.T) {
	engine := newEngine(t)

	table := Table{
		Title:   "Opérations",
		Columns: []Column{{Title: "N°"}, {Title: "Libellé"}, {Title: "Montant", Numeric: true}},
		Footer:  []string{"", "Total", "1 300,00 DA"},
	}
	table.AddRow("OP001", "Apport <initial>", FormatMoney("1000"))
	table.AddRow("OP002", "Ciment", FormatMoney("300"))

	html, err := engine.RenderDocument(&Document{
		Title:       "Historique de caisse",
		Number:      "H-1",
		Fields:      []Field{{Label: "Période", Value: "01/01/2025 - 31/01/2025"}},
		Tables:      []Table{table, {Title: "Vide", Columns: []Column{{Title: "A"}}}},
		Totals:      []Field{{Label: "Solde", Value: "700,00 DA", Strong: true}},
		Signatures:  []string{"Le Caissier"},
		GeneratedAt: time.Date(2025, 2, 1, 9, 30, 0, 0, time.UTC),
		GeneratedBy: "Amine",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "HISTORIQUE DE CAISSE")
	assert.Contains(t, html, "N° H-1")
	assert.Contains(t, html, "Caisse", "organisation falls back to the default name")
	assert.Contains(t, html, `<td class="num">1 000,00 DA</td>`)
	assert.Contains(t, html, "Apport &lt;initial&gt;")
	assert.Contains(t, html, "Aucune donnée")
	assert.Contains(t, html, `<td class="strong">700,00 DA</td>`)
	assert.Contains(t, html, "Le Caissier")
	assert.Contains(t, html, "Édité le 01/02/2025 09:30 par Amine")
}

func TestTemplateEngine_RenderMissionOrder(t *testing.T) {
	engine := newEngine(t)
	back := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)

	html, err := engine.RenderMissionOrder(&MissionOrder{
		Number:        "OM-2025-004",
		FullName:      "Benali Karim",
		Function:      "Chauffeur",
		Destination:   "Oran",
		Purpose:       "Livraison de matériaux",
		Transport:     "Camion",
		Registrations: []string{"12345-116-16", "5678-110-31"},
		Departure:     time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		Return:        &back,
		IssuedAt:      time.Date(2025, 5, 9, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	assert.Contains(t, html, "N° OM-2025-004")
	assert.Contains(t, html, "BENALI KARIM")
	assert.Contains(t, html, "12345-116-16 / 5678-110-31")
	assert.Contains(t, html, "10/05/2025")
	assert.Contains(t, html, "12/05/2025")
	assert.NotContains(t, html, "Accompagné de")
}

func TestTemplateEngine_UnknownTemplate(t *testing.T) {
	_, err := newEngine(t).Render("invoice", nil)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, ErrCodeInvalidHTML, renderErr.Code)
}
