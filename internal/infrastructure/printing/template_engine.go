package printing

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/ech/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templateFS embed.FS

// Embedded templates
const (
	TemplateDocument     = "document"
	TemplateMissionOrder = "mission_order"
)

// CurrencySuffix follows every printed amount
const CurrencySuffix = "DA"

var (
	frenchDigits = message.NewPrinter(language.French)
	frenchUpper  = cases.Upper(language.French)
	// CLDR groups French digits with (narrow) no-break spaces
	plainSpaces = strings.NewReplacer("\u00a0", " ", "\u202f", " ")
)

// TemplateEngine fills the embedded HTML layouts
type TemplateEngine struct {
	templates *template.Template
}

// NewTemplateEngine parses the embedded layouts
func NewTemplateEngine() (*TemplateEngine, error) {
	funcs := template.FuncMap{
		"formatMoney":    FormatMoney,
		"formatDate":     FormatDate,
		"formatDateTime": FormatDateTime,
		"upper":          frenchUpper.String,
		"join":           strings.Join,
		"default":        orDefault,
		"isNumeric":      isNumeric,
	}
	tmpl, err := template.New("printing").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, NewRenderError(ErrCodeInvalidHTML, "parse embedded templates", err)
	}
	return &TemplateEngine{templates: tmpl}, nil
}

// Render executes the embedded template called name
func (e *TemplateEngine) Render(name string, data any) (string, error) {
	if e.templates.Lookup(name) == nil {
		return "", NewRenderError(ErrCodeInvalidHTML, "no template named "+name, nil)
	}
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", NewRenderError(ErrCodeRenderFailed, "execute template "+name, err)
	}
	return buf.String(), nil
}

// RenderDocument lays out a report or receipt
func (e *TemplateEngine) RenderDocument(doc *Document) (string, error) {
	return e.Render(TemplateDocument, doc)
}

// RenderMissionOrder lays out a mission order
func (e *TemplateEngine) RenderMissionOrder(mo *MissionOrder) (string, error) {
	return e.Render(TemplateMissionOrder, mo)
}

// FormatMoney prints an amount with the currency: 1234.5 -> "1 234,50 DA"
func FormatMoney(v any) string {
	return FormatAmount(v) + " " + CurrencySuffix
}

// FormatAmount prints an amount rounded to the centime with French digit
// grouping and a decimal comma: -1234567.891 -> "-1 234 567,89"
func FormatAmount(v any) string {
	d := toDecimal(v).Round(2)
	var sign string
	if d.IsNegative() {
		sign, d = "-", d.Abs()
	}
	units := d.Truncate(0)
	centimes := d.Sub(units).Shift(2).IntPart()
	return fmt.Sprintf("%s%s,%02d", sign, plainSpaces.Replace(frenchDigits.Sprintf("%d", units.IntPart())), centimes)
}

// FormatDate prints dd/mm/yyyy, nothing for a zero or nil date
func FormatDate(v any) string {
	return formatTime(v, "02/01/2006")
}

// FormatDateTime prints dd/mm/yyyy hh:mm
func FormatDateTime(v any) string {
	return formatTime(v, "02/01/2006 15:04")
}

func formatTime(v any, layout string) string {
	if t := toTime(v); !t.IsZero() {
		return t.Format(layout)
	}
	return ""
}

// orDefault returns def when val is nil or an empty string
func orDefault(val, def any) any {
	if s, ok := val.(string); val == nil || (ok && s == "") {
		return def
	}
	return val
}

// isNumeric reports whether column i holds amounts
func isNumeric(cols []Column, i int) bool {
	return i >= 0 && i < len(cols) && cols[i].Numeric
}

func toDecimal(v any) decimal.Decimal {
	switch val := v.(type) {
	case valueobject.Money:
		return val.Amount()
	case *valueobject.Money:
		if val != nil {
			return val.Amount()
		}
	case decimal.Decimal:
		return val
	case *decimal.Decimal:
		if val != nil {
			return *val
		}
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case float64:
		return decimal.NewFromFloat(val)
	case string:
		if d, err := decimal.NewFromString(val); err == nil {
			return d
		}
	}
	return decimal.Zero
}

func toTime(v any) time.Time {
	switch val := v.(type) {
	case time.Time:
		return val
	case *time.Time:
		if val != nil {
			return *val
		}
	case string:
		for _, layout := range []string{time.RFC3339, time.DateTime, time.DateOnly} {
			if t, err := time.Parse(layout, val); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
