package notification

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const dateLayout = "02 Jan 2006"

// MoneyFormatter renders amounts in one currency and locale
type MoneyFormatter struct {
	printer *message.Printer
	unit    currency.Unit
}

// NewMoneyFormatter creates a formatter. Unknown currency codes fall back to INR.
func NewMoneyFormatter(code string, tag language.Tag) MoneyFormatter {
	unit, err := currency.ParseISO(code)
	if err != nil {
		unit = currency.INR
	}
	return MoneyFormatter{printer: message.NewPrinter(tag), unit: unit}
}

// Format renders an amount with two decimals and the currency symbol
func (f MoneyFormatter) Format(amount decimal.Decimal) string {
	value, _ := amount.Round(2).Float64()
	return f.printer.Sprintf("%v %v", currency.Symbol(f.unit), number.Decimal(value, number.Scale(2)))
}

// orderRef is the short reference shown to people
func orderRef(id uuid.UUID) string {
	return "PO-" + strings.ToUpper(id.String()[:8])
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

func render(name string, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
