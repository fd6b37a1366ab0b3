package notify

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dmitrymomot/predictvip/pkg/subscription"
)

var defaultLanguage = language.English

// formatter renders prices, dates and plan names for one locale.
type formatter struct {
	printer *message.Printer
	title   cases.Caser
}

func newFormatter(tag language.Tag) formatter {
	return formatter{
		printer: message.NewPrinter(tag),
		title:   cases.Title(tag),
	}
}

// price renders minor units as "NGN 8,500.00".
func (f formatter) price(m subscription.Money) string {
	return f.printer.Sprintf("%s %.2f", m.Currency, m.Major())
}

func (f formatter) date(t time.Time) string {
	return t.UTC().Format("2 January 2006")
}

func (f formatter) days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return f.printer.Sprintf("%d days", n)
}

// planName prefers the catalog label and falls back to a readable plan id.
func (f formatter) planName(catalog *subscription.Catalog, planType string) string {
	if catalog != nil {
		if p, ok := catalog.Lookup(planType); ok && p.Label != "" {
			return p.Label
		}
	}
	return f.title.String(strings.ReplaceAll(planType, "_", " "))
}
