package notify

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// emailView is the data every notice email renders.
type emailView struct {
	Heading string
	Lines   []string
	Action  string
	URL     string
	Footer  string
}

func emailLayout(v emailView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		esc := templ.EscapeString[string]
		parts := []string{
			`<!DOCTYPE html><html><body style="font-family:Arial,sans-serif;color:#1f2933">`,
			`<h1 style="font-size:20px">` + esc(v.Heading) + `</h1>`,
		}
		for _, line := range v.Lines {
			parts = append(parts, `<p>`+esc(line)+`</p>`)
		}
		switch {
		case v.Action == "":
		case v.URL != "":
			parts = append(parts, `<p><a href="`+esc(v.URL)+`" style="color:#0b7285">`+esc(v.Action)+`</a></p>`)
		default:
			parts = append(parts, `<p><strong>`+esc(v.Action)+`</strong></p>`)
		}
		if v.Footer != "" {
			parts = append(parts, `<p style="font-size:12px;color:#7b8794">`+esc(v.Footer)+`</p>`)
		}
		parts = append(parts, `</body></html>`)

		for _, p := range parts {
			if _, err := io.WriteString(w, p); err != nil {
				return err
			}
		}
		return nil
	})
}
