// Package views renders the HTML pages as templ components.
package views

//go:generate templ generate

import (
	"context"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	appI18n "github.com/medrank/tracker/internal/i18n"
	"github.com/medrank/tracker/internal/model"
)

// Path prefixes an absolute application path with the request's base path.
func Path(ctx context.Context, p string) string {
	bp := model.BasePathFromContext(ctx)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return bp + p
}

func href(ctx context.Context, p string) templ.SafeURL {
	return templ.URL(Path(ctx, p))
}

func t(ctx context.Context, id string) string {
	return appI18n.T(ctx, id)
}

// tv translates a message that takes a single Value argument.
func tv(ctx context.Context, id, value string) string {
	return appI18n.Td(ctx, id, map[string]any{"Value": value})
}

func csrfToken(ctx context.Context) string {
	return model.CSRFTokenFromContext(ctx)
}

func navClass(tab, name string) string {
	if tab == name {
		return "active"
	}
	return ""
}

func pct(n int) string {
	return strconv.Itoa(n) + "%"
}

// mark prints a mark without trailing zeros, e.g. 2.5 or 200.
func mark(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
