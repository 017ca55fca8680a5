// analytics.go — экран аналитики со встроенным dashboard.
package pages

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/bigkaa/golms/web-module/internal/ui/i18n"
)

// AnalyticsData — данные экрана аналитики.
type AnalyticsData struct {
	UserName string
	Links    []NavLink
	// IframeURL — подписанный URL встраиваемого dashboard; пусто если
	// backend не смог его выдать.
	IframeURL string
}

// Analytics — экран аналитики: iframe с внешним dashboard.
func Analytics(data AnalyticsData) templ.Component {
	content := templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>%s</h1>`,
			templ.EscapeString(i18n.T(ctx, "analytics.title"))); err != nil {
			return err
		}

		if data.IframeURL == "" {
			_, err := fmt.Fprintf(w, `<div class="alert alert-error">%s</div>`,
				templ.EscapeString(i18n.T(ctx, "analytics.unavailable")))
			return err
		}

		_, err := fmt.Fprintf(w, `<div class="iframe-wrap"><iframe src="%s" loading="lazy" referrerpolicy="no-referrer"></iframe></div>
`,
			templ.EscapeString(data.IframeURL))
		return err
	})

	return page(LayoutData{
		TitleKey: "analytics.title",
		UserName: data.UserName,
		Links:    data.Links,
	}, content)
}
