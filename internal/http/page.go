package http

import (
	"bytes"
	"embed"
	"html/template"
	"io"
	"net/url"

	"github.com/yuin/goldmark"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/controls"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dashboard"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"markdown": markdown,
	"chartURL": chartURL,
}).ParseFS(templateFS, "templates/dashboard.html"))

// pageView is the template input: the rendered page plus the widget option lists.
type pageView struct {
	dashboard.Page
	Sentiments []models.Sentiment
	Airlines   []string
	VizKinds   []vizOption
}

type vizOption struct {
	Kind  controls.VizKind
	Label string
}

var vizOptions = []vizOption{
	{controls.VizBar, "Histogram"},
	{controls.VizPie, "Pie Chart"},
}

func writePage(w io.Writer, page dashboard.Page) error {
	return pageTemplate.Execute(w, pageView{
		Page:       page,
		Sentiments: models.Sentiments,
		Airlines:   models.Airlines,
		VizKinds:   vizOptions,
	})
}

// markdown renders src with goldmark. Raw HTML in src is escaped, so post bodies are safe to pass.
func markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

func chartURL(view dashboard.View, state controls.State) string {
	return "/charts/" + url.PathEscape(string(view)) + "?" + state.Values().Encode()
}
