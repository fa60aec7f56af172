package render

import (
	"html/template"

	"github.com/ziadkadry99/folio/internal/content"
)

// Item markup per category. Text goes through text, URLs through url and
// rich text through rich; attribute values are escaped by html/template.
var itemTemplates = map[content.Category]string{
	content.Projects: `
<div class="col-md-6 mb-4">
  <div class="item-card h-100">
    {{- if .image}}
    <img src="{{url .image}}" class="project-img" alt="{{str .title}}">
    {{- end}}
    <h5><a href="{{url .link}}" target="_blank" rel="noopener noreferrer">{{text .title}}</a></h5>
    <div class="card-text">{{rich .description}}</div>
    <small class="text-muted d-block mt-2">{{text .date}}</small>
  </div>
</div>`,

	content.Talks: `
<div class="col-md-6 mb-4">
  <div class="item-card h-100">
    <h5><a href="{{url .link}}" target="_blank" rel="noopener noreferrer">{{text .title}}</a></h5>
    {{- if .image}}
    <img src="{{url .image}}" class="img-fluid rounded mb-3 mt-2 talk-img" alt="{{str .title}}">
    {{- else}}
    <div class="bg-light d-flex align-items-center justify-content-center rounded mb-3 mt-2 talk-img-placeholder"><i class="fas fa-image fa-2x text-muted"></i></div>
    {{- end}}
    <div class="card-text">{{rich .description}}</div>
  </div>
</div>`,

	content.Papers: `
<div class="item-card d-flex flex-column flex-md-row gap-3">
  <div class="item-date text-muted">{{with str .date}}{{text .}}{{else}}Year{{end}}</div>
  <div>
    <h5>{{if .link}}<a href="{{url .link}}" target="_blank" rel="noopener noreferrer">{{text .title}}</a>{{else}}{{text .title}}{{end}}</h5>
    <p class="mb-1"><strong>{{text .authors}}</strong></p>
    <p class="mb-0 text-muted"><em>{{text .venue}}</em></p>
  </div>
</div>`,

	content.Music: `
<div class="item-card">
  <h5>{{text .title}}</h5>
  <div>{{rich .content}}</div>
</div>`,

	content.News: `
<div class="mb-4 pb-3 border-bottom">
  <div class="row align-items-start">
    {{- if .image}}
    <div class="col-md-3 mb-3 mb-md-0">
      <img src="{{url .image}}" class="img-fluid rounded shadow-sm news-img" alt="{{str .title}}">
    </div>
    {{- end}}
    <div class="{{if .image}}col-md-9{{else}}col-12{{end}}">
      <div class="d-flex align-items-center mb-2">
        <span class="badge bg-secondary me-2">{{text .date}}</span>
        <h5 class="mb-0"><strong>{{text .title}}</strong></h5>
      </div>
      {{- if .description}}
      <p class="mb-2">{{rich .description}}</p>
      {{- end}}
      {{- if .link}}
      <a href="{{url .link}}" target="_blank" rel="noopener noreferrer" class="btn btn-sm btn-outline-primary mt-1">Read More <i class="fas fa-external-link-alt"></i></a>
      {{- end}}
    </div>
  </div>
</div>`,

	content.Experience: `
<div class="timeline-item">
  <div class="timeline-date">{{text .date}}</div>
  <div class="timeline-logo-container">
    {{- if .logo}}
    <img src="{{url .logo}}" class="timeline-logo" alt="Logo">
    {{- else}}
    <div class="timeline-logo timeline-logo-empty"></div>
    {{- end}}
  </div>
  <div class="timeline-content">
    <h5>{{text .title}}</h5>
    <div>{{rich .description}}</div>
  </div>
</div>`,
}

func parseTemplates(s *Sanitizer) (map[content.Category]*template.Template, error) {
	funcs := template.FuncMap{
		"str": content.FormatValue,
		"text": func(v any) template.HTML {
			return template.HTML(EscapeText(content.FormatValue(v)))
		},
		"url": func(v any) template.URL {
			return template.URL(SanitizeURL(content.FormatValue(v)))
		},
		"rich": func(v any) template.HTML {
			return template.HTML(s.HTML(content.FormatValue(v)))
		},
	}

	out := make(map[content.Category]*template.Template, len(itemTemplates))
	for cat, src := range itemTemplates {
		t, err := template.New(string(cat)).Option("missingkey=zero").Funcs(funcs).Parse(src)
		if err != nil {
			return nil, err
		}
		out[cat] = t
	}
	return out, nil
}
