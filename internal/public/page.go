package public

import "html/template"

var pageTemplate = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/bootstrap@5.3.3/dist/css/bootstrap.min.css">
<style>
.item-card { padding: 1rem; border: 1px solid #e5e5e5; border-radius: .5rem; background: #fff; }
.project-img { width: 100%; max-height: 220px; object-fit: cover; border-radius: .25rem; margin-bottom: .75rem; }
.talk-img, .talk-img-placeholder { height: 200px; width: 100%; object-fit: cover; }
.timeline { border-left: 2px solid #ddd; padding-left: 1.5rem; }
.timeline-item { display: flex; gap: 1rem; margin-bottom: 1.5rem; }
.timeline-date { min-width: 8rem; color: #6c757d; }
.timeline-logo { width: 48px; height: 48px; border-radius: 50%; object-fit: contain; }
.timeline-logo-empty { background: #ddd; }
</style>
</head>
<body>
<main class="container py-5">
<header class="mb-5">
<h1>{{.Title}}</h1>
{{with .Intro}}<div class="intro">{{.}}</div>{{end}}
</header>
{{range .Sections}}
<section class="mb-5" data-category="{{.Container.Category}}">
<h2 class="mb-4">{{.Heading}}</h2>
<div id="{{.Container.ID}}" class="{{if .Timeline}}timeline{{else if .Row}}row{{end}}">{{.Container.HTML}}</div>
</section>
{{end}}
</main>
<script>
document.querySelectorAll("section[data-category]").forEach(function (s) {
  var cat = s.dataset.category;
  fetch("/api/sections/" + encodeURIComponent(cat))
    .then(function (r) { return r.ok ? r.json() : null; })
    .then(function (c) {
      if (!c) return;
      var el = document.getElementById(c.id);
      if (el) el.innerHTML = c.html;
    })
    .catch(function () {});
});
</script>
</body>
</html>
`))
