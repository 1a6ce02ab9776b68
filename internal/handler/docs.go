package handler

import (
	"crypto/sha256"
	"encoding/hex"
	"html/template"
	"log/slog"
	"net/http"
)

// ServeSpec serves a static API document. The ETag is derived from the
// document so clients can revalidate cheaply.
func ServeSpec(contentType string, spec []byte) http.HandlerFunc {
	sum := sha256.Sum256(spec)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "public, max-age=300")
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Write(spec)
	}
}

type docsPage struct {
	Title   string
	SpecURL string
}

var docsTemplate = template.Must(template.New("docs").Parse(swaggerHTML))

// ServeDocs renders Swagger UI over specURL. Requests sent from the page
// other than GET get a fresh Idempotency-Key unless one was typed in.
func ServeDocs(title, specURL string) http.HandlerFunc {
	page := docsPage{Title: title, SpecURL: specURL}

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := docsTemplate.Execute(w, page); err != nil {
			slog.Error("failed to render docs page", "error", err)
		}
	}
}

const swaggerHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: {{.SpecURL}},
      dom_id: "#swagger-ui",
      persistAuthorization: true,
      requestInterceptor: function (req) {
        var method = (req.method || "GET").toUpperCase();
        if (method !== "GET" && !req.headers["Idempotency-Key"]) {
          req.headers["Idempotency-Key"] = crypto.randomUUID();
        }
        return req;
      },
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: "BaseLayout"
    });
  </script>
</body>
</html>`
