// Package web holds the browser-side assets. The service worker script is
// embedded so it can be served from the origin root with the
// Service-Worker-Allowed header regardless of the static file layout.
package web

import _ "embed"

//go:embed static/sw.js
var ServiceWorkerJS []byte
