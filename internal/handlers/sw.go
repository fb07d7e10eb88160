package handlers

import (
	"net/http"

	"carelink-go/web"
)

// ServeServiceWorker serves the worker script at the origin root so its
// registration scope covers the entire app. This is a deployment contract:
// moving the script narrows the scope and breaks push for existing installs.
func ServeServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Service-Worker-Allowed", "/")
	w.Write(web.ServiceWorkerJS)
}
