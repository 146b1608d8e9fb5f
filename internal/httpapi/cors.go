package httpapi

import (
	"net/http"
	"net/url"

	"github.com/go-chi/cors"
)

// CORS allows the listed origins to call the rooms API from a browser.
func CORS(allow []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: allow,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	})
}

// OriginHosts turns "https://host:port" origins into the host patterns the
// websocket handshake matches against.
func OriginHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			if o != "" {
				hosts = append(hosts, o)
			}
			continue
		}
		hosts = append(hosts, u.Host)
	}
	return hosts
}
