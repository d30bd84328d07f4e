// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import "net/http"

// apiCSP allows nothing to load or frame a response. The API only returns
// JSON, so no document served from it should ever render.
const apiCSP = "default-src 'none'; frame-ancestors 'none'"

// SecureHeaders adds the response headers every API reply carries.
// Responses hold session-scoped catalog data and must not be stored by
// browsers or shared proxies; a handler may still set its own
// Cache-Control after this middleware runs.
func SecureHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Cache-Control", "no-store")
		h.Set("Content-Security-Policy", apiCSP)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cross-Origin-Resource-Policy", "same-origin")
		next.ServeHTTP(w, r)
	})
}
