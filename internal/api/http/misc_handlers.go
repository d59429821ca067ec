package http

import (
	"time"

	nethttp "net/http"

	"github.com/mind-engage/eduverse/internal/seed"
)

// POST /payment/create-checkout-session (bearer). Stub: no payment provider.
func CheckoutSessionHandler(checkoutURL string) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]string{"url": checkoutURL})
	}
}

// POST /payment/verify (bearer). Stub: always verified.
func VerifyPaymentHandler() nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]bool{"verified": true})
	}
}

func SeedDemoHandler(svc *seed.Service) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		res, err := svc.DemoData(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, nethttp.StatusOK, res)
	}
}

func HealthHandler(started time.Time) nethttp.HandlerFunc {
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"ok":     true,
			"uptime": time.Since(started).Seconds(),
		})
	}
}

// IndexHandler lists the route groups for humans poking at the API root.
func IndexHandler() nethttp.HandlerFunc {
	docs := map[string]any{
		"health":   "/health",
		"auth":     []string{"/auth/signup", "/auth/login", "/auth/profile"},
		"courses":  []string{"/courses", "/courses/:id"},
		"lessons":  []string{"/lessons/:courseId", "/lessons/stream/:id"},
		"quiz":     []string{"/quiz/:courseId", "/quiz/submit"},
		"progress": []string{"/progress/:userId/:courseId", "/progress/update"},
		"payment":  []string{"/payment/create-checkout-session", "/payment/verify"},
		"seed":     []string{"/seed/demo-data"},
	}
	return func(w nethttp.ResponseWriter, r *nethttp.Request) {
		writeJSON(w, nethttp.StatusOK, map[string]any{
			"name":   "EduVerse API",
			"status": "ok",
			"docs":   docs,
		})
	}
}
