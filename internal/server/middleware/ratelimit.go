package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// LoginRateLimit limits login attempts per client IP using a sliding
// window, slowing down online password guessing against the generic
// rejection message.
func LoginRateLimit(attemptsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(attemptsPerMinute, time.Minute)
}
