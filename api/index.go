package handler

import (
	"net/http"
	"sync"

	"fortyacres-backend/bootstrap"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/rs/zerolog/log"
)

var (
	buildOnce sync.Once
	apiApp    *fiber.App
	buildErr  error
	serve     http.HandlerFunc
)

// Handler is the serverless entry point for the 40 Acres API. The app is built
// on the first request; if configuration or the database is unusable every
// request gets 503 and the cause is logged once.
func Handler(w http.ResponseWriter, r *http.Request) {
	buildOnce.Do(func() {
		apiApp, buildErr = bootstrap.New()
		if buildErr != nil {
			log.Error().Err(buildErr).Msg("fortyacres api could not start")
			return
		}
		serve = adaptor.FiberApp(apiApp)
	})
	if buildErr != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"error","error":{"message":"Service unavailable","statusCode":503}}`))
		return
	}
	r.RequestURI = r.URL.String()
	serve(w, r)
}
