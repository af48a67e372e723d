package v1

import (
	stdlog "log"
	"os"
	"sync"

	"slideforge-backend/internal/access"
	"slideforge-backend/internal/blobstore"
	"slideforge-backend/internal/config"
	"slideforge-backend/internal/coordinator"
	"slideforge-backend/internal/indexstore"
	"slideforge-backend/internal/libraries"
	"slideforge-backend/internal/logger"
	"slideforge-backend/internal/session"
)

// Shared wiring for the v1 route group. Built once, on first register.
var (
	depsOnce sync.Once

	appLog    *logger.Logger
	hub       *libraries.Hub
	coord     *coordinator.Coordinator
	sessions  *session.Manager
	gate      access.Gate
	suggester *libraries.QuizSuggester
)

func initDeps() {
	depsOnce.Do(func() {
		log, err := logger.New(os.Getenv("APP_ENV"))
		if err != nil {
			stdlog.Fatalf("failed to init logger: %v", err)
		}
		appLog = log

		hub = libraries.NewHub()
		go hub.Run()

		gcp := libraries.GetClients()
		blobs := blobstore.NewGCSStore(gcp.GCS, gcp.Bucket)
		index := indexstore.NewGormStore(config.DB)

		coord = coordinator.New(index, blobs, appLog)
		sessions = session.NewManager(coord, appLog)
		gate = access.NewGormGate(config.DB)

		// optional: needs an OpenAI-compatible key; routes answer 503 without it
		if s, err := libraries.NewQuizSuggester(libraries.QuizSuggesterConfig{}); err != nil {
			appLog.Warn("quiz suggester unavailable", "error", err)
		} else {
			suggester = s
		}
	})
}
