package main

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fittrack/privacy-rights-api/internal/artifact"
	"github.com/fittrack/privacy-rights-api/internal/audit"
	"github.com/fittrack/privacy-rights-api/internal/consent"
	"github.com/fittrack/privacy-rights-api/internal/deletion"
	"github.com/fittrack/privacy-rights-api/internal/export"
	"github.com/fittrack/privacy-rights-api/internal/notification"
	"github.com/fittrack/privacy-rights-api/internal/rectification"
	"github.com/fittrack/privacy-rights-api/internal/retention"
	"github.com/fittrack/privacy-rights-api/internal/scheduler"
	"github.com/fittrack/privacy-rights-api/internal/system/config"
	"github.com/fittrack/privacy-rights-api/internal/system/constants"
	"github.com/fittrack/privacy-rights-api/internal/system/database/provider"
	"github.com/fittrack/privacy-rights-api/internal/system/middleware"
	"github.com/fittrack/privacy-rights-api/internal/system/stores"
	"github.com/fittrack/privacy-rights-api/internal/userdata"
)

// ServiceManager wires the stores, services, HTTP routes and background
// sweeps together.
type ServiceManager struct {
	Engine    *gin.Engine
	Scheduler *scheduler.Scheduler

	Audit         audit.AuditService
	Consent       consent.ConsentService
	Export        export.ExportService
	Rectification rectification.RectificationService
	Deletion      deletion.DeletionService
	Retention     retention.RetentionService
}

// NewServiceManager builds the full service graph.
func NewServiceManager(dbClient provider.DBClientInterface) *ServiceManager {
	cfg := config.Get()

	registry := stores.NewStoreRegistry(
		dbClient,
		audit.NewStore(dbClient),
		consent.NewStore(dbClient),
		export.NewStore(dbClient),
		rectification.NewStore(dbClient),
		deletion.NewStore(dbClient),
		retention.NewStore(dbClient),
	)

	var notifier notification.Sender
	if cfg.Notification.Enabled {
		notifier = notification.NewLogSender()
	} else {
		notifier = notification.NewNoopSender()
	}

	artifacts := artifact.NewStore()
	userData := userdata.NewStore(dbClient)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.CorrelationIDMiddleware())
	if cfg.CORS.Enabled {
		engine.Use(middleware.CORSMiddleware(middleware.CORSOptions{
			AllowedOrigins:   cfg.CORS.AllowedOrigins,
			AllowedMethods:   strings.Join(cfg.CORS.AllowedMethods, ", "),
			AllowedHeaders:   strings.Join(cfg.CORS.AllowedHeaders, ", "),
			AllowCredentials: cfg.CORS.AllowCredentials,
		}))
	}

	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group(constants.APIBasePath)

	manager := &ServiceManager{Engine: engine}
	manager.Audit = audit.Initialize(api, registry)
	manager.Consent = consent.Initialize(api, registry, manager.Audit, notifier)
	manager.Export = export.Initialize(api, registry, manager.Audit, notifier, artifacts, userData)
	manager.Rectification = rectification.Initialize(api, registry, manager.Audit, userData)
	manager.Deletion = deletion.Initialize(api, registry, manager.Audit, notifier, userData)
	manager.Retention = retention.Initialize(api, registry, manager.Audit, userData)

	manager.Scheduler = newSweepScheduler(cfg, manager)

	return manager
}

// newSweepScheduler registers the periodic sweeps on their intervals.
func newSweepScheduler(cfg *config.Config, manager *ServiceManager) *scheduler.Scheduler {
	s := scheduler.New()

	s.Register("export-expiry", cfg.Scheduler.SweepInterval, manager.Export.SweepExpired)
	s.Register("deletion-token-expiry", cfg.Scheduler.SweepInterval, manager.Deletion.SweepExpired)
	s.Register("deletion-execution", cfg.Scheduler.SweepInterval, manager.Deletion.ExecuteDue)
	s.Register("consent-reconsent", cfg.Scheduler.SweepInterval, manager.Consent.SweepExpiring)
	s.Register("retention-jobs", cfg.Scheduler.RetentionInterval, manager.runDueRetentionJobs)

	return s
}

// runDueRetentionJobs runs every due retention job once.
func (m *ServiceManager) runDueRetentionJobs(ctx context.Context) (int, error) {
	jobs, err := m.Retention.DueJobs(ctx)
	if err != nil {
		return 0, err
	}
	ran := 0
	for _, job := range jobs {
		if _, err := m.Retention.Run(ctx, job.JobID); err != nil {
			continue
		}
		ran++
	}
	return ran, nil
}
