package cron

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sahilchouksey/campus-timeline/services/timeline"
	"github.com/sahilchouksey/campus-timeline/utils/logger"
)

// Catalog is the part of the timeline service the scheduled jobs use.
type Catalog interface {
	WarmCatalog(ctx context.Context) error
	Audit(ctx context.Context) (timeline.ReferenceReport, error)
}

// CronManager manages all scheduled cron jobs
type CronManager struct {
	cron    *cron.Cron
	catalog Catalog
	log     *logger.Logger
}

// NewCronManager creates a new cron manager
func NewCronManager(catalog Catalog, log *logger.Logger) *CronManager {
	if log == nil {
		log = logger.NewNop()
	}
	// Create cron with seconds precision
	c := cron.New(cron.WithSeconds())

	return &CronManager{
		cron:    c,
		catalog: catalog,
		log:     log.With("component", "cron"),
	}
}

// Start starts all cron jobs
func (m *CronManager) Start() error {
	if err := m.registerJobs(); err != nil {
		return err
	}
	m.cron.Start()
	m.log.Info("cron jobs started", "jobs", len(m.cron.Entries()))
	return nil
}

// Stop stops all cron jobs and waits for running ones to finish
func (m *CronManager) Stop() {
	ctx := m.cron.Stop()
	<-ctx.Done()
	m.log.Info("cron jobs stopped")
}

// registerJobs registers all cron jobs with their schedules
func (m *CronManager) registerJobs() error {
	// Every 5 minutes: keep the catalog cache warm
	if _, err := m.cron.AddFunc("0 */5 * * * *", func() {
		m.WarmCatalogCache()
	}); err != nil {
		return err
	}

	// Daily at 3 AM: report broken course/module references
	if _, err := m.cron.AddFunc("0 0 3 * * *", func() {
		m.AuditReferences()
	}); err != nil {
		return err
	}
	return nil
}

// logJobStart logs the start of a cron job and returns its start time
func (m *CronManager) logJobStart(jobName string) time.Time {
	m.log.Info("cron job started", "job", jobName)
	return time.Now()
}

func (m *CronManager) logJobComplete(jobName string, started time.Time, keysAndValues ...interface{}) {
	kv := append([]interface{}{"job", jobName, "duration", time.Since(started)}, keysAndValues...)
	m.log.Info("cron job completed", kv...)
}

func (m *CronManager) logJobError(jobName string, started time.Time, err error) {
	m.log.Error("cron job failed", "job", jobName, "duration", time.Since(started), "error", err)
}
