package cron

import (
	"context"
	"time"
)

// WarmCatalogCache issues the catalog reads of a view resolution so the
// read-through cache serves the next passes.
func (m *CronManager) WarmCatalogCache() error {
	const jobName = "warm_catalog_cache"
	started := m.logJobStart(jobName)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := m.catalog.WarmCatalog(ctx); err != nil {
		m.logJobError(jobName, started, err)
		return err
	}
	m.logJobComplete(jobName, started)
	return nil
}

// AuditReferences logs orphan, unlinked and stale module references. These
// are expected in the store, so they are reported at info level.
func (m *CronManager) AuditReferences() error {
	const jobName = "audit_references"
	started := m.logJobStart(jobName)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	report, err := m.catalog.Audit(ctx)
	if err != nil {
		m.logJobError(jobName, started, err)
		return err
	}

	stale := 0
	for _, refs := range report.StaleCourseModuleRefs {
		stale += len(refs)
	}
	m.logJobComplete(jobName, started,
		"orphan_modules", len(report.OrphanModules),
		"unlinked_modules", len(report.UnlinkedModules),
		"stale_course_refs", stale,
	)
	return nil
}
