package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"forum-tenant-sync/internal/store"
)

// orphanDeleteOrder deletes children before their parents so no scan
// window ever observes a reply whose content row is already gone
var orphanDeleteOrder = []store.EntityKind{
	store.KindReactions,
	store.KindReplies,
	store.KindContent,
	store.KindCategories,
	store.KindBadges,
}

// Clean scans every tenant-scoped table for rows whose tenant no longer
// exists, quarantines what it finds into a bundle file, and deletes the
// rows. The quarantine write happens before any deletion; if it fails
// nothing is deleted. Finding zero orphans is a successful no-op with
// no file written.
func (e *Engine) Clean(ctx context.Context) (_ *Report, err error) {
	done := e.logger.LogOperationStart(OperationClean, nil)
	defer func() { done(err) }()

	report := newReport(OperationClean, "")

	quarantine, err := e.scanOrphans(ctx)
	if err != nil {
		return report.fail(err), err
	}

	total := quarantine.CountOrphans()
	report.ItemsProcessed = total
	if total == 0 {
		e.logger.Info("No orphaned data found")
		return report.complete(), nil
	}

	data, err := quarantine.ToJSON()
	if err != nil {
		return report.fail(err), err
	}
	data, err = e.encodeBundle(data)
	if err != nil {
		return report.fail(err), err
	}

	filename := e.bundleFilename(quarantineFilename(quarantine.Metadata.Timestamp))
	location, err := e.bundles.Write(ctx, filename, data)
	e.logger.LogBundleWrite(location, total, int64(len(data)), err)
	if err != nil {
		return report.fail(err), err
	}

	for _, kind := range orphanDeleteOrder {
		deleted, err := e.store.DeleteOrphans(ctx, kind)
		if err != nil {
			report.addError(fmt.Sprintf("failed to delete orphaned %s: %v", kind, err))
			continue
		}
		report.ItemsRecovered += int(deleted)
	}

	e.logger.Infof("Quarantined %d orphaned rows to %s, deleted %d", total, location, report.ItemsRecovered)
	return report.complete(), nil
}

// scanOrphans runs the five anti-join scans concurrently. Any scan
// failure fails the whole operation; a partial picture of the orphan
// set is not safe to act on.
func (e *Engine) scanOrphans(ctx context.Context) (*Quarantine, error) {
	quarantine := &Quarantine{}

	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	scan := func(kind store.EntityKind, run func() (int, error)) {
		defer wg.Done()
		start := time.Now()
		found, err := run()
		e.logger.LogOrphanScan(string(kind), found, time.Since(start), err)
		if err != nil {
			mu.Lock()
			if firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}
	}

	wg.Add(5)
	go scan(store.KindContent, func() (int, error) {
		rows, err := e.store.FindOrphanContent(ctx)
		mu.Lock()
		quarantine.Content = rows
		mu.Unlock()
		return len(rows), err
	})
	go scan(store.KindReplies, func() (int, error) {
		rows, err := e.store.FindOrphanReplies(ctx)
		mu.Lock()
		quarantine.Replies = rows
		mu.Unlock()
		return len(rows), err
	})
	go scan(store.KindReactions, func() (int, error) {
		rows, err := e.store.FindOrphanReactions(ctx)
		mu.Lock()
		quarantine.Reactions = rows
		mu.Unlock()
		return len(rows), err
	})
	go scan(store.KindCategories, func() (int, error) {
		rows, err := e.store.FindOrphanCategories(ctx)
		mu.Lock()
		quarantine.Categories = rows
		mu.Unlock()
		return len(rows), err
	})
	go scan(store.KindBadges, func() (int, error) {
		rows, err := e.store.FindOrphanBadges(ctx)
		mu.Lock()
		quarantine.Badges = rows
		mu.Unlock()
		return len(rows), err
	})
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	quarantine.Metadata = QuarantineMetadata{
		Kind:         BundleKindOrphaned,
		Timestamp:    time.Now().UTC(),
		TotalOrphans: quarantine.CountOrphans(),
	}
	return quarantine, nil
}
