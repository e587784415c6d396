package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mercadona/snapshot/internal/client"
	"mercadona/snapshot/internal/config"
	"mercadona/snapshot/internal/domain"
	"mercadona/snapshot/internal/publish"
	"mercadona/snapshot/internal/repository"
	"mercadona/snapshot/internal/snapshot"
	"mercadona/snapshot/internal/state"
	"mercadona/snapshot/internal/viewer"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Service runs the snapshot pipeline: categories, product id index, products,
// then the optional viewer and publish steps. Per-id failures are contained
// and reported; only writer, configuration, and probe failures abort the run.
type Service struct {
	client    client.CatalogClient
	writer    *snapshot.Writer
	repo      repository.CatalogRepository // optional mirror, may be nil
	state     state.RunState               // optional resume checkpoint, may be nil
	publisher publish.Publisher            // optional, may be nil

	workers       int
	delay         time.Duration
	filter        config.FilterConfig
	viewerEnabled bool
}

func NewService(
	catalogClient client.CatalogClient,
	writer *snapshot.Writer,
	repo repository.CatalogRepository,
	runState state.RunState,
	publisher publish.Publisher,
	cfg *config.Config,
) *Service {
	return &Service{
		client:        catalogClient,
		writer:        writer,
		repo:          repo,
		state:         runState,
		publisher:     publisher,
		workers:       cfg.API.MaxWorkers,
		delay:         cfg.API.Delay(),
		filter:        cfg.Filter,
		viewerEnabled: cfg.Viewer.Enabled,
	}
}

// Run executes the whole pipeline. It returns nil for a complete snapshot, an
// error wrapping domain.ErrIncomplete for a valid-but-partial one, and any
// other error for a fatal failure.
func (s *Service) Run(ctx context.Context) error {
	report := &domain.FetchReport{}

	forest, ids, err := s.FetchCategories(ctx, report)
	if err != nil {
		return err
	}

	if s.filter.MaxProducts > 0 && len(ids) > s.filter.MaxProducts {
		log.Infof("Limiting products to first %d of %d", s.filter.MaxProducts, len(ids))
		ids = ids[:s.filter.MaxProducts]
	}

	if err := s.writer.WriteProductIDs(ids); err != nil {
		return err
	}
	log.Infof("📦 Product id index written: %d ids", len(ids))

	if err := s.FetchProducts(ctx, ids, report); err != nil {
		return err
	}

	if s.viewerEnabled {
		if err := viewer.Generate(s.writer.OutDir(), forest, ids); err != nil {
			log.Warnf("⚠️ Failed to generate viewer: %v", err)
		}
	}

	if s.publisher != nil {
		if report.Interrupted {
			log.Warn("⚠️ Skipping publish: run was interrupted")
		} else if err := s.publisher.Publish(ctx, s.writer.OutDir()); err != nil {
			return fmt.Errorf("failed to publish snapshot: %w", err)
		}
	}

	if s.state != nil && report.Complete() {
		if err := s.state.Clear(ctx); err != nil {
			log.Warnf("⚠️ Failed to clear run state: %v", err)
		}
	}

	s.logSummary(report, len(ids))

	if !report.Complete() {
		return fmt.Errorf("%w: %d failed categories, %d missed products, interrupted=%v",
			domain.ErrIncomplete, len(report.FailedCategories), len(report.MissedProducts), report.Interrupted)
	}
	return nil
}

// FetchCategories retrieves the category forest and walks each category's
// detail for product references. The list call doubles as the initial probe:
// if it fails, the API is unreachable and the run aborts. A failed detail
// fetch excludes that category from the forest but does not stop the run.
func (s *Service) FetchCategories(ctx context.Context, report *domain.FetchReport) ([]domain.Category, []int, error) {
	raw, err := s.client.GetCategories(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("initial probe failed, API unreachable: %w", err)
	}

	forest, err := domain.ParseForest(raw)
	if err != nil {
		return nil, nil, err
	}
	log.Infof("🔄 Fetched category list: %d top-level categories", len(forest))

	if len(s.filter.CategoryIDs) > 0 {
		forest = filterForest(forest, s.filter.CategoryIDs)
		log.Infof("Category filter active: %d categories kept", len(forest))
	}

	var mu sync.Mutex
	idSet := make(map[int]struct{})
	failed := make(map[int]struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(s.workers, 4))

	for _, cat := range forest {
		g.Go(func() error {
			detail, err := s.client.GetCategory(gctx, cat.ID)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					mu.Lock()
					report.Interrupted = true
					mu.Unlock()
					return nil
				}
				log.Errorf("❌ Failed to fetch category %d (%s): %v", cat.ID, cat.Name, err)
				mu.Lock()
				failed[cat.ID] = struct{}{}
				mu.Unlock()
				return nil
			}

			if err := s.writer.WriteCategory(cat.ID, detail); err != nil {
				return err
			}
			if s.repo != nil {
				if err := s.repo.SaveCategory(gctx, cat.ID, detail); err != nil {
					log.Errorf("❌ Failed to mirror category %d: %v", cat.ID, err)
				}
			}

			found := domain.CollectProductIDs(detail)
			mu.Lock()
			for id := range found {
				idSet[id] = struct{}{}
			}
			mu.Unlock()

			log.Debugf("Category %d (%s): %d product refs", cat.ID, cat.Name, len(found))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	kept := make([]domain.Category, 0, len(forest))
	for _, cat := range forest {
		if _, bad := failed[cat.ID]; bad {
			report.FailedCategories = append(report.FailedCategories, cat.ID)
			continue
		}
		kept = append(kept, cat)
	}
	sort.Ints(report.FailedCategories)
	report.CategoriesFetched = len(kept)

	if err := s.writer.WriteForest(kept); err != nil {
		return nil, nil, err
	}

	ids := domain.SortedIDs(idSet)
	log.Infof("✅ Categories done: %d fetched, %d failed, %d distinct product ids",
		len(kept), len(report.FailedCategories), len(ids))
	return kept, ids, nil
}

type productResult struct {
	id  int
	raw json.RawMessage
	err error
}

// FetchProducts retrieves detail for every id through a fixed pool of
// workers. Each input id ends up in exactly one bucket: written, recorded as
// a permanent miss, or skipped because the run was interrupted. Only snapshot
// write failures abort.
func (s *Service) FetchProducts(ctx context.Context, ids []int, report *domain.FetchReport) error {
	if len(ids) == 0 {
		log.Warn("⚠️ No product ids to fetch")
		return nil
	}

	completed := s.completedFromState(ctx)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int)
	results := make(chan productResult)

	var wg sync.WaitGroup
	for i := 0; i < s.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				raw, err := s.client.GetProduct(ctx, id)
				results <- productResult{id: id, raw: raw, err: err}

				if s.delay > 0 {
					select {
					case <-time.After(s.delay):
					case <-ctx.Done():
						return
					}
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, id := range ids {
			if _, done := completed[id]; done {
				continue
			}
			select {
			case jobs <- id:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	processed := make(map[int]struct{}, len(completed))
	for id := range completed {
		processed[id] = struct{}{}
	}
	report.ProductsFetched = len(completed)
	if len(completed) > 0 {
		log.Infof("🔄 Resuming: %d products already written in this run", len(completed))
	}

	var fatal error
	for res := range results {
		if fatal != nil {
			continue // drain so workers can exit
		}
		if _, dup := processed[res.id]; dup {
			continue
		}
		processed[res.id] = struct{}{}

		if res.err != nil {
			if errors.Is(res.err, context.Canceled) {
				report.Interrupted = true
				continue
			}
			report.MissedProducts = append(report.MissedProducts, res.id)
			if client.IsPermanentMiss(res.err) {
				log.Warnf("Permanent miss for product %d: %v", res.id, res.err)
			} else {
				log.Errorf("❌ Retries exhausted for product %d: %v", res.id, res.err)
			}
			continue
		}

		if err := s.writer.WriteProduct(res.id, res.raw); err != nil {
			fatal = err
			cancel()
			continue
		}
		if s.repo != nil {
			if err := s.repo.SaveProduct(ctx, res.id, res.raw); err != nil {
				log.Errorf("❌ Failed to mirror product %d: %v", res.id, err)
			}
		}
		if s.state != nil {
			if err := s.state.MarkCompleted(ctx, res.id); err != nil {
				log.Warnf("⚠️ Failed to checkpoint product %d: %v", res.id, err)
			}
		}
		report.ProductsFetched++
	}

	if fatal != nil {
		return fatal
	}

	if len(processed) < len(ids) {
		report.Interrupted = true
		log.Warnf("⚠️ Interrupted: %d of %d products not attempted", len(ids)-len(processed), len(ids))
	}
	sort.Ints(report.MissedProducts)
	return nil
}

func (s *Service) completedFromState(ctx context.Context) map[int]struct{} {
	if s.state == nil {
		return nil
	}
	completed, err := s.state.Completed(ctx)
	if err != nil {
		log.Warnf("⚠️ Failed to load run state, fetching everything: %v", err)
		return nil
	}
	return completed
}

func (s *Service) logSummary(report *domain.FetchReport, totalIDs int) {
	log.Infof("📊 Snapshot summary: %d categories, %d/%d products, %d misses, %d failed categories",
		report.CategoriesFetched, report.ProductsFetched, totalIDs,
		len(report.MissedProducts), len(report.FailedCategories))
	if report.Interrupted {
		log.Warn("⚠️ Run was interrupted, snapshot is partial")
	}
}

func filterForest(forest []domain.Category, keep []int) []domain.Category {
	allowed := make(map[int]struct{}, len(keep))
	for _, id := range keep {
		allowed[id] = struct{}{}
	}
	filtered := make([]domain.Category, 0, len(keep))
	for _, cat := range forest {
		if _, ok := allowed[cat.ID]; ok {
			filtered = append(filtered, cat)
		}
	}
	return filtered
}
