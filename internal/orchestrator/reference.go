package orchestrator

import (
	"context"
	"errors"
	"time"

	mkterrors "github.com/mktdata/go-mktcache/internal/errors"
	"github.com/mktdata/go-mktcache/internal/models"
)

var (
	errNoFetcher    = errors.New("no bar fetcher configured")
	errNoRefFetcher = errors.New("no reference fetcher configured")
)

// RefRequest is one reference data call: a batch of ticker/field queries with
// shared overrides. AsOf switches the cache to dated point-in-time files.
type RefRequest struct {
	Queries   []models.RefQuery
	Overrides map[string]string
	Cache     models.CachePolicy
	AsOf      *time.Time
}

// Reference returns reference rows for the request, serving each query from
// cache where possible and fetching only the misses in a single upstream
// call. Fetched rows are written back per query.
func (o *Orchestrator) Reference(ctx context.Context, req RefRequest) ([]models.RefRow, error) {
	plan := o.planReference(req)
	if len(plan.toFetch) == 0 {
		return plan.cached, nil
	}
	if o.refFetcher == nil {
		return nil, mkterrors.New(mkterrors.KindUnknown, "orchestrator", "reference", errNoRefFetcher)
	}

	var fetched []models.RefRow
	err := mkterrors.Retry(ctx, o.logger, o.retry, "fetch_reference", func() error {
		var ferr error
		fetched, ferr = o.refFetcher.FetchReference(ctx, plan.toFetch, req.Overrides)
		return ferr
	})
	if err != nil {
		return nil, err
	}

	if req.Cache.Enabled {
		o.saveReference(plan.toFetch, fetched, req)
	}
	return append(plan.cached, fetched...), nil
}

// refPlan partitions a reference batch into rows already cached and queries
// that still need an upstream call.
type refPlan struct {
	cached  []models.RefRow
	toFetch []models.RefQuery
}

func (o *Orchestrator) planReference(req RefRequest) refPlan {
	var plan refPlan
	if !req.Cache.Enabled || req.Cache.Reload {
		plan.toFetch = req.Queries
		return plan
	}
	for _, q := range req.Queries {
		rows, ok := o.loadRef(q, req)
		if ok {
			plan.cached = append(plan.cached, rows...)
		} else {
			plan.toFetch = append(plan.toFetch, q)
		}
	}
	return plan
}

func (o *Orchestrator) loadRef(q models.RefQuery, req RefRequest) ([]models.RefRow, bool) {
	if req.AsOf != nil {
		return o.refs.LoadDated(q, *req.AsOf, req.Overrides)
	}
	return o.refs.Load(q, req.Overrides)
}

// saveReference writes fetched rows back to cache, grouped by the query they
// answer. Queries that came back empty are not cached.
func (o *Orchestrator) saveReference(queries []models.RefQuery, rows []models.RefRow, req RefRequest) {
	byQuery := make(map[models.RefQuery][]models.RefRow, len(queries))
	for _, row := range rows {
		q := models.RefQuery{Ticker: row.Ticker, Field: row.Field}
		byQuery[q] = append(byQuery[q], row)
	}
	for _, q := range queries {
		got := byQuery[q]
		if len(got) == 0 {
			continue
		}
		var err error
		if req.AsOf != nil {
			_, err = o.refs.SaveDated(q, *req.AsOf, req.Overrides, got)
		} else {
			_, err = o.refs.Save(q, req.Overrides, got)
		}
		if err != nil {
			o.logger.Warn("reference cache write failed",
				"ticker", q.Ticker, "field", q.Field, "error", err.Error())
		}
	}
}
