// Package resolve maps raw labels to canonical company names using the
// learned-mapping store first, the configured indicator table second,
// and the remote classifier last.
package resolve

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/classify"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/internalerr"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/mapstore"
	"github.com/Vanshajgitbain/SEMRush-CTR-Calculation/pkg/ctr/normalize"
)

// Source records how a label was resolved.
type Source string

const (
	SourceCache     Source = "cache"
	SourceIndicator Source = "indicator"
	SourceModel     Source = "model"
	SourceSentinel  Source = "sentinel"
)

// Resolution is the outcome of resolving one raw label.
type Resolution struct {
	Company string
	Key     string
	Source  Source
}

type indicator struct {
	company string
	needles []string
}

// Options configures a Resolver.
type Options struct {
	// Sentinel is returned when resolution cannot determine a company.
	Sentinel string

	// Indicators maps canonical company names to identifying
	// substrings, matched against the normalized key before any
	// remote call.
	Indicators map[string][]string

	Logger *slog.Logger
}

// Resolver resolves labels for the duration of one run. It is not safe
// for concurrent use; the pipeline calls it row by row.
type Resolver struct {
	norm       *normalize.Normalizer
	store      mapstore.Store
	classifier classify.Classifier
	sentinel   string
	indicators []indicator

	// failed holds keys whose remote classification failed this run,
	// capping remote calls at one per distinct key. Not persisted, so
	// a transient failure is retried on the next run.
	failed map[string]struct{}

	notConfigured bool
	warnedConfig  bool

	log *slog.Logger
}

// New creates a resolver over the given normalizer, store and
// classifier.
func New(norm *normalize.Normalizer, store mapstore.Store, cls classify.Classifier, opts Options) *Resolver {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	sentinel := opts.Sentinel
	if sentinel == "" {
		sentinel = "Unknown Company"
	}

	r := &Resolver{
		norm:       norm,
		store:      store,
		classifier: cls,
		sentinel:   sentinel,
		failed:     make(map[string]struct{}),
		log:        log,
	}

	// Normalize indicator needles once so matching compares
	// like-for-like with derived keys. Companies are ordered by name
	// for deterministic tie-breaking.
	companies := make([]string, 0, len(opts.Indicators))
	for company := range opts.Indicators {
		companies = append(companies, company)
	}
	sort.Strings(companies)
	for _, company := range companies {
		ind := indicator{company: company}
		for _, needle := range opts.Indicators[company] {
			if k := norm.Key(needle); k != "" {
				ind.needles = append(ind.needles, k)
			}
		}
		if len(ind.needles) > 0 {
			r.indicators = append(r.indicators, ind)
		}
	}

	return r
}

// Sentinel returns the configured fallback company name.
func (r *Resolver) Sentinel() string { return r.sentinel }

// Resolve maps one raw label to a company name. It never returns an
// error: every failure mode degrades to the sentinel so the run keeps
// making forward progress.
func (r *Resolver) Resolve(ctx context.Context, raw string) Resolution {
	key := r.norm.Key(raw)
	if key == "" {
		return Resolution{Company: r.sentinel, Key: key, Source: SourceSentinel}
	}

	if name, ok, err := r.store.Lookup(ctx, key); err != nil {
		r.log.Warn("mapping lookup failed, treating as miss", "key", key, "error", err)
	} else if ok {
		return Resolution{Company: name, Key: key, Source: SourceCache}
	}

	if company, ok := r.matchIndicator(key); ok {
		r.insert(ctx, key, company)
		return Resolution{Company: company, Key: key, Source: SourceIndicator}
	}

	if _, failedBefore := r.failed[key]; failedBefore {
		return Resolution{Company: r.sentinel, Key: key, Source: SourceSentinel}
	}
	if r.notConfigured {
		return Resolution{Company: r.sentinel, Key: key, Source: SourceSentinel}
	}

	name, err := r.classifier.Classify(ctx, raw)
	if err != nil {
		r.recordFailure(key, err)
		return Resolution{Company: r.sentinel, Key: key, Source: SourceSentinel}
	}

	r.insert(ctx, key, name)
	return Resolution{Company: name, Key: key, Source: SourceModel}
}

// matchIndicator scores each configured company by how many of its
// needles occur in the key and returns the best scorer, if any.
func (r *Resolver) matchIndicator(key string) (string, bool) {
	best := ""
	bestHits := 0
	for _, ind := range r.indicators {
		hits := 0
		for _, needle := range ind.needles {
			if strings.Contains(key, needle) {
				hits++
			}
		}
		if hits > bestHits {
			best = ind.company
			bestHits = hits
		}
	}
	return best, bestHits > 0
}

func (r *Resolver) insert(ctx context.Context, key, name string) {
	if _, err := r.store.Insert(ctx, key, name); err != nil {
		r.log.Warn("mapping insert failed", "key", key, "name", name, "error", err)
	}
}

func (r *Resolver) recordFailure(key string, err error) {
	if errors.Is(err, internalerr.ErrNotConfigured) {
		r.notConfigured = true
		if !r.warnedConfig {
			r.warnedConfig = true
			r.log.Warn("classifier not configured, resolving all misses to sentinel")
		}
		return
	}
	r.failed[key] = struct{}{}
	r.log.Warn("classification failed, using sentinel", "key", key, "error", err)
}
