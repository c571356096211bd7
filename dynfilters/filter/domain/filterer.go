package filter

import (
	"io"
	"log/slog"

	"github.com/krew-solutions/dynamic-filters-go/dynfilters/filter/domain/operators"
)

// Query is the executor port. Implementations receive the projection, each
// top-level predicate and each ordering directive of a request; relation
// scopes and nested groups arrive inside the predicates they belong to.
type Query interface {
	Select(columns ...string) error
	Where(predicate Visitable) error
	OrderBy(item SortItem) error
}

// Plan is everything derived from one FilterRequest.
type Plan struct {
	Columns   []string
	Predicate GroupNode
	Sort      SortSpec
	Dropped   []Dropped
}

type FiltererOption func(*Filterer)

func WithLogger(logger *slog.Logger) FiltererOption {
	return func(f *Filterer) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func WithClassifier(c Classifier) FiltererOption {
	return func(f *Filterer) {
		f.classifier = c
	}
}

// Filterer is the entry point: it turns a FilterRequest into a Plan and
// forwards the plan to a Query. It holds no per-request state.
type Filterer struct {
	registry   *operators.OperatorRegistry
	entity     Entity
	classifier Classifier
	logger     *slog.Logger
}

func NewFilterer(registry *operators.OperatorRegistry, entity Entity, opts ...FiltererOption) *Filterer {
	if registry == nil {
		registry = operators.NewOperatorRegistry()
	}
	f := &Filterer{
		registry:   registry,
		entity:     entity,
		classifier: NewClassifier(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for i := range opts {
		opts[i](f)
	}
	return f
}

func (f *Filterer) Plan(request FilterRequest) Plan {
	resolver := NewRelationResolver(f.entity, f.registry.DefaultRelationKey())
	builder := NewPredicateBuilder(f.registry, resolver)

	plan := Plan{Columns: request.Columns}

	resolved := make([]ResolvedFilter, 0, len(request.Filters))
	for _, ff := range request.Filters {
		rf, ok := f.classifier.Classify(ff.Field, ff.Expr)
		if !ok {
			plan.Dropped = append(plan.Dropped, Dropped{Field: ff.Field, Reason: DropNotExplicit})
			continue
		}
		resolved = append(resolved, rf)
	}

	var dropped []Dropped
	plan.Predicate, dropped = builder.Build(resolved, request.Search, SearchablePaths(f.entity))
	plan.Dropped = append(plan.Dropped, dropped...)

	plan.Sort, dropped = NewSortCompiler(resolver).compile(request.Sort.UnwrapOr(""), f.registry.AllowedSortFields())
	plan.Dropped = append(plan.Dropped, dropped...)

	for _, d := range plan.Dropped {
		f.logger.Debug("filter input dropped",
			slog.String("field", d.Field),
			slog.String("reason", string(d.Reason)),
		)
	}
	return plan
}

// Apply forwards projection, search, filters and sort to query, in that
// order. Errors come only from query.
func (f *Filterer) Apply(query Query, request FilterRequest) error {
	plan := f.Plan(request)
	return ApplyPlan(query, plan)
}

func ApplyPlan(query Query, plan Plan) error {
	if len(plan.Columns) > 0 {
		if err := query.Select(plan.Columns...); err != nil {
			return err
		}
	}
	for _, predicate := range plan.Predicate.Children() {
		if err := query.Where(predicate); err != nil {
			return err
		}
	}
	for _, item := range plan.Sort {
		if err := query.OrderBy(item); err != nil {
			return err
		}
	}
	return nil
}
