package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/smallbiznis/tenderscope/internal/config"
	obsmetrics "github.com/smallbiznis/tenderscope/internal/observability/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	opAnalyze         = "analyze"
	opOutliers        = "outliers"
	opRecommendations = "recommendations"
	opItemWinner      = "item_winner"
	opProposalTotals  = "proposal_totals"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	Source      domain.DataSource
	Config      *config.AnalysisConfigHolder
	Metrics     *obsmetrics.AnalysisMetrics `optional:"true"`
	Instruments *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	log         *zap.Logger
	source      domain.DataSource
	cfg         *config.AnalysisConfigHolder
	metrics     *obsmetrics.AnalysisMetrics
	instruments *obsmetrics.Metrics
	tracer      trace.Tracer
}

func NewService(p Params) domain.Service {
	return &Service{
		log:         p.Log.Named("bidanalysis.service"),
		source:      p.Source,
		cfg:         p.Config,
		metrics:     p.Metrics,
		instruments: p.Instruments,
		tracer:      otel.Tracer("tenderscope/bidanalysis"),
	}
}

func (s *Service) Analyze(ctx context.Context, tenderID string) (_ *domain.Analysis, err error) {
	id, err := parseID(tenderID)
	if err != nil {
		return nil, domain.ErrInvalidTender
	}

	ctx, done := s.begin(ctx, opAnalyze, id)
	defer func() { done(err) }()

	return s.analyze(ctx, id)
}

func (s *Service) GetOutliers(ctx context.Context, tenderID string) (_ []domain.ComparablePrice, err error) {
	id, err := parseID(tenderID)
	if err != nil {
		return nil, domain.ErrInvalidTender
	}

	ctx, done := s.begin(ctx, opOutliers, id)
	defer func() { done(err) }()

	analysis, err := s.analyze(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.outliers(ctx, analysis), nil
}

func (s *Service) GetRecommendations(ctx context.Context, tenderID string) (_ []string, err error) {
	id, err := parseID(tenderID)
	if err != nil {
		return nil, domain.ErrInvalidTender
	}

	ctx, done := s.begin(ctx, opRecommendations, id)
	defer func() { done(err) }()

	analysis, err := s.analyze(ctx, id)
	if err != nil {
		return nil, err
	}
	outliers := s.outliers(ctx, analysis)
	return Recommend(analysis.Summary, outliers, s.settings().MinCompetitors), nil
}

func (s *Service) GetItemWinner(ctx context.Context, tenderID, itemID string) (_ *domain.ItemWinnerResult, err error) {
	id, err := parseID(tenderID)
	if err != nil {
		return nil, domain.ErrInvalidTender
	}
	lineItemID, err := parseID(itemID)
	if err != nil {
		return nil, domain.ErrInvalidLineItem
	}

	ctx, done := s.begin(ctx, opItemWinner, id)
	defer func() { done(err) }()

	if _, err := s.loadTender(ctx, id); err != nil {
		return nil, err
	}

	items, err := s.source.GetLineItems(ctx, id)
	if err != nil {
		return nil, err
	}
	item, ok := lo.Find(items, func(it domain.LineItem) bool { return it.ID == lineItemID })
	if !ok {
		return nil, domain.ErrLineItemNotFound
	}

	bids, err := s.source.GetBids(ctx, id)
	if err != nil {
		return nil, err
	}
	itemBids := lo.Filter(bids, func(b domain.SupplierBid, _ int) bool { return b.LineItemID == lineItemID })

	result := Resolve(item, itemBids)
	s.noteResult(ctx, result)
	return &result, nil
}

func (s *Service) analyze(ctx context.Context, tenderID snowflake.ID) (*domain.Analysis, error) {
	tender, err := s.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	items, err := s.source.GetLineItems(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	bids, err := s.source.GetBids(ctx, tenderID)
	if err != nil {
		return nil, err
	}

	results, err := s.resolveItems(ctx, items, bids)
	if err != nil {
		return nil, err
	}

	summary := Summarize(*tender, results, countProposals(bids))
	s.log.Debug("tender analyzed",
		zap.String("tender_id", tenderID.String()),
		zap.Int("items", summary.ItemCount),
		zap.Int("proposals", summary.ProposalCount),
		zap.String("total_winning", summary.TotalWinning.String()),
	)

	return &domain.Analysis{
		Tender:  *tender,
		Summary: summary,
		Items:   results,
	}, nil
}

func (s *Service) loadTender(ctx context.Context, tenderID snowflake.ID) (*domain.Tender, error) {
	tender, err := s.source.GetTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if tender == nil {
		return nil, domain.ErrTenderNotFound
	}
	return tender, nil
}

// resolveItems resolves every line item independently. Results are written by
// index so the output keeps item ordinal order regardless of completion order.
func (s *Service) resolveItems(ctx context.Context, items []domain.LineItem, bids []domain.SupplierBid) ([]domain.ItemWinnerResult, error) {
	ordered := make([]domain.LineItem, len(items))
	copy(ordered, items)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Ordinal < ordered[j].Ordinal })

	bidsByItem := lo.GroupBy(bids, func(b domain.SupplierBid) snowflake.ID { return b.LineItemID })
	results := make([]domain.ItemWinnerResult, len(ordered))

	limit := s.settings().Parallelism
	if limit <= 0 {
		limit = -1
	}
	var g errgroup.Group
	g.SetLimit(limit)
	for i := range ordered {
		g.Go(func() error {
			results[i] = Resolve(ordered[i], bidsByItem[ordered[i].ID])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	excluded := 0
	for _, b := range bids {
		if !Eligible(b) {
			excluded++
		}
	}
	if excluded > 0 {
		s.log.Debug("bids without unit price excluded", zap.Int("count", excluded))
		s.instruments.RecordBidsExcluded(ctx, excluded)
	}
	for _, result := range results {
		s.noteResult(ctx, result)
	}
	s.metrics.AddItemsResolved(len(results))

	return results, nil
}

func (s *Service) noteResult(ctx context.Context, result domain.ItemWinnerResult) {
	if !result.OverrideIgnored {
		return
	}
	s.log.Warn("awarded supplier has no bid on item, using computed ranking",
		zap.String("line_item_id", result.Item.ID.String()),
		zap.Int("ordinal", result.Item.Ordinal),
		zap.String("awarded_supplier_id", result.Item.AwardedSupplierID.String()),
	)
	s.instruments.RecordOverrideIgnored(ctx)
}

func (s *Service) outliers(ctx context.Context, analysis *domain.Analysis) []domain.ComparablePrice {
	groups := lo.Map(analysis.Items, func(r domain.ItemWinnerResult, _ int) []domain.ComparablePrice {
		return r.Prices
	})
	sigma := decimal.NewFromFloat(s.settings().OutlierSigma)
	found := FindOutliers(groups, sigma)
	s.instruments.RecordOutliers(ctx, len(found))
	return found
}

func (s *Service) settings() config.AnalysisConfig {
	if s.cfg == nil {
		return config.DefaultAnalysisConfig()
	}
	return s.cfg.Get()
}

// begin opens a span and returns a completion callback that records the
// outcome in logs, traces and metrics.
func (s *Service) begin(ctx context.Context, operation string, tenderID snowflake.ID) (context.Context, func(error)) {
	runID := ulid.Make().String()
	ctx, span := s.tracer.Start(ctx, "bidanalysis."+operation, trace.WithAttributes(
		attribute.String("tender_id", tenderID.String()),
		attribute.String("run_id", runID),
	))
	start := time.Now()
	log := s.log.With(
		zap.String("operation", operation),
		zap.String("tender_id", tenderID.String()),
		zap.String("run_id", runID),
	)

	return ctx, func(err error) {
		elapsed := time.Since(start)
		s.metrics.ObserveRun(operation, elapsed, err)
		s.instruments.RecordAnalysisRun(ctx, operation, obsmetrics.Outcome(err))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Warn("analysis failed", zap.Error(err), zap.Duration("elapsed", elapsed))
		} else {
			log.Info("analysis completed", zap.Duration("elapsed", elapsed))
		}
		span.End()
	}
}

// Summarize folds per-item results into tender-level totals.
func Summarize(tender domain.Tender, results []domain.ItemWinnerResult, proposalCount int) domain.TenderSummary {
	summary := domain.TenderSummary{
		TenderID:                 tender.ID,
		Currency:                 tender.Currency,
		TotalEstimated:           decimal.Zero,
		TotalWinning:             decimal.Zero,
		TotalSavings:             decimal.Zero,
		SavingsPercentage:        decimal.Zero,
		ProposalCount:            proposalCount,
		ItemCount:                len(results),
		WinningSupplierNames:     []string{},
		RunnerUpSupplierNames:    []string{},
		AverageSavingsPercentage: decimal.Zero,
		TotalVatAmount:           decimal.Zero,
		TotalDeliveryCost:        decimal.Zero,
	}

	winners := make(map[snowflake.ID]struct{})
	percentages := decimal.Zero
	for _, r := range results {
		summary.TotalEstimated = summary.TotalEstimated.Add(r.EstimatedTotal)
		summary.TotalWinning = summary.TotalWinning.Add(r.WinningTotal)
		percentages = percentages.Add(r.SavingsPercentage)

		if r.Winner != nil {
			winners[r.Winner.SupplierID] = struct{}{}
			summary.WinningSupplierNames = append(summary.WinningSupplierNames, r.Winner.SupplierName)
			summary.TotalVatAmount = summary.TotalVatAmount.Add(r.Winner.VatAmount)
			summary.TotalDeliveryCost = summary.TotalDeliveryCost.Add(r.Winner.DeliveryCost)
		}
		if r.RunnerUp != nil {
			summary.RunnerUpSupplierNames = append(summary.RunnerUpSupplierNames, r.RunnerUp.SupplierName)
		}
	}
	summary.WinningSupplierNames = uniqueNames(summary.WinningSupplierNames)
	summary.RunnerUpSupplierNames = uniqueNames(summary.RunnerUpSupplierNames)
	summary.DistinctWinningSupplierCount = len(winners)

	// No proposals means there is no pricing data at all, which is reported
	// as zero rather than as a saving of the full estimate.
	if proposalCount == 0 {
		summary.TotalWinning = decimal.Zero
		return summary
	}

	summary.TotalSavings = summary.TotalEstimated.Sub(summary.TotalWinning)
	summary.SavingsPercentage = percentageOf(summary.TotalSavings, summary.TotalEstimated)
	if len(results) > 0 {
		summary.AverageSavingsPercentage = percentages.Div(decimal.NewFromInt(int64(len(results))))
	}
	return summary
}

func countProposals(bids []domain.SupplierBid) int {
	return len(lo.Uniq(lo.Map(bids, func(b domain.SupplierBid, _ int) snowflake.ID { return b.ProposalID })))
}

func uniqueNames(names []string) []string {
	return lo.Uniq(lo.Filter(names, func(name string, _ int) bool { return strings.TrimSpace(name) != "" }))
}

func parseID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(raw))
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, domain.ErrInvalidTender
	}
	return id, nil
}
