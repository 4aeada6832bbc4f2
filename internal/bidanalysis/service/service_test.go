package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/tenderscope/internal/bidanalysis/domain"
	"github.com/smallbiznis/tenderscope/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type mockSource struct {
	mock.Mock
}

func (m *mockSource) GetTender(ctx context.Context, tenderID snowflake.ID) (*domain.Tender, error) {
	args := m.Called(ctx, tenderID)
	tender, _ := args.Get(0).(*domain.Tender)
	return tender, args.Error(1)
}

func (m *mockSource) GetLineItems(ctx context.Context, tenderID snowflake.ID) ([]domain.LineItem, error) {
	args := m.Called(ctx, tenderID)
	items, _ := args.Get(0).([]domain.LineItem)
	return items, args.Error(1)
}

func (m *mockSource) GetBids(ctx context.Context, tenderID snowflake.ID) ([]domain.SupplierBid, error) {
	args := m.Called(ctx, tenderID)
	bids, _ := args.Get(0).([]domain.SupplierBid)
	return bids, args.Error(1)
}

func (m *mockSource) GetApprovedExpenseTotal(ctx context.Context, proposalID snowflake.ID) (decimal.Decimal, error) {
	args := m.Called(ctx, proposalID)
	total, _ := args.Get(0).(decimal.Decimal)
	return total, args.Error(1)
}

const tenderID snowflake.ID = 1

var testTender = &domain.Tender{ID: tenderID, Code: "it-hardware", Title: "IT hardware", Currency: "EUR", Status: "open"}

func newTestService(t *testing.T, src domain.DataSource, log *zap.Logger) *Service {
	t.Helper()
	if log == nil {
		log = zap.NewNop()
	}
	cfg := config.DefaultAnalysisConfig()
	cfg.Parallelism = 2
	svc, ok := NewService(Params{
		Log:    log,
		Source: src,
		Config: config.NewStaticAnalysisConfig(cfg),
	}).(*Service)
	require.True(t, ok)
	return svc
}

// twoItemTender has a laptop line (the scenario item) and a monitor line,
// listed out of ordinal order.
func twoItemTender() ([]domain.LineItem, []domain.SupplierBid) {
	laptop := sampleItem()
	monitor := domain.LineItem{
		ID:                 12,
		TenderID:           tenderID,
		Ordinal:            2,
		Description:        "Monitor",
		Quantity:           dec("1"),
		Unit:               "pcs",
		EstimatedUnitPrice: decPtr("300"),
	}

	bids := scenarioBids()
	m1 := bid(3, supplierA, "A", "250")
	m1.LineItemID = monitor.ID
	m2 := bid(4, supplierC, "C", "260")
	m2.LineItemID = monitor.ID
	bids = append(bids, m1, m2)

	return []domain.LineItem{monitor, laptop}, bids
}

func expectTender(src *mockSource, items []domain.LineItem, bids []domain.SupplierBid) {
	src.On("GetTender", mock.Anything, tenderID).Return(testTender, nil)
	src.On("GetLineItems", mock.Anything, tenderID).Return(items, nil)
	src.On("GetBids", mock.Anything, tenderID).Return(bids, nil)
}

func TestAnalyzeSummarizesTender(t *testing.T) {
	src := &mockSource{}
	items, bids := twoItemTender()
	expectTender(src, items, bids)
	svc := newTestService(t, src, nil)

	analysis, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	require.Len(t, analysis.Items, 2)
	assert.Equal(t, 1, analysis.Items[0].Item.Ordinal)
	assert.Equal(t, 2, analysis.Items[1].Item.Ordinal)

	s := analysis.Summary
	assert.Equal(t, tenderID, s.TenderID)
	assert.Equal(t, "EUR", s.Currency)
	assertDecimal(t, "500", s.TotalEstimated)
	assertDecimal(t, "430", s.TotalWinning)
	assertDecimal(t, "70", s.TotalSavings)
	assertDecimal(t, "14", s.SavingsPercentage)
	assert.Equal(t, 3, s.ProposalCount)
	assert.Equal(t, 2, s.ItemCount)
	assert.Equal(t, 1, s.DistinctWinningSupplierCount)
	assert.Equal(t, []string{"A"}, s.WinningSupplierNames)
	assert.Equal(t, []string{"B", "C"}, s.RunnerUpSupplierNames)
	assert.Equal(t, "13.33", s.AverageSavingsPercentage.StringFixed(2))
	assertDecimal(t, "0", s.TotalVatAmount)
	assertDecimal(t, "0", s.TotalDeliveryCost)
	src.AssertExpectations(t)
}

func TestAnalyzeSumsVatAndDeliveryOfWinners(t *testing.T) {
	src := &mockSource{}
	item := sampleItem()
	item.AwardedSupplierID = idPtr(supplierB)
	expectTender(src, []domain.LineItem{item}, scenarioBids())
	svc := newTestService(t, src, nil)

	analysis, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	assertDecimal(t, "10", analysis.Summary.TotalVatAmount)
	assertDecimal(t, "10", analysis.Summary.TotalDeliveryCost)
	assertDecimal(t, "-10", analysis.Summary.TotalSavings)
	assertDecimal(t, "-5", analysis.Summary.SavingsPercentage)
}

func TestAnalyzeWithoutProposalsReportsNoSavings(t *testing.T) {
	src := &mockSource{}
	items, _ := twoItemTender()
	expectTender(src, items, nil)
	svc := newTestService(t, src, nil)

	analysis, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	s := analysis.Summary
	assert.Equal(t, 0, s.ProposalCount)
	assertDecimal(t, "500", s.TotalEstimated)
	assertDecimal(t, "0", s.TotalWinning)
	assertDecimal(t, "0", s.TotalSavings)
	assertDecimal(t, "0", s.SavingsPercentage)
	assertDecimal(t, "0", s.AverageSavingsPercentage)
	assert.Empty(t, s.WinningSupplierNames)

	for _, r := range analysis.Items {
		assert.Nil(t, r.Winner)
		assert.Nil(t, r.RunnerUp)
		assert.True(t, r.Savings.Equal(r.EstimatedTotal))
	}
}

func TestAnalyzeWithoutLineItems(t *testing.T) {
	src := &mockSource{}
	expectTender(src, nil, nil)
	svc := newTestService(t, src, nil)

	analysis, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	assert.Empty(t, analysis.Items)
	assert.Equal(t, 0, analysis.Summary.ItemCount)
	assertDecimal(t, "0", analysis.Summary.AverageSavingsPercentage)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	src := &mockSource{}
	items, bids := twoItemTender()
	expectTender(src, items, bids)
	svc := newTestService(t, src, nil)

	first, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)
	second, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	a, err := json.Marshal(first)
	require.NoError(t, err)
	b, err := json.Marshal(second)
	require.NoError(t, err)
	assert.JSONEq(t, string(a), string(b))
}

func TestAnalyzeKeepsOrdinalOrderUnderParallelism(t *testing.T) {
	src := &mockSource{}
	items := make([]domain.LineItem, 0, 40)
	for i := 40; i >= 1; i-- {
		items = append(items, domain.LineItem{
			ID:       snowflake.ID(1000 + i),
			TenderID: tenderID,
			Ordinal:  i,
			Quantity: dec("1"),
		})
	}
	expectTender(src, items, nil)
	svc := newTestService(t, src, nil)

	analysis, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	require.Len(t, analysis.Items, 40)
	for i, r := range analysis.Items {
		assert.Equal(t, i+1, r.Item.Ordinal)
	}
}

func TestAnalyzeErrors(t *testing.T) {
	t.Run("invalid_id", func(t *testing.T) {
		svc := newTestService(t, &mockSource{}, nil)
		for _, raw := range []string{"", "abc", "-4", "0"} {
			_, err := svc.Analyze(context.Background(), raw)
			assert.ErrorIs(t, err, domain.ErrInvalidTender, raw)
		}
	})

	t.Run("not_found", func(t *testing.T) {
		src := &mockSource{}
		src.On("GetTender", mock.Anything, tenderID).Return(nil, nil)
		svc := newTestService(t, src, nil)

		_, err := svc.Analyze(context.Background(), tenderID.String())
		assert.ErrorIs(t, err, domain.ErrTenderNotFound)
		src.AssertNotCalled(t, "GetBids", mock.Anything, mock.Anything)
	})

	t.Run("source_failure", func(t *testing.T) {
		boom := errors.New("connection refused")
		src := &mockSource{}
		src.On("GetTender", mock.Anything, tenderID).Return(testTender, nil)
		src.On("GetLineItems", mock.Anything, tenderID).Return([]domain.LineItem{sampleItem()}, nil)
		src.On("GetBids", mock.Anything, tenderID).Return(nil, boom)
		svc := newTestService(t, src, nil)

		_, err := svc.Analyze(context.Background(), tenderID.String())
		assert.ErrorIs(t, err, boom)
	})
}

func TestAnalyzeLogsIgnoredOverride(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	src := &mockSource{}
	item := sampleItem()
	item.AwardedSupplierID = idPtr(supplierC)
	expectTender(src, []domain.LineItem{item}, scenarioBids())
	svc := newTestService(t, src, zap.New(core))

	analysis, err := svc.Analyze(context.Background(), tenderID.String())
	require.NoError(t, err)

	assert.True(t, analysis.Items[0].OverrideIgnored)
	assert.Equal(t, supplierA, analysis.Items[0].Winner.SupplierID)
	assert.Equal(t, 1, logs.FilterMessage("awarded supplier has no bid on item, using computed ranking").Len())
}

func TestGetOutliers(t *testing.T) {
	src := &mockSource{}
	item := sampleItem()
	item.Quantity = dec("1")
	units := []string{"10", "10", "10", "10", "10", "100"}
	bids := make([]domain.SupplierBid, 0, len(units))
	for i, u := range units {
		bids = append(bids, bid(snowflake.ID(i+1), snowflake.ID(300+i), "S", u))
	}
	expectTender(src, []domain.LineItem{item}, bids)
	svc := newTestService(t, src, nil)

	outliers, err := svc.GetOutliers(context.Background(), tenderID.String())
	require.NoError(t, err)

	require.Len(t, outliers, 1)
	assert.Equal(t, snowflake.ID(6), outliers[0].BidID)
	assert.True(t, outliers[0].IsOutlier)
	assert.Equal(t, 6, outliers[0].Rank)
}

func TestGetRecommendations(t *testing.T) {
	src := &mockSource{}
	items, bids := twoItemTender()
	expectTender(src, items, bids)
	svc := newTestService(t, src, nil)

	hints, err := svc.GetRecommendations(context.Background(), tenderID.String())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Awarding the selected offers saves 70.00 EUR (14.00%) against the estimate.",
		"All items are won by A; consider splitting the award to reduce supplier concentration.",
	}, hints)
}

func TestGetItemWinner(t *testing.T) {
	src := &mockSource{}
	items, bids := twoItemTender()
	expectTender(src, items, bids)
	svc := newTestService(t, src, nil)

	result, err := svc.GetItemWinner(context.Background(), tenderID.String(), "12")
	require.NoError(t, err)
	require.NotNil(t, result.Winner)
	assert.Equal(t, "Monitor", result.Item.Description)
	assert.Equal(t, supplierA, result.Winner.SupplierID)
	assert.Equal(t, supplierC, result.RunnerUp.SupplierID)
	assertDecimal(t, "50", result.Savings)

	_, err = svc.GetItemWinner(context.Background(), tenderID.String(), "999")
	assert.ErrorIs(t, err, domain.ErrLineItemNotFound)

	_, err = svc.GetItemWinner(context.Background(), tenderID.String(), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidLineItem)
}

func TestGetProposalTotals(t *testing.T) {
	src := &mockSource{}
	items, bids := twoItemTender()
	expectTender(src, items, bids)
	src.On("GetApprovedExpenseTotal", mock.Anything, supplierA*10).Return(dec("100"), nil)
	src.On("GetApprovedExpenseTotal", mock.Anything, supplierB*10).Return(dec("0"), nil)
	src.On("GetApprovedExpenseTotal", mock.Anything, supplierC*10).Return(dec("-5"), nil)
	svc := newTestService(t, src, nil)

	totals, err := svc.GetProposalTotals(context.Background(), tenderID.String())
	require.NoError(t, err)
	require.Len(t, totals, 3)

	assert.Equal(t, supplierB, totals[0].SupplierID)
	assertDecimal(t, "210", totals[0].GrandTotal)

	assert.Equal(t, supplierC, totals[1].SupplierID)
	assertDecimal(t, "260", totals[1].QuotedTotal)
	assertDecimal(t, "0", totals[1].ApprovedExpenses, "negative expense totals are clamped")
	assertDecimal(t, "260", totals[1].GrandTotal)

	assert.Equal(t, supplierA, totals[2].SupplierID)
	assert.Equal(t, 2, totals[2].ItemsQuoted)
	assertDecimal(t, "430", totals[2].QuotedTotal)
	assertDecimal(t, "530", totals[2].GrandTotal)
}

func TestRollupProposalsIgnoresIneligibleAndUnknownItems(t *testing.T) {
	items := []domain.LineItem{sampleItem()}
	priced := bid(1, supplierA, "A", "10")
	unpriced := bid(2, supplierA, "A", "1")
	unpriced.UnitPrice = nil
	orphan := bid(3, supplierA, "A", "1")
	orphan.LineItemID = 999

	totals := RollupProposals(items, []domain.SupplierBid{priced, unpriced, orphan})

	require.Len(t, totals, 1)
	assert.Equal(t, 1, totals[0].ItemsQuoted)
	assertDecimal(t, "20", totals[0].QuotedTotal)
}
