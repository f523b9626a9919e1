package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"printshop/internal/repository"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
)

// DashboardReport is the landing-page aggregate.
type DashboardReport struct {
	OrdersByStatus    map[string]int64 `json:"orders_by_status"`
	LowStockMaterials int              `json:"low_stock_materials"`
	Revenue           decimal.Decimal  `json:"revenue"`
	GeneratedAt       time.Time        `json:"generated_at"`
}

// InventoryReportLine is one material row of the inventory report.
type InventoryReportLine struct {
	MaterialID   string          `json:"material_id"`
	Name         string          `json:"name"`
	CurrentStock int             `json:"current_stock"`
	Minimum      int             `json:"minimum_stock_level"`
	LowStock     bool            `json:"low_stock"`
	StockValue   decimal.Decimal `json:"stock_value"`
}

// InventoryReport values stock on hand at unit cost.
type InventoryReport struct {
	Lines       []InventoryReportLine `json:"lines"`
	TotalValue  decimal.Decimal       `json:"total_value"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// ReportService builds read-only aggregates. Results are cached in
// redis for a short TTL; a cold or unreachable cache falls through to
// the database.
type ReportService interface {
	Dashboard(ctx context.Context) (*DashboardReport, error)
	Inventory(ctx context.Context) (*InventoryReport, error)
	Finance(ctx context.Context, from, to time.Time) (*FinanceSummary, error)
}

type reportService struct {
	orderRepo    repository.OrderRepository
	materialRepo repository.MaterialRepository
	finance      FinanceService
	cache        *redis.Client
	cacheTTL     time.Duration
}

func NewReportService(
	orderRepo repository.OrderRepository,
	materialRepo repository.MaterialRepository,
	finance FinanceService,
	cache *redis.Client,
	cacheTTLSeconds int,
) ReportService {
	return &reportService{
		orderRepo:    orderRepo,
		materialRepo: materialRepo,
		finance:      finance,
		cache:        cache,
		cacheTTL:     time.Duration(cacheTTLSeconds) * time.Second,
	}
}

func (s *reportService) Dashboard(ctx context.Context) (*DashboardReport, error) {
	const cacheKey = "report:dashboard"
	var cached DashboardReport
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	counts, err := s.orderRepo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}
	lowStock, err := s.materialRepo.ListLowStock(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list low stock: %w", err)
	}

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	summary, err := s.finance.Summary(ctx, monthStart, now)
	if err != nil {
		return nil, err
	}

	report := &DashboardReport{
		OrdersByStatus:    counts,
		LowStockMaterials: len(lowStock),
		Revenue:           summary.Revenue,
		GeneratedAt:       now,
	}
	s.toCache(ctx, cacheKey, report)
	return report, nil
}

func (s *reportService) Inventory(ctx context.Context) (*InventoryReport, error) {
	const cacheKey = "report:inventory"
	var cached InventoryReport
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	materials, _, err := s.materialRepo.List(ctx, 1, 10000, "", "")
	if err != nil {
		return nil, fmt.Errorf("failed to list materials: %w", err)
	}

	report := &InventoryReport{
		Lines:       make([]InventoryReportLine, 0, len(materials)),
		TotalValue:  decimal.Zero,
		GeneratedAt: time.Now(),
	}
	for _, material := range materials {
		value := material.UnitCost.Mul(intToDecimal(material.CurrentStock))
		report.Lines = append(report.Lines, InventoryReportLine{
			MaterialID:   material.MaterialID,
			Name:         material.Name,
			CurrentStock: material.CurrentStock,
			Minimum:      material.MinimumStockLevel,
			LowStock:     material.LowStock(),
			StockValue:   value,
		})
		report.TotalValue = report.TotalValue.Add(value)
	}

	s.toCache(ctx, cacheKey, report)
	return report, nil
}

func (s *reportService) Finance(ctx context.Context, from, to time.Time) (*FinanceSummary, error) {
	cacheKey := fmt.Sprintf("report:finance:%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	var cached FinanceSummary
	if s.fromCache(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	summary, err := s.finance.Summary(ctx, from, to)
	if err != nil {
		return nil, err
	}
	s.toCache(ctx, cacheKey, summary)
	return summary, nil
}

func (s *reportService) fromCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil {
		return false
	}
	raw, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(raw), out) == nil
}

func (s *reportService) toCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, raw, s.cacheTTL)
}
