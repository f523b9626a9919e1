package service

import (
	"context"
	"errors"
	"fmt"

	"printshop/internal/model"
	"printshop/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Well-known setting keys.
const (
	SettingTaxRate     = "tax_rate"
	SettingShopName    = "shop_name"
	SettingShopAddress = "shop_address"
	SettingCurrency    = "currency"
)

var ErrSettingNotFound = errors.New("setting not found")

// SettingService exposes the admin-editable key/value configuration.
type SettingService interface {
	Get(ctx context.Context, key string) (*model.Setting, error)
	Set(ctx context.Context, key, value string) (*model.Setting, error)
	List(ctx context.Context) ([]model.Setting, error)
	TaxRate(ctx context.Context) decimal.Decimal
}

type settingService struct {
	settingRepo repository.SettingRepository
}

func NewSettingService(settingRepo repository.SettingRepository) SettingService {
	return &settingService{settingRepo: settingRepo}
}

func (s *settingService) Get(ctx context.Context, key string) (*model.Setting, error) {
	setting, err := s.settingRepo.Get(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingNotFound
		}
		return nil, fmt.Errorf("failed to fetch setting: %w", err)
	}
	return setting, nil
}

func (s *settingService) Set(ctx context.Context, key, value string) (*model.Setting, error) {
	if key == "" {
		return nil, errors.New("setting key is required")
	}
	if key == SettingTaxRate {
		rate, err := decimal.NewFromString(value)
		if err != nil || rate.IsNegative() {
			return nil, errors.New("tax_rate must be a non-negative decimal")
		}
	}

	if err := s.settingRepo.Set(ctx, key, value); err != nil {
		return nil, fmt.Errorf("failed to store setting: %w", err)
	}
	return s.Get(ctx, key)
}

func (s *settingService) List(ctx context.Context) ([]model.Setting, error) {
	return s.settingRepo.List(ctx)
}

// TaxRate reads the configured sales tax, falling back to the default
// when unset or unparsable.
func (s *settingService) TaxRate(ctx context.Context) decimal.Decimal {
	setting, err := s.settingRepo.Get(ctx, SettingTaxRate)
	if err != nil {
		return defaultTaxRate
	}
	rate, err := decimal.NewFromString(setting.Value)
	if err != nil || rate.IsNegative() {
		return defaultTaxRate
	}
	return rate
}
