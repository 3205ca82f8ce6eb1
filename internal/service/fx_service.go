package service

import (
	"context"
	"fmt"
	"math"

	"yield-wallet/internal/core/domain"
	"yield-wallet/pkg/apperror"

	"github.com/rs/zerolog"
)

// RateCache caches FX rates with a TTL. A nil cache disables caching.
type RateCache interface {
	GetRate(ctx context.Context, from, to string) (float64, bool, error)
	SetRate(ctx context.Context, from, to string, rate float64) error
}

// FXServiceImpl implements ports.FXService against a deterministic USD-based
// rate table, with rates cached in Redis. Real market data is out of scope;
// the contract (rate > 0, fixed markup) is what the purchase flow relies on.
type FXServiceImpl struct {
	usdRates map[string]float64 // Units of currency per 1 USD
	markup   float64
	cache    RateCache
	log      zerolog.Logger
}

// NewFXService creates a new FXServiceImpl with the given markup fraction.
func NewFXService(markup float64, cache RateCache, log zerolog.Logger) *FXServiceImpl {
	return &FXServiceImpl{
		usdRates: map[string]float64{
			"USD": 1.0,
			"EUR": 0.92,
			"GBP": 0.79,
			"JPY": 149.50,
			"SGD": 1.34,
			"THB": 35.20,
			"VND": 24500.0,
			"KRW": 1330.0,
			"AUD": 1.52,
		},
		markup: markup,
		cache:  cache,
		log:    log,
	}
}

// GetRate returns the conversion rate from one currency to another.
func (s *FXServiceImpl) GetRate(ctx context.Context, from, to string) (float64, error) {
	if from == to {
		return 1.0, nil
	}

	if s.cache != nil {
		if rate, ok, err := s.cache.GetRate(ctx, from, to); err != nil {
			s.log.Warn().Err(err).Msg("fx cache read failed, computing rate")
		} else if ok {
			return rate, nil
		}
	}

	fromUSD, ok := s.usdRates[from]
	if !ok {
		return 0, apperror.Validation(fmt.Sprintf("unsupported currency: %s", from))
	}
	toUSD, ok := s.usdRates[to]
	if !ok {
		return 0, apperror.Validation(fmt.Sprintf("unsupported currency: %s", to))
	}

	rate := toUSD / fromUSD

	if s.cache != nil {
		if err := s.cache.SetRate(ctx, from, to, rate); err != nil {
			s.log.Warn().Err(err).Msg("fx cache write failed")
		}
	}
	return rate, nil
}

// Convert converts an amount between currencies, optionally applying the
// configured markup. The returned quote is recorded for audit.
func (s *FXServiceImpl) Convert(ctx context.Context, amount float64, from, to string, includeMarkup bool) (*domain.FXQuote, error) {
	if amount <= 0 {
		return nil, apperror.ErrInvalidAmount()
	}

	rate, err := s.GetRate(ctx, from, to)
	if err != nil {
		return nil, err
	}

	converted := amount * rate
	markup := 0.0
	if includeMarkup {
		markup = s.markup
	}
	final := converted * (1 + markup)

	return &domain.FXQuote{
		FromCurrency:    from,
		ToCurrency:      to,
		OriginalAmount:  amount,
		ConvertedAmount: roundCents(converted),
		Rate:            rate,
		Markup:          markup,
		FinalAmount:     roundCents(final),
	}, nil
}

// roundCents rounds a converted amount to two decimal places.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
