package ext_services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"encore.dev/rlog"
	"encore.dev/storage/cache"
	"github.com/samber/lo"
	"receivables.app/invoicing/models"
)

var secrets struct {
	OpenExchangeRatesAppId string
}

//go:generate mockgen -package=mocks -destination=mocks/exchange_rates_mock.go . ExchangeRatesService
type ExchangeRatesService interface {
	GetRates(ctx context.Context) (*models.RatesData, error)
}

// conversionService quotes USD-based rates for the currencies invoices are
// issued or reported in. Rates are shared through the cache keyspace and kept
// in memory for the configured TTL.
type conversionService struct {
	cache  *cache.StructKeyspace[string, models.RatesData]
	client *http.Client
	cfg    *models.AppConfig

	mu        sync.Mutex
	rates     map[string]float64
	fetchedAt time.Time
}

type latestRates struct {
	Base      string             `json:"base"`
	Rates     map[string]float64 `json:"rates"`
	Timestamp int64              `json:"timestamp"`
}

func NewConversionService(cfg *models.AppConfig, cache *cache.StructKeyspace[string, models.RatesData]) *conversionService {
	rlog.With("module", "currency_conversion").Info("currency conversion initialized",
		"cache_available", cache != nil,
		"currencies", strings.Join(quotedCurrencies(cfg), ","))

	return &conversionService{
		cache:  cache,
		client: &http.Client{},
		cfg:    cfg,
	}
}

// GetRates returns rates for every invoicing and reporting currency,
// refreshed at most once per TTL.
func (s *conversionService) GetRates(ctx context.Context) (*models.RatesData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.refresh(ctx); err != nil {
		rlog.With("module", "currency_conversion").Error("failed to refresh exchange rates", "error", err)
		return nil, err
	}

	return &models.RatesData{Rates: s.rates, UpdatedAt: s.fetchedAt}, nil
}

// refresh loads rates from the shared cache, falling back to the API on a miss.
// Callers hold s.mu.
func (s *conversionService) refresh(ctx context.Context) error {
	log := rlog.With("module", "currency_conversion")

	ttl := time.Duration(s.cfg.ExternalServices.ExchangeRates.TTL()) * time.Second
	if s.rates != nil && time.Since(s.fetchedAt) < ttl {
		return nil
	}

	cacheKey := s.cfg.ExternalServices.ExchangeRates.CacheKey()
	if data, err := s.cache.Get(ctx, cacheKey); err == nil {
		log.Debug("using cached exchange rates", "rates_count", len(data.Rates), "fetched_at", data.UpdatedAt)
		s.rates, s.fetchedAt = data.Rates, data.UpdatedAt
		return nil
	}

	latest, err := s.fetch(ctx)
	if err != nil {
		return err
	}
	s.rates, s.fetchedAt = latest.Rates, time.Now()
	log.Info("exchange rates refreshed",
		"rates_count", len(s.rates),
		"base_currency", latest.Base,
		"quoted_at", time.Unix(latest.Timestamp, 0).UTC())

	if err = s.cache.Set(ctx, cacheKey, models.RatesData{Rates: s.rates, UpdatedAt: s.fetchedAt}); err != nil {
		log.Warn("failed to cache exchange rates", "error", err)
	}
	return nil
}

func (s *conversionService) fetch(ctx context.Context) (latestRates, error) {
	baseURL := s.cfg.ExternalServices.ExchangeRates.BaseURL()
	log := rlog.With("module", "currency_conversion").With("external_service", "openexchangerates").With("endpoint", baseURL)

	ctx, cancel := context.WithTimeout(ctx, time.Duration(s.cfg.ExternalServices.ExchangeRates.Timeout())*time.Second)
	defer cancel()

	query := url.Values{"app_id": {secrets.OpenExchangeRatesAppId}}
	if currencies := quotedCurrencies(s.cfg); len(currencies) > 0 {
		query.Set("symbols", strings.Join(currencies, ","))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return latestRates{}, err
	}

	resp, err := s.client.Do(req)
	if err != nil {
		log.Error("exchange rate request failed", "error", err)
		return latestRates{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Error("exchange rate API returned non-OK status", "status_code", resp.StatusCode)
		return latestRates{}, fmt.Errorf("failed to call exchange rate service, status code: %d", resp.StatusCode)
	}

	var latest latestRates
	if err = json.NewDecoder(resp.Body).Decode(&latest); err != nil {
		log.Error("failed to decode exchange rates", "error", err)
		return latestRates{}, err
	}

	// a zero quote cannot convert anything; leave the currency out instead
	usable := lo.PickBy(latest.Rates, func(_ string, rate float64) bool { return rate > 0 })
	if dropped := len(latest.Rates) - len(usable); dropped > 0 {
		log.Warn("ignoring non-positive exchange rates", "dropped", dropped)
	}
	if len(usable) == 0 {
		return latestRates{}, fmt.Errorf("exchange rate service returned no usable rates")
	}
	latest.Rates = usable

	return latest, nil
}

// quotedCurrencies is every currency an invoice may be issued or reported in.
func quotedCurrencies(cfg *models.AppConfig) []string {
	var currencies []string
	if allowed := cfg.Invoicing.Validation.AllowedCurrencies; allowed != nil {
		currencies = append(currencies, allowed()...)
	}
	if reporting := cfg.ExternalServices.ExchangeRates.ReportingCurrencies; reporting != nil {
		currencies = append(currencies, reporting()...)
	}
	currencies = lo.Uniq(currencies)
	slices.Sort(currencies)
	return currencies
}
