package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/metrics"
	"country-atlas-service/internal/model"
	"country-atlas-service/internal/store"
)

type Format string

const (
	FormatRestCountries Format = "restcountries"
	FormatNative        Format = "native"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case "", FormatRestCountries:
		return FormatRestCountries, nil
	case FormatNative:
		return FormatNative, nil
	default:
		return "", apperr.InvalidArgument("unknown import format %q", s)
	}
}

const (
	statusReady     = "ready"
	statusImporting = "importing"
)

type DataImporter interface {
	ImportFromReader(ctx context.Context, reader io.Reader, format Format) (model.ImportResult, error)
	ImportFromURL(ctx context.Context, url string) (model.ImportResult, error)
	GetImportStatus() string
	ClearDatabase(ctx context.Context) error
}

type dataImporter struct {
	store      store.CountryStore
	metrics    *metrics.Metrics
	logger     *zap.Logger
	httpClient *http.Client
	status     *atomic.String
}

type ImporterOption func(*dataImporter)

// WithHTTPClient replaces the retrying client used by ImportFromURL.
func WithHTTPClient(client *http.Client) ImporterOption {
	return func(d *dataImporter) {
		d.httpClient = client
	}
}

func NewDataImporter(countryStore store.CountryStore, m *metrics.Metrics, logger *zap.Logger, opts ...ImporterOption) DataImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &dataImporter{
		store:   countryStore,
		metrics: m,
		logger:  logger.With(zap.String("component", "importer")),
		status:  atomic.NewString(statusReady),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.httpClient == nil {
		d.httpClient = newRetryableHTTPClient(d.logger)
	}
	return d
}

func newRetryableHTTPClient(logger *zap.Logger) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryWaitMax = 10 * time.Second
	retryClient.RetryMax = 3
	retryClient.Backoff = retryablehttp.DefaultBackoff
	retryClient.Logger = nil
	retryClient.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, retry int) {
		if retry > 0 {
			logger.Info("Retry import request", zap.String("url", req.URL.String()), zap.Int("retry", retry))
		}
	}
	return retryClient.StandardClient()
}

func (d *dataImporter) ImportFromReader(ctx context.Context, reader io.Reader, format Format) (model.ImportResult, error) {
	if !d.status.CompareAndSwap(statusReady, statusImporting) {
		return model.ImportResult{}, apperr.InvalidArgument("an import is already running")
	}
	defer d.status.Store(statusReady)

	candidates, err := decodeCountries(reader, format)
	if err != nil {
		return model.ImportResult{}, err
	}

	var result model.ImportResult
	valid := make([]model.Country, 0, len(candidates))
	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			d.logger.Warn("skipping invalid country", zap.String("name", c.Name), zap.Error(err))
			result.Skipped++
			continue
		}
		valid = append(valid, c)
	}

	inserted, err := d.store.InsertMany(ctx, valid)
	result.Imported = inserted
	d.metrics.ObserveImport(result.Imported, result.Skipped)
	if err != nil {
		return result, fmt.Errorf("failed to store countries: %w", err)
	}

	d.logger.Info("import completed",
		zap.String("format", string(format)),
		zap.Int("imported", result.Imported),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

func decodeCountries(reader io.Reader, format Format) ([]model.Country, error) {
	switch format {
	case FormatNative:
		var countries []model.Country
		if err := json.NewDecoder(reader).Decode(&countries); err != nil {
			return nil, apperr.InvalidArgument("failed to decode countries: %v", err)
		}
		return countries, nil
	case FormatRestCountries:
		var records []restCountry
		if err := json.NewDecoder(reader).Decode(&records); err != nil {
			return nil, apperr.InvalidArgument("failed to decode restcountries payload: %v", err)
		}
		countries := make([]model.Country, 0, len(records))
		for _, rc := range records {
			countries = append(countries, rc.toCountry())
		}
		return countries, nil
	default:
		return nil, apperr.InvalidArgument("unknown import format %q", format)
	}
}

// ImportFromURL downloads a restcountries.com v3.1 payload and imports it.
func (d *dataImporter) ImportFromURL(ctx context.Context, url string) (model.ImportResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return model.ImportResult{}, apperr.InvalidArgument("bad import url: %v", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return model.ImportResult{}, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return model.ImportResult{}, fmt.Errorf("import source returned status %d", resp.StatusCode)
	}

	return d.ImportFromReader(ctx, resp.Body, FormatRestCountries)
}

func (d *dataImporter) GetImportStatus() string {
	return d.status.Load()
}

func (d *dataImporter) ClearDatabase(ctx context.Context) error {
	if err := d.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear countries: %w", err)
	}
	d.logger.Info("country collection cleared")
	return nil
}
