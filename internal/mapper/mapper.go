// Package mapper normalizes backend search records into display-ready results.
package mapper

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/hyperjump/yowyob/internal/config"
	"github.com/hyperjump/yowyob/internal/models"
)

// Defaults are the values substituted for missing record fields.
type Defaults struct {
	PlaceholderImage string
	ShopName         string
	City             string
	Location         models.Location
}

// DefaultsFromConfig builds Defaults from the search config.
func DefaultsFromConfig(cfg *config.SearchConfig) Defaults {
	return Defaults{
		PlaceholderImage: cfg.PlaceholderImage,
		ShopName:         cfg.DefaultShopName,
		City:             cfg.DefaultCity,
		Location:         models.Location{Lat: cfg.DefaultLat, Lng: cfg.DefaultLng},
	}
}

// Mapper converts RawRecords into SearchResults.
type Mapper struct {
	defaults Defaults
	strict   bool
	validate *validator.Validate
	logger   *zap.Logger
}

// Option configures a Mapper.
type Option func(*Mapper)

// WithStrict drops records that fail validation instead of defaulting them.
func WithStrict(strict bool) Option {
	return func(m *Mapper) { m.strict = strict }
}

// WithLogger sets the logger used to report malformed records.
func WithLogger(l *zap.Logger) Option {
	return func(m *Mapper) { m.logger = l }
}

// New creates a Mapper with the given defaults.
func New(defaults Defaults, opts ...Option) *Mapper {
	m := &Mapper{
		defaults: defaults,
		validate: validator.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// NormalizeType applies the backend type aliases: "listing" is a product, "user" is a shop,
// anything else is lowercased, and an empty type is a product.
func NormalizeType(raw string) models.ResultType {
	t := strings.ToLower(strings.TrimSpace(raw))
	switch t {
	case "listing":
		return models.TypeProduct
	case "user":
		return models.TypeShop
	case "":
		return models.TypeProduct
	}
	return models.ResultType(t)
}

// Map converts one record. It never fails: missing fields are defaulted.
func (m *Mapper) Map(raw models.RawRecord) models.SearchResult {
	res := models.SearchResult{
		ID:          raw.ID,
		Name:        raw.Name,
		Description: raw.Description,
		Type:        NormalizeType(raw.Type),
		Category:    raw.Category,
		City:        raw.City,
		DetailsURL:  raw.DetailsURL,
	}
	if raw.Price != nil {
		res.Price = *raw.Price
	}
	if raw.Rating != nil {
		res.Rating = *raw.Rating
	}

	res.Images = nonEmpty(raw.Images)
	if len(res.Images) == 0 {
		res.Images = []string{m.defaults.PlaceholderImage}
	}

	if raw.Shop != nil {
		res.Shop = *raw.Shop
	} else {
		addr := raw.City
		if addr == "" {
			addr = m.defaults.City
		}
		res.Shop = models.ShopInfo{Name: m.defaults.ShopName, Address: addr}
	}

	if raw.Location != nil {
		res.Location = *raw.Location
	} else {
		res.Location = m.defaults.Location
	}

	if raw.Tags != nil {
		res.Tags = append([]string(nil), raw.Tags...)
	} else {
		res.Tags = nonEmpty([]string{raw.Category})
	}
	return res
}

// MapAll converts records in order. In strict mode, records that fail Check are
// logged and dropped; otherwise they are logged at debug level and defaulted.
func (m *Mapper) MapAll(raws []models.RawRecord) []*models.SearchResult {
	out := make([]*models.SearchResult, 0, len(raws))
	for i := range raws {
		if err := m.Check(raws[i]); err != nil {
			if m.strict {
				m.logger.Warn("dropping malformed search record",
					zap.Int("index", i), zap.String("id", raws[i].ID), zap.Error(err))
				continue
			}
			m.logger.Debug("defaulting malformed search record",
				zap.Int("index", i), zap.String("id", raws[i].ID), zap.Error(err))
		}
		res := m.Map(raws[i])
		out = append(out, &res)
	}
	return out
}

// Check validates a record against the schema boundary.
func (m *Mapper) Check(raw models.RawRecord) error {
	if err := m.validate.Struct(raw); err != nil {
		return err
	}
	if t := NormalizeType(raw.Type); !t.Valid() {
		return &UnknownTypeError{Type: raw.Type}
	}
	return nil
}

// UnknownTypeError reports a record type outside product/service/shop after aliasing.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	return "unknown record type " + `"` + e.Type + `"`
}

func nonEmpty(in []string) []string {
	var out []string
	for _, s := range in {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
