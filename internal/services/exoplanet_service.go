package services

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/exohunter-go/internal/cache"
	"github.com/irfndi/exohunter-go/internal/telemetry"
	"github.com/irfndi/exohunter-go/internal/utils"
	"github.com/irfndi/exohunter-go/pkg/nasa"
)

const defaultArchiveTTL = 24 * time.Hour

// ArchiveClient fetches rows from the NASA Exoplanet Archive.
type ArchiveClient interface {
	LookupPlanet(ctx context.Context, name string) (*nasa.LookupResult, error)
}

// PlanetLookup is an archive lookup with the typed view of its first row
// and the Eyes on Exoplanets links for it.
type PlanetLookup struct {
	Name    string         `json:"name"`
	Data    []nasa.Row     `json:"data"`
	Error   string         `json:"error,omitempty"`
	Planet  *nasa.Planet   `json:"planet,omitempty"`
	Summary *nasa.Summary  `json:"summary,omitempty"`
	Eyes    nasa.EyesLinks `json:"eyes"`
	Cached  bool           `json:"cached"`
}

// ExoplanetService looks planets up in the archive through a cache.
type ExoplanetService struct {
	archive ArchiveClient
	cache   cache.ArchiveCache
	tracer  *telemetry.BusinessTracer
	logger  *logrus.Logger
}

// NewExoplanetService creates the service. A nil cache falls back to an
// in-memory cache with the default TTL.
func NewExoplanetService(archive ArchiveClient, archiveCache cache.ArchiveCache, logger *logrus.Logger) *ExoplanetService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if archiveCache == nil {
		archiveCache = cache.NewArchiveCache(nil, defaultArchiveTTL, logger)
	}
	return &ExoplanetService{
		archive: archive,
		cache:   archiveCache,
		tracer:  telemetry.NewBusinessTracer(),
		logger:  logger,
	}
}

// Lookup returns archive data for a planet. Only lookups that produced rows
// are cached, so a planet added to the archive later is picked up.
func (s *ExoplanetService) Lookup(ctx context.Context, name string) (*PlanetLookup, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, utils.NewValidationError("name", "Planet name is required")
	}

	ctx, span := s.tracer.TraceArchiveLookup(ctx, name)
	defer span.End()

	if result, ok := s.cache.Get(ctx, name); ok {
		s.tracer.RecordArchiveLookup(span, telemetry.ArchiveLookupMetrics{CacheHit: true, Rows: len(result.Data)})
		lookup := newPlanetLookup(name, result)
		lookup.Cached = true
		return lookup, nil
	}

	result, err := s.archive.LookupPlanet(ctx, name)
	if err != nil {
		s.tracer.RecordArchiveLookup(span, telemetry.ArchiveLookupMetrics{Err: err})
		s.logger.WithError(err).WithField("planet", name).Warn("Archive lookup failed")
		return nil, err
	}
	s.tracer.RecordArchiveLookup(span, telemetry.ArchiveLookupMetrics{Rows: len(result.Data)})

	if !result.Empty() {
		s.cache.Set(ctx, name, result)
	}
	return newPlanetLookup(name, result), nil
}

func newPlanetLookup(name string, result *nasa.LookupResult) *PlanetLookup {
	lookup := &PlanetLookup{
		Name:  name,
		Data:  result.Data,
		Error: result.Error,
		Eyes:  nasa.LinksFor(name, ""),
	}
	if lookup.Data == nil {
		lookup.Data = []nasa.Row{}
	}
	if result.Empty() {
		return lookup
	}

	planet := nasa.PlanetFromRow(result.Data[0])
	summary := nasa.Summarize(planet)
	lookup.Planet = &planet
	lookup.Summary = &summary
	if planet.Name != "" {
		lookup.Eyes = nasa.LinksFor(planet.Name, planet.HostName)
	} else {
		lookup.Eyes = nasa.LinksFor(name, planet.HostName)
	}
	return lookup
}

// EyesLinks builds the Eyes on Exoplanets links without an archive call.
func (s *ExoplanetService) EyesLinks(name, host string) (nasa.EyesLinks, error) {
	if strings.TrimSpace(name) == "" {
		return nasa.EyesLinks{}, utils.NewValidationError("name", "Planet name is required")
	}
	return nasa.LinksFor(strings.TrimSpace(name), host), nil
}

// ClearCache drops every cached lookup.
func (s *ExoplanetService) ClearCache(ctx context.Context) (int, error) {
	n, err := s.cache.Clear(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.WithField("entries", n).Info("Archive cache cleared")
	return n, nil
}

// CacheStats reports cache counters.
func (s *ExoplanetService) CacheStats() cache.ArchiveCacheStats {
	return s.cache.GetStats()
}
