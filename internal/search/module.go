package search

import (
	"tripsearch_backend/internal/config"
	apphttp "tripsearch_backend/internal/http"
	"tripsearch_backend/internal/places"
	"tripsearch_backend/internal/search/fallback"
	"tripsearch_backend/internal/search/handler"
	"tripsearch_backend/internal/search/providers"
	"tripsearch_backend/internal/search/service"
	"tripsearch_backend/platform/cache"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/pacing"
	"tripsearch_backend/platform/validator"
)

type Module struct {
	engine  *service.Engine
	handler *handler.Handler
}

// NewModule wires the whole search context: the shared pacing controller,
// four provider adapters, the place resolver, fallback generator and engine.
// The redis tier may be disabled (nil-safe).
func NewModule(cfg *config.Config, redis *cache.RedisTier, val *validator.Validator, log *logger.Logger) *Module {
	pacer := pacing.New(cfg.MinCallInterval, cfg.CooldownWindow, log)

	amadeus := providers.NewAmadeus(cfg, cfg.ProviderTimeout, pacer, log)
	rail := providers.NewRail(cfg, cfg.ProviderTimeout, pacer, log)
	bus := providers.NewBus(cfg, cfg.ProviderTimeout, pacer, log)
	stay := providers.NewStay(cfg, cfg.ProviderTimeout, pacer, log)

	resolver := places.NewResolver(map[places.Kind]places.Lookup{
		places.KindAirport:  amadeus,
		places.KindStation:  rail,
		places.KindCity:     bus,
		places.KindCityIATA: amadeus,
	}, cache.New[*places.Place]("places"), pacer, cfg.PlaceCacheTTL, log)

	gen := fallback.NewGenerator(fallback.NewLLMClient(cfg), log)

	engine := service.NewEngine(
		amadeus, rail, bus,
		[]service.HotelProvider{amadeus, stay},
		resolver, redis, pacer, gen,
		service.TTLs{
			Flight: cfg.FlightCacheTTL,
			Train:  cfg.TrainCacheTTL,
			Bus:    cfg.BusCacheTTL,
			Hotel:  cfg.HotelCacheTTL,
			Redis:  cfg.RedisCacheTTL,
		},
		log,
	)

	return &Module{
		engine:  engine,
		handler: handler.New(engine, val),
	}
}

// Engine exposes the search engine for composition outside HTTP.
func (m *Module) Engine() *service.Engine {
	return m.engine
}

func (m *Module) Name() string {
	return "search"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/search")
	m.handler.RegisterRoutes(group)
}

var _ apphttp.Module = (*Module)(nil)
