//go:build wireinject
// +build wireinject

package di

import (
	"atrium/config"
	"atrium/infras/jwt"
	"atrium/infras/kafka"
	"atrium/infras/otel"
	"atrium/infras/postgres"
	"atrium/infras/redis"
	"atrium/infras/s3"
	"atrium/permissions"
	"atrium/shared/cache"
	"atrium/transport/http"
	"atrium/transport/http/middleware"
	"atrium/transport/http/router"

	"github.com/google/wire"

	appointmentRepository "atrium/internal/domains/appointment/repository"
	appointmentService "atrium/internal/domains/appointment/service"
	authService "atrium/internal/domains/auth/service"
	locationRepository "atrium/internal/domains/location/repository"
	locationService "atrium/internal/domains/location/service"
	roomRepository "atrium/internal/domains/room/repository"
	roomService "atrium/internal/domains/room/service"
	userRepository "atrium/internal/domains/user/repository"
	userService "atrium/internal/domains/user/service"

	appointmentHandler "atrium/internal/handlers/appointment"
	authHandler "atrium/internal/handlers/auth"
	locationHandler "atrium/internal/handlers/location"
	roomHandler "atrium/internal/handlers/room"
	userHandler "atrium/internal/handlers/user"
)

var configurations = wire.NewSet(
	config.Get,
	permissions.Get,
)

var infrastructures = wire.NewSet(
	postgres.New,
	otel.New,
	redis.New,
	jwt.New,
	kafka.New,
	s3.New,
)

var middlewares = wire.NewSet(
	middleware.NewAppMiddleware,
	middleware.NewAuthRoleMiddleware,
)

var sharedHelpers = wire.NewSet(
	cache.NewRedisCache,
)

var authDomain = wire.NewSet(
	authService.New,
)

var userDomain = wire.NewSet(
	userRepository.New,
	userService.New,
)

var locationDomain = wire.NewSet(
	locationRepository.New,
	locationService.New,
)

var roomDomain = wire.NewSet(
	roomRepository.New,
	roomRepository.NewFacility,
	roomService.New,
)

var appointmentDomain = wire.NewSet(
	appointmentRepository.New,
	appointmentRepository.NewAudit,
	appointmentService.New,
)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	locationDomain,
	roomDomain,
	appointmentDomain,
)

var routing = wire.NewSet(
	wire.Struct(new(router.DomainHandlers), "*"),
	authHandler.New,
	userHandler.New,
	locationHandler.New,
	roomHandler.New,
	appointmentHandler.New,
	router.New,
)

func InitializeService() *http.HTTP {
	wire.Build(
		configurations,
		infrastructures,
		middlewares,
		sharedHelpers,
		domains,
		routing,
		http.New,
	)

	return &http.HTTP{}
}
