// Code generated by Wire. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package di

import (
	"atrium/config"
	"atrium/infras/jwt"
	"atrium/infras/kafka"
	"atrium/infras/otel"
	"atrium/infras/postgres"
	"atrium/infras/redis"
	"atrium/infras/s3"
	repository4 "atrium/internal/domains/appointment/repository"
	service5 "atrium/internal/domains/appointment/service"
	"atrium/internal/domains/auth/service"
	repository2 "atrium/internal/domains/location/repository"
	service3 "atrium/internal/domains/location/service"
	repository3 "atrium/internal/domains/room/repository"
	service4 "atrium/internal/domains/room/service"
	"atrium/internal/domains/user/repository"
	service2 "atrium/internal/domains/user/service"
	"atrium/internal/handlers/appointment"
	"atrium/internal/handlers/auth"
	"atrium/internal/handlers/location"
	"atrium/internal/handlers/room"
	"atrium/internal/handlers/user"
	"atrium/permissions"
	"atrium/shared/cache"
	"atrium/transport/http"
	"atrium/transport/http/middleware"
	"atrium/transport/http/router"
	"github.com/google/wire"
)

// Injectors from wire.go:

func InitializeService() *http.HTTP {
	configConfig := config.Get()
	connection := postgres.New(configConfig)
	otelOtel := otel.New(configConfig)
	repositoryUser := repository.New(connection, otelOtel)
	jwtJWT := jwt.New(configConfig)
	serviceAuth := service.New(repositoryUser, configConfig, otelOtel, jwtJWT)
	handler := auth.New(serviceAuth, otelOtel)
	client := redis.New(configConfig)
	redisCache := cache.NewRedisCache(client, otelOtel)
	serviceUser := service2.New(repositoryUser, configConfig, redisCache, otelOtel)
	userHandler := user.New(serviceUser, otelOtel)
	repositoryLocation := repository2.New(connection, otelOtel)
	repositoryRoom := repository3.New(connection, otelOtel)
	serviceLocation := service3.New(repositoryLocation, repositoryRoom, configConfig, redisCache, otelOtel)
	locationHandler := location.New(serviceLocation, otelOtel)
	facility := repository3.NewFacility(connection, otelOtel)
	s3S3 := s3.New(configConfig, otelOtel)
	serviceRoom := service4.New(repositoryRoom, facility, repositoryLocation, configConfig, redisCache, otelOtel, s3S3)
	repositoryAppointment := repository4.New(connection, otelOtel)
	audit := repository4.NewAudit(connection, otelOtel)
	kafkaClient := kafka.New(configConfig)
	serviceAppointment := service5.New(repositoryAppointment, audit, repositoryRoom, facility, configConfig, redisCache, otelOtel, kafkaClient)
	roomHandler := room.New(serviceRoom, serviceAppointment, otelOtel)
	appointmentHandler := appointment.New(serviceAppointment, otelOtel)
	domainHandlers := router.DomainHandlers{
		Auth:        handler,
		User:        userHandler,
		Location:    locationHandler,
		Room:        roomHandler,
		Appointment: appointmentHandler,
	}
	routerRouter := router.New(domainHandlers)
	appMiddleware := middleware.NewAppMiddleware(otelOtel, configConfig, redisCache)
	permissionData := permissions.Get()
	authRole := middleware.NewAuthRoleMiddleware(jwtJWT, otelOtel, permissionData, configConfig)
	httpHTTP := http.New(configConfig, routerRouter, appMiddleware, authRole)
	return httpHTTP
}

// wire.go:

var configurations = wire.NewSet(config.Get, permissions.Get)

var infrastructures = wire.NewSet(postgres.New, otel.New, redis.New, jwt.New, kafka.New, s3.New)

var middlewares = wire.NewSet(middleware.NewAppMiddleware, middleware.NewAuthRoleMiddleware)

var sharedHelpers = wire.NewSet(cache.NewRedisCache)

var authDomain = wire.NewSet(service.New)

var userDomain = wire.NewSet(repository.New, service2.New)

var locationDomain = wire.NewSet(repository2.New, service3.New)

var roomDomain = wire.NewSet(repository3.New, repository3.NewFacility, service4.New)

var appointmentDomain = wire.NewSet(repository4.New, repository4.NewAudit, service5.New)

var domains = wire.NewSet(
	authDomain,
	userDomain,
	locationDomain,
	roomDomain,
	appointmentDomain,
)

var routing = wire.NewSet(wire.Struct(new(router.DomainHandlers), "*"), auth.New, user.New, location.New, room.New, appointment.New, router.New)
