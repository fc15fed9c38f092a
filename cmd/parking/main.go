package main

import (
	admin_handler "parkhub/internal/admin/handler"
	admin_service "parkhub/internal/admin/service"
	balance_handler "parkhub/internal/balance/handler"
	balance_repository "parkhub/internal/balance/repository"
	balance_service "parkhub/internal/balance/service"
	balance_validator "parkhub/internal/balance/validator"
	booking_handler "parkhub/internal/bookings/handler"
	booking_repository "parkhub/internal/bookings/repository"
	booking_service "parkhub/internal/bookings/service"
	booking_validator "parkhub/internal/bookings/validator"
	"parkhub/internal/events"
	payment_handler "parkhub/internal/payments/handler"
	payment_repository "parkhub/internal/payments/repository"
	payment_service "parkhub/internal/payments/service"
	session_handler "parkhub/internal/sessions/handler"
	session_repository "parkhub/internal/sessions/repository"
	session_service "parkhub/internal/sessions/service"
	session_validator "parkhub/internal/sessions/validator"
	tariff_handler "parkhub/internal/tariffs/handler"
	tariff_repository "parkhub/internal/tariffs/repository"
	tariff_service "parkhub/internal/tariffs/service"
	tariff_validator "parkhub/internal/tariffs/validator"
	vehicle_handler "parkhub/internal/vehicles/handler"
	vehicle_repository "parkhub/internal/vehicles/repository"
	vehicle_service "parkhub/internal/vehicles/service"
	vehicle_validator "parkhub/internal/vehicles/validator"
	zone_handler "parkhub/internal/zones/handler"
	zone_repository "parkhub/internal/zones/repository"
	zone_service "parkhub/internal/zones/service"
	zone_validator "parkhub/internal/zones/validator"
	"parkhub/pkg/app"
	"parkhub/pkg/config"
	"parkhub/pkg/contracts"
	"parkhub/pkg/kafka"
	kafka_config "parkhub/pkg/kafka/config"
	kafka_middleware "parkhub/pkg/kafka/middleware"

	"github.com/julienschmidt/httprouter"
)

const ServiceName = "parking-api"

// apiHandler fans route registration out to every domain handler so the
// application sees a single contracts.Handler.
type apiHandler struct {
	handlers []contracts.Handler
}

func (h *apiHandler) RegisterRoutes(router *httprouter.Router) {
	for _, handler := range h.handlers {
		handler.RegisterRoutes(router)
	}
}

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	publisher, closePublisher := initPublisher(cfg)
	defer closePublisher()

	cfg.Log.Info("Starting ParkHub API service")
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(initHandlers(cfg, publisher))
	serverApp.Run()
}

// initPublisher wires the Kafka event publisher, degrading to a no-op when the
// producer cannot be constructed. Requests never fail on event plumbing.
func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	kafkaCfg := kafka_config.Load()
	producer, err := kafka.NewProducer(kafkaCfg, events.Topic, events.DLQTopic)
	if err != nil {
		cfg.Log.Warn("Kafka producer unavailable, domain events disabled", "error", err)
		return events.NoopPublisher{}, func() {}
	}

	if kafkaCfg.EnableMiddleware {
		producer.Use(kafka_middleware.LoggingProducerMiddleware())
	}

	cfg.Log.Info("Kafka event publisher initialized",
		"topic", events.Topic,
		"brokers", kafkaCfg.Brokers,
	)
	return events.NewKafkaPublisher(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}

func initHandlers(cfg *config.Config, publisher events.Publisher) contracts.Handler {
	customerRepo := balance_repository.NewMongoCustomerRepository(cfg)
	transactionRepo := balance_repository.NewMongoTransactionRepository(cfg)
	vehicleRepo := vehicle_repository.NewMongoVehicleRepository(cfg)
	tariffRepo := tariff_repository.NewMongoTariffRepository(cfg)
	zoneRepo := zone_repository.NewMongoZoneRepository(cfg)
	spotRepo := zone_repository.NewMongoSpotRepository(cfg)
	bookingRepo := booking_repository.NewMongoBookingRepository(cfg)
	spotLockRepo := booking_repository.NewMongoSpotLockRepository(cfg)
	sessionRepo := session_repository.NewMongoSessionRepository(cfg)
	paymentRepo := payment_repository.NewMongoPaymentRepository(cfg)

	balanceService := balance_service.NewBalanceService(
		customerRepo,
		transactionRepo,
		balance_validator.NewCustomerValidator(cfg.Log),
		cfg,
	)
	vehicleService := vehicle_service.NewVehicleService(
		vehicleRepo,
		vehicle_validator.NewVehicleValidator(cfg.Log),
		cfg,
	)
	tariffService := tariff_service.NewTariffService(
		tariffRepo,
		tariff_validator.NewTariffValidator(cfg.Log),
		cfg,
	)
	zoneService := zone_service.NewZoneService(
		zoneRepo,
		spotRepo,
		tariffService,
		zone_validator.NewZoneValidator(cfg.Log),
		cfg,
	)
	availabilityService := zone_service.NewAvailabilityService(
		zoneService,
		spotRepo,
		bookingRepo,
		cfg,
	)
	sessionService := session_service.NewSessionService(
		sessionRepo,
		zoneService,
		spotRepo,
		bookingRepo,
		vehicleService,
		balanceService,
		paymentRepo,
		payment_service.NewMockGateway(),
		publisher,
		session_validator.NewSessionValidator(cfg.Log),
		cfg,
	)
	bookingService := booking_service.NewBookingService(
		bookingRepo,
		spotLockRepo,
		zoneService,
		vehicleService,
		balanceService,
		paymentRepo,
		sessionService,
		publisher,
		booking_validator.NewBookingValidator(cfg.Log),
		cfg,
	)
	paymentService := payment_service.NewPaymentService(paymentRepo, cfg)
	adminService := admin_service.NewAdminService(
		balanceService,
		customerRepo,
		bookingRepo,
		sessionRepo,
		paymentRepo,
		bookingService,
		sessionService,
		paymentService,
		cfg,
	)

	cfg.Log.Info("Services initialized", "database", cfg.MongoDatabaseName)

	return &apiHandler{handlers: []contracts.Handler{
		balance_handler.NewBalanceHandler(balanceService, cfg.Currency, cfg.Log),
		vehicle_handler.NewVehicleHandler(vehicleService, cfg.Log),
		tariff_handler.NewTariffHandler(tariffService, cfg.Log),
		zone_handler.NewZoneHandler(zoneService, availabilityService, cfg.Log),
		booking_handler.NewBookingHandler(bookingService, cfg.Log),
		session_handler.NewSessionHandler(sessionService, cfg.Log),
		payment_handler.NewPaymentHandler(paymentService, cfg.Log),
		admin_handler.NewAdminHandler(adminService, cfg.Log),
	}}
}
