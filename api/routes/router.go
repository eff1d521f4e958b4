package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aldousari/vendpoint-backend/api/controllers"
	"github.com/aldousari/vendpoint-backend/api/middleware"
	"github.com/aldousari/vendpoint-backend/internal/assignments"
	"github.com/aldousari/vendpoint-backend/internal/dispense"
	"github.com/aldousari/vendpoint-backend/internal/machineproducts"
	"github.com/aldousari/vendpoint-backend/internal/machines"
	"github.com/aldousari/vendpoint-backend/internal/planogram"
	"github.com/aldousari/vendpoint-backend/internal/products"
	"github.com/aldousari/vendpoint-backend/internal/sales"
	"github.com/aldousari/vendpoint-backend/internal/vendors"
	"github.com/aldousari/vendpoint-backend/internal/warehouses"
	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/db"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
	pkgredis "github.com/aldousari/vendpoint-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	registry *prometheus.Registry,
	machineService machines.Service,
	productService products.Service,
	planogramService planogram.Service,
	assignmentService assignments.Service,
	overrideService machineproducts.Service,
	salesService sales.Service,
	vendorService vendors.Service,
	warehouseService warehouses.Service,
	dispenseService *dispense.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var cachePinger pkgredis.Pinger
	if redisClient != nil {
		cachePinger = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			r.Use(middleware.Idempotency(redisClient, logg))
		}

		r.Route("/machines", func(r chi.Router) {
			r.Post("/", controllers.MachineCreate(machineService, logg))
			r.Get("/", controllers.MachineList(machineService, logg))
			r.Get("/{machineId}", controllers.MachineGet(machineService, logg))
			r.Patch("/{machineId}", controllers.MachineUpdate(machineService, logg))
			r.Delete("/{machineId}", controllers.MachineDelete(machineService, logg))

			r.Get("/{machineId}/planogram", controllers.PlanogramGet(planogramService, logg))
			r.Post("/{machineId}/planogram/ensure", controllers.PlanogramEnsure(planogramService, logg))

			r.Get("/{machineId}/products", controllers.OverrideList(overrideService, logg))
			r.Put("/{machineId}/products/{productId}", controllers.OverrideSet(overrideService, logg))
			r.Delete("/{machineId}/products/{productId}", controllers.OverrideRemove(overrideService, logg))
			r.Get("/{machineId}/products/{productId}/price", controllers.EffectivePrice(overrideService, logg))
		})

		r.Route("/slots", func(r chi.Router) {
			r.Put("/{slotId}", controllers.SlotUpdate(planogramService, logg))
			r.Post("/{slotId}/clear", controllers.SlotClear(planogramService, logg))
		})

		r.Get("/stock", controllers.StockReport(planogramService, logg))

		r.Post("/assignments/bulk", controllers.BulkAssign(assignmentService, logg))

		r.Route("/products", func(r chi.Router) {
			r.Post("/", controllers.ProductCreate(productService, logg))
			r.Get("/", controllers.ProductList(productService, logg))
			r.Get("/{productId}", controllers.ProductGet(productService, logg))
			r.Patch("/{productId}", controllers.ProductUpdate(productService, logg))
			r.Delete("/{productId}", controllers.ProductDelete(productService, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SalesList(salesService, logg))
			r.Get("/summary", controllers.SalesSummary(salesService, logg))
			r.Get("/export", controllers.SalesExport(salesService, logg))
		})

		r.Route("/vendors", func(r chi.Router) {
			r.Post("/", controllers.VendorCreate(vendorService, logg))
			r.Get("/", controllers.VendorList(vendorService, logg))
			r.Get("/{vendorId}", controllers.VendorGet(vendorService, logg))
			r.Patch("/{vendorId}", controllers.VendorUpdate(vendorService, logg))
			r.Delete("/{vendorId}", controllers.VendorDelete(vendorService, logg))
		})

		r.Route("/warehouses", func(r chi.Router) {
			r.Post("/", controllers.WarehouseCreate(warehouseService, logg))
			r.Get("/", controllers.WarehouseList(warehouseService, logg))
			r.Get("/{warehouseId}", controllers.WarehouseGet(warehouseService, logg))
			r.Patch("/{warehouseId}", controllers.WarehouseUpdate(warehouseService, logg))
			r.Delete("/{warehouseId}", controllers.WarehouseDelete(warehouseService, logg))
		})

		r.Route("/dispense", func(r chi.Router) {
			r.Post("/session", controllers.DispenseSessionOpen(dispenseService, logg))
			r.Delete("/session", controllers.DispenseSessionClose(dispenseService, logg))
			r.Get("/session", controllers.DispenseSessionStatus(dispenseService, logg))
			r.Post("/", controllers.DispenseCommand(dispenseService, logg))
			r.Get("/events", controllers.DispenseEvents(dispenseService, logg))
		})
	})

	return r
}
