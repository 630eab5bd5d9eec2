package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/MoonRock000/E-commerce/internal/cart"
	"github.com/MoonRock000/E-commerce/internal/config"
	"github.com/MoonRock000/E-commerce/internal/events"
	"github.com/MoonRock000/E-commerce/internal/httpx"
	"github.com/MoonRock000/E-commerce/internal/inventory"
	"github.com/MoonRock000/E-commerce/internal/metrics"
	"github.com/MoonRock000/E-commerce/internal/order"
	"github.com/MoonRock000/E-commerce/internal/postgres"
	"github.com/MoonRock000/E-commerce/internal/product"
)

// @title Storefront API
// @version 1.0
// @description Cart, checkout and order lifecycle for the storefront.
// @BasePath /
func main() {
	log.SetFormatter(&log.JSONFormatter{})
	cfg := config.Load()

	ctx := context.Background()
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.WithError(err).Fatal("postgres connect failed")
	}
	defer pool.Close()

	products := product.NewPGRepo(pool)
	orders := order.NewPGRepo(pool)
	ledger := inventory.NewPGLedger(pool)

	var carts cart.Repository
	cartsColocated := true
	if cfg.CartBackend == "redis" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		carts = cart.NewRedisRepo(rdb)
		cartsColocated = false
	} else {
		carts = cart.NewPGRepo(pool)
	}

	var pub events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.OrdersTopic, "storefront", 256)
		kp.Start(ctx)
		defer kp.Close()
		pub = kp
	}

	m := metrics.NewStoreMetrics()
	locks := cart.NewUserLocks()
	cartSvc := cart.NewService(products, carts, ledger, locks, m,
		log.NewEntry(log.StandardLogger()).WithField("component", "cart"))
	orderSvc := order.NewService(orders, carts, products, ledger, locks, pub, m,
		log.NewEntry(log.StandardLogger()).WithField("component", "order"), cartsColocated)

	r := setupRouter(products, cartSvc, orderSvc)
	log.WithField("addr", cfg.HTTPAddr).Info("storefront listening")
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.WithError(err).Fatal("http server stopped")
	}
}

func setupRouter(products product.Repository, cartSvc *cart.Service, orderSvc *order.Service) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestID(), httpx.Logger())

	r.GET("/healthz", func(c *gin.Context) { c.String(200, "ok") })
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Public catalog
	r.GET("/products", listProductsHandler(products))
	r.GET("/products/:id", getProductHandler(products))

	// Admin catalog
	adm := r.Group("/products", httpx.Identity(), httpx.RequireAdmin())
	adm.POST("", createProductHandler(products))
	adm.PUT("/:id", updateProductHandler(products))
	adm.DELETE("/:id", deleteProductHandler(products))

	// Cart + checkout (authenticated)
	ct := r.Group("/cart", httpx.Identity())
	ct.POST("/add", addToCartHandler(cartSvc))
	ct.PATCH("/remove", removeFromCartHandler(cartSvc))
	ct.PATCH("", updateCartHandler(cartSvc))
	ct.GET("", getCartHandler(cartSvc))
	ct.DELETE("", clearCartHandler(cartSvc))
	ct.POST("/checkout", checkoutHandler(orderSvc))

	// Orders (authenticated; service enforces ownership/role)
	ord := r.Group("/orders", httpx.Identity())
	ord.GET("", listOrdersHandler(orderSvc))
	ord.GET("/:id", getOrderHandler(orderSvc))
	ord.PATCH("/:id", updateOrderHandler(orderSvc))
	ord.DELETE("/:id", cancelOrderHandler(orderSvc))

	return r
}
