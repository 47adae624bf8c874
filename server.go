package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/rentals_backend/config"
	"bitbucket.org/mmdatafocus/rentals_backend/middlewares"
	"bitbucket.org/mmdatafocus/rentals_backend/models"
	"bitbucket.org/mmdatafocus/rentals_backend/models/reports"
	"bitbucket.org/mmdatafocus/rentals_backend/paymentfeed"
	"bitbucket.org/mmdatafocus/rentals_backend/utils"
	"bitbucket.org/mmdatafocus/rentals_backend/workflow"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const defaultPort = "8080"

// Define a struct to represent the rate limiter.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func getRedisClient(redisAddress string) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: redisAddress,
	})
	return client
}

func tokenLifespan() time.Duration {
	hours, err := strconv.Atoi(os.Getenv("TOKEN_HOUR_LIFESPAN"))
	if err != nil || hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// respondError maps domain errors onto HTTP statuses. Everything else
// is the caller's fault until proven otherwise.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrDuplicateInvoice):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

// authRequired gates the API group on a resolved identity: either a
// redis-backed session (token header) or a valid bearer JWT.
func authRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := utils.GetUsernameFromContext(c.Request.Context()); ok {
			c.Next()
			return
		}
		if middlewares.CtxValue(c.Request.Context()) != nil {
			c.Next()
			return
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
}

type signinRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func signinHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req signinRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}

		user, err := models.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		if err := utils.ComparePassword(user.Password, req.Password); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		token, err := utils.JwtGenerate(user.ID, string(user.Role))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}
		if err := config.SetRedisValue("Token:"+token, user.Username, tokenLifespan()); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"token":    token,
			"username": user.Username,
			"name":     user.Name,
			"role":     user.Role,
		})
	}
}

func signupHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUser
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		user, err := models.CreateUser(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, user)
	}
}

func createPropertyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewProperty
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		property, err := models.CreateProperty(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, property)
	}
}

func listPropertiesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		properties, err := models.GetProperties(c.Request.Context(), c.Query("landlord_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, properties)
	}
}

func getPropertyHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		property, err := models.GetPropertyById(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, property)
	}
}

func createHouseTypeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewHouseType
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		houseType, err := models.CreateHouseType(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, houseType)
	}
}

func listHouseTypesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		houseTypes, err := models.GetHouseTypes(c.Request.Context(), c.Query("property_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, houseTypes)
	}
}

func createUnitHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewUnit
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		unit, err := models.CreateUnit(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, unit)
	}
}

func listUnitsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		units, err := models.GetUnits(c.Request.Context(), c.Query("property_id"), models.UnitStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, units)
	}
}

type updateUnitChargesRequest struct {
	ChargeAmounts models.ChargeAmountMap `json:"charge_amounts" binding:"required"`
}

func updateUnitChargesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateUnitChargesRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
			return
		}
		unit, err := models.UpdateUnitCharges(c.Request.Context(), c.Param("id"), req.ChargeAmounts)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, unit)
	}
}

func createTenantHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTenant
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		tenant, err := models.CreateTenant(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, tenant)
	}
}

func listTenantsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenants, err := models.GetTenants(c.Request.Context(), c.Query("property_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tenants)
	}
}

func createLeaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewLease
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		lease, err := models.CreateLease(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, lease)
	}
}

func listLeasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		leases, err := models.GetLeases(c.Request.Context(), c.Query("property_id"), models.LeaseStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, leases)
	}
}

func searchLeasesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
			return
		}
		results, err := workflow.FindLeaseCandidates(c.Request.Context(), c.Query("property_id"), query)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, results)
	}
}

type terminateLeaseRequest struct {
	EndDate time.Time `json:"end_date" binding:"required"`
}

func terminateLeaseHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req terminateLeaseRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end_date is required"})
			return
		}
		lease, err := models.TerminateLease(c.Request.Context(), c.Param("id"), req.EndDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, lease)
	}
}

func createChargeCodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewChargeCode
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		chargeCode, err := models.CreateChargeCode(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, chargeCode)
	}
}

func listChargeCodesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		chargeCodes, err := models.GetChargeCodes(c.Request.Context(), c.Query("property_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, chargeCodes)
	}
}

func createMeterReadingHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewMeterReading
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		reading, err := models.CreateMeterReading(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, reading)
	}
}

func listMeterReadingsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		from, err := parseDateQuery(c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		to, err := parseDateQuery(c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}
		readings, err := models.GetMeterReadings(c.Request.Context(), c.Query("property_id"), c.Query("unit_id"), from, to)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, readings)
	}
}

func parseDateQuery(value string) (*time.Time, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func invoiceBatchHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req workflow.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		result, err := workflow.RunInvoiceBatch(c.Request.Context(), req)
		if err != nil {
			if errors.Is(err, workflow.ErrBatchRedirected) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "redirected": true})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type invoicePreviewRequest struct {
	PropertyId  string    `json:"property_id" binding:"required"`
	ChargeCodes []string  `json:"charge_codes" binding:"required"`
	IssueDate   time.Time `json:"issue_date" binding:"required"`
}

func invoicePreviewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req invoicePreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		preview, err := workflow.PreviewInvoiceBatch(c.Request.Context(), req.PropertyId, req.ChargeCodes, req.IssueDate)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, preview)
	}
}

func singleInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req workflow.SingleInvoiceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		invoice, err := workflow.GenerateSingleInvoice(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, invoice)
	}
}

func listInvoicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoices, err := models.GetInvoices(c.Request.Context(), c.Query("property_id"), c.Query("lease_id"), models.InvoiceStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoices)
	}
}

func getInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		invoice, err := models.GetInvoiceById(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, invoice)
	}
}

func createInvoiceItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewInvoiceItem
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		item, err := models.CreateInvoiceItem(c.Request.Context(), c.Param("id"), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func createPaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPayment
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		payment, err := models.CreatePayment(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, payment)
	}
}

func listPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		payments, err := models.GetPayments(c.Request.Context(), c.Query("property_id"), c.Query("lease_id"), models.PaymentStatus(c.Query("status")))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payments)
	}
}

func allocatePaymentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req workflow.AllocationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": utils.ProcessValidationErrors(err)})
			return
		}
		req.PaymentId = c.Param("id")
		payment, err := workflow.AllocatePayment(c.Request.Context(), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, payment)
	}
}

type pullPaymentsRequest struct {
	PropertyId string `json:"property_id" binding:"required"`
}

func pullPaymentsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req pullPaymentsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
			return
		}
		result, err := paymentfeed.PullPayments(c.Request.Context(), req.PropertyId)
		if err != nil {
			// A partial pull still reports what got through.
			if result != nil {
				c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "result": result})
				return
			}
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func paymentsReceivedReportHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		propertyId := c.Query("property_id")
		if propertyId == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "property_id is required"})
			return
		}
		fromDate, err := time.Parse("2006-01-02", c.Query("from"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date"})
			return
		}
		toDate, err := time.Parse("2006-01-02", c.Query("to"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date"})
			return
		}

		data, err := reports.GetPaymentsReceivedReport(c.Request.Context(), propertyId, fromDate, toDate)
		if err != nil {
			respondError(c, err)
			return
		}

		if strings.EqualFold(c.Query("format"), "xlsx") {
			if err := reports.WritePaymentsReceivedExcel(c.Writer, data); err != nil {
				logger := config.GetLogger()
				config.LogError(logger, "server.go", "paymentsReceivedReportHandler", "WritePaymentsReceivedExcel", propertyId, err)
			}
			return
		}
		c.JSON(http.StatusOK, data)
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
}

func main() {
	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Shutdown coordination.
	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so Cloud Run considers the revision healthy.
	// Until DB/Redis are ready, we return 503 for app endpoints.
	r := gin.New()
	// Correlation IDs: generate once per request and attach to context.
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		// Always allow Cloud Run startup probe.
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		// Gate critical endpoints on dependency readiness.
		if config.GetDB() == nil || config.GetRedisDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// Production-safe CORS:
	// - In production, require explicit allowlist via CORS_ALLOWED_ORIGINS (comma-separated).
	// - In non-production, allow all (developer convenience).
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			// Safer default: deny all if not configured in production.
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("token", "Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length")
	corsConfig.AllowCredentials = true

	r.Use(cors.New(corsConfig))

	// Optional rate limiting (recommended for production).
	// Env:
	// - RATE_LIMIT_ENABLED=true
	// - RATE_LIMIT_WINDOW_SECONDS=60
	// - RATE_LIMIT_MAX_REQUESTS=600
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		client := getRedisClient(os.Getenv("REDIS_ADDRESS"))
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(middlewares.AuthMiddleware())
	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/signin", signinHandler())
	r.POST("/signup", signupHandler())

	api := r.Group("/api", authRequired())
	api.GET("/properties", listPropertiesHandler())
	api.POST("/properties", createPropertyHandler())
	api.GET("/properties/:id", getPropertyHandler())
	api.GET("/house-types", listHouseTypesHandler())
	api.POST("/house-types", createHouseTypeHandler())
	api.GET("/units", listUnitsHandler())
	api.POST("/units", createUnitHandler())
	api.PUT("/units/:id/charges", updateUnitChargesHandler())
	api.GET("/tenants", listTenantsHandler())
	api.POST("/tenants", createTenantHandler())
	api.GET("/leases", listLeasesHandler())
	api.POST("/leases", createLeaseHandler())
	api.GET("/leases/search", searchLeasesHandler())
	api.PUT("/leases/:id/terminate", terminateLeaseHandler())
	api.GET("/charge-codes", listChargeCodesHandler())
	api.POST("/charge-codes", createChargeCodeHandler())
	api.GET("/meter-readings", listMeterReadingsHandler())
	api.POST("/meter-readings", createMeterReadingHandler())
	api.GET("/invoices", listInvoicesHandler())
	api.GET("/invoices/:id", getInvoiceHandler())
	api.POST("/invoices/batch", invoiceBatchHandler())
	api.POST("/invoices/preview", invoicePreviewHandler())
	api.POST("/invoices/single", singleInvoiceHandler())
	api.POST("/invoices/:id/items", createInvoiceItemHandler())
	api.GET("/payments", listPaymentsHandler())
	api.POST("/payments", createPaymentHandler())
	api.PUT("/payments/:id/allocate", allocatePaymentHandler())
	api.POST("/payments/pull", pullPaymentsHandler())
	api.GET("/reports/payments-received", paymentsReceivedReportHandler())

	r.NoRoute(customNotFoundHandler)

	// Start listening immediately (Cloud Run startup probe is TCP based).
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	// Now DB is ready; run migrations.
	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// IMPORTANT: AutoMigrate can run DDL that blocks tables and causes 504/502 timeouts.
	// Allow disabling migrations on startup (run them as a separate job instead).
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Set the session isolation level to READ COMMITTED
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")
	log.Println("Server started successfully")

	// Block until shutdown or server error.
	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	// Drain HTTP requests.
	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	// Close Redis (best-effort).
	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}

// customErrorLogger is a custom Gin middleware that logs only errors
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		// Only log when there are errors
		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

// Initialize a new RateLimiter instance.
func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// Middleware function to check rate limits.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	// Get the IP address or user identifier from the request.
	key := c.ClientIP() // Assuming IP-based rate limiting

	// Check if the key exists in Redis.
	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the key doesn't exist, create it and set expiry.
	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	// If the key exists, get the current count.
	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	// If the count exceeds the limit, return an error response.
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}

func splitAndTrim(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
