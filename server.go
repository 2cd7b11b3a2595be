package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"bitbucket.org/mmdatafocus/doctotals_backend/config"
	"bitbucket.org/mmdatafocus/doctotals_backend/middlewares"
	"bitbucket.org/mmdatafocus/doctotals_backend/models"
	"bitbucket.org/mmdatafocus/doctotals_backend/models/reports"
	"bitbucket.org/mmdatafocus/doctotals_backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultPort = "8080"

// lineItemInput is the wire shape of one editable line. Tax columns are
// resolved into the tagged TaxSpec exactly once, here.
type lineItemInput struct {
	Name         string             `json:"name"`
	Description  string             `json:"description"`
	Qty          decimal.Decimal    `json:"qty"`
	UnitRate     decimal.Decimal    `json:"unit_rate"`
	TaxKind      models.TaxSpecKind `json:"tax_kind"`
	TaxRate      decimal.Decimal    `json:"tax_rate"`
	TaxAmount    decimal.Decimal    `json:"tax_amount"`
	TaxInclusive bool               `json:"tax_inclusive"`
}

func (in lineItemInput) toLineItem() models.LineItem {
	var tax models.TaxSpec
	switch in.TaxKind {
	case models.TaxSpecKindRate:
		tax = models.TaxRate(in.TaxRate)
	case models.TaxSpecKindFixedAmount:
		tax = models.TaxFixedAmount(in.TaxAmount)
	default:
		tax = models.NoTax()
	}
	return models.LineItem{
		Name:         in.Name,
		Description:  in.Description,
		Qty:          in.Qty,
		UnitRate:     in.UnitRate,
		Tax:          tax,
		TaxInclusive: in.TaxInclusive,
	}
}

type computeTotalsRequest struct {
	Items           []lineItemInput `json:"items"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
}

func (req computeTotalsRequest) lineItems() []models.LineItem {
	items := make([]models.LineItem, 0, len(req.Items))
	for _, in := range req.Items {
		items = append(items, in.toLineItem())
	}
	return items
}

type checkBalanceRequest struct {
	Mode                models.VoucherMode   `json:"mode" binding:"required"`
	CreditEntries       []models.LedgerEntry `json:"credit_entries"`
	DebitEntries        []models.LedgerEntry `json:"debit_entries"`
	Principal           decimal.Decimal      `json:"principal"`
	SubEntries          []models.LedgerEntry `json:"sub_entries"`
	DistributionEnabled bool                 `json:"distribution_enabled"`
	Tolerance           *decimal.Decimal     `json:"tolerance"`
}

func computeTotalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req computeTotalsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, models.ComputeDocumentTotals(req.lineItems(), req.DiscountPercent))
	}
}

func validateTotalsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req computeTotalsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		totals, err := models.ComputeDocumentTotalsStrict(req.lineItems(), req.DiscountPercent)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, totals)
	}
}

func recalculateLineHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in lineItemInput
		if err := c.ShouldBindJSON(&in); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, models.RecalculateLine(in.toLineItem()))
	}
}

func checkBalanceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req checkBalanceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if !req.Mode.IsValid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be TwoSided or PrincipalDistribution"})
			return
		}

		checker := models.NewLedgerBalanceChecker()
		if req.Tolerance != nil && req.Tolerance.GreaterThan(decimal.Zero) {
			checker.Tolerance = *req.Tolerance
		}

		var result models.BalanceResult
		if req.Mode == models.VoucherModeTwoSided {
			result = checker.CheckTwoSided(req.CreditEntries, req.DebitEntries)
		} else {
			result = checker.CheckPrincipalDistribution(req.Principal, req.SubEntries, req.DistributionEnabled)
		}
		c.JSON(http.StatusOK, result)
	}
}

func createDocumentDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewDocumentDraft
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		draft, err := models.CreateDocumentDraft(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, draft)
	}
}

func getDocumentDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		draft, err := models.GetDocumentDraft(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"draft": draft, "totals": draft.Totals()})
	}
}

func listDocumentDraftsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		var after *string
		if cursor := c.Query("after"); cursor != "" {
			after = &cursor
		}
		connection, err := models.ListDocumentDrafts(c.Request.Context(), limit, after)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func updateDocumentDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewDocumentDraft
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		draft, err := models.UpdateDocumentDraft(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

func deleteDocumentDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.DeleteDocumentDraft(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func submitDocumentDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		draft, err := models.SubmitDocumentDraft(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, draft)
	}
}

func exportDocumentDraftsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		c.Header("Content-Disposition", `attachment; filename="draft-totals.xlsx"`)
		if err := reports.ExportDocumentDraftTotals(c.Request.Context(), c.Writer); err != nil {
			respondError(c, err)
			return
		}
	}
}

func createVoucherDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewVoucherDraft
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		voucher, err := models.CreateVoucherDraft(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, voucher)
	}
}

func getVoucherDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		voucher, err := models.GetVoucherDraft(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"voucher": voucher, "balance": voucher.Balance()})
	}
}

func listVoucherDraftsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		var after *string
		if cursor := c.Query("after"); cursor != "" {
			after = &cursor
		}
		connection, err := models.ListVoucherDrafts(c.Request.Context(), limit, after)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, connection)
	}
}

func updateVoucherDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		var input models.NewVoucherDraft
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		voucher, err := models.UpdateVoucherDraft(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, voucher)
	}
}

func deleteVoucherDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.DeleteVoucherDraft(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func submitVoucherDraftHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		voucher, err := models.SubmitVoucherDraft(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, voucher)
	}
}

// respondError maps typed engine errors to 422 with a stable code the form
// controller renders as a field/summary message; everything else is a plain
// 404/500.
func respondError(c *gin.Context, err error) {
	var fieldErr *models.FieldValidationError
	if errors.As(err, &fieldErr) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": fieldErr.Error(), "fields": fieldErr.Fields})
		return
	}
	if code := models.ValidationCode(err); code != "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "code": code})
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, utils.ErrorRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
		return
	}
	logger := config.GetLogger()
	config.LogError(logger, "server.go", "respondError", c.FullPath(), nil, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
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

func newRouter(logger *logrus.Logger) *gin.Engine {
	r := gin.New()

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
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "X-Business-Id", "X-User-Id", "X-User-Name", "X-Correlation-Id")
	corsConfig.AddExposeHeaders("Content-Length", "X-Correlation-Id")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	r.Use(middlewares.CorrelationMiddleware())
	r.Use(middlewares.SessionMiddleware())
	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())

	r.POST("/totals/compute", computeTotalsHandler())
	r.POST("/totals/validate", validateTotalsHandler())
	r.POST("/totals/line", recalculateLineHandler())
	r.POST("/vouchers/balance", checkBalanceHandler())

	r.POST("/drafts", createDocumentDraftHandler())
	r.GET("/drafts", listDocumentDraftsHandler())
	r.GET("/drafts/export", exportDocumentDraftsHandler())
	r.GET("/drafts/:id", getDocumentDraftHandler())
	r.PUT("/drafts/:id", updateDocumentDraftHandler())
	r.DELETE("/drafts/:id", deleteDocumentDraftHandler())
	r.POST("/drafts/:id/submit", submitDocumentDraftHandler())

	r.POST("/voucher-drafts", createVoucherDraftHandler())
	r.GET("/voucher-drafts", listVoucherDraftsHandler())
	r.GET("/voucher-drafts/:id", getVoucherDraftHandler())
	r.PUT("/voucher-drafts/:id", updateVoucherDraftHandler())
	r.DELETE("/voucher-drafts/:id", deleteVoucherDraftHandler())
	r.POST("/voucher-drafts/:id/submit", submitVoucherDraftHandler())

	r.NoRoute(customNotFoundHandler)
	return r
}

func main() {
	logger := config.GetLogger()

	port := os.Getenv("PORT")
	if port == "" {
		port = defaultPort
	}

	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	r := newRouter(logger)

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

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()
	// AutoMigrate can run DDL that blocks tables; allow disabling migrations
	// on startup and running them as a separate job instead.
	if config.AutoMigrateEnabled() {
		if err := db.AutoMigrate(
			&models.DocumentDraft{},
			&models.DocumentDraftItem{},
			&models.VoucherDraft{},
			&models.VoucherDraftEntry{},
		); err != nil {
			logger.WithFields(logrus.Fields{"field": "migrate"}).Error("auto-migrate failed: " + err.Error())
		}
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/")

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
