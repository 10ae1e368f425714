package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/arklim/social-platform-commerce/internal/core/domain"
	"github.com/arklim/social-platform-commerce/internal/core/port"
	"github.com/arklim/social-platform-commerce/internal/repository"
	"github.com/arklim/social-platform-commerce/internal/usecase"
)

// CatalogHandler exposes the public catalog browse endpoints and the staff
// management endpoints for categories, products and stock.
type CatalogHandler struct {
	catalog *usecase.CatalogService
}

func NewCatalogHandler(catalog *usecase.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// RegisterPublicRoutes binds the unauthenticated browse endpoints.
func (h *CatalogHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	group := r.Group("/catalog")
	group.GET("/categories", h.ListCategories)
	group.GET("/categories/tree", h.CategoryTree)
	group.GET("/categories/:slug", h.GetCategory)
	group.GET("/products", h.ListProducts)
	group.GET("/products/featured", h.ListFeatured)
	group.GET("/products/:slug", h.GetProduct)
}

// RegisterStaffRoutes binds the staff-only management endpoints.
func (h *CatalogHandler) RegisterStaffRoutes(r *gin.RouterGroup, middlewares ...gin.HandlerFunc) {
	group := r.Group("/admin/catalog")
	for _, mw := range middlewares {
		group.Use(mw)
	}

	group.POST("/categories", h.CreateCategory)
	group.POST("/products", h.CreateProduct)
	group.PUT("/products/:id", h.UpdateProduct)
	group.POST("/products/:id/stock", h.AdjustStock)
	group.GET("/products/:id/inventory-log", h.ListInventoryLog)
}

// ListCategories godoc
// @Summary List catalog categories
// @Tags Catalog
// @Produce json
// @Param include_inactive query bool false "Include inactive categories"
// @Success 200 {object} CategoryListResponse
// @Router /api/v1/catalog/categories [get]
func (h *CatalogHandler) ListCategories(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"

	categories, err := h.catalog.ListCategories(c.Request.Context(), !includeInactive)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list categories"))
		return
	}

	payloads := make([]CategoryPayload, 0, len(categories))
	for _, category := range categories {
		payloads = append(payloads, newCategoryPayload(category))
	}

	c.JSON(http.StatusOK, CategoryListResponse{Categories: payloads})
}

// CategoryTree godoc
// @Summary List active categories as a nested tree
// @Tags Catalog
// @Produce json
// @Success 200 {object} CategoryTreeResponse
// @Router /api/v1/catalog/categories/tree [get]
func (h *CatalogHandler) CategoryTree(c *gin.Context) {
	tree, err := h.catalog.CategoryTree(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load category tree"))
		return
	}

	c.JSON(http.StatusOK, CategoryTreeResponse{Categories: newCategoryTreePayloads(tree)})
}

// GetCategory godoc
// @Summary Get a category by slug
// @Tags Catalog
// @Produce json
// @Param slug path string true "Category slug"
// @Success 200 {object} CategoryPayload
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/catalog/categories/{slug} [get]
func (h *CatalogHandler) GetCategory(c *gin.Context) {
	category, err := h.catalog.GetCategory(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "category not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load category"))
		return
	}

	c.JSON(http.StatusOK, newCategoryPayload(*category))
}

// ListProducts godoc
// @Summary List products with filtering and pagination
// @Tags Catalog
// @Produce json
// @Param category query string false "Category slug"
// @Param search query string false "Search over name, description and SKU"
// @Param featured query bool false "Featured products only"
// @Param in_stock query bool false "In-stock products only"
// @Param min_price query int false "Minimum effective price in cents"
// @Param max_price query int false "Maximum effective price in cents"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Page offset" default(0)
// @Success 200 {object} ProductListResponse
// @Router /api/v1/catalog/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	filter := port.ProductFilter{
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Search:       strings.TrimSpace(c.Query("search")),
		FeaturedOnly: c.Query("featured") == "true",
		InStockOnly:  c.Query("in_stock") == "true",
	}

	if raw := c.Query("min_price"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v >= 0 {
			filter.MinPrice = &v
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil && v >= 0 {
			filter.MaxPrice = &v
		}
	}

	filter.Limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	filter.Offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	products, total, err := h.catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list products"))
		return
	}

	payloads := make([]ProductPayload, 0, len(products))
	for _, product := range products {
		payloads = append(payloads, newProductPayload(product))
	}

	c.JSON(http.StatusOK, ProductListResponse{
		Products: payloads,
		Total:    total,
		Limit:    filter.Limit,
		Offset:   filter.Offset,
	})
}

// ListFeatured godoc
// @Summary List featured products
// @Tags Catalog
// @Produce json
// @Param limit query int false "Maximum products to return" default(10)
// @Success 200 {object} ProductListResponse
// @Router /api/v1/catalog/products/featured [get]
func (h *CatalogHandler) ListFeatured(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))

	products, err := h.catalog.ListFeatured(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list featured products"))
		return
	}

	payloads := make([]ProductPayload, 0, len(products))
	for _, product := range products {
		payloads = append(payloads, newProductPayload(product))
	}

	c.JSON(http.StatusOK, ProductListResponse{
		Products: payloads,
		Total:    len(payloads),
		Limit:    limit,
	})
}

// GetProduct godoc
// @Summary Get a product by slug with its variants
// @Tags Catalog
// @Produce json
// @Param slug path string true "Product slug"
// @Success 200 {object} ProductDetailResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/catalog/products/{slug} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, variants, err := h.catalog.GetProduct(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "product not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to load product"))
		return
	}

	variantPayloads := make([]ProductVariantPayload, 0, len(variants))
	for _, variant := range variants {
		variantPayloads = append(variantPayloads, newVariantPayload(variant, *product))
	}

	c.JSON(http.StatusOK, ProductDetailResponse{
		Product:  newProductPayload(*product),
		Variants: variantPayloads,
	})
}

// CreateCategory godoc
// @Summary Create a catalog category
// @Tags CatalogAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body CategoryCreateRequest true "Category payload"
// @Success 201 {object} CategoryPayload
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/catalog/categories [post]
func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req CategoryCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid category payload"))
		return
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	category, err := h.catalog.CreateCategory(c.Request.Context(), usecase.CategoryInput{
		Name:        req.Name,
		Description: req.Description,
		ParentID:    req.ParentID,
		SortOrder:   req.SortOrder,
		IsActive:    isActive,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, NewErrorResponse(c, "category slug already exists"))
			return
		}
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to create category"))
		return
	}

	c.JSON(http.StatusCreated, newCategoryPayload(*category))
}

// CreateProduct godoc
// @Summary Create a product
// @Tags CatalogAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param request body ProductUpsertRequest true "Product payload"
// @Success 201 {object} ProductPayload
// @Failure 400 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/catalog/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req ProductUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid product payload"))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), productInputFromRequest(req))
	if err != nil {
		h.respondProductError(c, err, "failed to create product")
		return
	}

	c.JSON(http.StatusCreated, newProductPayload(*product))
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags CatalogAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Product ID"
// @Param request body ProductUpsertRequest true "Product payload"
// @Success 200 {object} ProductPayload
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/v1/admin/catalog/products/{id} [put]
func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	var req ProductUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid product payload"))
		return
	}

	product, err := h.catalog.UpdateProduct(c.Request.Context(), c.Param("id"), productInputFromRequest(req))
	if err != nil {
		h.respondProductError(c, err, "failed to update product")
		return
	}

	c.JSON(http.StatusOK, newProductPayload(*product))
}

func (h *CatalogHandler) respondProductError(c *gin.Context, err error, fallback string) {
	var pgErr *pgconn.PgError
	switch {
	case errors.As(err, &pgErr) && pgErr.Code == "23505":
		c.JSON(http.StatusConflict, NewErrorResponse(c, "product slug or SKU already exists"))
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse(c, "product not found"))
	case errors.Is(err, usecase.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "price must be positive"))
	case errors.Is(err, usecase.ErrInvalidSalePrice):
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "sale price must be below the list price"))
	default:
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, fallback))
	}
}

// AdjustStock godoc
// @Summary Apply a manual stock movement
// @Description Records a restock, adjustment or return against a product. Negative deltas reduce stock.
// @Tags CatalogAdmin
// @Accept json
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Product ID"
// @Param request body StockAdjustRequest true "Stock movement"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /api/v1/admin/catalog/products/{id}/stock [post]
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	var req StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid stock payload"))
		return
	}

	err := h.catalog.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta, domain.InventoryTransactionType(req.TransactionType), req.Note)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, NewErrorResponse(c, "product not found or stock would go negative"))
		default:
			c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to adjust stock"))
		}
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "stock adjusted"})
}

// ListInventoryLog godoc
// @Summary List stock movements for a product
// @Tags CatalogAdmin
// @Produce json
// @Param Authorization header string true "Bearer access token"
// @Param id path string true "Product ID"
// @Param limit query int false "Maximum entries" default(50)
// @Success 200 {object} InventoryLogResponse
// @Router /api/v1/admin/catalog/products/{id}/inventory-log [get]
func (h *CatalogHandler) ListInventoryLog(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	entries, err := h.catalog.ListInventoryLog(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list inventory log"))
		return
	}

	payloads := make([]InventoryLogPayload, 0, len(entries))
	for _, entry := range entries {
		payloads = append(payloads, InventoryLogPayload{
			ID:              entry.ID,
			TransactionType: string(entry.TransactionType),
			QuantityChange:  entry.QuantityChange,
			QuantityBefore:  entry.QuantityBefore,
			QuantityAfter:   entry.QuantityAfter,
			Reference:       entry.Reference,
			Note:            entry.Note,
			CreatedAt:       entry.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, InventoryLogResponse{Entries: payloads})
}

func productInputFromRequest(req ProductUpsertRequest) usecase.ProductInput {
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	stockStatus := domain.StockStatus(req.StockStatus)
	if stockStatus == "" {
		stockStatus = domain.StockStatusInStock
	}

	return usecase.ProductInput{
		CategoryID:        req.CategoryID,
		Name:              req.Name,
		SKU:               req.SKU,
		Description:       req.Description,
		ShortDescription:  req.ShortDescription,
		PriceCents:        req.PriceCents,
		SalePriceCents:    req.SalePriceCents,
		ManageStock:       req.ManageStock,
		StockQuantity:     req.StockQuantity,
		LowStockThreshold: req.LowStockThreshold,
		StockStatus:       stockStatus,
		IsActive:          isActive,
		IsFeatured:        req.IsFeatured,
	}
}
