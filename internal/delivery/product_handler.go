package delivery

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront-backend/internal/domain"
	"storefront-backend/internal/usecase"
)

func productFilterFromQuery(c *gin.Context) domain.ProductFilter {
	f := domain.ProductFilter{
		Search:   strings.TrimSpace(c.Query("search")),
		Category: c.Query("category"),
		Featured: c.Query("featured") == "true",
		Sort:     c.Query("sort"),
		Asc:      strings.EqualFold(c.Query("order"), "asc"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", 12),
	}
	if v, err := strconv.Atoi(c.Query("maxStock")); err == nil {
		f.MaxStock = &v
	}
	return f
}

func (h *Handler) ListProducts(c *gin.Context) {
	page, err := h.products.List(c.Request.Context(), productFilterFromQuery(c))
	if err != nil {
		respondError(c, h.log, "list products", err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetProduct(c *gin.Context) {
	p, err := h.products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, "get product", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Categories(c *gin.Context) {
	cats, err := h.products.Categories(c.Request.Context())
	if err != nil {
		respondError(c, h.log, "categories", err)
		return
	}
	if cats == nil {
		cats = []string{}
	}
	c.JSON(http.StatusOK, cats)
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var p domain.Product
	if err := c.ShouldBindJSON(&p); err != nil {
		bindError(c, h.log, "create product", err)
		return
	}
	p.ID = primitive.NilObjectID
	created, err := h.products.Create(c.Request.Context(), &p)
	if err != nil {
		respondError(c, h.log, "create product", err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	var patch usecase.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		bindError(c, h.log, "update product", err)
		return
	}
	updated, err := h.products.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.log, "update product", err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	if err := h.products.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.log, "delete product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}
