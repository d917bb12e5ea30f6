package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/products-catalog-api/internal/app/dto"
	"github.com/mrops-br/products-catalog-api/internal/app/service"
	"github.com/mrops-br/products-catalog-api/internal/domain"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/response"
	"github.com/mrops-br/products-catalog-api/internal/infrastructure/http/validation"
)

var (
	errInvalidRequest = errors.New("invalid product request")
	errInternal       = errors.New("internal server error")
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// Routes mounts the product endpoints on r
func (h *ProductHandler) Routes(r chi.Router) {
	r.Get("/", h.ListProducts)
	r.Post("/", h.CreateProduct)
	r.Get("/category/{category}", h.ListProductsByCategory)
	r.Get("/{id}", h.GetProduct)
	r.Put("/{id}", h.UpdateProduct)
	r.Delete("/{id}", h.DeleteProduct)
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.GetAllProducts(r.Context())
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, found, err := h.service.GetProductByID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		response.Empty(w, http.StatusNotFound)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(product))
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	created, err := h.service.CreateProduct(r.Context(), product)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	response.JSON(w, http.StatusCreated, dto.ToProductResponse(created))
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, ok := h.decodeProduct(w, r)
	if !ok {
		return
	}

	updated, found, err := h.service.UpdateProduct(r.Context(), id, product)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !found {
		response.Empty(w, http.StatusNotFound)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponse(updated))
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	deleted, err := h.service.DeleteProduct(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err)
		return
	}
	if !deleted {
		response.Empty(w, http.StatusNotFound)
		return
	}

	response.Empty(w, http.StatusNoContent)
}

// ListProductsByCategory handles GET /api/products/category/{category}
func (h *ProductHandler) ListProductsByCategory(w http.ResponseWriter, r *http.Request) {
	category := chi.URLParam(r, "category")

	products, err := h.service.GetProductsByCategory(r.Context(), category)
	if err != nil {
		h.internalError(w, r, err)
		return
	}

	response.JSON(w, http.StatusOK, dto.ToProductResponseList(products))
}

// decodeProduct reads and validates the request body. On failure it writes
// a 400 response and returns false.
func (h *ProductHandler) decodeProduct(w http.ResponseWriter, r *http.Request) (*domain.Product, bool) {
	var req dto.ProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return nil, false
	}

	if err := validation.Validate(req); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid product request",
			slog.String("error", err.Error()),
		)
		response.ValidationError(w, errInvalidRequest, validation.FieldErrors(err))
		return nil, false
	}

	product, err := req.ToDomain()
	if err != nil {
		response.Error(w, http.StatusBadRequest, err)
		return nil, false
	}
	return product, true
}

// internalError logs the storage fault and answers 500 without exposing it
func (h *ProductHandler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	h.logger.ErrorContext(r.Context(), "Request failed",
		slog.String("error", err.Error()),
	)
	response.Error(w, http.StatusInternalServerError, errInternal)
}
