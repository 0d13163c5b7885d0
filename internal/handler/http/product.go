package http

import (
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/clangauge0314/react-fashion-ecommerce/internal/domain"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/formparse"
	"github.com/clangauge0314/react-fashion-ecommerce/internal/service"
	"github.com/clangauge0314/react-fashion-ecommerce/pkg/httputil"
)

// maxFormSize bounds an entire multipart request body: the per-file ceiling
// times the file cap, plus headroom for the scalar fields.
const maxFormSize = int64(domain.MaxImageSize)*int64(domain.MaxImagesPerUpload) + (1 << 20)

// ProductHandler handles HTTP requests for product endpoints.
type ProductHandler struct {
	service *service.CatalogService
	logger  *slog.Logger
}

// NewProductHandler creates a new product HTTP handler.
func NewProductHandler(svc *service.CatalogService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: svc,
		logger:  logger,
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
		Error: &httputil.ErrorResponse{Code: "INVALID_INPUT", Message: message},
	})
}

// formFiles collects the uploaded files for a field, accepting both the bare
// and bracketed field names clients use.
func formFiles(form *multipart.Form, field string) []*multipart.FileHeader {
	headers := form.File[field]
	headers = append(headers, form.File[field+"[]"]...)
	return headers
}

// formList collects the raw values for a list-valued field under both names.
func formList(form *multipart.Form, field string) (values []string, present bool) {
	v, ok := form.Value[field]
	vb, okb := form.Value[field+"[]"]
	return append(append([]string{}, v...), vb...), ok || okb
}

// openUploads opens every file header into a service ImageUpload and returns
// a close func for all of them.
func openUploads(headers []*multipart.FileHeader) ([]service.ImageUpload, func(), error) {
	uploads := make([]service.ImageUpload, 0, len(headers))
	var opened []multipart.File

	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}

	for _, header := range headers {
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		opened = append(opened, f)

		contentType := header.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/octet-stream"
		}

		uploads = append(uploads, service.ImageUpload{
			FileName:    header.Filename,
			ContentType: contentType,
			Size:        header.Size,
			Data:        f,
		})
	}

	return uploads, closeAll, nil
}

// CreateProduct handles POST /api/v1/products (multipart/form-data).
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)

	if err := r.ParseMultipartForm(domain.MaxImageSize); err != nil {
		writeBadRequest(w, "failed to parse multipart form: "+err.Error())
		return
	}
	// The multipart temp files are no longer needed once the derivatives are
	// stored; remove them when the request finishes.
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	input := &service.CreateProductInput{
		Name:        r.FormValue("name"),
		Description: r.FormValue("description"),
		Status:      r.FormValue("status"),
		Category:    r.FormValue("category"),
		Gender:      r.FormValue("gender"),
		MercariURI:  r.FormValue("mercari_uri"),
	}

	if v := r.FormValue("price"); v != "" {
		price, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeBadRequest(w, "price must be a number")
			return
		}
		input.Price = price
	}
	if v := r.FormValue("stock"); v != "" {
		stock, err := strconv.Atoi(v)
		if err != nil {
			writeBadRequest(w, "stock must be an integer")
			return
		}
		input.Stock = stock
	}

	if colors, ok := formList(r.MultipartForm, "color"); ok {
		input.Color = formparse.ParseList(colors)
	}

	uploads, closeFiles, err := openUploads(formFiles(r.MultipartForm, "image"))
	if err != nil {
		writeBadRequest(w, "failed to read uploaded file: "+err.Error())
		return
	}
	defer closeFiles()
	input.Images = uploads

	product, err := h.service.CreateProduct(r.Context(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: product})
}

// ListProducts handles GET /api/v1/products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: products})
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	product, err := h.service.GetProduct(r.Context(), id.String())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// UpdateProduct handles PUT /api/v1/products/{id} (multipart/form-data).
// Scalar fields absent from the form are left unchanged; existingImage is
// the ordered retain-list for currently stored images, and image carries new
// files to append.
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)

	if err := r.ParseMultipartForm(domain.MaxImageSize); err != nil {
		writeBadRequest(w, "failed to parse multipart form: "+err.Error())
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := r.MultipartForm
	input := &service.UpdateProductInput{
		Status: r.FormValue("status"),
	}

	if v, ok := form.Value["name"]; ok && len(v) > 0 {
		input.Name = &v[0]
	}
	if v, ok := form.Value["description"]; ok && len(v) > 0 {
		input.Description = &v[0]
	}
	if v, ok := form.Value["category"]; ok && len(v) > 0 {
		input.Category = &v[0]
	}
	if v, ok := form.Value["gender"]; ok && len(v) > 0 {
		input.Gender = &v[0]
	}
	if v, ok := form.Value["mercari_uri"]; ok && len(v) > 0 {
		input.MercariURI = &v[0]
	}
	if v, ok := form.Value["price"]; ok && len(v) > 0 {
		price, err := strconv.ParseFloat(v[0], 64)
		if err != nil {
			writeBadRequest(w, "price must be a number")
			return
		}
		input.Price = &price
	}
	if v, ok := form.Value["stock"]; ok && len(v) > 0 {
		stock, err := strconv.Atoi(v[0])
		if err != nil {
			writeBadRequest(w, "stock must be an integer")
			return
		}
		input.Stock = &stock
	}

	if colors, ok := formList(form, "color"); ok {
		parsed := formparse.ParseList(colors)
		input.Color = &parsed
	}

	// Omitting existingImage entirely retains the current image list;
	// submitting it (even empty) replaces the retain-list.
	if keep, ok := formList(form, "existingImage"); ok {
		parsed := formparse.ParseList(keep)
		input.KeepImages = &parsed
	}

	uploads, closeFiles, err := openUploads(formFiles(form, "image"))
	if err != nil {
		writeBadRequest(w, "failed to read uploaded file: "+err.Error())
		return
	}
	defer closeFiles()
	input.NewImages = uploads

	product, err := h.service.UpdateProduct(r.Context(), id.String(), input)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: product})
}

// DeleteProduct handles DELETE /api/v1/products/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseUUID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteProduct(r.Context(), id.String()); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"id": id.String(), "status": "deleted"}})
}
