package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	donationapp "github.com/sharehub/backend/internal/application/donation"
	"github.com/sharehub/backend/internal/domain/shared"
)

// ImageField is the multipart field carrying the donation image
const ImageField = "donationImage"

// DonationHandler handles donation record endpoints
type DonationHandler struct {
	BaseHandler
	service *donationapp.Service
}

// NewDonationHandler creates a DonationHandler
func NewDonationHandler(service *donationapp.Service) *DonationHandler {
	return &DonationHandler{service: service}
}

// RegisterRoutes mounts the donation routes under rg
func (h *DonationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/products")
	products.POST("", h.Create)
	products.GET("", h.List)
	products.GET("/:id", h.GetByID)
	products.PUT("/:id", h.Update)
	products.DELETE("/:id", h.Delete)
}

// Create handles POST /products (multipart/form-data, urlencoded or JSON)
func (h *DonationHandler) Create(c *gin.Context) {
	image, closeImage, err := imageFromRequest(c)
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	defer closeImage()

	var req donationapp.CreateDonationRequest
	if c.ContentType() == binding.MIMEJSON {
		field, err := jsonFields(c)
		if err != nil {
			h.HandleError(c, err, http.StatusBadRequest)
			return
		}
		req = donationapp.CreateDonationRequest{
			FullName:    field("fullName").OrElse(""),
			Email:       field("email").OrElse(""),
			Phone:       field("phone").OrElse(""),
			Address:     field("address").OrElse(""),
			Category:    field("category").OrElse(""),
			ProductName: field("productName").OrElse(""),
			Description: field("description").OrElse(""),
			Quality:     field("quality").OrElse(""),
			Quantity:    field("quantity").OrElse(""),
			Terms:       field("terms").OrElse(""),
		}
	} else {
		if err := checkFormContentType(c); err != nil {
			h.HandleError(c, err, http.StatusBadRequest)
			return
		}
		if err := c.ShouldBindWith(&req, binding.Form); err != nil {
			h.HandleError(c, shared.NewValidationError("Invalid form data: "+err.Error()), http.StatusBadRequest)
			return
		}
	}
	req.Image = image

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	h.Created(c, resp)
}

// List handles GET /products
func (h *DonationHandler) List(c *gin.Context) {
	resp, err := h.service.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	h.Success(c, resp)
}

// GetByID handles GET /products/:id
func (h *DonationHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err, http.StatusInternalServerError)
		return
	}
	h.Success(c, resp)
}

// Update handles PUT /products/:id. Only fields present in the body are applied.
func (h *DonationHandler) Update(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	image, closeImage, err := imageFromRequest(c)
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	defer closeImage()

	field, err := updateFields(c)
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	req := donationapp.UpdateDonationRequest{
		FullName:    field("fullName"),
		Email:       field("email"),
		Phone:       field("phone"),
		Address:     field("address"),
		Category:    field("category"),
		ProductName: field("productName"),
		Description: field("description"),
		Quality:     field("quality"),
		Quantity:    field("quantity"),
		Terms:       field("terms"),
		Image:       image,
	}

	resp, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	h.Success(c, resp)
}

// Delete handles DELETE /products/:id
func (h *DonationHandler) Delete(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	resp, err := h.service.Delete(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err, http.StatusBadRequest)
		return
	}
	h.Success(c, resp)
}

func (h *DonationHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid donation ID format")
		return uuid.Nil, false
	}
	return id, true
}

// fieldLookup reports a request field and whether it was present
type fieldLookup func(key string) shared.Optional[string]

// updateFields picks the field source for the request body.
// Form bodies and JSON objects are accepted; any other content type is rejected.
func updateFields(c *gin.Context) (fieldLookup, error) {
	if c.ContentType() == binding.MIMEJSON {
		return jsonFields(c)
	}
	if err := checkFormContentType(c); err != nil {
		return nil, err
	}
	return func(key string) shared.Optional[string] {
		if value, ok := c.GetPostForm(key); ok {
			return shared.Some(value)
		}
		return shared.None[string]()
	}, nil
}

func checkFormContentType(c *gin.Context) error {
	switch ct := c.ContentType(); ct {
	case "", binding.MIMEPOSTForm, binding.MIMEMultipartPOSTForm:
		return nil
	default:
		return shared.NewValidationError(fmt.Sprintf("Unsupported content type %q", ct))
	}
}

// jsonFields decodes a flat JSON object. Strings, numbers and booleans are
// read as their text form; null and nested values count as absent.
func jsonFields(c *gin.Context) (fieldLookup, error) {
	var body map[string]json.RawMessage
	if err := c.ShouldBindJSON(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, err
		}
		return nil, shared.NewValidationError("Invalid JSON body: " + err.Error())
	}
	return func(key string) shared.Optional[string] {
		raw, ok := body[key]
		if !ok {
			return shared.None[string]()
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && string(raw) != "null" {
			return shared.Some(s)
		}
		var n json.Number
		if err := json.Unmarshal(raw, &n); err == nil && n != "" {
			return shared.Some(n.String())
		}
		var b bool
		if err := json.Unmarshal(raw, &b); err == nil && string(raw) != "null" {
			return shared.Some(strconv.FormatBool(b))
		}
		return shared.None[string]()
	}, nil
}

// imageFromRequest returns the single uploaded image, or nil when the request
// carries no file. The returned func closes the opened file and is always safe to call.
func imageFromRequest(c *gin.Context) (*donationapp.ImageUpload, func(), error) {
	noop := func() {}

	form, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return nil, noop, nil
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, noop, err
		}
		return nil, noop, shared.NewValidationError("Invalid multipart form: " + err.Error())
	}

	for field := range form.File {
		if field != ImageField {
			return nil, noop, shared.NewValidationError(fmt.Sprintf("Unexpected file field %q", field))
		}
	}

	headers := form.File[ImageField]
	switch len(headers) {
	case 0:
		return nil, noop, nil
	case 1:
	default:
		return nil, noop, shared.NewValidationError("Only one image file may be uploaded")
	}

	return openUpload(headers[0])
}

func openUpload(fh *multipart.FileHeader) (*donationapp.ImageUpload, func(), error) {
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, shared.NewStorageError("failed to read uploaded file")
	}
	upload := &donationapp.ImageUpload{
		FileName:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Content:     f,
	}
	return upload, func() { _ = f.Close() }, nil
}
