package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	donationapp "github.com/sharehub/backend/internal/application/donation"
	"github.com/sharehub/backend/internal/domain/donation"
	"github.com/sharehub/backend/internal/infrastructure/notification"
	"github.com/sharehub/backend/internal/infrastructure/persistence"
	"github.com/sharehub/backend/internal/infrastructure/persistence/models"
	"github.com/sharehub/backend/internal/infrastructure/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type donationTestEnv struct {
	router    *gin.Engine
	queue     *notification.MemoryQueue
	uploadDir string
}

func newDonationTestEnv(t *testing.T) *donationTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.DonationModel{}))

	uploadDir := t.TempDir()
	store, err := storage.NewFileSystemImageStore(uploadDir, "/uploads", "http://localhost:8080")
	require.NoError(t, err)

	queue := notification.NewMemoryQueue(10)
	service := donationapp.NewService(
		persistence.NewGormDonationRepository(db),
		donationapp.NewUploadHandler(store, 1<<20),
		queue,
		zap.NewNop(),
	)
	return &donationTestEnv{
		router:    newDonationRouter(service),
		queue:     queue,
		uploadDir: uploadDir,
	}
}

func newDonationRouter(service *donationapp.Service) *gin.Engine {
	r := gin.New()
	NewDonationHandler(service).RegisterRoutes(r.Group("/api"))
	return r
}

type testFile struct {
	field       string
	name        string
	contentType string
	content     []byte
}

func pngFile(name string) testFile {
	return testFile{field: ImageField, name: name, contentType: "image/png", content: []byte("\x89PNG\r\n\x1a\nfake")}
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files ...testFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func (e *donationTestEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func annLeeFields() map[string]string {
	return map[string]string{
		"fullName":    "Ann Lee",
		"email":       "ann@example.com",
		"phone":       "555-0100",
		"address":     "1 Main St",
		"category":    "Books",
		"productName": "Novels",
		"description": "A box of paperbacks",
		"quality":     "Good",
		"quantity":    "3",
		"terms":       "true",
	}
}

func TestDonationHandler_AnnLeeLifecycle(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields()))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	id := created["id"].(string)
	assert.Equal(t, "Ann Lee", created["fullName"])
	assert.Equal(t, float64(3), created["quantity"])
	assert.Nil(t, created["donationImage"])
	assert.NotContains(t, created, "imageUrl")
	assert.Equal(t, true, created["terms"])
	assert.Equal(t, 1, env.queue.Len())

	msg, err := env.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann@example.com", msg.To)
	assert.Equal(t, "Product Details", msg.Subject)
	assert.Contains(t, msg.HTML, "Ann Lee")

	rec = env.do(multipartRequest(t, http.MethodPut, "/api/products/"+id, map[string]string{"category": "Home Goods"}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody(t, rec)
	assert.Equal(t, "Home Goods", updated["category"])
	for _, field := range []string{"id", "fullName", "email", "phone", "address", "productName", "description", "quality", "quantity", "donationImage", "terms"} {
		assert.Equal(t, created[field], updated[field], field)
	}
	assert.Equal(t, 0, env.queue.Len(), "update must not notify")

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"message": "Donation deleted successfully"}, decodeBody(t, rec))

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Donation not found", body["error"])
	assert.Equal(t, "Donation not found", body["message"])
	assert.Equal(t, "ERR_NOT_FOUND", body["code"])

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, 0, env.queue.Len())
}

func TestDonationHandler_Create_Quantity(t *testing.T) {
	env := newDonationTestEnv(t)

	fields := annLeeFields()
	fields["quantity"] = "7"
	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", fields))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(7), decodeBody(t, rec)["quantity"])

	delete(fields, "quantity")
	rec = env.do(multipartRequest(t, http.MethodPost, "/api/products", fields))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["quantity"])

	fields["quantity"] = "lots"
	rec = env.do(multipartRequest(t, http.MethodPost, "/api/products", fields))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, float64(1), decodeBody(t, rec)["quantity"])
}

func TestDonationHandler_Create_URLEncoded(t *testing.T) {
	env := newDonationTestEnv(t)

	form := url.Values{}
	for k, v := range annLeeFields() {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := env.do(req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "Novels", decodeBody(t, rec)["productName"])
}

func TestDonationHandler_Create_MissingRequiredField(t *testing.T) {
	env := newDonationTestEnv(t)

	fields := annLeeFields()
	fields["email"] = "   "
	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", fields))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ERR_VALIDATION", body["code"])
	assert.Equal(t, "email is required", body["message"])
	assert.Equal(t, 0, env.queue.Len())
}

func TestDonationHandler_Create_RejectsNonImage(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields(), testFile{
		field:       ImageField,
		name:        "payload.txt",
		contentType: "text/plain",
		content:     []byte("not an image"),
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ERR_VALIDATION", body["code"])
	assert.Equal(t, "Only image files (jpeg, jpg, png, gif) are allowed", body["message"])

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	entries, err := os.ReadDir(env.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Equal(t, 0, env.queue.Len())
}

func TestDonationHandler_Create_RejectsExtraFiles(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields(), pngFile("a.png"), pngFile("b.png")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	other := pngFile("a.png")
	other.field = "attachment"
	rec = env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields(), other))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody(t, rec)["message"], "attachment")
}

func TestDonationHandler_ImageLifecycle(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields(), pngFile("books.PNG")))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	id := created["id"].(string)

	firstRef, ok := created["donationImage"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(firstRef, "uploads/"), firstRef)
	assert.True(t, strings.HasSuffix(firstRef, ".png"), firstRef)
	assert.Equal(t, "http://localhost:8080/"+firstRef, created["imageUrl"])
	firstPath := filepath.Join(env.uploadDir, strings.TrimPrefix(firstRef, "uploads/"))
	assert.FileExists(t, firstPath)

	msg, err := env.queue.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Contains(t, msg.HTML, `<img src="http://localhost:8080/`+firstRef+`"`)

	// an update without a file keeps the image
	rec = env.do(multipartRequest(t, http.MethodPut, "/api/products/"+id, map[string]string{"quality": "Like new"}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, firstRef, decodeBody(t, rec)["donationImage"])

	rec = env.do(multipartRequest(t, http.MethodPut, "/api/products/"+id, nil, pngFile("cover.png")))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	secondRef := decodeBody(t, rec)["donationImage"].(string)
	assert.NotEqual(t, firstRef, secondRef)
	assert.NoFileExists(t, firstPath)
	secondPath := filepath.Join(env.uploadDir, strings.TrimPrefix(secondRef, "uploads/"))
	assert.FileExists(t, secondPath)

	rec = env.do(httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NoFileExists(t, secondPath)
}

func TestDonationHandler_GetByID_MatchesCreate(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields()))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody(t, rec)

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/products/"+created["id"].(string), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	fetched := decodeBody(t, rec)

	for field, value := range created {
		if field == "createdAt" || field == "updatedAt" {
			continue
		}
		assert.Equal(t, value, fetched[field], field)
	}
}

func TestDonationHandler_List_CreationOrder(t *testing.T) {
	env := newDonationTestEnv(t)

	for _, name := range []string{"First", "Second", "Third"} {
		fields := annLeeFields()
		fields["productName"] = name
		rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", fields))
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(httptest.NewRequest(http.MethodGet, "/api/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 3)
	assert.Equal(t, "First", list[0]["productName"])
	assert.Equal(t, "Second", list[1]["productName"])
	assert.Equal(t, "Third", list[2]["productName"])
}

func TestDonationHandler_Update_IgnoresEmptyAndInvalidValues(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields()))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	form := url.Values{}
	form.Set("category", "")
	form.Set("quantity", "2147483648")
	form.Set("phone", "555-0199")
	req := httptest.NewRequest(http.MethodPut, "/api/products/"+id, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec = env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.Equal(t, "Books", body["category"])
	assert.Equal(t, float64(3), body["quantity"])
	assert.Equal(t, "555-0199", body["phone"])
}

func TestDonationHandler_InvalidID(t *testing.T) {
	env := newDonationTestEnv(t)

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/api/products/not-a-uuid", nil),
		httptest.NewRequest(http.MethodDelete, "/api/products/not-a-uuid", nil),
		multipartRequest(t, http.MethodPut, "/api/products/not-a-uuid", map[string]string{"category": "x"}),
	} {
		rec := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, req.Method)
		assert.Equal(t, "Invalid donation ID format", decodeBody(t, rec)["message"])
	}
}

func TestDonationHandler_Update_NotFound(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPut, "/api/products/"+uuid.NewString(), map[string]string{"category": "x"}))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Donation not found", decodeBody(t, rec)["message"])
}

// failingRepository returns a raw persistence error from every method
type failingRepository struct {
	mock.Mock
}

func (m *failingRepository) Create(ctx context.Context, d *donation.Donation) error {
	return m.Called(ctx, d).Error(0)
}

func (m *failingRepository) FindAll(ctx context.Context) ([]donation.Donation, error) {
	args := m.Called(ctx)
	return nil, args.Error(1)
}

func (m *failingRepository) FindByID(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	args := m.Called(ctx, id)
	return nil, args.Error(1)
}

func (m *failingRepository) Update(ctx context.Context, id uuid.UUID, patch donation.Patch) (*donation.Donation, error) {
	args := m.Called(ctx, id, patch)
	return nil, args.Error(1)
}

func (m *failingRepository) Delete(ctx context.Context, id uuid.UUID) (*donation.Donation, error) {
	args := m.Called(ctx, id)
	return nil, args.Error(1)
}

func TestDonationHandler_StorageErrorStatus(t *testing.T) {
	dbErr := errors.New("connection reset by peer")
	repo := new(failingRepository)
	repo.On("FindByID", mock.Anything, mock.Anything).Return(nil, dbErr)
	repo.On("FindAll", mock.Anything).Return(nil, dbErr)
	repo.On("Delete", mock.Anything, mock.Anything).Return(nil, dbErr)
	repo.On("Create", mock.Anything, mock.Anything).Return(dbErr)

	service := donationapp.NewService(repo, donationapp.NewUploadHandler(nil, 0), nil, zap.NewNop())
	router := newDonationRouter(service)
	id := uuid.NewString()

	tests := []struct {
		name   string
		req    *http.Request
		status int
	}{
		{"get", httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil), http.StatusInternalServerError},
		{"list", httptest.NewRequest(http.MethodGet, "/api/products", nil), http.StatusBadRequest},
		{"delete", httptest.NewRequest(http.MethodDelete, "/api/products/"+id, nil), http.StatusBadRequest},
		{"create", multipartRequest(t, http.MethodPost, "/api/products", annLeeFields()), http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, tt.req)

			assert.Equal(t, tt.status, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, "ERR_STORAGE", body["code"])
			assert.Equal(t, "connection reset by peer", body["message"])
		})
	}
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestDonationHandler_Update_JSONBody(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields()))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	rec = env.do(jsonRequest(http.MethodPut, "/api/products/"+id,
		`{"category":"Home Goods","quantity":5,"terms":false,"phone":null,"address":{"line":"x"}}`))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "Home Goods", body["category"])
	assert.Equal(t, float64(5), body["quantity"])
	assert.Equal(t, false, body["terms"])
	assert.Equal(t, "555-0100", body["phone"])
	assert.Equal(t, "1 Main St", body["address"])
	assert.Equal(t, "Novels", body["productName"])
}

func TestDonationHandler_Update_RejectsUnsupportedBody(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(multipartRequest(t, http.MethodPost, "/api/products", annLeeFields()))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decodeBody(t, rec)["id"].(string)

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"malformed json", jsonRequest(http.MethodPut, "/api/products/"+id, `{"category":`)},
		{"plain text", func() *http.Request {
			req := httptest.NewRequest(http.MethodPut, "/api/products/"+id, strings.NewReader("category=Toys"))
			req.Header.Set("Content-Type", "text/plain")
			return req
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(tt.req)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "ERR_VALIDATION", decodeBody(t, rec)["code"])
		})
	}

	rec = env.do(httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Books", decodeBody(t, rec)["category"])
}

func TestDonationHandler_Create_JSONBody(t *testing.T) {
	env := newDonationTestEnv(t)

	rec := env.do(jsonRequest(http.MethodPost, "/api/products", `{
		"fullName": "Ann Lee", "email": "ann@example.com", "phone": "555-0100",
		"address": "1 Main St", "category": "Books", "productName": "Novels",
		"quality": "Good", "quantity": 4, "terms": true
	}`))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	assert.Equal(t, "Ann Lee", body["fullName"])
	assert.Equal(t, float64(4), body["quantity"])
	assert.Equal(t, true, body["terms"])
	assert.Nil(t, body["donationImage"])
}
