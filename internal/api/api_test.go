package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"eshop/internal/cart"
	"eshop/internal/checkout"
	"eshop/internal/config"
	"eshop/internal/db/dbtest"
	"eshop/internal/domain"
	"eshop/internal/events"
	"eshop/internal/ratelimit"
	"eshop/internal/repository"
	"eshop/internal/storage"
	"eshop/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/memblob"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type testApp struct {
	t      *testing.T
	router *gin.Engine
	db     *gorm.DB
	repos  *repository.Repos
	bucket *blob.Bucket
}

func newTestApp(t *testing.T, requireLogin bool) *testApp {
	gin.SetMode(gin.TestMode)
	gdb := dbtest.New(t)
	cfg := &config.Config{
		JWTSecret:        "test-secret",
		JWTTTL:           time.Hour,
		BcryptCost:       bcrypt.MinCost,
		CartRequireLogin: requireLogin,
		MaxImageBytes:    1 << 20,
	}
	repos := repository.NewRepos(gdb)
	store := cart.NewMemoryStore()
	cache := utils.NewProductCache(nil)
	bucket := memblob.OpenBucket(nil)
	images := storage.NewImageStore(bucket, cfg.MaxImageBytes)
	t.Cleanup(func() { _ = images.Close() })

	carts := cart.NewService(store, repos.Products)

	r := gin.New()
	RegisterRoutes(r, Deps{
		Config:   cfg,
		Repos:    repos,
		Carts:    carts,
		Checkout: checkout.NewService(repository.NewTxManager(gdb), carts, events.LogPublisher{}, cache),
		Limiter:  ratelimit.NewFixedWindow(ratelimit.DefaultLoginConfig()),
		Images:   images,
		Cache:    cache,
	})
	return &testApp{t: t, router: r, db: gdb, repos: repos, bucket: bucket}
}

func (a *testApp) do(method, path string, body any, token string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (a *testApp) register(username, email string) {
	w := a.do(http.MethodPost, "/register", gin.H{
		"username": username, "email": email, "password": "password123", "confirm_password": "password123",
	}, "")
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
}

func (a *testApp) login(email, password string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return a.do(http.MethodPost, "/login", gin.H{"email": email, "password": password}, "", cookies...)
}

func (a *testApp) token(email, password string) string {
	w := a.login(email, password)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode(a.t, w)["token"].(string)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	app := newTestApp(t, true)
	app.register("alice", "alice@example.com")

	w := app.do(http.MethodPost, "/register", gin.H{
		"username": "alice2", "email": "ALICE@example.com", "password": "password123", "confirm_password": "password123",
	}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	var users int64
	require.NoError(t, app.db.Model(&domain.User{}).Count(&users).Error)
	assert.EqualValues(t, 2, users, "admin plus alice")
}

func TestRegisterValidation(t *testing.T) {
	app := newTestApp(t, true)
	w := app.do(http.MethodPost, "/register", gin.H{
		"username": "bob", "email": "bob@example.com", "password": "password123", "confirm_password": "password124",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w)["error"], "ConfirmPassword")

	w = app.do(http.MethodPost, "/register", gin.H{
		"username": "b!", "email": "nope", "password": "short", "confirm_password": "short",
	}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginRateLimit(t *testing.T) {
	app := newTestApp(t, true)
	app.register("carol", "carol@example.com")

	for i := 0; i < 5; i++ {
		w := app.login("carol@example.com", "wrong-password")
		require.Equal(t, http.StatusUnauthorized, w.Code, "attempt %d", i+1)
	}
	w := app.login("Carol@Example.com", "password123")
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "blocked even with the right password")

	// Other accounts are unaffected
	assert.Equal(t, http.StatusOK, app.login("admin@eshop.com", "admin123").Code)
}

func TestSuccessfulLoginResetsAttempts(t *testing.T) {
	app := newTestApp(t, true)
	app.register("dave", "dave@example.com")

	for i := 0; i < 4; i++ {
		require.Equal(t, http.StatusUnauthorized, app.login("dave@example.com", "nope-nope").Code)
	}
	require.Equal(t, http.StatusOK, app.login("dave@example.com", "password123").Code)
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusUnauthorized, app.login("dave@example.com", "nope-nope").Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, app.login("dave@example.com", "nope-nope").Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	app := newTestApp(t, true)
	app.register("erin", "erin@example.com")
	customer := app.token("erin@example.com", "password123")
	admin := app.token("admin@eshop.com", "admin123")

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/admin/products", nil, "").Code)
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodGet, "/admin/products", nil, customer).Code)
	assert.Equal(t, http.StatusForbidden, app.do(http.MethodDelete, "/admin/products/1", nil, customer).Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/admin/products?stock=in_stock&sort=price_desc", nil, admin).Code)

	_, err := app.repos.Products.GetByID(t.Context(), 1)
	assert.NoError(t, err, "forbidden delete changed nothing")
}

func TestMeReportsRole(t *testing.T) {
	app := newTestApp(t, true)
	app.register("fred", "fred@example.com")

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodGet, "/me", nil, "").Code)

	w := app.do(http.MethodGet, "/me", nil, app.token("fred@example.com", "password123"))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, false, body["is_admin"])
	assert.Equal(t, "fred", body["user"].(map[string]any)["username"])

	w = app.do(http.MethodGet, "/me", nil, app.token("admin@eshop.com", "admin123"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, decode(t, w)["is_admin"])
}

func TestShoppingFlow(t *testing.T) {
	app := newTestApp(t, true)
	app.register("frank", "frank@example.com")
	tok := app.token("frank@example.com", "password123")

	assert.Equal(t, http.StatusUnauthorized, app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 1}, "").Code)

	w := app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 1, "quantity": 2}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 2}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 1, "quantity": 9}, tok)
	assert.Equal(t, http.StatusConflict, w.Code, "cannot exceed stock")
	w = app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 1, "quantity": 0}, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodPut, "/cart/items/2", gin.H{"quantity": 3}, tok)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	view := decode(t, w)["cart"].(map[string]any)
	assert.Equal(t, "2089.95", view["total"])

	w = app.do(http.MethodPost, "/checkout", nil, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	order := decode(t, w)["order"].(map[string]any)
	orderID := strconv.Itoa(int(order["id"].(float64)))

	p, err := app.repos.Products.GetByID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity)

	w = app.do(http.MethodGet, "/cart", nil, tok)
	assert.Empty(t, decode(t, w)["cart"].(map[string]any)["items"])
	assert.Equal(t, http.StatusBadRequest, app.do(http.MethodPost, "/checkout", nil, tok).Code)

	w = app.do(http.MethodGet, "/orders", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])
	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/orders/"+orderID, nil, tok).Code)

	admin := app.token("admin@eshop.com", "admin123")
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/orders/"+orderID, nil, admin).Code, "not the admin's own order")

	w = app.do(http.MethodPost, "/admin/orders/"+orderID+"/status", gin.H{"status": "shipped"}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = app.do(http.MethodPost, "/admin/orders/"+orderID+"/status", gin.H{"status": "lost"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodPost, "/admin/orders/999/status", gin.H{"status": "paid"}, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/admin/orders?status=shipped", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	p, err = app.repos.Products.GetByID(t.Context(), 1)
	require.NoError(t, err)
	assert.Equal(t, 8, p.StockQuantity, "status changes never restock")
}

func TestCheckoutReportsShortfalls(t *testing.T) {
	app := newTestApp(t, true)
	app.register("gina", "gina@example.com")
	tok := app.token("gina@example.com", "password123")

	require.Equal(t, http.StatusOK, app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 4, "quantity": 5}, tok).Code)
	// Admin cuts Headphones stock below the cart quantity
	admin := app.token("admin@eshop.com", "admin123")
	w := app.do(http.MethodPut, "/admin/products/4", gin.H{
		"name": "Headphones", "price": "199.99", "stock_quantity": 2, "category": "Electronics",
	}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = app.do(http.MethodPost, "/checkout", nil, tok)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, decode(t, w)["error"], "Headphones")

	var orders int64
	require.NoError(t, app.db.Model(&domain.Order{}).Count(&orders).Error)
	assert.Zero(t, orders)
}

func TestAnonymousCartMergesAtLogin(t *testing.T) {
	app := newTestApp(t, false)
	app.register("hank", "hank@example.com")

	w := app.do(http.MethodPost, "/cart/items", gin.H{"product_id": 3, "quantity": 2}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	w = app.login("hank@example.com", "password123", cookies...)
	require.Equal(t, http.StatusOK, w.Code)
	tok := decode(t, w)["token"].(string)

	w = app.do(http.MethodGet, "/cart", nil, tok)
	require.Equal(t, http.StatusOK, w.Code)
	items := decode(t, w)["cart"].(map[string]any)["items"].([]any)
	require.Len(t, items, 1)
	assert.EqualValues(t, 2, items[0].(map[string]any)["quantity"])
}

func TestAdminProductLifecycle(t *testing.T) {
	app := newTestApp(t, true)
	admin := app.token("admin@eshop.com", "admin123")

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range map[string]string{"name": "Webcam", "price": "49.5", "stock_quantity": "7", "category": "Electronics"} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", "webcam.jpg")
	require.NoError(t, err)
	_, err = fw.Write([]byte("jpegdata"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/admin/products", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	product := decode(t, w)["product"].(map[string]any)
	imageURL := product["image_url"].(string)
	require.True(t, strings.HasPrefix(imageURL, storage.UploadPrefix))
	assert.Equal(t, "49.5", product["price"])

	img := app.do(http.MethodGet, imageURL, nil, "")
	require.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "jpegdata", img.Body.String())

	id := strconv.Itoa(int(product["id"].(float64)))
	w = app.do(http.MethodPost, "/admin/products", gin.H{"name": "Bad", "price": "-1", "stock_quantity": 1}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = app.do(http.MethodPost, "/admin/products", gin.H{"name": "Bad", "price": "1", "stock_quantity": 1, "image_url": "ftp://x/y.png"}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	assert.Equal(t, http.StatusOK, app.do(http.MethodGet, "/products/"+id, nil, "").Code)
	assert.Equal(t, http.StatusOK, app.do(http.MethodDelete, "/admin/products/"+id, nil, admin).Code)
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodGet, "/products/"+id, nil, "").Code)
	assert.Equal(t, http.StatusNotFound, app.do(http.MethodDelete, "/admin/products/"+id, nil, admin).Code)
}

func (a *testApp) doMultipart(method, path string, fields map[string]string, filename string, data []byte, token string) *httptest.ResponseRecorder {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(a.t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("image", filename)
	require.NoError(a.t, err)
	_, err = fw.Write(data)
	require.NoError(a.t, err)
	require.NoError(a.t, mw.Close())

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func TestFailedProductWriteDiscardsUpload(t *testing.T) {
	app := newTestApp(t, true)
	admin := app.token("admin@eshop.com", "admin123")
	fail := func(tx *gorm.DB) {
		if tx.Statement.Table == "products" {
			_ = tx.AddError(errors.New("disk full"))
		}
	}
	require.NoError(t, app.db.Callback().Create().Before("gorm:create").Register("test:fail_product_create", fail))
	require.NoError(t, app.db.Callback().Update().Before("gorm:update").Register("test:fail_product_update", fail))
	fields := map[string]string{"name": "Webcam", "price": "49.50", "stock_quantity": "7", "category": "Electronics"}

	w := app.doMultipart(http.MethodPost, "/admin/products", fields, "webcam.png", []byte("pngdata"), admin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	w = app.doMultipart(http.MethodPut, "/admin/products/2", fields, "mouse.png", []byte("pngdata"), admin)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	_, err := app.bucket.List(nil).Next(t.Context())
	assert.ErrorIs(t, err, io.EOF, "no image left behind")
	p, err := app.repos.Products.GetByID(t.Context(), 2)
	require.NoError(t, err)
	assert.Empty(t, p.ImageURL)
}

func TestStorefrontListsInStockOnly(t *testing.T) {
	app := newTestApp(t, true)
	require.NoError(t, app.repos.Products.DeductStock(t.Context(), 6, 20))

	w := app.do(http.MethodGet, "/products?page_size=100", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.EqualValues(t, 5, out["total"])
	for _, p := range out["products"].([]any) {
		assert.NotEqual(t, "Tablet", p.(map[string]any)["name"])
	}
	assert.Equal(t, []any{"Electronics"}, out["categories"])
}
