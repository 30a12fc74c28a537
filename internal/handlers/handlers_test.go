package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/01moynul/greens-storefront/internal/auth"
	"github.com/01moynul/greens-storefront/internal/catalog"
	"github.com/01moynul/greens-storefront/internal/middleware"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testSession = "8c6b2d4e-5f1a-4b7c-9d3e-2a1f0e9d8c7b"

func init() {
	gin.SetMode(gin.TestMode)
}

type sentMail struct {
	to, subject, body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (f *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to, subject, body})
	return f.err
}

type fakeImages struct {
	url string
	err error
}

func (f *fakeImages) Save(_ context.Context, r io.Reader) (string, error) {
	_, _ = io.Copy(io.Discard, r)
	return f.url, f.err
}

type fakeAssistant struct {
	reply  string
	tokens int
	err    error
}

func (f *fakeAssistant) Reply(context.Context, string) (string, int, error) {
	return f.reply, f.tokens, f.err
}

func setupHandlers(t *testing.T) (*Handlers, sqlmock.Sqlmock, *fakeMailer) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mailer := &fakeMailer{}
	h := &Handlers{
		DB:      db,
		Catalog: catalog.NewStore(db, nil, zap.NewNop()),
		Mailer:  mailer,
		Images:  &fakeImages{url: "http://localhost:8080/uploads/new.png"},
		Tokens:  auth.NewManager("test-secret", time.Hour),
		Log:     zap.NewNop(),
		CartTTL: 720 * time.Hour,
	}
	return h, mock, mailer
}

// newTestRouter mounts the handlers the way the real router does, minus
// the admin guard and rate limits.
func newTestRouter(h *Handlers) *gin.Engine {
	r := gin.New()
	v1 := r.Group("/v1")

	v1.GET("/categories", h.ListCategories)
	v1.GET("/products", h.ListProducts)
	v1.GET("/products/:id", h.GetProduct)
	v1.GET("/orders/:id", h.GetOrder)

	shop := v1.Group("", middleware.CartSession())
	shop.GET("/cart", h.GetCart)
	shop.POST("/cart/items", h.AddToCart)
	shop.PUT("/cart/items/:id", h.UpdateCartItem)
	shop.DELETE("/cart/items/:id", h.DeleteCartItem)
	shop.DELETE("/cart", h.ClearCart)
	shop.POST("/checkout", h.Checkout)
	shop.POST("/assistant/chat", h.ChatAssistant)

	v1.POST("/admin/login", h.AdminLogin)
	admin := v1.Group("/admin")
	admin.GET("/dashboard-stats", h.GetDashboardStats)
	admin.POST("/categories", h.CreateCategory)
	admin.DELETE("/categories/:id", h.DeleteCategory)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
	admin.POST("/products/:id/image", h.UploadProductImage)
	admin.GET("/orders", h.ListOrders)
	admin.GET("/orders/:id", h.GetOrderDetails)
	admin.PATCH("/orders/:id/status", h.UpdateOrderStatus)
	return r
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeader, testSession)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var cartColumns = []string{"id", "product_id", "quantity", "name", "price", "image_url", "stock_quantity"}
