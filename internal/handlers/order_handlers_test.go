package handlers

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/01moynul/greens-storefront/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	lockCartQuery   = regexp.QuoteMeta("FOR UPDATE")
	insertOrder     = regexp.QuoteMeta("INSERT INTO orders")
	insertOrderItem = regexp.QuoteMeta("INSERT INTO order_items")
	deductStock     = regexp.QuoteMeta("UPDATE products SET stock_quantity = stock_quantity - ?")
	clearCart       = regexp.QuoteMeta("DELETE FROM cart_items WHERE session_id = ?")
	countCartLines  = regexp.QuoteMeta("SELECT COUNT(*) FROM cart_items WHERE session_id = ?")
	lockColumns     = []string{"product_id", "quantity", "name", "image_url", "price", "stock_quantity"}
	orderColumns    = []string{"id", "customer_name", "customer_email", "customer_phone", "delivery_address",
		"total_amount", "status", "created_at", "updated_at"}
)

func validCheckout() map[string]any {
	return map[string]any{
		"name":    "  Ada Obi ",
		"email":   "ada@example.com",
		"phone":   "+44 7700 900000",
		"address": "1 Market Street",
	}
}

func expectCartLines(mock sqlmock.Sqlmock, n int) {
	mock.ExpectQuery(countCartLines).WithArgs(testSession).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(n))
}

func TestCheckout_ValidationOrder(t *testing.T) {
	tests := []struct {
		name  string
		patch map[string]any
		want  string
	}{
		{"everything blank", map[string]any{"name": " ", "email": "", "phone": "", "address": ""}, models.ErrNameRequired.Error()},
		{"email without at sign", map[string]any{"email": "ada.example.com", "phone": ""}, models.ErrEmailInvalid.Error()},
		{"phone blank", map[string]any{"phone": "  "}, models.ErrPhoneRequired.Error()},
		{"address blank", map[string]any{"address": ""}, models.ErrAddressRequired.Error()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mock, _ := setupHandlers(t)
			expectCartLines(mock, 1)
			body := validCheckout()
			for k, v := range tt.patch {
				body[k] = v
			}

			w := doRequest(t, newTestRouter(h), http.MethodPost, "/v1/checkout", body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.want, decode(t, w)["error"])
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestCheckout_EmptyCartBeforeForm(t *testing.T) {
	h, mock, mailer := setupHandlers(t)
	expectCartLines(mock, 0)

	w := doRequest(t, newTestRouter(h), http.MethodPost, "/v1/checkout",
		map[string]any{"name": "", "email": "", "phone": "", "address": ""})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Your cart is empty", decode(t, w)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
	h.Wait()
	assert.Empty(t, mailer.sent)
}

func TestCheckout_CartEmptiedBeforeLock(t *testing.T) {
	h, mock, _ := setupHandlers(t)
	expectCartLines(mock, 1)
	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).WithArgs(testSession).WillReturnRows(sqlmock.NewRows(lockColumns))
	mock.ExpectRollback()

	w := doRequest(t, newTestRouter(h), http.MethodPost, "/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Your cart is empty", decode(t, w)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_InsufficientStockRollsBack(t *testing.T) {
	h, mock, _ := setupHandlers(t)
	expectCartLines(mock, 2)
	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).WithArgs(testSession).WillReturnRows(sqlmock.NewRows(lockColumns).
		AddRow(1, 2, "Amaranth Leaves", "", 2.5, 10).
		AddRow(3, 5, "Okra", "", 2.25, 4))
	mock.ExpectRollback()

	w := doRequest(t, newTestRouter(h), http.MethodPost, "/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Not enough stock for Okra", decode(t, w)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckout_PlacesOrder(t *testing.T) {
	h, mock, mailer := setupHandlers(t)
	expectCartLines(mock, 2)
	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).WithArgs(testSession).WillReturnRows(sqlmock.NewRows(lockColumns).
		AddRow(1, 2, "Amaranth Leaves", "", 2.5, 10).
		AddRow(3, 1, "Okra", "", 2.25, 1))
	mock.ExpectExec(insertOrder).
		WithArgs(sqlmock.AnyArg(), testSession, "Ada Obi", "ada@example.com", "+44 7700 900000",
			"1 Market Street", 7.25, models.StatusPending, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertOrderItem).WithArgs(sqlmock.AnyArg(), int64(1), 2, 2.5).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(deductStock).WithArgs(2, sqlmock.AnyArg(), int64(1)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertOrderItem).WithArgs(sqlmock.AnyArg(), int64(3), 1, 2.25).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectExec(deductStock).WithArgs(1, sqlmock.AnyArg(), int64(3)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(clearCart).WithArgs(testSession).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	w := doRequest(t, newTestRouter(h), http.MethodPost, "/v1/checkout", validCheckout())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "Order placed successfully", body["message"])
	order := body["order"].(map[string]any)
	assert.Equal(t, 7.25, order["totalAmount"])
	assert.Equal(t, models.StatusPending, order["status"])
	assert.Equal(t, "Ada Obi", order["customerName"])
	assert.NotContains(t, order, "sessionId")
	_, err := uuid.Parse(order["id"].(string))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	h.Wait()
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "ada@example.com", mailer.sent[0].to)
	assert.Contains(t, mailer.sent[0].body, "2 x Amaranth Leaves")
	assert.Contains(t, mailer.sent[0].body, "Total: $7.25")
}

func TestCheckout_DatabaseFailureRollsBack(t *testing.T) {
	h, mock, mailer := setupHandlers(t)
	expectCartLines(mock, 2)
	mock.ExpectBegin()
	mock.ExpectQuery(lockCartQuery).WillReturnRows(sqlmock.NewRows(lockColumns).AddRow(1, 1, "Okra", "", 2.25, 5))
	mock.ExpectExec(insertOrder).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	w := doRequest(t, newTestRouter(h), http.MethodPost, "/v1/checkout", validCheckout())

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Failed to create order", decode(t, w)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
	h.Wait()
	assert.Empty(t, mailer.sent)
}

func TestGetOrder_Receipt(t *testing.T) {
	h, mock, _ := setupHandlers(t)
	orderID := uuid.NewString()
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows(orderColumns).
			AddRow(orderID, "Ada Obi", "ada@example.com", "+44 7700 900000", "1 Market Street", 7.25, "pending", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM order_items oi")).WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity", "price", "name", "image_url"}).
			AddRow(1, orderID, 1, 2, 2.5, "Amaranth Leaves", "https://img/1.jpg").
			AddRow(2, orderID, 3, 1, 2.25, "Okra", ""))

	w := doRequest(t, newTestRouter(h), http.MethodGet, "/v1/orders/"+orderID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, orderID, body["order"].(map[string]any)["id"])
	items := body["items"].([]any)
	require.Len(t, items, 2)
	first := items[0].(map[string]any)
	assert.Equal(t, "Amaranth Leaves", first["productName"])
	assert.Equal(t, float64(5), first["lineTotal"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrder_NotFound(t *testing.T) {
	h, mock, _ := setupHandlers(t)
	orderID := uuid.NewString()
	mock.ExpectQuery(regexp.QuoteMeta("FROM orders WHERE id = ?")).WithArgs(orderID).
		WillReturnRows(sqlmock.NewRows(orderColumns))

	r := newTestRouter(h)
	w := doRequest(t, r, http.MethodGet, "/v1/orders/"+orderID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", decode(t, w)["error"])

	// Not a UUID: rejected without touching the database.
	w = doRequest(t, r, http.MethodGet, "/v1/orders/42", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
