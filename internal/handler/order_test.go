package handler_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/vasiliy-maslov/pos-backoffice/internal/handler"
	"github.com/vasiliy-maslov/pos-backoffice/internal/order"
)

type mockOrderService struct {
	createFunc        func(ctx context.Context, input order.CreateInput) (*order.Order, error)
	changeStatusFunc  func(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error)
	updateDetailsFunc func(ctx context.Context, orderID int64, input order.DetailsInput) (*order.Order, error)
	cancelFunc        func(ctx context.Context, orderID int64) (*order.Order, error)
	getByIDFunc       func(ctx context.Context, orderID int64) (*order.Order, error)
	listAllFunc       func(ctx context.Context) ([]order.Order, error)
	listByShiftFunc   func(ctx context.Context, shiftID int64) ([]order.Order, error)
}

func (m *mockOrderService) Create(ctx context.Context, input order.CreateInput) (*order.Order, error) {
	return m.createFunc(ctx, input)
}

func (m *mockOrderService) ChangeStatus(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error) {
	return m.changeStatusFunc(ctx, orderID, newStatus)
}

func (m *mockOrderService) UpdateDetails(ctx context.Context, orderID int64, input order.DetailsInput) (*order.Order, error) {
	return m.updateDetailsFunc(ctx, orderID, input)
}

func (m *mockOrderService) Cancel(ctx context.Context, orderID int64) (*order.Order, error) {
	return m.cancelFunc(ctx, orderID)
}

func (m *mockOrderService) GetByID(ctx context.Context, orderID int64) (*order.Order, error) {
	return m.getByIDFunc(ctx, orderID)
}

func (m *mockOrderService) ListAll(ctx context.Context) ([]order.Order, error) {
	return m.listAllFunc(ctx)
}

func (m *mockOrderService) ListByShift(ctx context.Context, shiftID int64) ([]order.Order, error) {
	return m.listByShiftFunc(ctx, shiftID)
}

func orderRouter(svc order.Service) *chi.Mux {
	h := handler.NewOrderHandler(svc)
	r := chi.NewRouter()
	r.Post("/orders", h.CreateOrder)
	r.Get("/orders/{id}", h.GetOrderByID)
	r.Patch("/orders/{id}/status", h.ChangeStatus)
	r.Post("/orders/{id}/cancel", h.CancelOrder)
	return r
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		createFunc     func(ctx context.Context, input order.CreateInput) (*order.Order, error)
		expectedStatus int
	}{
		{
			name: "success",
			body: `{"items":[{"product_id":1,"quantity":2}],"delivery_method":"PICKUP","payment_method":"CASH"}`,
			createFunc: func(ctx context.Context, input order.CreateInput) (*order.Order, error) {
				return &order.Order{ID: 1, OrderStatus: order.StatusPending}, nil
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name: "empty_cart",
			body: `{"items":[],"delivery_method":"PICKUP","payment_method":"CASH"}`,
			createFunc: func(ctx context.Context, input order.CreateInput) (*order.Order, error) {
				return nil, order.ErrEmptyCart
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "no_open_shift",
			body: `{"items":[{"product_id":1,"quantity":1}],"delivery_method":"PICKUP","payment_method":"CASH"}`,
			createFunc: func(ctx context.Context, input order.CreateInput) (*order.Order, error) {
				return nil, order.ErrNoOpenShift
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "invalid_json",
			body:           `{invalid json}`,
			createFunc:     nil,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{createFunc: tt.createFunc}
			r := orderRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/orders", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
		})
	}
}

func TestOrderHandler_ChangeStatus(t *testing.T) {
	tests := []struct {
		name             string
		target           string
		body             string
		changeStatusFunc func(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error)
		expectedStatus   int
	}{
		{
			name:   "success",
			target: "/orders/1/status",
			body:   `{"order_status":"READY"}`,
			changeStatusFunc: func(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error) {
				return &order.Order{ID: orderID, OrderStatus: newStatus}, nil
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "terminal_order",
			target: "/orders/1/status",
			body:   `{"order_status":"PREPARING"}`,
			changeStatusFunc: func(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error) {
				return nil, order.ErrTerminalOrder
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "unknown_status",
			target: "/orders/1/status",
			body:   `{"order_status":"SHIPPED"}`,
			changeStatusFunc: func(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error) {
				return nil, order.ErrInvalidStatus
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "order_not_found",
			target: "/orders/99/status",
			body:   `{"order_status":"READY"}`,
			changeStatusFunc: func(ctx context.Context, orderID int64, newStatus order.Status) (*order.Order, error) {
				return nil, order.ErrOrderNotFound
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "non_numeric_id",
			target:         "/orders/abc/status",
			body:           `{"order_status":"READY"}`,
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockOrderService{changeStatusFunc: tt.changeStatusFunc}
			r := orderRouter(svc)

			req := httptest.NewRequest(http.MethodPatch, tt.target, bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestOrderHandler_CancelOrder(t *testing.T) {
	svc := &mockOrderService{
		cancelFunc: func(ctx context.Context, orderID int64) (*order.Order, error) {
			return &order.Order{ID: orderID, OrderStatus: order.StatusCancelled}, nil
		},
	}
	r := orderRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/5/cancel", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"order_status":"CANCELLED"`)
}

func TestOrderHandler_GetOrderByID_NotFound(t *testing.T) {
	svc := &mockOrderService{
		getByIDFunc: func(ctx context.Context, orderID int64) (*order.Order, error) {
			return nil, order.ErrOrderNotFound
		},
	}
	r := orderRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/orders/42", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
