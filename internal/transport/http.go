package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vasiliy-maslov/pos-backoffice/internal/cashshift"
	"github.com/vasiliy-maslov/pos-backoffice/internal/catalog"
	"github.com/vasiliy-maslov/pos-backoffice/internal/events"
	"github.com/vasiliy-maslov/pos-backoffice/internal/handler"
	"github.com/vasiliy-maslov/pos-backoffice/internal/order"
)

// shiftSource adapts the cash shift service to the order package's view of it,
// translating the not-open sentinel across package boundaries.
type shiftSource struct {
	shifts cashshift.Service
}

func (s shiftSource) CurrentShiftID(ctx context.Context) (int64, error) {
	shift, err := s.shifts.Current(ctx)
	if err != nil {
		if errors.Is(err, cashshift.ErrNoOpenShift) {
			return 0, order.ErrNoOpenShift
		}
		return 0, err
	}
	return shift.ID, nil
}

func NewRouter(db *pgxpool.Pool, bus *events.Bus) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	prices := catalog.NewPriceSource(db)
	shiftRepo := cashshift.NewRepository(db)
	orderRepo := order.NewRepository(db)

	shiftSvc := cashshift.NewService(shiftRepo, orderRepo, bus)
	orderSvc := order.NewService(orderRepo, prices, shiftSource{shifts: shiftSvc}, bus)

	orderHandler := handler.NewOrderHandler(orderSvc)
	shiftHandler := handler.NewCashShiftHandler(shiftSvc, orderSvc)

	r.Route("/orders", func(r chi.Router) {
		r.Post("/", orderHandler.CreateOrder)
		r.Get("/", orderHandler.ListOrders)
		r.Get("/{id}", orderHandler.GetOrderByID)
		r.Patch("/{id}", orderHandler.UpdateDetails)
		r.Patch("/{id}/status", orderHandler.ChangeStatus)
		r.Post("/{id}/cancel", orderHandler.CancelOrder)
	})

	r.Route("/cash-shifts", func(r chi.Router) {
		r.Post("/open", shiftHandler.OpenShift)
		r.Post("/close", shiftHandler.CloseShift)
		r.Get("/current", shiftHandler.GetCurrentShift)
		r.Get("/{id}/orders", shiftHandler.ListShiftOrders)
	})

	return r
}
