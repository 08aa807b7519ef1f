package api

import (
	"database/sql"
	"net/http"

	"github.com/evmotors/evdms/internal/model"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(db *sql.DB, jwtSecret string) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	dealersHandler := &DealersHandler{DB: db}
	variantsHandler := &VariantsHandler{DB: db}
	inventoryHandler := &InventoryHandler{DB: db}
	allocationsHandler := &AllocationsHandler{DB: db}
	requestsHandler := &RequestsHandler{DB: db}
	customersHandler := &CustomersHandler{DB: db}
	ordersHandler := &OrdersHandler{DB: db}
	promotionsHandler := &PromotionsHandler{DB: db}
	testDrivesHandler := &TestDrivesHandler{DB: db}
	feedbackHandler := &FeedbackHandler{DB: db}
	reportsHandler := &ReportsHandler{DB: db}

	authMW := AuthMiddleware(jwtSecret, db)
	requireAdmin := RequireRole(model.RoleAdmin)
	requireStaff := RequireRole(model.RoleEVMStaff)

	// Public: login.
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)

	// Authenticated routes.
	mux.Handle("PUT /api/auth/password", authMW(http.HandlerFunc(authHandler.ChangePassword)))
	mux.Handle("POST /api/auth/logout", authMW(http.HandlerFunc(authHandler.Logout)))

	// Users (admin only).
	mux.Handle("GET /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.List))))
	mux.Handle("POST /api/users", authMW(requireAdmin(http.HandlerFunc(usersHandler.Create))))
	mux.Handle("GET /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Get))))
	mux.Handle("PUT /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Update))))
	mux.Handle("DELETE /api/users/{id}", authMW(requireAdmin(http.HandlerFunc(usersHandler.Delete))))

	// Dealers: read (all roles), write (manufacturer staff+).
	mux.Handle("GET /api/dealers", authMW(http.HandlerFunc(dealersHandler.List)))
	mux.Handle("POST /api/dealers", authMW(requireStaff(http.HandlerFunc(dealersHandler.Create))))
	mux.Handle("GET /api/dealers/{id}", authMW(http.HandlerFunc(dealersHandler.Get)))
	mux.Handle("PUT /api/dealers/{id}", authMW(requireStaff(http.HandlerFunc(dealersHandler.Update))))
	mux.Handle("DELETE /api/dealers/{id}", authMW(requireStaff(http.HandlerFunc(dealersHandler.Delete))))

	// Variant catalog: read (all roles), write (manufacturer staff+).
	mux.Handle("GET /api/variants", authMW(http.HandlerFunc(variantsHandler.List)))
	mux.Handle("POST /api/variants", authMW(requireStaff(http.HandlerFunc(variantsHandler.Create))))
	mux.Handle("GET /api/variants/{id}", authMW(http.HandlerFunc(variantsHandler.Get)))
	mux.Handle("PUT /api/variants/{id}", authMW(requireStaff(http.HandlerFunc(variantsHandler.Update))))
	mux.Handle("DELETE /api/variants/{id}", authMW(requireStaff(http.HandlerFunc(variantsHandler.Delete))))
	mux.Handle("PUT /api/variants/{id}/photo", authMW(requireStaff(http.HandlerFunc(variantsHandler.UploadPhoto))))
	mux.Handle("GET /api/variants/{id}/photo", authMW(http.HandlerFunc(variantsHandler.GetPhoto)))

	// Inventory: intake (manufacturer staff+), read (all roles).
	mux.Handle("POST /api/inventory/intake", authMW(requireStaff(http.HandlerFunc(inventoryHandler.Intake))))
	mux.Handle("GET /api/inventory/units", authMW(http.HandlerFunc(inventoryHandler.ListUnits)))
	mux.Handle("GET /api/inventory/available", authMW(http.HandlerFunc(inventoryHandler.CountAvailable)))

	// Allocation and recall (manufacturer staff+).
	mux.Handle("POST /api/allocate/{requestId}", authMW(requireStaff(http.HandlerFunc(allocationsHandler.Allocate))))
	mux.Handle("POST /api/recall/{requestId}", authMW(requireStaff(http.HandlerFunc(allocationsHandler.Recall))))

	// Dealer stock requests: filing and reading (all roles, dealer scoped),
	// review (manufacturer staff+).
	mux.Handle("POST /api/requests", authMW(http.HandlerFunc(requestsHandler.Create)))
	mux.Handle("GET /api/requests", authMW(http.HandlerFunc(requestsHandler.List)))
	mux.Handle("GET /api/requests/{id}", authMW(http.HandlerFunc(requestsHandler.Get)))
	mux.Handle("PUT /api/requests/{id}/review", authMW(requireStaff(http.HandlerFunc(requestsHandler.Review))))

	// Customers (dealer scoped).
	mux.Handle("GET /api/customers", authMW(http.HandlerFunc(customersHandler.List)))
	mux.Handle("POST /api/customers", authMW(http.HandlerFunc(customersHandler.Create)))
	mux.Handle("GET /api/customers/{id}", authMW(http.HandlerFunc(customersHandler.Get)))
	mux.Handle("PUT /api/customers/{id}", authMW(http.HandlerFunc(customersHandler.Update)))
	mux.Handle("DELETE /api/customers/{id}", authMW(http.HandlerFunc(customersHandler.Delete)))

	// Orders and payments (dealer scoped).
	mux.Handle("GET /api/orders", authMW(http.HandlerFunc(ordersHandler.List)))
	mux.Handle("POST /api/orders", authMW(http.HandlerFunc(ordersHandler.Create)))
	mux.Handle("GET /api/orders/{id}", authMW(http.HandlerFunc(ordersHandler.Get)))
	mux.Handle("POST /api/orders/{id}/cancel", authMW(http.HandlerFunc(ordersHandler.Cancel)))
	mux.Handle("POST /api/orders/{id}/payments", authMW(http.HandlerFunc(ordersHandler.RecordPayment)))
	mux.Handle("GET /api/orders/{id}/payments", authMW(http.HandlerFunc(ordersHandler.ListPayments)))

	// Promotions: read (all roles), write (manufacturer staff+).
	mux.Handle("GET /api/promotions", authMW(http.HandlerFunc(promotionsHandler.List)))
	mux.Handle("POST /api/promotions", authMW(requireStaff(http.HandlerFunc(promotionsHandler.Create))))
	mux.Handle("GET /api/promotions/{id}", authMW(http.HandlerFunc(promotionsHandler.Get)))
	mux.Handle("DELETE /api/promotions/{id}", authMW(requireStaff(http.HandlerFunc(promotionsHandler.Delete))))

	// Test drives (dealer scoped).
	mux.Handle("GET /api/testdrives", authMW(http.HandlerFunc(testDrivesHandler.List)))
	mux.Handle("POST /api/testdrives", authMW(http.HandlerFunc(testDrivesHandler.Schedule)))
	mux.Handle("GET /api/testdrives/{id}", authMW(http.HandlerFunc(testDrivesHandler.Get)))
	mux.Handle("PUT /api/testdrives/{id}/status", authMW(http.HandlerFunc(testDrivesHandler.UpdateStatus)))

	// Feedback (dealer scoped).
	mux.Handle("GET /api/feedback", authMW(http.HandlerFunc(feedbackHandler.List)))
	mux.Handle("POST /api/feedback", authMW(http.HandlerFunc(feedbackHandler.Create)))
	mux.Handle("GET /api/feedback/{id}", authMW(http.HandlerFunc(feedbackHandler.Get)))

	// Reports: stock and sales are dealer scoped; the network snapshot is
	// manufacturer staff only.
	mux.Handle("GET /api/reports/stock", authMW(http.HandlerFunc(reportsHandler.StockSummary)))
	mux.Handle("GET /api/reports/network", authMW(requireStaff(http.HandlerFunc(reportsHandler.NetworkStock))))
	mux.Handle("GET /api/reports/sales", authMW(http.HandlerFunc(reportsHandler.SalesSummary)))

	return mux
}
