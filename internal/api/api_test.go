package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/evmotors/evdms/internal/db"
	"github.com/evmotors/evdms/internal/model"
	"github.com/evmotors/evdms/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB, string) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	// Create admin user.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin", string(hash), model.RoleAdmin, nil)

	return server, database, loginAs(t, server, "admin", "password")
}

func loginAs(t *testing.T, server *httptest.Server, username, password string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"username": username, "password": password})
	resp, err := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d", resp.StatusCode)
	}

	var loginResp map[string]string
	json.NewDecoder(resp.Body).Decode(&loginResp)
	token := loginResp["token"]
	if token == "" {
		t.Fatal("empty token from login")
	}
	return token
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// seedAllocationScenario creates a variant, a dealer, factory stock, and an
// approved request directly in the store.
func seedAllocationScenario(t *testing.T, database *sql.DB, quantity int) (variantID, dealerID, requestID int64) {
	t.Helper()
	ctx := context.Background()

	variant, err := store.CreateVariant(ctx, database, "Aurora", "Long Range", 82.5, 520, decimal.NewFromInt(45000))
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	dealer, err := store.CreateDealer(ctx, database, "Northern Motors", "North", "")
	if err != nil {
		t.Fatalf("CreateDealer: %v", err)
	}
	if _, err := store.RegisterUnits(ctx, database, variant.ID, "red", quantity); err != nil {
		t.Fatalf("RegisterUnits: %v", err)
	}
	req, err := store.CreateRequest(ctx, database, dealer.ID, "", []model.RequestItem{
		{VariantID: variant.ID, Color: "red", Quantity: quantity},
	})
	if err != nil {
		t.Fatalf("CreateRequest: %v", err)
	}
	if err := store.ReviewRequest(ctx, database, req.ID, model.RequestStatusApproved); err != nil {
		t.Fatalf("ReviewRequest: %v", err)
	}
	return variant.ID, dealer.ID, req.ID
}

func TestLoginEndpoint(t *testing.T) {
	server, _, _ := setupTestServer(t)

	body, _ := json.Marshal(map[string]string{"username": "admin", "password": "wrong"})
	resp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	server, _, _ := setupTestServer(t)

	resp, _ := http.Get(server.URL + "/api/dealers")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 without a token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/auth/logout", token, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 on logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The token is dead now.
	req, _ = authRequest("GET", server.URL+"/api/dealers", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 with a revoked token, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAllocateEndpoint(t *testing.T) {
	server, database, token := setupTestServer(t)
	variantID, dealerID, requestID := seedAllocationScenario(t, database, 3)

	req, _ := authRequest("POST", fmt.Sprintf("%s/api/allocate/%d", server.URL, requestID), token, map[string]any{
		"dealer_id": dealerID,
		"items": []map[string]any{
			{"variant_id": variantID, "color": "red", "quantity": 3},
		},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result model.AllocationResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.TotalMoved != 3 || result.FailedItems != 0 {
		t.Errorf("expected 3 moved with no failures, got %+v", result)
	}

	count, _ := store.CountAvailable(context.Background(), database, model.LocationDealer, dealerID, variantID, "red")
	if count != 3 {
		t.Errorf("expected 3 units at dealer, got %d", count)
	}
}

func TestAllocatePartialFailureIs200(t *testing.T) {
	server, database, token := setupTestServer(t)
	variantID, dealerID, requestID := seedAllocationScenario(t, database, 2)

	// Asking for more than the request line allows: the call succeeds, the line fails.
	req, _ := authRequest("POST", fmt.Sprintf("%s/api/allocate/%d", server.URL, requestID), token, map[string]any{
		"dealer_id": dealerID,
		"items": []map[string]any{
			{"variant_id": variantID, "color": "red", "quantity": 5},
		},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for per-item failure, got %d", resp.StatusCode)
	}

	var result model.AllocationResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.TotalMoved != 0 || result.FailedItems != 1 {
		t.Errorf("expected 0 moved and 1 failed item, got %+v", result)
	}
}

func TestAllocateUnknownRequestIs404(t *testing.T) {
	server, database, token := setupTestServer(t)
	variantID, dealerID, _ := seedAllocationScenario(t, database, 1)

	req, _ := authRequest("POST", server.URL+"/api/allocate/999", token, map[string]any{
		"dealer_id": dealerID,
		"items": []map[string]any{
			{"variant_id": variantID, "color": "red", "quantity": 1},
		},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for unknown request, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestRecallEndpoint(t *testing.T) {
	server, database, token := setupTestServer(t)
	variantID, dealerID, requestID := seedAllocationScenario(t, database, 2)

	if _, err := store.Allocate(context.Background(), database, requestID, dealerID, []model.AllocationItem{
		{VariantID: variantID, Color: "red", Quantity: 2},
	}); err != nil {
		t.Fatalf("Allocate: %v", err)
	}

	req, _ := authRequest("POST", fmt.Sprintf("%s/api/recall/%d", server.URL, requestID), token, map[string]any{
		"dealer_id": dealerID,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var result model.RecallResult
	json.NewDecoder(resp.Body).Decode(&result)
	resp.Body.Close()
	if result.RecalledCount != 2 {
		t.Errorf("expected 2 recalled, got %d", result.RecalledCount)
	}
}

func TestDealerStaffForbiddenFromAllocation(t *testing.T) {
	server, database, _ := setupTestServer(t)
	variantID, dealerID, requestID := seedAllocationScenario(t, database, 1)

	// A dealer staff account cannot reach the allocation endpoint.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	if _, err := store.CreateUser(ctx, database, "staff", string(hash), model.RoleDealerStaff, &dealerID); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	staffToken := loginAs(t, server, "staff", "password")

	req, _ := authRequest("POST", fmt.Sprintf("%s/api/allocate/%d", server.URL, requestID), staffToken, map[string]any{
		"dealer_id": dealerID,
		"items": []map[string]any{
			{"variant_id": variantID, "color": "red", "quantity": 1},
		},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for dealer staff, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDealerScopingOnRequests(t *testing.T) {
	server, database, _ := setupTestServer(t)

	ctx := context.Background()
	variant, _ := store.CreateVariant(ctx, database, "Aurora", "Long Range", 82.5, 520, decimal.NewFromInt(45000))
	north, _ := store.CreateDealer(ctx, database, "Northern Motors", "North", "")
	south, _ := store.CreateDealer(ctx, database, "Southern Motors", "South", "")

	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "north-staff", string(hash), model.RoleDealerStaff, &north.ID)
	staffToken := loginAs(t, server, "north-staff", "password")

	// Filing for the own dealer works.
	req, _ := authRequest("POST", server.URL+"/api/requests", staffToken, map[string]any{
		"dealer_id": north.ID,
		"items": []map[string]any{
			{"variant_id": variant.ID, "color": "red", "quantity": 1},
		},
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Filing for another dealer is forbidden.
	req, _ = authRequest("POST", server.URL+"/api/requests", staffToken, map[string]any{
		"dealer_id": south.ID,
		"items": []map[string]any{
			{"variant_id": variant.ID, "color": "red", "quantity": 1},
		},
	})
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 filing for another dealer, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestUsersEndpointAdminOnly(t *testing.T) {
	server, database, token := setupTestServer(t)

	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "staff", string(hash), model.RoleEVMStaff, nil)
	staffToken := loginAs(t, server, "staff", "password")

	req, _ := authRequest("GET", server.URL+"/api/users", staffToken, nil)
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-admin, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/users", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for admin, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDealersAPIFlow(t *testing.T) {
	server, _, token := setupTestServer(t)

	req, _ := authRequest("POST", server.URL+"/api/dealers", token, map[string]string{
		"name":   "Northern Motors",
		"region": "North",
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	var dealer model.Dealer
	json.NewDecoder(resp.Body).Decode(&dealer)
	resp.Body.Close()

	req, _ = authRequest("GET", server.URL+"/api/dealers", token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var dealers []model.Dealer
	json.NewDecoder(resp.Body).Decode(&dealers)
	resp.Body.Close()
	if len(dealers) != 1 || dealers[0].ID != dealer.ID {
		t.Errorf("expected the created dealer listed, got %+v", dealers)
	}
}

func TestInventoryIntakeAndCount(t *testing.T) {
	server, database, token := setupTestServer(t)

	variant, err := store.CreateVariant(context.Background(), database, "Aurora", "Long Range", 82.5, 520, decimal.NewFromInt(45000))
	if err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}

	req, _ := authRequest("POST", server.URL+"/api/inventory/intake", token, map[string]any{
		"variant_id": variant.ID,
		"color":      "red",
		"quantity":   4,
	})
	resp, _ := http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	url := fmt.Sprintf("%s/api/inventory/available?location=manufacturer&variant_id=%d&color=red", server.URL, variant.ID)
	req, _ = authRequest("GET", url, token, nil)
	resp, _ = http.DefaultClient.Do(req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var count map[string]int
	json.NewDecoder(resp.Body).Decode(&count)
	resp.Body.Close()
	if count["available"] != 4 {
		t.Errorf("expected 4 available, got %d", count["available"])
	}
}
