package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	auction "rental-auction/internal/auctionService"
	"rental-auction/internal/collaborators"
	model "rental-auction/internal/models"
	"rental-auction/internal/presence"
	"rental-auction/internal/repository"
	"rental-auction/internal/server"
	"rental-auction/internal/ws"
	"rental-auction/utils"

	"github.com/gin-gonic/gin"
)

// TestEnv bundles the router with the in-memory backends so tests can
// seed state directly.
type TestEnv struct {
	Router  *gin.Engine
	Store   *repository.MemoryStore
	Service *auction.AuctionService
}

// SetupTestEnv initializes the router with in-memory backends for
// integration testing. The directory is seeded with one owner, three
// tenants and one apartment.
func SetupTestEnv() *TestEnv {
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryStore()
	dir := collaborators.NewMemoryDirectory()
	dir.AddUser(model.User{UserID: "owner1", Username: "owner one", Roles: []string{model.RoleOwner}})
	dir.AddUser(model.User{UserID: "tenant1", Username: "tenant one", Roles: []string{model.RoleTenant}})
	dir.AddUser(model.User{UserID: "tenant2", Username: "tenant two", Roles: []string{model.RoleTenant}})
	dir.AddUser(model.User{UserID: "tenant3", Username: "tenant three", Roles: []string{model.RoleTenant}})
	dir.AddApartment(model.Apartment{ApartmentID: "apt1", OwnerID: "owner1", Title: "apartment one"})

	hub := ws.NewHub()
	service := auction.NewAuctionService(
		store, store, store,
		dir, dir,
		collaborators.StaticGateway{Approve: true},
		presence.NewMemoryStore(24*time.Hour),
		hub,
	)
	router := server.SetupRouter(service, hub)

	return &TestEnv{Router: router, Store: store, Service: service}
}

// SeedActiveAuction writes an ACTIVE auction straight into the store so
// bid tests do not depend on the lifecycle sweep.
func (e *TestEnv) SeedActiveAuction(t *testing.T, startingPrice, minIncrement float64) model.Auction {
	t.Helper()

	now := time.Now().UTC()
	a := model.Auction{
		AuctionID:      utils.GenerateID(),
		ApartmentID:    "apt1",
		OwnerID:        "owner1",
		StartTime:      now.Add(-time.Hour),
		EndTime:        now.Add(time.Hour),
		RentalStart:    now.Add(48 * time.Hour),
		RentalEnd:      now.Add(14 * 24 * time.Hour),
		StartingPrice:  startingPrice,
		MinIncrement:   minIncrement,
		MaxBidderSlots: 10,
		Status:         model.AuctionActive,
		CreatedAt:      now,
	}
	if err := e.Store.CreateAuction(a); err != nil {
		t.Fatalf("failed to seed auction: %v", err)
	}
	return a
}

// ExecuteRequest executes an HTTP request and returns the response recorder.
func ExecuteRequest(t *testing.T, router *gin.Engine, method, url string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ExecuteRequestAndParse executes an HTTP request on the given router and parses the response
func ExecuteRequestAndParse(t *testing.T, router *gin.Engine, method, url string, body any) (map[string]any, *httptest.ResponseRecorder) {
	var reqBody []byte
	var err error

	switch v := body.(type) {
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		reqBody, err = json.Marshal(v)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	var resp map[string]any
	if len(w.Body.Bytes()) > 0 {
		err := json.Unmarshal(w.Body.Bytes(), &resp)
		if err != nil {
			t.Fatalf("failed to unmarshal response: %v", err)
		}
	}

	return resp, w
}
