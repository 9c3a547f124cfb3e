package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/dishbook/backend/config"
	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/infrastructure/cache"
	"github.com/dishbook/backend/internal/infrastructure/catalog"
	"github.com/dishbook/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	// Run tests
	exitCode := m.Run()

	// Exit with the test result code
	os.Exit(exitCode)
}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*", "https://dishbook.app"},
		},
		Cache: config.CacheConfig{
			Type: "memory",
		},
	}
}

func testCatalog() *catalog.MemoryCatalog {
	bob := "bob"
	return catalog.NewMemoryCatalog(catalog.Seed{
		Products: []domain.Product{
			{ID: "p1", Name: "Mleko"},
			{ID: "p2", Name: "Jajko"},
			{ID: "p3", Name: "Czosnek"},
			{ID: "p4", Name: "Ser żółty"},
			{ID: "bob-secret", OwnerID: &bob, Name: "Trufla"},
		},
		Tags: []domain.Tag{
			{ID: "t1", Name: "Obiad"},
			{ID: "t2", Name: "Wegetariańskie"},
		},
	})
}

// setupRouterWith wires the real services around the given catalog and verifier
func setupRouterWith(repo domain.CatalogRepository, verifier domain.Verifier) *gin.Engine {
	matching := usecase.NewMatchingService(verifier, usecase.MatchConfig{})
	review := usecase.NewReviewService(nil, usecase.Normalizer{})

	handler := NewHandler(matching, verifier, review, repo)
	return SetupRouter(testConfig(), handler)
}

// setupTestRouter creates a test router with the heuristic verifier and a memory catalog
func setupTestRouter() *gin.Engine {
	verification := usecase.NewVerificationService(
		cache.NewMemoryCache(),
		usecase.NewHeuristicModel(0),
		usecase.VerificationServiceConfig{},
	)
	return setupRouterWith(testCatalog(), verification)
}

func postJSON(router *gin.Engine, path, payload string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest("POST", path, strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// failingVerifier always errors
type failingVerifier struct{}

func (failingVerifier) Verify(ctx context.Context, req domain.VerificationRequest) (*domain.Verification, error) {
	return nil, errors.Wrap(domain.ErrVerifierUnavailable, "model unreachable")
}

// failingCatalog reports the catalog as down
type failingCatalog struct{}

func (failingCatalog) ListProducts(ctx context.Context, userID string) ([]domain.Product, error) {
	return nil, errors.Mark(errors.New("connection refused"), domain.ErrCatalogUnavailable)
}

func (failingCatalog) ListTags(ctx context.Context, userID string) ([]domain.Tag, error) {
	return nil, errors.Mark(errors.New("connection refused"), domain.ErrCatalogUnavailable)
}

func (failingCatalog) CreateProducts(ctx context.Context, products []domain.Product) error {
	return errors.Mark(errors.New("connection refused"), domain.ErrCatalogUnavailable)
}

// TestHealthCheckEndpoint tests the health check endpoint
func TestHealthCheckEndpoint(t *testing.T) {
	t.Run("returns healthy status", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response map[string]interface{}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		if err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response["status"] != "healthy" {
			t.Errorf("status = %v, want healthy", response["status"])
		}
		if response["service"] != "dishbook-backend" {
			t.Errorf("service = %v, want dishbook-backend", response["service"])
		}
		version, ok := response["version"].(string)
		if !ok || strings.TrimSpace(version) == "" {
			t.Errorf("version = %v, want non-empty string", response["version"])
		}
	})

	t.Run("accepts GET requests only", func(t *testing.T) {
		router := setupTestRouter()

		methods := []string{"POST", "PUT", "DELETE", "PATCH"}

		for _, method := range methods {
			req, _ := http.NewRequest(method, "/health", nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			if w.Code != http.StatusNotFound {
				t.Errorf("Method %s: Status = %d, want %d", method, w.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("sets a request id", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("expected X-Request-ID response header")
		}
	})
}

// TestMatchRecipeEndpoint tests recipe matching against the catalog
func TestMatchRecipeEndpoint(t *testing.T) {
	t.Run("matches ingredients and resolves tags", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{
			"userId": "user-1",
			"recipe": {
				"name": "Jajecznica",
				"ingredients": [
					{"name": "jajka", "quantity": "3", "unit": "szt"},
					{"name": "ser zolty", "quantity": "50", "unit": "g"},
					{"name": "szafran", "quantity": "1", "unit": "szczypta"}
				],
				"tags": ["obiad", "Śniadanie"]
			}
		}`
		w := postJSON(router, "/api/v1/recipes/match", payload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		var response MatchRecipeResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if response.Name != "Jajecznica" {
			t.Errorf("name = %q, want Jajecznica", response.Name)
		}
		if len(response.Matches) != 3 {
			t.Fatalf("len(matches) = %d, want 3", len(response.Matches))
		}

		eggs := response.Matches[0]
		if eggs.Status != usecase.StatusMatched || eggs.SelectedProductID == nil || *eggs.SelectedProductID != "p2" {
			t.Errorf("jajka: status %s, selected %v, want matched p2", eggs.Status, eggs.SelectedProductID)
		}
		if eggs.MatchScore != 0 {
			t.Errorf("jajka: score = %v, want 0", eggs.MatchScore)
		}

		cheese := response.Matches[1]
		if cheese.Action != domain.ActionUseExisting || cheese.MatchedProduct == nil || cheese.MatchedProduct.ID != "p4" {
			t.Errorf("ser zolty: action %s, matched %v, want use_existing p4", cheese.Action, cheese.MatchedProduct)
		}

		saffron := response.Matches[2]
		if saffron.Status != usecase.StatusNew || saffron.MatchedProduct != nil {
			t.Errorf("szafran: status %s, matched %v, want new without product", saffron.Status, saffron.MatchedProduct)
		}
		if saffron.RecognizedUnit != "szczypta" {
			t.Errorf("szafran: unit = %q, want recognized unit kept", saffron.RecognizedUnit)
		}

		if len(response.Tags) != 1 || response.Tags[0].ID != "t1" {
			t.Errorf("tags = %+v, want only t1", response.Tags)
		}
	})

	t.Run("empty catalog creates everything new", func(t *testing.T) {
		router := setupRouterWith(catalog.NewMemoryCatalog(catalog.Seed{}), nil)

		payload := `{"userId":"user-1","recipe":{"name":"Zupa","ingredients":[{"name":"marchew","quantity":"2","unit":"szt"}]}}`
		w := postJSON(router, "/api/v1/recipes/match", payload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response MatchRecipeResponse
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if len(response.Matches) != 1 || response.Matches[0].Action != domain.ActionCreateNew || response.Matches[0].MatchScore != 1 {
			t.Errorf("matches = %+v, want one create_new with score 1", response.Matches)
		}
		if response.Tags == nil {
			t.Error("tags should be an empty list, not null")
		}
	})

	t.Run("returns 400 without userId", func(t *testing.T) {
		router := setupTestRouter()

		w := postJSON(router, "/api/v1/recipes/match", `{"recipe":{"name":"Zupa"}}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouter()

		w := postJSON(router, "/api/v1/recipes/match", `{invalid json}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 503 when the catalog is down", func(t *testing.T) {
		router := setupRouterWith(failingCatalog{}, nil)

		w := postJSON(router, "/api/v1/recipes/match", `{"userId":"user-1","recipe":{"name":"Zupa"}}`)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})
}

// TestVerifyProductMatchEndpoint tests the semantic verifier endpoint
func TestVerifyProductMatchEndpoint(t *testing.T) {
	t.Run("verifies an ambiguous match", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"recognizedName":"ser zolty","candidates":[{"id":"p4","name":"Ser żółty"}],"matchScore":0.4}`
		w := postJSON(router, "/api/v1/verify-product-match", payload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		var response domain.Verification
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if !response.IsMatch {
			t.Errorf("isMatch = false, reason %q", response.Reason)
		}
		if response.MatchedProduct == nil || response.MatchedProduct.ID != "p4" {
			t.Errorf("matchedProduct = %+v, want p4", response.MatchedProduct)
		}
		if response.Confidence <= 0.7 || response.Confidence > 1 {
			t.Errorf("confidence = %v, want in (0.7, 1]", response.Confidence)
		}
	})

	t.Run("answers very close matches without the model", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"recognizedName":"mleko","candidates":[{"id":"p1","name":"Mleko"}],"matchScore":0.1}`
		w := postJSON(router, "/api/v1/verify-product-match", payload)

		var response domain.Verification
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if !response.IsMatch || response.Reason != "match very close" {
			t.Errorf("response = %+v, want very close match", response)
		}
	})

	t.Run("returns 500 with a failed verdict when verification fails", func(t *testing.T) {
		router := setupRouterWith(testCatalog(), failingVerifier{})

		payload := `{"recognizedName":"ser","candidates":[{"id":"p4","name":"Ser żółty"}],"matchScore":0.4}`
		w := postJSON(router, "/api/v1/verify-product-match", payload)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		var response map[string]interface{}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if response["isMatch"] != false || response["confidence"] != float64(0) {
			t.Errorf("response = %v, want isMatch false and confidence 0", response)
		}
		if response["reason"] != "verification failed" {
			t.Errorf("reason = %v, want 'verification failed'", response["reason"])
		}
		if errMsg, _ := response["error"].(string); !strings.Contains(errMsg, "model unreachable") {
			t.Errorf("error = %q, want to contain 'model unreachable'", errMsg)
		}
	})

	t.Run("returns 503 when no verifier is configured", func(t *testing.T) {
		router := setupRouterWith(testCatalog(), nil)

		w := postJSON(router, "/api/v1/verify-product-match", `{"recognizedName":"ser","candidates":[],"matchScore":0.4}`)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})

	t.Run("returns 400 for invalid JSON", func(t *testing.T) {
		router := setupTestRouter()

		w := postJSON(router, "/api/v1/verify-product-match", `{"recognizedName":`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 400 for more than three candidates", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"recognizedName":"ser","candidates":[
			{"id":"p1","name":"Mleko"},
			{"id":"p2","name":"Jajko"},
			{"id":"p3","name":"Czosnek"},
			{"id":"p4","name":"Ser żółty"}
		],"matchScore":0.4}`
		w := postJSON(router, "/api/v1/verify-product-match", payload)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d, body %s", w.Code, http.StatusBadRequest, w.Body.String())
		}
	})

	t.Run("returns 400 for a candidate without a name", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"recognizedName":"ser","candidates":[{"id":"p4"}],"matchScore":0.4}`
		w := postJSON(router, "/api/v1/verify-product-match", payload)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

const reviewDecisions = `[
	{"recognizedName":"jajka","recognizedQuantity":"3","recognizedUnit":"szt","matchedProduct":{"id":"p2","ownerId":null,"name":"Jajko"},"matchScore":0,"suggestions":[],"action":"use_existing","selectedProductId":"p2"},
	{"recognizedName":"szafran","recognizedQuantity":"1","recognizedUnit":"g","matchedProduct":null,"matchScore":1,"suggestions":[],"action":"create_new"},
	{"recognizedName":"cebula","recognizedQuantity":"1/2","recognizedUnit":"","matchedProduct":null,"matchScore":1,"suggestions":[],"action":"create_new"}
]`

// TestReviewMatchesEndpoint tests replaying review edits
func TestReviewMatchesEndpoint(t *testing.T) {
	decode := func(t *testing.T, w *httptest.ResponseRecorder) []DecisionView {
		t.Helper()
		var response struct {
			Matches []DecisionView `json:"matches"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		return response.Matches
	}

	t.Run("applies edits in order", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"userId":"user-1","decisions":` + reviewDecisions + `,"edits":[
			{"op":"remove","index":0},
			{"op":"edit","index":0,"name":"Szafran mielony"},
			{"op":"select","index":1,"productId":"p3"}
		]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		matches := decode(t, w)
		if len(matches) != 2 {
			t.Fatalf("len(matches) = %d, want 2", len(matches))
		}
		if matches[0].Status != usecase.StatusEdited || matches[0].EditedName == nil || *matches[0].EditedName != "Szafran mielony" {
			t.Errorf("first = %+v, want edited Szafran mielony", matches[0])
		}
		if matches[1].Status != usecase.StatusMatched || *matches[1].SelectedProductID != "p3" {
			t.Errorf("second = %+v, want matched p3", matches[1])
		}
	})

	t.Run("clear turns a match into a new product", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"userId":"user-1","decisions":` + reviewDecisions + `,"edits":[{"op":"clear","index":0}]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		matches := decode(t, w)
		if matches[0].Status != usecase.StatusNew || matches[0].SelectedProductID != nil {
			t.Errorf("first = %+v, want new without selection", matches[0])
		}
	})

	t.Run("unknown product is 404", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"userId":"user-1","decisions":` + reviewDecisions + `,"edits":[{"op":"select","index":1,"productId":"nope"}]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("suggestions sent by the client are not trusted", func(t *testing.T) {
		router := setupTestRouter()

		decisions := `[{"recognizedName":"trufla","recognizedQuantity":"1","recognizedUnit":"g","matchedProduct":null,"matchScore":0.4,
			"suggestions":[{"id":"bob-secret","ownerId":"bob","name":"Trufla"}],"action":"create_new"}]`
		payload := `{"userId":"user-1","decisions":` + decisions + `,"edits":[{"op":"select","index":0,"productId":"bob-secret"}]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d, body %s", w.Code, http.StatusNotFound, w.Body.String())
		}
	})

	t.Run("owner can select a private product", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"userId":"bob","decisions":` + reviewDecisions + `,"edits":[{"op":"select","index":1,"productId":"bob-secret"}]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}
		if matches := decode(t, w); *matches[1].SelectedProductID != "bob-secret" {
			t.Errorf("selected = %s, want bob-secret", *matches[1].SelectedProductID)
		}
	})

	t.Run("index out of range is 400", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"userId":"user-1","decisions":` + reviewDecisions + `,"edits":[{"op":"remove","index":3}]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("unknown operation is 400", func(t *testing.T) {
		router := setupTestRouter()

		payload := `{"userId":"user-1","decisions":` + reviewDecisions + `,"edits":[{"op":"merge","index":0}]}`
		w := postJSON(router, "/api/v1/matches/review", payload)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})
}

// TestFinalizeMatchesEndpoint tests closing a review batch
func TestFinalizeMatchesEndpoint(t *testing.T) {
	t.Run("binds ingredients and persists new products", func(t *testing.T) {
		repo := testCatalog()
		router := setupRouterWith(repo, nil)

		w := postJSON(router, "/api/v1/matches/finalize", `{"userId":"user-1","decisions":`+reviewDecisions+`}`)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body %s", w.Code, http.StatusOK, w.Body.String())
		}

		var response domain.Finalization
		if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		if len(response.Bindings) != 3 || len(response.NewProducts) != 2 {
			t.Fatalf("bindings %d, new products %d, want 3 and 2", len(response.Bindings), len(response.NewProducts))
		}
		if response.Bindings[0].ProductID != "p2" {
			t.Errorf("bindings[0] = %s, want p2", response.Bindings[0].ProductID)
		}
		if response.Bindings[1].ProductID != response.NewProducts[0].ID {
			t.Errorf("bindings[1] = %s, want new product %s", response.Bindings[1].ProductID, response.NewProducts[0].ID)
		}
		if q := response.Bindings[2].Quantity; q == nil || *q != 0.5 {
			t.Errorf("bindings[2] quantity = %v, want 0.5", q)
		}
		if u := response.Bindings[2].UnitCode; u == nil || *u != domain.UnitPiece {
			t.Errorf("bindings[2] unit = %v, want szt", u)
		}

		products, _ := repo.ListProducts(context.Background(), "user-1")
		if len(products) != 6 {
			t.Errorf("catalog has %d products for user-1, want 6", len(products))
		}
		others, _ := repo.ListProducts(context.Background(), "user-2")
		if len(others) != 4 {
			t.Errorf("catalog has %d products for user-2, want 4", len(others))
		}
	})

	t.Run("returns 400 without userId", func(t *testing.T) {
		router := setupTestRouter()

		w := postJSON(router, "/api/v1/matches/finalize", `{"decisions":`+reviewDecisions+`}`)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}
	})

	t.Run("returns 503 when the catalog is down", func(t *testing.T) {
		router := setupRouterWith(failingCatalog{}, nil)

		w := postJSON(router, "/api/v1/matches/finalize", `{"userId":"user-1","decisions":`+reviewDecisions+`}`)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusServiceUnavailable)
		}
	})

	for _, tc := range []struct {
		name      string
		productID string
	}{
		{"another user's product is 404", "bob-secret"},
		{"unknown product is 404", "does-not-exist"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			repo := testCatalog()
			router := setupRouterWith(repo, nil)

			decisions := `[
				{"recognizedName":"trufla","recognizedQuantity":"1","recognizedUnit":"g","matchedProduct":null,"matchScore":0.4,"suggestions":[],"action":"use_existing","selectedProductId":"` + tc.productID + `"},
				{"recognizedName":"szafran","recognizedQuantity":"1","recognizedUnit":"g","matchedProduct":null,"matchScore":1,"suggestions":[],"action":"create_new"}
			]`
			w := postJSON(router, "/api/v1/matches/finalize", `{"userId":"user-1","decisions":`+decisions+`}`)

			if w.Code != http.StatusNotFound {
				t.Errorf("Status = %d, want %d, body %s", w.Code, http.StatusNotFound, w.Body.String())
			}

			products, _ := repo.ListProducts(context.Background(), "user-1")
			if len(products) != 4 {
				t.Errorf("catalog has %d products for user-1, want 4 (nothing persisted)", len(products))
			}
		})
	}
}

// TestCORSIntegration tests CORS headers work end-to-end with full router
func TestCORSIntegration(t *testing.T) {
	t.Run("health endpoint has CORS for local dev server", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/health", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "http://localhost:5173" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "http://localhost:5173")
		}

		gotCreds := w.Header().Get("Access-Control-Allow-Credentials")
		if gotCreds != "true" {
			t.Errorf("Access-Control-Allow-Credentials = %q, want %q", gotCreds, "true")
		}
	})

	t.Run("match endpoint has CORS for the web app", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("POST", "/api/v1/recipes/match", strings.NewReader(`{}`))
		req.Header.Set("Origin", "https://dishbook.app")
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		gotOrigin := w.Header().Get("Access-Control-Allow-Origin")
		if gotOrigin != "https://dishbook.app" {
			t.Errorf("Access-Control-Allow-Origin = %q, want %q", gotOrigin, "https://dishbook.app")
		}
	})
}

// TestRecoveryMiddleware tests panic recovery
func TestRecoveryMiddleware(t *testing.T) {
	t.Run("recovers from panic without crashing server", func(t *testing.T) {
		router := setupTestRouter()

		// Add a test route that panics
		router.GET("/panic", func(c *gin.Context) {
			panic("test panic")
		})

		req, _ := http.NewRequest("GET", "/panic", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}
	})
}

// TestAPIVersioning tests that API v1 routes are correctly versioned
func TestAPIVersioning(t *testing.T) {
	t.Run("non-versioned routes return 404", func(t *testing.T) {
		router := setupTestRouter()

		paths := []string{
			"/api/recipes/match",
			"/recipes/match",
			"/api/v1/recipes",
			"/api/v1/matches",
		}

		for _, path := range paths {
			w := postJSON(router, path, `{}`)
			if w.Code != http.StatusNotFound {
				t.Errorf("Path %s: Status = %d, want %d", path, w.Code, http.StatusNotFound)
			}
		}
	})

	t.Run("match endpoint rejects GET", func(t *testing.T) {
		router := setupTestRouter()

		req, _ := http.NewRequest("GET", "/api/v1/recipes/match", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusNotFound {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})
}

// TestJSONResponses tests that all responses are valid JSON
func TestJSONResponses(t *testing.T) {
	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/health"},
		{"POST", "/api/v1/recipes/match"},
		{"POST", "/api/v1/verify-product-match"},
		{"POST", "/api/v1/matches/review"},
		{"POST", "/api/v1/matches/finalize"},
	}

	for _, endpoint := range endpoints {
		t.Run(endpoint.method+" "+endpoint.path, func(t *testing.T) {
			router := setupTestRouter()

			req, _ := http.NewRequest(endpoint.method, endpoint.path, nil)
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			gotContentType := w.Header().Get("Content-Type")
			wantContentType := "application/json; charset=utf-8"
			if gotContentType != wantContentType {
				t.Errorf("Content-Type = %q, want %q", gotContentType, wantContentType)
			}

			var response map[string]interface{}
			err := json.Unmarshal(w.Body.Bytes(), &response)
			if err != nil {
				t.Errorf("Response should be valid JSON, got error: %v", err)
			}
		})
	}
}
