package http

import (
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/dishbook/backend/internal/domain"
	"github.com/dishbook/backend/internal/logger"
	"github.com/dishbook/backend/internal/usecase"
)

// Handler holds HTTP handlers and their dependencies
type Handler struct {
	matching     *usecase.MatchingService
	verification domain.Verifier
	review       *usecase.ReviewService
	catalog      domain.CatalogRepository
}

// NewHandler creates a new HTTP handler with dependencies. verification may
// be nil when the verify endpoint is not served by this process.
func NewHandler(
	matching *usecase.MatchingService,
	verification domain.Verifier,
	review *usecase.ReviewService,
	catalog domain.CatalogRepository,
) *Handler {
	return &Handler{
		matching:     matching,
		verification: verification,
		review:       review,
		catalog:      catalog,
	}
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "dishbook-backend",
		"version": "1.0.0",
	})
}

// MatchRecipeRequest is a recognized recipe to reconcile against the
// catalog of UserID
type MatchRecipeRequest struct {
	UserID string                  `json:"userId" binding:"required"`
	Recipe domain.RecognizedRecipe `json:"recipe"`
}

// DecisionView is a match decision plus its review status
type DecisionView struct {
	domain.MatchDecision
	Status usecase.ReviewStatus `json:"status"`
}

// MatchRecipeResponse is the review screen payload
type MatchRecipeResponse struct {
	Name    string         `json:"name"`
	Matches []DecisionView `json:"matches"`
	Tags    []domain.Tag   `json:"tags"`
}

// MatchRecipe handles POST /api/v1/recipes/match
func (h *Handler) MatchRecipe(c *gin.Context) {
	var req MatchRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()

	products, err := h.catalog.ListProducts(ctx, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	tags, err := h.catalog.ListTags(ctx, req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	decisions := h.matching.MatchAll(ctx, req.Recipe.Ingredients, products)

	logger.Logger.Infow("recipe matched",
		"recipe", req.Recipe.Name, "ingredients", len(decisions), "catalog", len(products))

	c.JSON(http.StatusOK, MatchRecipeResponse{
		Name:    req.Recipe.Name,
		Matches: views(decisions),
		Tags:    usecase.ResolveTags(req.Recipe.Tags, tags),
	})
}

// VerifyProductMatch handles POST /api/v1/verify-product-match
func (h *Handler) VerifyProductMatch(c *gin.Context) {
	var req domain.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	if h.verification == nil {
		c.JSON(http.StatusServiceUnavailable, verificationFailure(domain.ErrVerifierUnavailable))
		return
	}

	verification, err := h.verification.Verify(c.Request.Context(), req)
	if errors.Is(err, domain.ErrInvalidRequest) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}
	if err != nil {
		logger.Logger.Errorw("product match verification failed",
			"recognizedName", req.RecognizedName, "candidates", len(req.Candidates), "error", err)
		c.JSON(http.StatusInternalServerError, verificationFailure(err))
		return
	}

	c.JSON(http.StatusOK, verification)
}

func verificationFailure(err error) gin.H {
	return gin.H{
		"isMatch":    false,
		"confidence": 0,
		"reason":     "verification failed",
		"error":      err.Error(),
	}
}

// ReviewEdit is one user action on the review screen
type ReviewEdit struct {
	Op        string `json:"op" binding:"required,oneof=select clear edit remove"`
	Index     int    `json:"index"`
	ProductID string `json:"productId"`
	Name      string `json:"name"`
}

// ReviewRequest replays edits over a batch of decisions
type ReviewRequest struct {
	UserID    string                 `json:"userId" binding:"required"`
	Decisions []domain.MatchDecision `json:"decisions"`
	Edits     []ReviewEdit           `json:"edits" binding:"dive"`
}

// ReviewMatches handles POST /api/v1/matches/review. Edits apply in order,
// so indices after a remove refer to the shortened batch.
func (h *Handler) ReviewMatches(c *gin.Context) {
	var req ReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	decisions := req.Decisions
	var catalog []domain.Product

	for _, edit := range req.Edits {
		var err error
		switch edit.Op {
		case "select":
			if catalog == nil {
				if catalog, err = h.catalog.ListProducts(c.Request.Context(), req.UserID); err != nil {
					break
				}
			}
			err = h.review.SelectProduct(decisions, edit.Index, edit.ProductID, catalog)
		case "clear":
			err = h.review.ClearSelection(decisions, edit.Index)
		case "edit":
			err = h.review.EditName(decisions, edit.Index, edit.Name)
		case "remove":
			decisions, err = h.review.Remove(decisions, edit.Index)
		}
		if err != nil {
			h.respondError(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"matches": views(decisions)})
}

// FinalizeRequest closes a review batch
type FinalizeRequest struct {
	UserID    string                 `json:"userId" binding:"required"`
	Decisions []domain.MatchDecision `json:"decisions"`
}

// FinalizeMatches handles POST /api/v1/matches/finalize
func (h *Handler) FinalizeMatches(c *gin.Context) {
	var req FinalizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	result, err := h.review.Finalize(req.Decisions, req.UserID, products)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if len(result.NewProducts) > 0 {
		if err := h.catalog.CreateProducts(c.Request.Context(), result.NewProducts); err != nil {
			h.respondError(c, err)
			return
		}
	}

	logger.Logger.Infow("match batch finalized",
		"user", req.UserID, "bindings", len(result.Bindings), "newProducts", len(result.NewProducts))

	c.JSON(http.StatusOK, result)
}

func views(decisions []domain.MatchDecision) []DecisionView {
	out := make([]DecisionView, 0, len(decisions))
	for _, d := range decisions {
		out = append(out, DecisionView{MatchDecision: d, Status: usecase.Status(d)})
	}
	return out
}

// respondError maps domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, domain.ErrProductNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, domain.ErrCatalogUnavailable):
		status = http.StatusServiceUnavailable
		message = "catalog unavailable"
	}

	if status >= http.StatusInternalServerError {
		logger.Logger.Errorw("request failed", "path", c.FullPath(), "error", err)
	}

	c.JSON(status, gin.H{"error": message})
}
