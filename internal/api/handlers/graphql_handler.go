package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hvacconnect/marketplace/internal/api/middleware"
	"github.com/hvacconnect/marketplace/internal/domain/entities"
	"github.com/hvacconnect/marketplace/internal/graphql"
)

// QueryExecutor runs GraphQL read queries
type QueryExecutor interface {
	Execute(ctx context.Context, viewer *entities.Account, req graphql.Request) *graphql.Response
}

// GraphQLHandler serves the read-only GraphQL endpoint
type GraphQLHandler struct {
	executor QueryExecutor
}

// NewGraphQLHandler creates a new GraphQL handler
func NewGraphQLHandler(executor QueryExecutor) *GraphQLHandler {
	return &GraphQLHandler{executor: executor}
}

// Query handles POST /graphql. Field errors are reported in the body with a
// 200 status; only unreadable requests get 400.
func (h *GraphQLHandler) Query(w http.ResponseWriter, r *http.Request) {
	var req graphql.Request
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		respondWithError(w, http.StatusBadRequest, "query is required")
		return
	}

	viewer := middleware.AccountFromContext(r.Context())
	respondWithJSON(w, http.StatusOK, h.executor.Execute(r.Context(), viewer, req))
}
