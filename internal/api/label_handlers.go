package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recipeapp/recipe-server/internal/domain"
	domainerrors "github.com/recipeapp/recipe-server/internal/errors"
	"github.com/recipeapp/recipe-server/internal/service"
)

// labelRoutes describes one label collection (tags or ingredients).
type labelRoutes struct {
	service  *service.LabelService
	basePath string
	singular string
	plural   string
}

func (s *Server) registerLabelRoutes(lr labelRoutes) {
	h := &labelHandlers{server: s, service: lr.service}
	itemPath := lr.basePath + "/{id}"
	tags := []string{lr.plural}

	huma.Register(s.api, huma.Operation{
		OperationID: "list" + lr.plural,
		Method:      http.MethodGet,
		Path:        lr.basePath,
		Summary:     "List " + lr.plural,
		Description: "Returns the current user's " + lr.service.Kind().Plural() + " ordered by name",
		Tags:        tags,
		Security:    bearerSecurity,
	}, h.list)

	huma.Register(s.api, huma.Operation{
		OperationID:   "create" + lr.singular,
		Method:        http.MethodPost,
		Path:          lr.basePath,
		Summary:       "Create " + lr.singular,
		Description:   "Creates a new " + string(lr.service.Kind()) + " for the current user",
		Tags:          tags,
		Security:      bearerSecurity,
		DefaultStatus: http.StatusCreated,
	}, h.create)

	huma.Register(s.api, huma.Operation{
		OperationID: "get" + lr.singular,
		Method:      http.MethodGet,
		Path:        itemPath,
		Summary:     "Get " + lr.singular,
		Description: "Returns one of the current user's " + lr.service.Kind().Plural(),
		Tags:        tags,
		Security:    bearerSecurity,
	}, h.get)

	huma.Register(s.api, huma.Operation{
		OperationID: "replace" + lr.singular,
		Method:      http.MethodPut,
		Path:        itemPath,
		Summary:     "Replace " + lr.singular,
		Description: "Renames a " + string(lr.service.Kind()),
		Tags:        tags,
		Security:    bearerSecurity,
	}, h.replace)

	huma.Register(s.api, huma.Operation{
		OperationID: "update" + lr.singular,
		Method:      http.MethodPatch,
		Path:        itemPath,
		Summary:     "Update " + lr.singular,
		Description: "Partially updates a " + string(lr.service.Kind()),
		Tags:        tags,
		Security:    bearerSecurity,
	}, h.update)

	huma.Register(s.api, huma.Operation{
		OperationID:   "delete" + lr.singular,
		Method:        http.MethodDelete,
		Path:          itemPath,
		Summary:       "Delete " + lr.singular,
		Description:   "Deletes a " + string(lr.service.Kind()) + " and detaches it from recipes",
		Tags:          tags,
		Security:      bearerSecurity,
		DefaultStatus: http.StatusNoContent,
	}, h.delete)
}

// === DTOs ===

// LabelResponse contains tag or ingredient data in API responses.
type LabelResponse struct {
	ID   string `json:"id" doc:"Label ID"`
	Name string `json:"name" doc:"Label name"`
}

func toLabelResponse(l *domain.Label) LabelResponse {
	return LabelResponse{ID: l.ID, Name: l.Name}
}

func toLabelResponses(labels []*domain.Label) []LabelResponse {
	resp := make([]LabelResponse, len(labels))
	for i, l := range labels {
		resp[i] = toLabelResponse(l)
	}
	return resp
}

// ListLabelsInput contains parameters for listing labels.
type ListLabelsInput struct {
	Authorization string `header:"Authorization"`
	AssignedOnly  string `query:"assigned_only" default:"0" example:"1" doc:"0 or 1. 1 returns only labels attached to at least one recipe"`
}

// ListLabelsOutput wraps a list of labels for Huma.
type ListLabelsOutput struct {
	Body []LabelResponse
}

// LabelOutput wraps a single label for Huma.
type LabelOutput struct {
	Body LabelResponse
}

// LabelRequest is the request body for creating or replacing a label.
type LabelRequest struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name string   `json:"name" doc:"Label name"`
}

// CreateLabelInput wraps the create request for Huma.
type CreateLabelInput struct {
	Authorization string `header:"Authorization"`
	Body          LabelRequest
}

// LabelIDInput contains parameters for single-label operations.
type LabelIDInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Label ID"`
}

// ReplaceLabelInput wraps a PUT for Huma.
type ReplaceLabelInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Label ID"`
	Body          LabelRequest
}

// UpdateLabelRequest is the request body for a partial label update.
type UpdateLabelRequest struct {
	_    struct{} `json:"-" additionalProperties:"true"`
	Name *string  `json:"name,omitempty" doc:"Label name"`
}

// UpdateLabelInput wraps a PATCH for Huma.
type UpdateLabelInput struct {
	Authorization string `header:"Authorization"`
	ID            string `path:"id" doc:"Label ID"`
	Body          UpdateLabelRequest
}

// parseAssignedOnly accepts "", "0" or "1". It runs after authentication so
// anonymous callers see 401 whatever the query holds.
func parseAssignedOnly(v string) (bool, error) {
	switch strings.TrimSpace(v) {
	case "", "0":
		return false, nil
	case "1":
		return true, nil
	}
	return false, domainerrors.FieldInvalid("assigned_only", "must be 0 or 1")
}

// === Handlers ===

// labelHandlers serves one label kind.
type labelHandlers struct {
	server  *Server
	service *service.LabelService
}

func (h *labelHandlers) list(ctx context.Context, input *ListLabelsInput) (*ListLabelsOutput, error) {
	user, err := h.server.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	assignedOnly, err := parseAssignedOnly(input.AssignedOnly)
	if err != nil {
		return nil, err
	}

	labels, err := h.service.List(ctx, user.ID, assignedOnly)
	if err != nil {
		return nil, err
	}

	return &ListLabelsOutput{Body: toLabelResponses(labels)}, nil
}

func (h *labelHandlers) create(ctx context.Context, input *CreateLabelInput) (*LabelOutput, error) {
	user, err := h.server.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	label, err := h.service.Create(ctx, user.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &LabelOutput{Body: toLabelResponse(label)}, nil
}

func (h *labelHandlers) get(ctx context.Context, input *LabelIDInput) (*LabelOutput, error) {
	user, err := h.server.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	label, err := h.service.Get(ctx, user.ID, input.ID)
	if err != nil {
		return nil, err
	}

	return &LabelOutput{Body: toLabelResponse(label)}, nil
}

func (h *labelHandlers) replace(ctx context.Context, input *ReplaceLabelInput) (*LabelOutput, error) {
	user, err := h.server.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	label, err := h.service.Update(ctx, user.ID, input.ID, &input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &LabelOutput{Body: toLabelResponse(label)}, nil
}

func (h *labelHandlers) update(ctx context.Context, input *UpdateLabelInput) (*LabelOutput, error) {
	user, err := h.server.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	label, err := h.service.Update(ctx, user.ID, input.ID, input.Body.Name)
	if err != nil {
		return nil, err
	}

	return &LabelOutput{Body: toLabelResponse(label)}, nil
}

func (h *labelHandlers) delete(ctx context.Context, input *LabelIDInput) (*struct{}, error) {
	user, err := h.server.authenticateRequest(ctx, input.Authorization)
	if err != nil {
		return nil, err
	}

	if err := h.service.Delete(ctx, user.ID, input.ID); err != nil {
		return nil, err
	}
	return nil, nil
}
