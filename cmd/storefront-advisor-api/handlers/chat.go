package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/advisor"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/catalog"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/domain"
	"github.com/spherical-ai/spherical/libs/storefront-advisor/internal/observability"
)

// maxBodyBytes bounds a chat request body.
const maxBodyBytes = 1 << 20

const missingMessage = "Missing 'message' (string) in body."

// Advisor answers shopper questions.
type Advisor interface {
	Advise(ctx context.Context, q catalog.UserQuery) (*advisor.Advice, error)
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	logger   *observability.Logger
	advisor  Advisor
	validate *validator.Validate
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(logger *observability.Logger, a Advisor) *ChatHandler {
	return &ChatHandler{
		logger:   logger,
		advisor:  a,
		validate: validator.New(),
	}
}

// ChatRequestDTO represents the API request for advice.
type ChatRequestDTO struct {
	Message string         `json:"message" validate:"required"`
	Context map[string]any `json:"context,omitempty"`
}

// ChatResponseDTO represents a successful answer.
type ChatResponseDTO struct {
	OK   bool   `json:"ok"`
	Text string `json:"text"`
}

// Chat handles an advice request.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	req, err := h.decode(r)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	advice, err := h.advisor.Advise(r.Context(), catalog.UserQuery{
		Message: req.Message,
		Context: req.Context,
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, ChatResponseDTO{OK: true, Text: advice.Text})
}

// decode reads the body field by field so that a wrongly typed message or
// context is a validation error while unparseable JSON stays internal.
func (h *ChatHandler) decode(r *http.Request) (*ChatRequestDTO, error) {
	var body any
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&body)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, domain.InternalError("decode request body", err)
	}

	fields, _ := body.(map[string]any)
	req := &ChatRequestDTO{}

	msg, ok := fields["message"].(string)
	if !ok {
		return nil, domain.ValidationError(missingMessage)
	}
	req.Message = msg

	switch ctx := fields["context"].(type) {
	case nil:
	case map[string]any:
		req.Context = ctx
	default:
		return nil, domain.ValidationError("'context' must be an object.")
	}

	if err := h.validate.Struct(req); err != nil {
		return nil, domain.ValidationError(missingMessage)
	}
	return req, nil
}
