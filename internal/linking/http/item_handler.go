// Package http provides HTTP handlers for linking institutions and reading account data.
package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	validation "github.com/jellydator/validation"

	authHTTP "github.com/finboard/finboard/internal/auth/http"
	apperrors "github.com/finboard/finboard/internal/errors"
	"github.com/finboard/finboard/internal/httputil"
	"github.com/finboard/finboard/internal/linking/http/dto"
	linkingUseCase "github.com/finboard/finboard/internal/linking/usecase"
	customValidation "github.com/finboard/finboard/internal/validation"
)

// ItemHandler handles HTTP requests for linked items. Every route requires an authenticated
// principal and only ever touches that principal's items.
type ItemHandler struct {
	itemUseCase linkingUseCase.ItemUseCase
	logger      *slog.Logger
}

// NewItemHandler creates a new item handler with required dependencies.
func NewItemHandler(itemUseCase linkingUseCase.ItemUseCase, logger *slog.Logger) *ItemHandler {
	return &ItemHandler{
		itemUseCase: itemUseCase,
		logger:      logger,
	}
}

// CreateLinkTokenHandler returns a token for the client-side link widget.
// POST /v1/link-token
func (h *ItemHandler) CreateLinkTokenHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	token, err := h.itemUseCase.CreateLinkToken(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapLinkTokenToResponse(token))
}

// LinkHandler exchanges a public token and stores the item with sealed credentials.
// POST /v1/items
// Returns 201 Created with item metadata.
func (h *ItemHandler) LinkHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	var req dto.LinkItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	item, err := h.itemUseCase.Link(c.Request.Context(), req.ToDomain(userID))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("item linked",
		slog.String("user_id", userID),
		slog.String("item_id", item.ItemID),
		slog.String("institution_id", item.InstitutionID))

	c.JSON(http.StatusCreated, dto.MapItemToResponse(item))
}

// ListHandler lists the caller's items.
// GET /v1/items
func (h *ItemHandler) ListHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	items, err := h.itemUseCase.List(c.Request.Context(), userID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapItemsToListResponse(items))
}

// AccountsHandler returns the accounts and balances of one item.
// GET /v1/items/:item_id/accounts
func (h *ItemHandler) AccountsHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	accounts, err := h.itemUseCase.Accounts(c.Request.Context(), userID, itemID)
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapAccountsToListResponse(itemID, accounts))
}

// SummaryHandler returns accounts, total balance and transactions of one item.
// GET /v1/items/:item_id/summary?start_date=YYYY-MM-DD&end_date=YYYY-MM-DD
// Returns 200 OK with transaction_error set when only the transactions failed.
func (h *ItemHandler) SummaryHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	var req dto.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httputil.HandleBadRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleValidationErrorGin(c, customValidation.WrapValidationError(err), h.logger)
		return
	}

	summary, err := h.itemUseCase.Summary(c.Request.Context(), req.ToDomain(userID, itemID, time.Now()))
	if err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	c.JSON(http.StatusOK, dto.MapSummaryToResponse(summary))
}

// UnlinkHandler revokes and deletes one item.
// DELETE /v1/items/:item_id
// Returns 204 No Content.
func (h *ItemHandler) UnlinkHandler(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	itemID, ok := h.itemID(c)
	if !ok {
		return
	}

	if err := h.itemUseCase.Unlink(c.Request.Context(), userID, itemID); err != nil {
		httputil.HandleErrorGin(c, err, h.logger)
		return
	}

	h.logger.Info("item unlinked", slog.String("user_id", userID), slog.String("item_id", itemID))
	c.Status(http.StatusNoContent)
}

func (h *ItemHandler) userID(c *gin.Context) (string, bool) {
	principal, ok := authHTTP.GetPrincipal(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, apperrors.ErrUnauthorized, h.logger)
		return "", false
	}
	return principal.UserID, true
}

func (h *ItemHandler) itemID(c *gin.Context) (string, bool) {
	itemID := c.Param("item_id")
	err := validation.Validate(itemID,
		validation.Required,
		customValidation.AggregatorID,
	)
	if err != nil {
		httputil.HandleValidationErrorGin(
			c,
			customValidation.WrapValidationError(validation.Errors{"item_id": err}),
			h.logger,
		)
		return "", false
	}
	return itemID, true
}
