package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// AdminHandler exposes grant and account administration. Routes are behind
// an admin role check; each service call re-verifies the principal.
type AdminHandler struct {
	grants *service.GrantService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(grantService *service.GrantService) *AdminHandler {
	return &AdminHandler{grants: grantService}
}

// AssignGrant POST /admin/users/:id/grants.
func (h *AdminHandler) AssignGrant(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthentication("authentication required")
	}
	var req dto.GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.grants.Assign(c.UserContext(), principal, c.Params("id"), req.ToGrant()); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": "granted"})
}

// RevokeGrant DELETE /admin/users/:id/grants.
func (h *AdminHandler) RevokeGrant(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthentication("authentication required")
	}
	var req dto.GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.grants.Revoke(c.UserContext(), principal, c.Params("id"), req.ToGrant()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "revoked"})
}

// ListGrants GET /admin/users/:id/grants.
func (h *AdminHandler) ListGrants(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthentication("authentication required")
	}
	grants, err := h.grants.List(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.GrantResponse, 0, len(grants))
	for _, grant := range grants {
		items = append(items, dto.FromGrant(grant))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetUserActive PATCH /admin/users/:id/active.
func (h *AdminHandler) SetUserActive(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewAuthentication("authentication required")
	}
	var req dto.SetActiveRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.grants.SetUserActive(c.UserContext(), principal, c.Params("id"), req.Active); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": "updated"})
}
