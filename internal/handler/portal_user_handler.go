package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"payops/internal/portal"
	"payops/internal/service"
)

// PortalUserHandler handles portal credential endpoints.
type PortalUserHandler struct {
	userService service.PortalUserService
}

// NewPortalUserHandler creates a new PortalUserHandler.
func NewPortalUserHandler(userService service.PortalUserService) *PortalUserHandler {
	return &PortalUserHandler{userService: userService}
}

// List handles GET /api/v1/portal-users
// @Summary List portal users
// @Description Users sorted by the given key and bucketed by group_by; without group_by a single group is returned
// @Tags portal-users
// @Produce json
// @Param group_by query string false "Grouping key" Enums(portal, status, user_type)
// @Param sort query string false "Sort key" Enums(username, portal, status, updated) default(username)
// @Param order query string false "Sort order" Enums(asc, desc) default(asc)
// @Success 200 {object} Response{data=[]portal.UserGroup}
// @Failure 400 {object} ErrorResponseBody "Invalid grouping or sort"
// @Router /portal-users [get]
func (h *PortalUserHandler) List(c *gin.Context) {
	input := service.PortalUserListInput{
		GroupBy: strings.ToLower(c.Query("group_by")),
		Sort:    strings.ToLower(c.DefaultQuery("sort", portal.SortUsername)),
	}
	switch input.GroupBy {
	case portal.GroupNone, portal.GroupPortal, portal.GroupStatus, portal.GroupUserType:
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_GROUP_BY", "group_by must be portal, status or user_type")
		return
	}
	switch input.Sort {
	case portal.SortUsername, portal.SortPortal, portal.SortStatus, portal.SortUpdated:
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_SORT", "sort must be username, portal, status or updated")
		return
	}
	switch strings.ToLower(c.DefaultQuery("order", "asc")) {
	case "asc":
	case "desc":
		input.Desc = true
	default:
		RespondError(c, http.StatusBadRequest, "INVALID_SORT", "order must be asc or desc")
		return
	}

	groups, err := h.userService.List(c.Request.Context(), input)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, groups)
}

// GetByID handles GET /api/v1/portal-users/:id
// @Summary Get a portal user
// @Tags portal-users
// @Produce json
// @Param id path string true "Portal user ID"
// @Success 200 {object} Response{data=domain.PortalUser}
// @Failure 404 {object} ErrorResponseBody "Portal user not found"
// @Router /portal-users/{id} [get]
func (h *PortalUserHandler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal user")
	if !ok {
		return
	}

	u, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, u)
}

// Create handles POST /api/v1/portal-users
// @Summary Add portal credentials
// @Description Stores the credentials and checks connectivity right away
// @Tags portal-users
// @Accept json
// @Produce json
// @Param body body portal.CredentialInput true "Credentials"
// @Success 201 {object} Response{data=service.PortalUserResult}
// @Failure 409 {object} ErrorResponseBody "Credentials already exist for this portal"
// @Failure 422 {object} ErrorResponseBody "Invalid credentials or two-factor settings"
// @Router /portal-users [post]
func (h *PortalUserHandler) Create(c *gin.Context) {
	var req portal.CredentialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, result)
}

// Update handles PUT /api/v1/portal-users/:id
// @Summary Update portal credentials
// @Description A blank password keeps the stored one. Changing portal, username or password re-checks connectivity
// @Tags portal-users
// @Accept json
// @Produce json
// @Param id path string true "Portal user ID"
// @Param body body portal.CredentialInput true "Credentials"
// @Success 200 {object} Response{data=service.PortalUserResult}
// @Failure 403 {object} ErrorResponseBody "Platform-managed user"
// @Failure 404 {object} ErrorResponseBody "Portal user not found"
// @Failure 422 {object} ErrorResponseBody "Invalid credentials or two-factor settings"
// @Router /portal-users/{id} [put]
func (h *PortalUserHandler) Update(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal user")
	if !ok {
		return
	}

	var req portal.CredentialInput
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}

	result, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}

// Delete handles DELETE /api/v1/portal-users/:id
// @Summary Delete portal credentials
// @Tags portal-users
// @Produce json
// @Param id path string true "Portal user ID"
// @Success 200 {object} Response{data=MessageResponse}
// @Failure 403 {object} ErrorResponseBody "Platform-managed user"
// @Failure 404 {object} ErrorResponseBody "Portal user not found"
// @Router /portal-users/{id} [delete]
func (h *PortalUserHandler) Delete(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal user")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, MessageResponse{Message: "portal user deleted"})
}

// Revalidate handles POST /api/v1/portal-users/:id/revalidate
// @Summary Re-check portal connectivity
// @Tags portal-users
// @Produce json
// @Param id path string true "Portal user ID"
// @Success 200 {object} Response{data=service.PortalUserResult}
// @Failure 404 {object} ErrorResponseBody "Portal user not found"
// @Router /portal-users/{id}/revalidate [post]
func (h *PortalUserHandler) Revalidate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "portal user")
	if !ok {
		return
	}

	result, err := h.userService.Revalidate(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, result)
}
