package api

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type GymHandler struct {
	gymService service.GymService
}

func NewGymHandler(gymService service.GymService) *GymHandler {
	return &GymHandler{gymService: gymService}
}

// --- DTOs ---

type CreateGymRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
}

type UpdateGymRequest struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
}

// CreateGym godoc
// @Summary Create a gym managed by the caller
// @Tags Gyms
// @Security BearerAuth
// @Router /gyms [post]
func (h *GymHandler) CreateGym(c *gin.Context) {
	var req CreateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	gym, err := h.gymService.Create(c.Request.Context(), userID, req.Name, req.Address)
	if err != nil {
		respondError(c, err, "Failed to create gym.")
		return
	}
	c.JSON(http.StatusCreated, gym)
}

// ListGyms godoc
// @Summary List all gyms
// @Tags Gyms
// @Router /gyms [get]
func (h *GymHandler) ListGyms(c *gin.Context) {
	gyms, err := h.gymService.List(c.Request.Context())
	if err != nil {
		respondError(c, err, "Failed to retrieve gyms.")
		return
	}
	if gyms == nil {
		gyms = []domain.Gym{} // Return empty JSON array, not null
	}
	c.JSON(http.StatusOK, gyms)
}

// GetGym godoc
// @Summary Get a gym by id
// @Tags Gyms
// @Router /gyms/{id} [get]
func (h *GymHandler) GetGym(c *gin.Context) {
	gymID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	gym, err := h.gymService.Get(c.Request.Context(), gymID)
	if err != nil {
		respondError(c, err, "Failed to retrieve gym.")
		return
	}
	c.JSON(http.StatusOK, gym)
}

// UpdateGym godoc
// @Summary Update a gym's name or address (gym managers only)
// @Tags Gyms
// @Security BearerAuth
// @Router /gyms/{id} [put]
func (h *GymHandler) UpdateGym(c *gin.Context) {
	gymID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateGymRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	gym, err := h.gymService.Update(c.Request.Context(), userID, gymID, service.GymUpdate{Name: req.Name, Address: req.Address})
	if err != nil {
		respondError(c, err, "Failed to update gym.")
		return
	}
	c.JSON(http.StatusOK, gym)
}

// DeleteGym godoc
// @Summary Delete a gym (gym managers only)
// @Tags Gyms
// @Security BearerAuth
// @Router /gyms/{id} [delete]
func (h *GymHandler) DeleteGym(c *gin.Context) {
	gymID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.gymService.Delete(c.Request.Context(), userID, gymID); err != nil {
		respondError(c, err, "Failed to delete gym.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// AddManager godoc
// @Summary Add another manager to a gym (existing managers only)
// @Tags Gyms
// @Security BearerAuth
// @Router /gyms/{id}/managers/{userId} [post]
func (h *GymHandler) AddManager(c *gin.Context) {
	gymID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	newManagerID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	gym, err := h.gymService.AddManager(c.Request.Context(), userID, gymID, newManagerID)
	if err != nil {
		respondError(c, err, "Failed to add manager.")
		return
	}
	c.JSON(http.StatusOK, gym)
}
