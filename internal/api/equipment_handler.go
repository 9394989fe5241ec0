package api

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/repository"
	"alcyxob/gym-app/internal/service"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
)

type EquipmentHandler struct {
	equipmentService service.EquipmentService
	maxImageBytes    int64
}

func NewEquipmentHandler(equipmentService service.EquipmentService, maxImageBytes int64) *EquipmentHandler {
	if maxImageBytes <= 0 {
		maxImageBytes = service.DefaultMaxImageBytes
	}
	return &EquipmentHandler{equipmentService: equipmentService, maxImageBytes: maxImageBytes}
}

// --- DTOs ---

type CreateEquipmentRequest struct {
	Name     string                 `json:"name" form:"name" binding:"required"`
	Category string                 `json:"category" form:"category"`
	Brand    string                 `json:"brand" form:"brand"`
	Meta     map[string]interface{} `json:"meta" form:"-"`
}

type UpdateEquipmentRequest struct {
	Name     *string                 `json:"name"`
	Category *string                 `json:"category"`
	Brand    *string                 `json:"brand"`
	Status   *domain.EquipmentStatus `json:"status" binding:"omitempty,equipstatus"`
	Meta     map[string]interface{}  `json:"meta"`
}

type UpdateStatusRequest struct {
	Status domain.EquipmentStatus `json:"status" binding:"required,equipstatus"`
}

type CreateWithImageResponse struct {
	Equipment *domain.Equipment      `json:"created"`
	Image     *domain.EquipmentImage `json:"s3Result,omitempty"`
}

// readImage loads the "image" multipart file. A missing file yields (nil, nil)
// so callers decide whether the image is required.
func (h *EquipmentHandler) readImage(c *gin.Context) (*service.ImageUpload, error) {
	header, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	if header.Size > h.maxImageBytes {
		return nil, service.ErrImageTooLarge
	}

	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageBytes+1))
	if err != nil {
		return nil, err
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	return &service.ImageUpload{
		Filename:    filepath.Base(header.Filename),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// CreateEquipment godoc
// @Summary Register equipment at a gym (gym managers only)
// @Tags Equipment
// @Security BearerAuth
// @Router /equipment/gyms/{gymId} [post]
func (h *EquipmentHandler) CreateEquipment(c *gin.Context) {
	gymID, ok := pathObjectID(c, "gymId")
	if !ok {
		return
	}
	var req CreateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eq, err := h.equipmentService.Create(c.Request.Context(), userID, gymID, service.EquipmentInput{
		Name: req.Name, Category: req.Category, Brand: req.Brand, Meta: req.Meta,
	})
	if err != nil {
		respondError(c, err, "Failed to create equipment.")
		return
	}
	c.JSON(http.StatusCreated, eq)
}

// CreateEquipmentWithImage godoc
// @Summary Register equipment with an optional photo (multipart)
// @Tags Equipment
// @Accept multipart/form-data
// @Security BearerAuth
// @Router /equipment/gyms/{gymId}/with-image [post]
func (h *EquipmentHandler) CreateEquipmentWithImage(c *gin.Context) {
	gymID, ok := pathObjectID(c, "gymId")
	if !ok {
		return
	}
	var req CreateEquipmentRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	image, err := h.readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read uploaded image.")
		return
	}

	eq, img, err := h.equipmentService.CreateWithImage(c.Request.Context(), userID, gymID, service.EquipmentInput{
		Name: req.Name, Category: req.Category, Brand: req.Brand,
	}, image)
	if err != nil {
		respondError(c, err, "Failed to create equipment.")
		return
	}
	c.JSON(http.StatusCreated, CreateWithImageResponse{Equipment: eq, Image: img})
}

// AutoAddEquipment godoc
// @Summary Register equipment from a photo classified by the AI provider
// @Tags Equipment
// @Accept multipart/form-data
// @Security BearerAuth
// @Router /equipment/gyms/{gymId}/auto-add [post]
func (h *EquipmentHandler) AutoAddEquipment(c *gin.Context) {
	gymID, ok := pathObjectID(c, "gymId")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	image, err := h.readImage(c)
	if err != nil {
		respondError(c, err, "Failed to read uploaded image.")
		return
	}

	res, err := h.equipmentService.AutoAdd(c.Request.Context(), userID, gymID, image)
	if err != nil {
		respondError(c, err, "Failed to auto-add equipment.")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// ListEquipment godoc
// @Summary List a gym's equipment
// @Tags Equipment
// @Router /equipment/gyms/{gymId} [get]
func (h *EquipmentHandler) ListEquipment(c *gin.Context) {
	gymID, ok := pathObjectID(c, "gymId")
	if !ok {
		return
	}
	items, err := h.equipmentService.ListByGym(c.Request.Context(), gymID)
	if err != nil {
		respondError(c, err, "Failed to retrieve equipment.")
		return
	}
	if items == nil {
		items = []domain.Equipment{}
	}
	c.JSON(http.StatusOK, items)
}

// SearchEquipment godoc
// @Summary Search a gym's equipment by text, category, status or brand
// @Tags Equipment
// @Param q query string false "Case-insensitive match on name or brand"
// @Router /equipment/gyms/{gymId}/search [get]
func (h *EquipmentHandler) SearchEquipment(c *gin.Context) {
	gymID, ok := pathObjectID(c, "gymId")
	if !ok {
		return
	}
	filter := repository.EquipmentFilter{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Brand:    c.Query("brand"),
		Status:   domain.EquipmentStatus(c.Query("status")),
	}

	items, err := h.equipmentService.Search(c.Request.Context(), gymID, filter)
	if err != nil {
		respondError(c, err, "Failed to search equipment.")
		return
	}
	if items == nil {
		items = []domain.Equipment{}
	}
	c.JSON(http.StatusOK, items)
}

// GetEquipment godoc
// @Summary Get equipment by id
// @Tags Equipment
// @Router /equipment/{id} [get]
func (h *EquipmentHandler) GetEquipment(c *gin.Context) {
	equipmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	eq, err := h.equipmentService.Get(c.Request.Context(), equipmentID)
	if err != nil {
		respondError(c, err, "Failed to retrieve equipment.")
		return
	}
	c.JSON(http.StatusOK, eq)
}

// UpdateEquipment godoc
// @Summary Update equipment fields (gym managers only)
// @Tags Equipment
// @Security BearerAuth
// @Router /equipment/{id} [put]
func (h *EquipmentHandler) UpdateEquipment(c *gin.Context) {
	equipmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateEquipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eq, err := h.equipmentService.Update(c.Request.Context(), userID, equipmentID, service.EquipmentUpdate{
		Name: req.Name, Category: req.Category, Brand: req.Brand, Status: req.Status, Meta: req.Meta,
	})
	if err != nil {
		respondError(c, err, "Failed to update equipment.")
		return
	}
	c.JSON(http.StatusOK, eq)
}

// UpdateEquipmentStatus godoc
// @Summary Change the equipment lifecycle status (gym managers only)
// @Tags Equipment
// @Security BearerAuth
// @Router /equipment/{id}/status [patch]
func (h *EquipmentHandler) UpdateEquipmentStatus(c *gin.Context) {
	equipmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eq, err := h.equipmentService.UpdateStatus(c.Request.Context(), userID, equipmentID, req.Status)
	if err != nil {
		respondError(c, err, "Failed to update equipment status.")
		return
	}
	c.JSON(http.StatusOK, eq)
}

// DeleteEquipment godoc
// @Summary Delete equipment and its stored images (gym managers only)
// @Tags Equipment
// @Security BearerAuth
// @Router /equipment/{id} [delete]
func (h *EquipmentHandler) DeleteEquipment(c *gin.Context) {
	equipmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.equipmentService.Delete(c.Request.Context(), userID, equipmentID); err != nil {
		respondError(c, err, "Failed to delete equipment.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func imageIndex(c *gin.Context) (int, bool) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, service.ErrInvalidImageIndex.Error())
		return 0, false
	}
	return index, true
}

// DeleteEquipmentImage godoc
// @Summary Remove one image from equipment (gym managers only)
// @Tags Equipment
// @Security BearerAuth
// @Router /equipment/{id}/images/{index} [delete]
func (h *EquipmentHandler) DeleteEquipmentImage(c *gin.Context) {
	equipmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	index, ok := imageIndex(c)
	if !ok {
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	eq, err := h.equipmentService.DeleteImage(c.Request.Context(), userID, equipmentID, index)
	if err != nil {
		respondError(c, err, "Failed to delete image.")
		return
	}
	c.JSON(http.StatusOK, eq)
}

// GetEquipmentImageURL godoc
// @Summary Get a short-lived download URL for an equipment image
// @Tags Equipment
// @Router /equipment/{id}/images/{index}/url [get]
func (h *EquipmentHandler) GetEquipmentImageURL(c *gin.Context) {
	equipmentID, ok := pathObjectID(c, "id")
	if !ok {
		return
	}
	index, ok := imageIndex(c)
	if !ok {
		return
	}

	url, err := h.equipmentService.ImageURL(c.Request.Context(), equipmentID, index)
	if err != nil {
		respondError(c, err, "Failed to generate image URL.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
