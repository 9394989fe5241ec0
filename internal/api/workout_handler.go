package api

import (
	"alcyxob/gym-app/internal/domain"
	"alcyxob/gym-app/internal/recommend"
	"alcyxob/gym-app/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type WorkoutHandler struct {
	workoutService        service.WorkoutService
	recommendationService service.RecommendationService
}

func NewWorkoutHandler(workoutService service.WorkoutService, recommendationService service.RecommendationService) *WorkoutHandler {
	return &WorkoutHandler{
		workoutService:        workoutService,
		recommendationService: recommendationService,
	}
}

// --- DTOs ---

// LogWorkoutRequest creates a workout, or updates the caller's own workout
// when WorkoutID is set (items and endedAt only).
type LogWorkoutRequest struct {
	WorkoutID string               `json:"workoutId"`
	Gym       string               `json:"gym"`
	Items     []domain.WorkoutItem `json:"items"`
	StartedAt *time.Time           `json:"startedAt"`
	EndedAt   *time.Time           `json:"endedAt"`
}

// parseObjectIDField parses an optional hex id from a request body.
func parseObjectIDField(c *gin.Context, name, value string) (*primitive.ObjectID, bool) {
	if value == "" {
		return nil, true
	}
	id, err := primitive.ObjectIDFromHex(value)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid "+name+" format.")
		return nil, false
	}
	return &id, true
}

// queryInt reads an optional positive integer query parameter.
func queryInt(c *gin.Context, name string) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		abortWithError(c, http.StatusBadRequest, "Query parameter '"+name+"' must be a positive integer.")
		return 0, false
	}
	return v, true
}

// LogWorkout godoc
// @Summary Log a workout or update one of the caller's workouts
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body LogWorkoutRequest true "Workout"
// @Success 201 {object} domain.Workout "Created"
// @Success 200 {object} domain.Workout "Updated"
// @Failure 404 {object} gin.H "Workout, gym or equipment not found"
// @Router /workouts [post]
func (h *WorkoutHandler) LogWorkout(c *gin.Context) {
	var req LogWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	workoutID, ok := parseObjectIDField(c, "workoutId", req.WorkoutID)
	if !ok {
		return
	}
	gymID, ok := parseObjectIDField(c, "gym", req.Gym)
	if !ok {
		return
	}

	input := service.WorkoutInput{
		WorkoutID: workoutID,
		Items:     req.Items,
		StartedAt: req.StartedAt,
		EndedAt:   req.EndedAt,
	}
	if gymID != nil {
		input.GymID = *gymID
	}

	workout, err := h.workoutService.LogWorkout(c.Request.Context(), userID, input)
	if err != nil {
		respondError(c, err, "Failed to save workout.")
		return
	}

	status := http.StatusCreated
	if workoutID != nil {
		status = http.StatusOK
	}
	c.JSON(status, workout)
}

// GetMyWorkouts godoc
// @Summary Get the caller's workout history, most recent first
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number (default 1)"
// @Param limit query int false "Page size (default 20, max 100)"
// @Success 200 {array} domain.Workout
// @Router /workouts/me [get]
func (h *WorkoutHandler) GetMyWorkouts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	page, ok := queryInt(c, "page")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	workouts, err := h.workoutService.GetWorkoutHistory(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err, "Failed to retrieve workout history.")
		return
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	c.JSON(http.StatusOK, workouts)
}

// GetMyWorkoutAdvice godoc
// @Summary Get AI training advice derived from the caller's recent workouts
// @Description Always succeeds; when the AI provider is unavailable the advice is a degraded document.
// @Tags Workouts
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Workouts to analyze (default 50)"
// @Success 200 {object} service.AdviceResult
// @Router /workouts/me/advice [get]
func (h *WorkoutHandler) GetMyWorkoutAdvice(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit")
	if !ok {
		return
	}

	res, err := h.workoutService.GetWorkoutAdvice(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, err, "Failed to generate workout advice.")
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetMyRecommendations godoc
// @Summary Recommend equipment from the caller's category affinity and overall popularity
// @Tags Recommendations
// @Produce json
// @Security BearerAuth
// @Param gym query string false "Restrict to a gym"
// @Success 200 {object} recommend.Result
// @Router /recommend/me [get]
func (h *WorkoutHandler) GetMyRecommendations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	gymID, ok := parseObjectIDField(c, "gym", c.Query("gym"))
	if !ok {
		return
	}

	res, err := h.recommendationService.GetRecommendations(c.Request.Context(), userID, gymID)
	if err != nil {
		respondError(c, err, "Failed to compute recommendations.")
		return
	}
	if res == nil {
		res = &recommend.Result{CategoriesLiked: []string{}, Recommendations: []domain.Equipment{}}
	}
	c.JSON(http.StatusOK, res)
}
