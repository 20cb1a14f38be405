package api

import (
	"errors"
	"net/http"
	"strconv"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SetHandler holds the set and session service dependencies. The session
// service is needed to verify ownership on session-scoped set routes.
type SetHandler struct {
	setService     service.SetService
	sessionService service.SessionService
}

// NewSetHandler creates a new SetHandler.
func NewSetHandler(setService service.SetService, sessionService service.SessionService) *SetHandler {
	return &SetHandler{setService: setService, sessionService: sessionService}
}

// --- DTOs ---

// SetMetricsPayload carries the recordable fields of a performed set. RPE and
// RIR are both accepted on input; sanitization decides which one survives.
type SetMetricsPayload struct {
	Weight domain.ExpectedActual  `json:"weight"`
	Reps   domain.ExpectedActual  `json:"reps"`
	RPE    *domain.ExpectedActual `json:"rpe"`
	RIR    *domain.ExpectedActual `json:"rir"`
	IsDone bool                   `json:"isDone"`
}

// CreateSetRequest defines the expected JSON for creating a set.
type CreateSetRequest struct {
	SessionID  string `json:"sessionId" binding:"required"`
	ExerciseID string `json:"exerciseId" binding:"required"`
	SetNumber  int    `json:"setNumber" binding:"required,min=1"`
	SetMetricsPayload
}

// --- Handler Methods ---

// CreateSet records a new performed set and links it into its session.
func (h *SetHandler) CreateSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}

	var req CreateSetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(req.SessionID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(req.ExerciseID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}
	if _, err := h.sessionService.GetByID(c.Request.Context(), sessionID, userID); err != nil {
		respondSessionError(c, err)
		return
	}

	set := &domain.Set{
		SessionID:  sessionID,
		ExerciseID: exerciseID,
		UserID:     userID,
		SetNumber:  req.SetNumber,
		Weight:     req.Weight,
		Reps:       req.Reps,
		RPE:        req.RPE,
		RIR:        req.RIR,
		IsDone:     req.IsDone,
	}
	created, err := h.setService.Create(c.Request.Context(), set)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSetData) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create set.")
		}
		return
	}

	c.JSON(http.StatusCreated, created)
}

// GetSet returns one set by ID.
func (h *SetHandler) GetSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set ID format.")
		return
	}

	set, err := h.setService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSetNotFound) {
			abortWithError(c, http.StatusNotFound, "Set not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve set.")
		}
		return
	}
	if set.UserID != userID {
		abortWithError(c, http.StatusForbidden, "Set does not belong to this user.")
		return
	}

	c.JSON(http.StatusOK, set)
}

// UpdateSet rewrites a set's recorded values. Updating a set that no longer
// exists (e.g. its session was deleted concurrently) completes without error.
func (h *SetHandler) UpdateSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set ID format.")
		return
	}

	existing, err := h.setService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrSetNotFound) {
			// Absent set: the update is a completed no-op.
			c.JSON(http.StatusOK, gin.H{"id": id.Hex()})
			return
		}
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve set.")
		return
	}
	if existing.UserID != userID {
		abortWithError(c, http.StatusForbidden, "Set does not belong to this user.")
		return
	}

	var req SetMetricsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	existing.Weight = req.Weight
	existing.Reps = req.Reps
	existing.RPE = req.RPE
	existing.RIR = req.RIR
	existing.IsDone = req.IsDone
	updated, err := h.setService.Update(c.Request.Context(), existing)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to update set.")
		return
	}

	c.JSON(http.StatusOK, updated)
}

// DeleteSet removes a set; deleting an absent set succeeds.
func (h *SetHandler) DeleteSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid set ID format.")
		return
	}

	set, err := h.setService.GetByID(c.Request.Context(), id)
	if err == nil && set.UserID != userID {
		abortWithError(c, http.StatusForbidden, "Set does not belong to this user.")
		return
	}

	if err := h.setService.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete set.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedId": id.Hex()})
}

// ListSessionSets lists the sets of a session, optionally filtered by exercise.
func (h *SetHandler) ListSessionSets(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	if _, err := h.sessionService.GetByID(c.Request.Context(), sessionID, userID); err != nil {
		respondSessionError(c, err)
		return
	}

	var sets []domain.Set
	if exerciseHex := c.Query("exerciseId"); exerciseHex != "" {
		exerciseID, err := primitive.ObjectIDFromHex(exerciseHex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
			return
		}
		sets, err = h.setService.GetBySessionAndExercise(c.Request.Context(), sessionID, exerciseID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve sets.")
			return
		}
	} else {
		sets, err = h.setService.GetBySession(c.Request.Context(), sessionID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve sets.")
			return
		}
	}
	if sets == nil {
		sets = []domain.Set{}
	}

	c.JSON(http.StatusOK, sets)
}

// DeleteSessionSets removes the sets of a session, optionally limited to one
// exercise via the exerciseId query parameter.
func (h *SetHandler) DeleteSessionSets(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	if _, err := h.sessionService.GetByID(c.Request.Context(), sessionID, userID); err != nil {
		respondSessionError(c, err)
		return
	}

	var deleted int64
	if exerciseHex := c.Query("exerciseId"); exerciseHex != "" {
		exerciseID, err := primitive.ObjectIDFromHex(exerciseHex)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
			return
		}
		deleted, err = h.setService.DeleteBySessionAndExercise(c.Request.Context(), sessionID, exerciseID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete sets.")
			return
		}
	} else {
		deleted, err = h.setService.DeleteBySession(c.Request.Context(), sessionID)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to delete sets.")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"deletedCount": deleted})
}

// UpsertSet writes a set at its (session, exercise, setNumber) position,
// creating it when the snapshot didn't pre-create the row.
func (h *SetHandler) UpsertSet(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	sessionID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}
	exerciseID, err := primitive.ObjectIDFromHex(c.Param("exerciseId"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid exercise ID format.")
		return
	}
	setNumber, err := strconv.Atoi(c.Param("setNumber"))
	if err != nil || setNumber < 1 {
		abortWithError(c, http.StatusBadRequest, "Invalid set number.")
		return
	}
	if _, err := h.sessionService.GetByID(c.Request.Context(), sessionID, userID); err != nil {
		respondSessionError(c, err)
		return
	}

	var req SetMetricsPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	set := &domain.Set{
		SessionID:  sessionID,
		ExerciseID: exerciseID,
		UserID:     userID,
		SetNumber:  setNumber,
		Weight:     req.Weight,
		Reps:       req.Reps,
		RPE:        req.RPE,
		RIR:        req.RIR,
		IsDone:     req.IsDone,
	}
	saved, err := h.setService.UpsertByPosition(c.Request.Context(), set)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSetData) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to save set.")
		}
		return
	}

	c.JSON(http.StatusOK, saved)
}
