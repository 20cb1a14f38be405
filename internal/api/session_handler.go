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

// SessionHandler holds the session service dependency.
type SessionHandler struct {
	sessionService service.SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

// --- DTOs ---

// PlayWorkoutRequest binds a session to the program whose open week is played.
type PlayWorkoutRequest struct {
	WorkoutID string `json:"workoutId" binding:"required"`
}

// PlayWorkoutResponse carries the rebound session together with the week that
// was just advanced.
type PlayWorkoutResponse struct {
	Session     *domain.Session     `json:"session"`
	Instruction InstructionResponse `json:"instruction"`
}

// --- Handler Methods ---

// GetOrCreateSession returns the session for the requested calendar day (or a
// list of recent sessions when no date is given). First access on a day creates
// the session; the operation is idempotent per day.
func (h *SessionHandler) GetOrCreateSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}

	date := c.Query("date")
	if date == "" {
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "30"), 10, 64)
		sessions, err := h.sessionService.ListByUser(c.Request.Context(), userID, limit)
		if err != nil {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve sessions.")
			return
		}
		if sessions == nil {
			sessions = []domain.Session{}
		}
		c.JSON(http.StatusOK, sessions)
		return
	}

	session, err := h.sessionService.GetOrCreate(c.Request.Context(), userID, date)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidDate) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve session.")
		}
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession returns one session by ID.
func (h *SessionHandler) GetSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	session, err := h.sessionService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// PlayWorkout advances the program's open week and binds the session to it.
// The set snapshot runs in the background; poll the session's snapshotStatus
// to observe it.
func (h *SessionHandler) PlayWorkout(c *gin.Context) {
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

	var req PlayWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.WorkoutID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid workout ID format.")
		return
	}

	result, err := h.sessionService.PlayWorkout(c.Request.Context(), sessionID, programID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoOpenWeek):
			abortWithError(c, http.StatusConflict, "Program has no open week to play.")
		case errors.Is(err, service.ErrProgramNotFound):
			abortWithError(c, http.StatusNotFound, "Program not found.")
		case errors.Is(err, service.ErrProgramNotOwned), errors.Is(err, service.ErrProgramInactive):
			abortWithError(c, http.StatusForbidden, err.Error())
		default:
			respondSessionError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, PlayWorkoutResponse{
		Session:     result.Session,
		Instruction: MapInstructionToResponse(result.Instruction),
	})
}

// DeleteSession removes a session, undoing the week advance it was bound to
// and dropping its set rows. Deleting an absent session succeeds.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid session ID format.")
		return
	}

	if err := h.sessionService.Delete(c.Request.Context(), id, userID); err != nil {
		respondSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedId": id.Hex()})
}

// respondSessionError maps session-related service errors to HTTP statuses.
func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		abortWithError(c, http.StatusNotFound, "Session not found.")
	case errors.Is(err, service.ErrSessionNotOwned):
		abortWithError(c, http.StatusForbidden, "Session does not belong to this user.")
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to process session request.")
	}
}
