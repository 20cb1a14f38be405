package api

import (
	"errors"
	"net/http"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/service"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProgramHandler holds the program service dependency.
type ProgramHandler struct {
	programService service.ProgramService
}

// NewProgramHandler creates a new ProgramHandler.
func NewProgramHandler(programService service.ProgramService) *ProgramHandler {
	return &ProgramHandler{programService: programService}
}

// --- DTOs ---

type CreateProgramRequest struct {
	Name         string   `json:"name" binding:"required"`
	MuscleGroups []string `json:"muscleGroups"`
}

type UpdateProgramRequest struct {
	Name         string   `json:"name" binding:"required"`
	MuscleGroups []string `json:"muscleGroups"`
	IsActive     bool     `json:"isActive"`
}

// ProgramResponse is the DTO for returning a program.
type ProgramResponse struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	MuscleGroups []string `json:"muscleGroups"`
	IsActive     bool     `json:"isActive"`
	HasOpenWeek  bool     `json:"hasOpenWeek"`
}

// MapProgramToResponse converts a domain.Program to its DTO.
func MapProgramToResponse(program *domain.Program) ProgramResponse {
	if program == nil {
		return ProgramResponse{}
	}
	return ProgramResponse{
		ID:           program.ID.Hex(),
		Name:         program.Name,
		MuscleGroups: program.MuscleGroups,
		IsActive:     program.IsActive,
		HasOpenWeek:  program.HasOpenWeek,
	}
}

// --- Handler Methods ---

// CreateProgram creates a new program for the authenticated user.
func (h *ProgramHandler) CreateProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}

	var req CreateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program, err := h.programService.Create(c.Request.Context(), userID, req.Name, req.MuscleGroups)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create program.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapProgramToResponse(program))
}

// ListPrograms lists the authenticated user's programs.
func (h *ProgramHandler) ListPrograms(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}

	programs, err := h.programService.ListByUser(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve programs.")
		return
	}

	responses := make([]ProgramResponse, 0, len(programs))
	for i := range programs {
		responses = append(responses, MapProgramToResponse(&programs[i]))
	}
	c.JSON(http.StatusOK, responses)
}

// GetProgram returns one of the user's programs.
func (h *ProgramHandler) GetProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	program, err := h.programService.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		respondProgramError(c, err)
		return
	}

	c.JSON(http.StatusOK, MapProgramToResponse(program))
}

// UpdateProgram rewrites the mutable fields of a program.
func (h *ProgramHandler) UpdateProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	var req UpdateProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	program := &domain.Program{
		ID:           id,
		UserID:       userID,
		Name:         req.Name,
		MuscleGroups: req.MuscleGroups,
		IsActive:     req.IsActive,
	}
	updated, err := h.programService.Update(c.Request.Context(), userID, program)
	if err != nil {
		if errors.Is(err, service.ErrValidationFailed) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			respondProgramError(c, err)
		}
		return
	}

	c.JSON(http.StatusOK, MapProgramToResponse(updated))
}

// DeleteProgram removes one of the user's programs.
func (h *ProgramHandler) DeleteProgram(c *gin.Context) {
	userID, err := getUserIDFromContext(c)
	if err != nil {
		abortWithError(c, http.StatusUnauthorized, "Invalid user credentials in token.")
		return
	}
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	if err := h.programService.Delete(c.Request.Context(), id, userID); err != nil {
		respondProgramError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedId": id.Hex()})
}

// respondProgramError maps program-related service errors to HTTP statuses.
func respondProgramError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProgramNotFound):
		abortWithError(c, http.StatusNotFound, "Program not found.")
	case errors.Is(err, service.ErrProgramNotOwned):
		abortWithError(c, http.StatusForbidden, "Program does not belong to this user.")
	default:
		abortWithError(c, http.StatusInternalServerError, "Failed to process program request.")
	}
}
