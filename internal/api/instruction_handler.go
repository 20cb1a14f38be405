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

// InstructionHandler holds the instruction service dependency.
type InstructionHandler struct {
	instructionService service.InstructionService
}

// NewInstructionHandler creates a new InstructionHandler.
func NewInstructionHandler(instructionService service.InstructionService) *InstructionHandler {
	return &InstructionHandler{instructionService: instructionService}
}

// --- DTOs ---

// CreateInstructionRequest defines the expected JSON for creating a week.
type CreateInstructionRequest struct {
	ProgramID    string                       `json:"programId" binding:"required"`
	WeekNumber   int                          `json:"weekNumber" binding:"required,min=1"`
	TimesPerWeek int                          `json:"timesPerWeek" binding:"required,min=1"`
	Exercises    []domain.ExerciseInstruction `json:"exercises"`
}

// UpdateInstructionRequest defines the writable fields of a week. Counters and
// the done flag are owned by the play transition and cannot be set here.
type UpdateInstructionRequest struct {
	TimesPerWeek int                          `json:"timesPerWeek" binding:"required,min=1"`
	Exercises    []domain.ExerciseInstruction `json:"exercises"`
}

// InstructionResponse is the DTO for returning a weekly instruction.
type InstructionResponse struct {
	ID           string                       `json:"id"`
	ProgramID    string                       `json:"programId"`
	WeekNumber   int                          `json:"weekNumber"`
	Exercises    []domain.ExerciseInstruction `json:"exercises"`
	TimesPerWeek int                          `json:"timesPerWeek"`
	DoneTimes    int                          `json:"doneTimes"`
	IsDone       bool                         `json:"isDone"`
	IsFinished   bool                         `json:"isFinished"`
}

// MapInstructionToResponse converts a domain.WeeklyInstruction to its DTO.
func MapInstructionToResponse(instruction *domain.WeeklyInstruction) InstructionResponse {
	if instruction == nil {
		return InstructionResponse{}
	}
	return InstructionResponse{
		ID:           instruction.ID.Hex(),
		ProgramID:    instruction.ProgramID.Hex(),
		WeekNumber:   instruction.WeekNumber,
		Exercises:    instruction.Exercises,
		TimesPerWeek: instruction.TimesPerWeek,
		DoneTimes:    instruction.DoneTimes,
		IsDone:       instruction.IsDone,
		IsFinished:   instruction.IsFinished,
	}
}

// --- Handler Methods ---

// GetCurrentWeek returns the program's open week, or 404 with a distinct
// message when every materialized week is done.
func (h *InstructionHandler) GetCurrentWeek(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	instruction, err := h.instructionService.GetCurrent(c.Request.Context(), programID)
	if err != nil {
		if errors.Is(err, service.ErrNoOpenWeek) {
			abortWithError(c, http.StatusNotFound, "No open week for this program.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve current week.")
		}
		return
	}

	c.JSON(http.StatusOK, MapInstructionToResponse(instruction))
}

// GetWeek returns the instruction record for a specific week, materializing
// it (empty or cloned from the latest week) when it doesn't exist yet.
func (h *InstructionHandler) GetWeek(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}
	weekNumber, err := strconv.Atoi(c.Param("weekNumber"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid week number.")
		return
	}

	instruction, err := h.instructionService.GetWeek(c.Request.Context(), programID, weekNumber)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeekNumber) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve week.")
		}
		return
	}

	c.JSON(http.StatusOK, MapInstructionToResponse(instruction))
}

// GetWeekSummary lists every materialized week of a program with its done flag.
func (h *InstructionHandler) GetWeekSummary(c *gin.Context) {
	programID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	summary, err := h.instructionService.WeekCompletionSummary(c.Request.Context(), programID)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to retrieve week summary.")
		return
	}
	if summary == nil {
		summary = []domain.WeekCompletion{}
	}

	c.JSON(http.StatusOK, summary)
}

// GetInstruction returns one instruction record by ID.
func (h *InstructionHandler) GetInstruction(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid instruction ID format.")
		return
	}

	instruction, err := h.instructionService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrInstructionNotFound) {
			abortWithError(c, http.StatusNotFound, "Instruction not found.")
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to retrieve instruction.")
		}
		return
	}

	c.JSON(http.StatusOK, MapInstructionToResponse(instruction))
}

// CreateInstruction stores a caller-authored week.
func (h *InstructionHandler) CreateInstruction(c *gin.Context) {
	var req CreateInstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}
	programID, err := primitive.ObjectIDFromHex(req.ProgramID)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid program ID format.")
		return
	}

	instruction := &domain.WeeklyInstruction{
		ProgramID:    programID,
		WeekNumber:   req.WeekNumber,
		TimesPerWeek: req.TimesPerWeek,
		Exercises:    req.Exercises,
	}
	created, err := h.instructionService.Create(c.Request.Context(), instruction)
	if err != nil {
		if errors.Is(err, service.ErrInvalidWeekNumber) || errors.Is(err, service.ErrInvalidTimesPerWeek) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to create instruction.")
		}
		return
	}

	c.JSON(http.StatusCreated, MapInstructionToResponse(created))
}

// UpdateInstruction rewrites the targets of a week.
func (h *InstructionHandler) UpdateInstruction(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid instruction ID format.")
		return
	}

	var req UpdateInstructionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	instruction := &domain.WeeklyInstruction{
		ID:           id,
		TimesPerWeek: req.TimesPerWeek,
		Exercises:    req.Exercises,
	}
	updated, err := h.instructionService.Update(c.Request.Context(), instruction)
	if err != nil {
		if errors.Is(err, service.ErrInstructionNotFound) {
			abortWithError(c, http.StatusNotFound, "Instruction not found.")
		} else if errors.Is(err, service.ErrInvalidTimesPerWeek) {
			abortWithError(c, http.StatusBadRequest, err.Error())
		} else {
			abortWithError(c, http.StatusInternalServerError, "Failed to update instruction.")
		}
		return
	}

	c.JSON(http.StatusOK, MapInstructionToResponse(updated))
}

// DeleteInstruction removes a week record.
func (h *InstructionHandler) DeleteInstruction(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "Invalid instruction ID format.")
		return
	}

	if err := h.instructionService.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, http.StatusInternalServerError, "Failed to delete instruction.")
		return
	}

	c.JSON(http.StatusOK, gin.H{"deletedId": id.Hex()})
}
