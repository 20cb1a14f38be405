package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gymtrack/progression-app/internal/domain"
	"gymtrack/progression-app/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const testSecret = "handler-test-secret"

// stubInstructionService returns canned answers for the routes under test.
type stubInstructionService struct {
	service.InstructionService

	getWeek    func(ctx context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error)
	getCurrent func(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error)
}

func (s *stubInstructionService) GetWeek(ctx context.Context, programID primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error) {
	return s.getWeek(ctx, programID, weekNumber)
}

func (s *stubInstructionService) GetCurrent(ctx context.Context, programID primitive.ObjectID) (*domain.WeeklyInstruction, error) {
	return s.getCurrent(ctx, programID)
}

func testToken(t *testing.T, userID primitive.ObjectID) string {
	t.Helper()
	claims := jwt.MapClaims{
		"uid": userID.Hex(),
		"exp": time.Now().Add(time.Hour).Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return token
}

func newTestRouter(handler *InstructionHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	protected := router.Group("", AuthMiddleware(testSecret))
	protected.GET("/programs/:id/current-week", handler.GetCurrentWeek)
	protected.GET("/programs/:id/weeks/:weekNumber", handler.GetWeek)
	return router
}

func TestGetWeekHandler(t *testing.T) {
	programID := primitive.NewObjectID()
	weekID := primitive.NewObjectID()
	stub := &stubInstructionService{
		getWeek: func(_ context.Context, gotProgram primitive.ObjectID, weekNumber int) (*domain.WeeklyInstruction, error) {
			assert.Equal(t, programID, gotProgram)
			assert.Equal(t, 2, weekNumber)
			return &domain.WeeklyInstruction{
				ID:           weekID,
				ProgramID:    gotProgram,
				WeekNumber:   weekNumber,
				TimesPerWeek: 3,
			}, nil
		},
	}
	router := newTestRouter(NewInstructionHandler(stub))

	req := httptest.NewRequest(http.MethodGet, "/programs/"+programID.Hex()+"/weeks/2", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), weekID.Hex())
	assert.Contains(t, rec.Body.String(), `"weekNumber":2`)
}

func TestGetWeekHandlerRejectsBadInput(t *testing.T) {
	stub := &stubInstructionService{
		getWeek: func(context.Context, primitive.ObjectID, int) (*domain.WeeklyInstruction, error) {
			t.Fatal("service must not be called")
			return nil, nil
		},
	}
	router := newTestRouter(NewInstructionHandler(stub))

	req := httptest.NewRequest(http.MethodGet, "/programs/not-an-id/weeks/2", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetCurrentWeekHandlerNoOpenWeek(t *testing.T) {
	stub := &stubInstructionService{
		getCurrent: func(context.Context, primitive.ObjectID) (*domain.WeeklyInstruction, error) {
			return nil, service.ErrNoOpenWeek
		},
	}
	router := newTestRouter(NewInstructionHandler(stub))

	req := httptest.NewRequest(http.MethodGet, "/programs/"+primitive.NewObjectID().Hex()+"/current-week", nil)
	req.Header.Set("Authorization", "Bearer "+testToken(t, primitive.NewObjectID()))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	router := newTestRouter(NewInstructionHandler(&stubInstructionService{}))

	req := httptest.NewRequest(http.MethodGet, "/programs/"+primitive.NewObjectID().Hex()+"/current-week", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
