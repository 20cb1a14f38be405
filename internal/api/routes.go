package api

import (
	"net/http"

	"gymtrack/progression-app/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	programService service.ProgramService,
	instructionService service.InstructionService,
	sessionService service.SessionService,
	setService service.SetService,
) {

	authHandler := NewAuthHandler(authService)
	programHandler := NewProgramHandler(programService)
	instructionHandler := NewInstructionHandler(instructionService)
	sessionHandler := NewSessionHandler(sessionService)
	setHandler := NewSetHandler(setService, sessionService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		// --- Program Routes ---
		programGroup := protected.Group("/programs")
		{
			programGroup.POST("", programHandler.CreateProgram)
			programGroup.GET("", programHandler.ListPrograms)
			programGroup.GET("/:id", programHandler.GetProgram)
			programGroup.PUT("/:id", programHandler.UpdateProgram)
			programGroup.DELETE("/:id", programHandler.DeleteProgram)

			// Weekly progression views. current-week/week-summary are separate
			// segments so they don't collide with the :weekNumber parameter.
			programGroup.GET("/:id/current-week", instructionHandler.GetCurrentWeek)
			programGroup.GET("/:id/week-summary", instructionHandler.GetWeekSummary)
			// GET /api/v1/programs/{id}/weeks/{weekNumber} - materializes the
			// week on first access.
			programGroup.GET("/:id/weeks/:weekNumber", instructionHandler.GetWeek)
		}

		// --- Instruction Routes ---
		instructionGroup := protected.Group("/instructions")
		{
			instructionGroup.POST("", instructionHandler.CreateInstruction)
			instructionGroup.GET("/:id", instructionHandler.GetInstruction)
			instructionGroup.PUT("/:id", instructionHandler.UpdateInstruction)
			instructionGroup.DELETE("/:id", instructionHandler.DeleteInstruction)
		}

		// --- Session Routes ---
		sessionGroup := protected.Group("/sessions")
		{
			// GET /api/v1/sessions?date=... - get-or-create for that day;
			// without a date it lists recent sessions.
			sessionGroup.GET("", sessionHandler.GetOrCreateSession)
			sessionGroup.GET("/:id", sessionHandler.GetSession)
			// PUT /api/v1/sessions/{id}/play - the play-workout transition.
			sessionGroup.PUT("/:id/play", sessionHandler.PlayWorkout)
			sessionGroup.DELETE("/:id", sessionHandler.DeleteSession)

			sessionGroup.GET("/:id/sets", setHandler.ListSessionSets)
			sessionGroup.DELETE("/:id/sets", setHandler.DeleteSessionSets)
			// PUT /api/v1/sessions/{id}/exercises/{exerciseId}/sets/{setNumber}
			// - position-keyed upsert of a performed set.
			sessionGroup.PUT("/:id/exercises/:exerciseId/sets/:setNumber", setHandler.UpsertSet)
		}

		// --- Set Routes ---
		setGroup := protected.Group("/sets")
		{
			setGroup.POST("", setHandler.CreateSet)
			setGroup.GET("/:id", setHandler.GetSet)
			setGroup.PUT("/:id", setHandler.UpdateSet)
			setGroup.DELETE("/:id", setHandler.DeleteSet)
		}
	}
}
