package routes

import (
	"os"

	"queue-booking/controllers/auth"
	"queue-booking/controllers/booking"
	"queue-booking/controllers/user"
	httpServices "queue-booking/httpServices/line"
	"queue-booking/logger"
	"queue-booking/middleware"
	"queue-booking/services/queue"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func SetupRoutes(app *fiber.App, db *gorm.DB, engine *queue.Engine) {
	lineClient := httpServices.NewClient(
		os.Getenv("LINE_API_BASE_URL"),
		os.Getenv("LINE_CLIENT_ID"),
		os.Getenv("LINE_CLIENT_SECRET"),
		os.Getenv("LINE_REDIRECT_URI"),
	)
	asyncLogger := logger.NewAsyncLogger(db)
	authController := auth.NewAuthController(lineClient, db, asyncLogger)
	bookingController := booking.NewBookingController(engine, asyncLogger)

	// Start the async logger processing goroutine
	go asyncLogger.ProcessLog()

	api := app.Group("/api")

	/*=============================================================================
	| Auth Routes
	===============================================================================*/
	authen := api.Group("/authen")
	authen.Get("/gen", authController.GeneratePublicToken)
	authen.Post("/register", authController.Register)
	authen.Post("/login", authController.Login)
	authen.Post("/oauth", authController.OAuth)
	authen.Get("/verify-token", authController.VerifyToken)

	api.Post("/online/login", authController.OnlineLogin)
	api.Post("/online/new-password", authController.NewPassword)
	api.Post("/line/login", authController.LineLogin)
	api.Post("/line/link-account", middleware.RequireAuth(), authController.LinkLineAccount)

	/*=============================================================================
	| User Routes
	===============================================================================*/
	api.Get("/user/profile", middleware.RequireAuth(), user.GetUserInfo)

	/*=============================================================================
	| Booking Routes
	===============================================================================*/
	api.Get("/booking-all", middleware.RequireStaff(), bookingController.Index)

	bookingGroup := api.Group("/booking")
	bookingGroup.Post("/", middleware.RequireAuth(), bookingController.Store)
	bookingGroup.Get("/user/:userId", middleware.RequireAuth(), bookingController.GetUserBookings)
	bookingGroup.Get("/available-slots", bookingController.AvailableSlots)
	bookingGroup.Post("/cancel/:bookingId", middleware.RequireAuth(), bookingController.Cancel)

	// Staff queue management
	bookingGroup.Post("/manage-queues", middleware.RequireStaff(), bookingController.ManageQueues)
	bookingGroup.Get("/next-queue", middleware.RequireStaff(), bookingController.NextQueue)
	bookingGroup.Post("/daily-reset", middleware.RequireStaff(), bookingController.ResetDaily)
	bookingGroup.Post("/all-reset", middleware.RequireStaff(), bookingController.ResetAll)

	// Check-in flows
	bookingGroup.Post("/check-in", bookingController.CheckIn)
	bookingGroup.Get("/generate-qrcode/:bookingId", bookingController.GenerateQRCode)
	bookingGroup.Get("/check-in/queue/:queueNumber", bookingController.CheckInWithQueueNumber)
	bookingGroup.Get("/check-in/:reference", bookingController.CheckInWithReference)
}
