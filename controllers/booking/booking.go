package booking

import (
	"errors"
	"fmt"
	"strconv"

	"queue-booking/logger"
	bookingModel "queue-booking/models/booking"
	"queue-booking/services/qrcode"
	"queue-booking/services/queue"
	"queue-booking/types"
	bookingTypes "queue-booking/types/booking"
	"queue-booking/utils"

	"github.com/gofiber/fiber/v2"
)

// BookingController handles booking-related HTTP requests
type BookingController struct {
	Engine *queue.Engine
	Logger *logger.AsyncLogger
}

// NewBookingController creates a new booking controller
func NewBookingController(engine *queue.Engine, asyncLogger *logger.AsyncLogger) *BookingController {
	return &BookingController{
		Engine: engine,
		Logger: asyncLogger,
	}
}

// logAPIRequest queues the request for the persisted audit trail.
func (bc *BookingController) logAPIRequest(c *fiber.Ctx) {
	bc.Logger.Log(utils.CreateSanitizedLogEntry(c))
}

// sendResponseWithLog sends the response and records it in the audit trail.
// Every handler that mutates queue state goes through here.
func (bc *BookingController) sendResponseWithLog(c *fiber.Ctx, status int, response types.ApiResponse) error {
	result := c.Status(status).JSON(response)
	bc.logAPIRequest(c)
	return result
}

// Index lists every booking.
func (bc *BookingController) Index(c *fiber.Ctx) error {
	bookings, err := bc.Engine.GetAllBookings()
	if err != nil {
		logger.Error("Failed to fetch bookings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to fetch bookings",
		})
	}
	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Bookings fetched successfully",
		Data:    bookings,
	})
}

// Store creates a new booking and assigns its queue number.
func (bc *BookingController) Store(c *fiber.Ctx) error {
	var req bookingTypes.BookingCreateRequest
	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", err)
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}

	if err := req.Validate(); err != nil {
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	created, err := bc.Engine.CreateBooking(req.UserID, req.ServicePointID,
		bookingModel.BookingType(req.BookingType), req.BookingDate, req.BookingTime)
	if err != nil {
		if errors.Is(err, queue.ErrInvalidBookingType) {
			return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "Invalid booking type",
			})
		}
		if errors.Is(err, queue.ErrUnknownReference) {
			return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
				Status:  fiber.StatusBadRequest,
				Message: "User or service point does not exist",
			})
		}
		logger.Error("Failed to create booking", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to create booking",
		})
	}

	return bc.sendResponseWithLog(c, fiber.StatusCreated, types.ApiResponse{
		Status:  fiber.StatusCreated,
		Message: "Booking created successfully",
		Data:    created,
	})
}

// GetUserBookings lists a user's bookings ordered by date and time.
func (bc *BookingController) GetUserBookings(c *fiber.Ctx) error {
	userID, err := strconv.ParseUint(c.Params("userId"), 10, 32)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid user id",
		})
	}

	bookings, err := bc.Engine.GetBookingsByUser(uint(userID))
	if err != nil {
		logger.Error("Failed to fetch user bookings", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to fetch user bookings",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "User bookings fetched successfully",
		Data:    bookings,
	})
}

// ManageQueues expires stale active bookings and reports the booking now at
// the head of the queue. An empty queue is a success with no data.
func (bc *BookingController) ManageQueues(c *fiber.Ctx) error {
	next, err := bc.Engine.ExpireStaleQueues()
	if err != nil {
		logger.Error("Failed to expire stale queues", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to update queues",
		})
	}

	if next == nil {
		return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "No queues to update",
		})
	}

	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Queue updated successfully",
		Data:    next,
	})
}

// NextQueue claims the next active booking and marks it called. An empty
// queue is a success with no data, not an error.
func (bc *BookingController) NextQueue(c *fiber.Ctx) error {
	next, err := bc.Engine.SelectNextCaller()
	if err != nil {
		logger.Error("Failed to select next caller", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to select next queue",
		})
	}

	if next == nil {
		return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
			Status:  fiber.StatusOK,
			Message: "No queue available to call",
		})
	}

	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Next queue called successfully",
		Data:    next,
	})
}

// Cancel moves a booking to cancel.
func (bc *BookingController) Cancel(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 32)
	if err != nil || bookingID == 0 {
		return bc.sendResponseWithLog(c, fiber.StatusBadRequest, types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Booking id is required",
		})
	}

	if err := bc.Engine.CancelBooking(uint(bookingID)); err != nil {
		if errors.Is(err, queue.ErrBookingNotFound) {
			return bc.sendResponseWithLog(c, fiber.StatusNotFound, types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
			})
		}
		if errors.Is(err, queue.ErrInvalidTransition) {
			return bc.sendResponseWithLog(c, fiber.StatusConflict, types.ApiResponse{
				Status:  fiber.StatusConflict,
				Message: "Booking can no longer be cancelled",
			})
		}
		logger.Error("Failed to cancel booking", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to cancel booking",
		})
	}

	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking cancelled successfully",
	})
}

// AvailableSlots lists the fixed daily slots still free for a scope.
func (bc *BookingController) AvailableSlots(c *fiber.Ctx) error {
	servicePointID, err := strconv.ParseUint(c.Query("service_point_id"), 10, 32)
	bookingDate := c.Query("booking_date")
	if err != nil || servicePointID == 0 || bookingDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "service_point_id and booking_date are required",
		})
	}

	slots, err := bc.Engine.GetAvailableSlots(uint(servicePointID), bookingDate)
	if err != nil {
		logger.Error("Failed to fetch available slots", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to fetch available slots",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Available slots fetched successfully",
		Data:    slots,
	})
}

// ResetDaily deletes bookings dated before today.
func (bc *BookingController) ResetDaily(c *fiber.Ctx) error {
	removed, err := bc.Engine.ResetDailyQueues()
	if err != nil {
		logger.Error("Failed to reset daily queues", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to reset daily queues",
		})
	}

	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: fmt.Sprintf("Daily queues reset successfully, %d bookings removed", removed),
	})
}

// ResetAll deletes every booking. Administrative use only.
func (bc *BookingController) ResetAll(c *fiber.Ctx) error {
	if err := bc.Engine.ResetAllQueues(); err != nil {
		logger.Error("Failed to reset all queues", err)
		return bc.sendResponseWithLog(c, fiber.StatusInternalServerError, types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to reset queues",
		})
	}

	return bc.sendResponseWithLog(c, fiber.StatusOK, types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "All queues reset successfully",
	})
}

// CheckIn verifies that a user holds an active or called booking at the
// service point.
func (bc *BookingController) CheckIn(c *fiber.Ctx) error {
	var req bookingTypes.CheckInRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: err.Error(),
		})
	}

	b, err := bc.Engine.CheckUserBooking(req.UserID, req.ServicePointID)
	if err != nil {
		logger.Error("Failed to check user booking", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to check booking",
		})
	}
	if b == nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "No booking found for this user",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking is valid",
		Data:    b,
	})
}

// GenerateQRCode renders the check-in QR code for a booking.
func (bc *BookingController) GenerateQRCode(c *fiber.Ctx) error {
	bookingID, err := strconv.ParseUint(c.Params("bookingId"), 10, 32)
	if err != nil || bookingID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Booking id is required",
		})
	}

	b, err := bc.Engine.GetBookingByID(uint(bookingID))
	if err != nil {
		if errors.Is(err, queue.ErrBookingNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
				Status:  fiber.StatusNotFound,
				Message: "Booking not found",
			})
		}
		logger.Error("Failed to load booking for QR code", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	link := qrcode.CheckInLink(b.Reference)
	dataURL, err := qrcode.GenerateDataURL(link)
	if err != nil {
		logger.Error("Failed to render QR code", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to generate QR code",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "QR code generated successfully",
		Data: fiber.Map{
			"qr_code": dataURL,
			"link":    link,
		},
	})
}

// CheckInWithReference resolves the booking behind a scanned QR code.
func (bc *BookingController) CheckInWithReference(c *fiber.Ctx) error {
	reference := c.Params("reference")
	if reference == "" {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Booking reference is required",
		})
	}

	b, err := bc.Engine.GetBookingByReference(reference)
	if err != nil {
		logger.Error("Failed to check in by reference", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to check booking",
		})
	}
	if b == nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "No booking found for this reference",
		})
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: "Booking is valid",
		Data:    b,
	})
}

// CheckInWithQueueNumber resolves a booking by queue number within its
// service point and date scope. The date defaults to today in the reference
// zone when omitted.
func (bc *BookingController) CheckInWithQueueNumber(c *fiber.Ctx) error {
	queueNumber, err := strconv.Atoi(c.Params("queueNumber"))
	if err != nil || queueNumber <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "Invalid queue number",
		})
	}

	servicePointID, err := strconv.ParseUint(c.Query("service_point_id"), 10, 32)
	if err != nil || servicePointID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(types.ApiResponse{
			Status:  fiber.StatusBadRequest,
			Message: "service_point_id is required",
		})
	}

	bookingDate := c.Query("booking_date")
	if bookingDate == "" {
		bookingDate = bc.Engine.Today()
	}

	b, err := bc.Engine.GetBookingByQueueNumber(uint(servicePointID), bookingDate, queueNumber)
	if err != nil {
		logger.Error("Failed to check in by queue number", err)
		return c.Status(fiber.StatusInternalServerError).JSON(types.ApiResponse{
			Status:  fiber.StatusInternalServerError,
			Message: "Failed to check booking",
		})
	}
	if b == nil {
		return c.Status(fiber.StatusNotFound).JSON(types.ApiResponse{
			Status:  fiber.StatusNotFound,
			Message: "No booking found for this queue number",
		})
	}

	message := "Booking is valid"
	if b.Status == bookingModel.BookingStatusCalled {
		message = "Queue has already been called"
	}

	return c.Status(fiber.StatusOK).JSON(types.ApiResponse{
		Status:  fiber.StatusOK,
		Message: message,
		Data:    b,
	})
}
