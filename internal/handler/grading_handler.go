package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-grader/internal/dto"
	"github.com/noah-isme/gema-grader/internal/grading"
	"github.com/noah-isme/gema-grader/internal/middleware"
	"github.com/noah-isme/gema-grader/internal/service"
	"github.com/noah-isme/gema-grader/internal/utils"
	"github.com/noah-isme/gema-grader/pkg/ai"
)

// DefaultMaxSubmissions bounds the number of submissions accepted per request.
const DefaultMaxSubmissions = 50

const (
	fieldExam                = "exam"
	fieldSolvedExam          = "solvedExam"
	fieldRubricText          = "rubricText"
	fieldSpecialInstructions = "specialInstructions"
	fieldSubmissions         = "submissions"
)

// GradingHandler exposes the grading endpoint.
type GradingHandler struct {
	service        service.GradingService
	validator      *validator.Validate
	maxSubmissions int
	logger         zerolog.Logger
}

// NewGradingHandler constructs a grading handler.
func NewGradingHandler(service service.GradingService, validate *validator.Validate, maxSubmissions int, logger zerolog.Logger) *GradingHandler {
	if maxSubmissions <= 0 {
		maxSubmissions = DefaultMaxSubmissions
	}
	if validate == nil {
		validate = validator.New(validator.WithRequiredStructEnabled())
	}
	return &GradingHandler{
		service:        service,
		validator:      validate,
		maxSubmissions: maxSubmissions,
		logger:         logger.With().Str("component", "grading_handler").Logger(),
	}
}

// Register wires grading routes. OPTIONS and POST are served; every other method gets 405.
func (h *GradingHandler) Register(router fiber.Router, limiter ...fiber.Handler) {
	router.Options("", h.preflight)
	handlers := append(append([]fiber.Handler{}, limiter...), h.grade)
	router.Post("", handlers...)
	router.All("", h.methodNotAllowed)
}

func (h *GradingHandler) preflight(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAccessControlAllowOrigin, middleware.CORSAllowOrigins)
	c.Set(fiber.HeaderAccessControlAllowMethods, middleware.CORSAllowMethods)
	c.Set(fiber.HeaderAccessControlAllowHeaders, middleware.CORSAllowHeaders)
	c.Status(fiber.StatusOK)
	return nil
}

func (h *GradingHandler) methodNotAllowed(c *fiber.Ctx) error {
	return utils.SendError(c, fiber.StatusMethodNotAllowed, "Method not allowed")
}

func (h *GradingHandler) grade(c *fiber.Ctx) error {
	logger := requestLogger(h.logger, c)

	form, err := c.MultipartForm()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "Missing required files: submissions")
	}

	payload := uploadRequestFromForm(form)
	if len(payload.Submissions) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "Missing required files: submissions")
	}
	if len(payload.Submissions) > h.maxSubmissions {
		return utils.SendError(c, fiber.StatusBadRequest, fmt.Sprintf("Too many submissions: at most %d allowed", h.maxSubmissions))
	}
	if err := h.validator.Struct(payload); err != nil {
		if isValidationError(err) {
			return utils.Fail(c, fiber.StatusBadRequest, "invalid grading request", validationDetails(err))
		}
		return utils.SendError(c, fiber.StatusBadRequest, "invalid grading request")
	}

	req, err := buildGradingRequest(payload)
	if err != nil {
		logger.Warn().Err(err).Msg("failed to read uploaded files")
		return utils.SendError(c, fiber.StatusBadRequest, "unable to read uploaded files")
	}

	response, err := h.service.Grade(c.UserContext(), req, middleware.Identity(c))
	if err != nil {
		if errors.Is(err, grading.ErrNoSubmissions) {
			return utils.SendError(c, fiber.StatusBadRequest, "Missing required files: submissions")
		}
		logger.Error().Err(err).Msg("grading request failed")
		return utils.SendError(c, fiber.StatusInternalServerError, "Internal server error")
	}

	return utils.OK(c, response)
}

func uploadRequestFromForm(form *multipart.Form) dto.GradeUploadRequest {
	payload := dto.GradeUploadRequest{
		SolvedExams:         form.File[fieldSolvedExam],
		RubricText:          formValue(form, fieldRubricText),
		SpecialInstructions: formValue(form, fieldSpecialInstructions),
		Submissions:         form.File[fieldSubmissions],
	}
	if files := form.File[fieldExam]; len(files) > 0 {
		payload.Exam = files[0]
	}
	return payload
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return strings.TrimSpace(values[0])
	}
	return ""
}

func buildGradingRequest(payload dto.GradeUploadRequest) (grading.Request, error) {
	req := grading.Request{
		RubricText:          payload.RubricText,
		SpecialInstructions: payload.SpecialInstructions,
	}

	if payload.Exam != nil {
		exam, err := readArtifact(payload.Exam)
		if err != nil {
			return grading.Request{}, err
		}
		req.ExamTemplate = &exam
	}

	for _, header := range payload.SolvedExams {
		solved, err := readArtifact(header)
		if err != nil {
			return grading.Request{}, err
		}
		req.SolvedExams = append(req.SolvedExams, solved)
	}

	req.Submissions = make([]grading.Artifact, 0, len(payload.Submissions))
	for _, header := range payload.Submissions {
		submission, err := readArtifact(header)
		if err != nil {
			return grading.Request{}, err
		}
		req.Submissions = append(req.Submissions, submission)
	}

	return req, nil
}

func readArtifact(header *multipart.FileHeader) (grading.Artifact, error) {
	file, err := header.Open()
	if err != nil {
		return grading.Artifact{}, fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return grading.Artifact{}, fmt.Errorf("read upload: %w", err)
	}

	return grading.Artifact{
		Name:      header.Filename,
		MediaType: ai.ResolveMediaType(data, header.Header.Get(fiber.HeaderContentType)),
		Data:      data,
	}, nil
}
