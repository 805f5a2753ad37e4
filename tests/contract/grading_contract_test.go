package contract_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-grader/internal/config"
	"github.com/noah-isme/gema-grader/internal/export"
	"github.com/noah-isme/gema-grader/internal/grading"
	"github.com/noah-isme/gema-grader/internal/handler"
	"github.com/noah-isme/gema-grader/internal/middleware"
	"github.com/noah-isme/gema-grader/internal/repository"
	"github.com/noah-isme/gema-grader/internal/router"
	"github.com/noah-isme/gema-grader/internal/service"
	"github.com/noah-isme/gema-grader/pkg/ai"
)

const gradedJSON = "```json\n" + `{
  "studentName": "Unknown",
  "questions": [
    {"questionId": 1, "score": 3, "maxScore": 5, "confidence": 88.6, "comment": "partially correct"},
    {"questionId": "2b", "score": 5, "maxScore": 5, "confidence": 99, "comment": "correct"}
  ],
  "totalScore": 8,
  "totalMaxScore": 10
}` + "\n```"

// fallbackModel fails the synthesis call so the fallback prompt is used, then grades every submission.
type fallbackModel struct {
	calls atomic.Int32
}

func (m *fallbackModel) GenerateContent(_ context.Context, parts []ai.Part) (string, error) {
	if m.calls.Add(1) == 1 {
		return "", errors.New("synthesis unavailable")
	}
	if string(parts[len(parts)-1].InlineData.Data) == "unreadable" {
		return "the page is blank", nil
	}
	return gradedJSON, nil
}

func compileSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	schemaPath, err := filepath.Abs(filepath.Join("..", "contracts", name))
	require.NoError(t, err)

	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile("file://" + schemaPath)
	require.NoError(t, err)
	return schema
}

func newContractApp(t *testing.T) *fiber.App {
	t.Helper()
	logger := zerolog.Nop()

	server, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(server.Close)
	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	model := &fallbackModel{}
	history := service.NewHistoryService(repository.NewLocalHistoryRepository(redisClient, "exam_grader_history", 50), nil, nil, logger)
	gradingService := service.NewGradingService(
		grading.NewSynthesizer(model, 0, logger),
		grading.NewOrchestrator(model, grading.NewParser(logger), grading.OrchestratorConfig{Concurrency: 1}, logger),
		export.NewWorkbookExporter(),
		history,
		nil,
		logger,
	)

	app := fiber.New()
	middleware.Register(app, middleware.Config{Logger: &logger, SkipCORS: router.SkipCORS})
	router.Register(app, config.Config{AppName: "GEMA Grader"}, router.Dependencies{
		GradingHandler: handler.NewGradingHandler(gradingService, nil, 0, logger),
		HistoryHandler: handler.NewHistoryHandler(history, logger),
		JWTMiddleware:  middleware.JWTIdentity("contract-secret"),
	})
	return app
}

func decodeBody(t *testing.T, resp *http.Response) interface{} {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())

	var body interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	return body
}

func TestGradeResponseContract(t *testing.T) {
	app := newContractApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	require.NoError(t, writer.WriteField("rubricText", "Q1: 5 pts, Q2: 5 pts"))
	for name, data := range map[string]string{"maria.png": "page-one", "blank.png": "unreadable"} {
		part, err := writer.CreateFormFile("submissions", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(data))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/grade", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	payload := decodeBody(t, resp)
	require.NoError(t, compileSchema(t, "grade_response.schema.json").Validate(payload))

	results := payload.(map[string]interface{})["results"].([]interface{})
	require.Len(t, results, 2)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/history", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	history := decodeBody(t, resp)
	require.NoError(t, compileSchema(t, "history_list.schema.json").Validate(history))

	items := history.(map[string]interface{})["items"].([]interface{})
	require.Len(t, items, 1)
	require.Equal(t, float64(2), items[0].(map[string]interface{})["studentCount"])
}

func TestErrorResponseContract(t *testing.T) {
	app := newContractApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodPut, "/api/grade", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode)

	payload := decodeBody(t, resp).(map[string]interface{})
	require.Equal(t, "Method not allowed", payload["error"])
}
