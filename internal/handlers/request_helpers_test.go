package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestRespondWithErrorPayloadShape(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		respondWithError(c, http.StatusBadRequest, "GET /boom", "invalid body", "field x is missing")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}

	var body struct {
		Success     bool   `json:"success"`
		Message     string `json:"message"`
		Description string `json:"description"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json body: %v", err)
	}
	if body.Success {
		t.Fatal("expected success=false")
	}
	if body.Message != "invalid body" || body.Description != "field x is missing" {
		t.Fatalf("unexpected payload: %+v", body)
	}
}

func TestHandlePanicRecoversTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/panic", func(c *gin.Context) {
		defer handlePanic(c, "GET /panic")
		panic("nope")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/panic", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
}

func TestParsePaginationParams(t *testing.T) {
	page, limit, err := parsePaginationParams("", "")
	if err != nil || page != 1 || limit != 20 {
		t.Fatalf("unexpected defaults: page=%d limit=%d err=%v", page, limit, err)
	}

	page, limit, err = parsePaginationParams("3", "50")
	if err != nil || page != 3 || limit != 50 {
		t.Fatalf("unexpected parse: page=%d limit=%d err=%v", page, limit, err)
	}

	if _, _, err := parsePaginationParams("0", ""); err == nil {
		t.Fatal("page 0 must be rejected")
	}
	if _, _, err := parsePaginationParams("", "101"); err == nil {
		t.Fatal("limit above 100 must be rejected")
	}
	if _, _, err := parsePaginationParams("x", ""); err == nil {
		t.Fatal("non-numeric page must be rejected")
	}
}
