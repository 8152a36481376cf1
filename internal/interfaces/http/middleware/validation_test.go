package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type validationEnvelope struct {
	Success bool `json:"success"`
	Error   struct {
		Code    string                 `json:"code"`
		Message string                 `json:"message"`
		Details []dto.ValidationDetail `json:"details"`
	} `json:"error"`
}

func TestSetupValidator(t *testing.T) {
	SetupValidator()

	v, ok := binding.Validator.Engine().(*validator.Validate)
	assert.True(t, ok)
	assert.NotNil(t, v)
}

func TestFormatValidationErrors(t *testing.T) {
	type purchaseInput struct {
		Unit     string          `json:"unit" binding:"required,oneof=g kg l ml"`
		Quantity decimal.Decimal `json:"quantity" binding:"required,gt=0"`
	}

	SetupValidator()

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var req purchaseInput
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantFields []string
	}{
		{"rejects zero quantity and unknown unit", `{"unit": "cup", "quantity": "0"}`, http.StatusBadRequest, []string{"unit", "quantity"}},
		{"rejects negative quantity", `{"unit": "kg", "quantity": "-1.5"}`, http.StatusBadRequest, []string{"quantity"}},
		{"rejects missing quantity", `{"unit": "kg"}`, http.StatusBadRequest, []string{"quantity"}},
		{"accepts a fractional quantity", `{"unit": "kg", "quantity": "0.25"}`, http.StatusOK, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantFields == nil {
				return
			}

			var resp validationEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, "Request validation failed", resp.Error.Message)

			var fields []string
			for _, d := range resp.Error.Details {
				fields = append(fields, d.Field)
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}
}

func TestHandleValidationError_MalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	type input struct {
		Name string `json:"name" binding:"required"`
	}

	router := gin.New()
	router.POST("/test", func(c *gin.Context) {
		var in input
		if err := c.ShouldBindJSON(&in); err != nil {
			HandleValidationError(c, err)
		}
	})

	req := httptest.NewRequest(http.MethodPost, "/test", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeBadRequest)
}

func TestGetValidationMessage(t *testing.T) {
	type sample struct {
		Required string `validate:"required"`
		Min      string `validate:"min=5"`
		Max      string `validate:"max=3"`
		OneOf    string `validate:"omitempty,oneof=a b c"`
		GT       int    `validate:"gt=0"`
		LTE      int    `validate:"lte=10"`
	}

	err := validator.New().Struct(sample{Min: "ab", Max: "abcdef", OneOf: "d", LTE: 11})
	require.Error(t, err)

	got := map[string]string{}
	for _, e := range err.(validator.ValidationErrors) {
		got[e.Field()] = getValidationMessage(e)
	}

	assert.Equal(t, "This field is required", got["Required"])
	assert.Equal(t, "Must be at least 5 characters", got["Min"])
	assert.Equal(t, "Must be at most 3 characters", got["Max"])
	assert.Equal(t, "Must be one of: a b c", got["OneOf"])
	assert.Equal(t, "Must be greater than 0", got["GT"])
	assert.Equal(t, "Must be less than or equal to 10", got["LTE"])
}
