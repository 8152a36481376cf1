package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/salehmohamadkhani/cafe/internal/domain/shared/service"
	"github.com/salehmohamadkhani/cafe/internal/infrastructure/logger"
	"github.com/salehmohamadkhani/cafe/internal/interfaces/http/dto"
	"github.com/shopspring/decimal"
)

// UnitConversionResponse is the body of GET /units/convert
type UnitConversionResponse struct {
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           string          `json:"unit"`
	TargetQuantity decimal.Decimal `json:"target_quantity"`
	TargetUnit     string          `json:"target_unit"`
	PassThrough    bool            `json:"pass_through"`
}

// ConvertUnits handles GET /units/convert?quantity=&from=&to=.
// Units of different dimensions answer the quantity unchanged with pass_through set.
func (h *SystemHandler) ConvertUnits(c *gin.Context) {
	units := service.NewUnitConversionService(logger.GetGinLogger(c))

	quantity, err := decimal.NewFromString(c.Query("quantity"))
	if err != nil {
		c.JSON(http.StatusBadRequest, fieldError(dto.ErrCodeInvalidInput, "Invalid quantity", "quantity", getRequestID(c)))
		return
	}
	if err := units.ValidateUnit("from", c.Query("from")); err != nil {
		h.HandleError(c, err)
		return
	}
	if err := units.ValidateUnit("to", c.Query("to")); err != nil {
		h.HandleError(c, err)
		return
	}

	res, err := units.Convert(quantity, c.Query("from"), c.Query("to"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, UnitConversionResponse{
		Quantity:       res.SourceQuantity,
		Unit:           res.SourceUnitCode,
		TargetQuantity: res.TargetQuantity,
		TargetUnit:     res.TargetUnitCode,
		PassThrough:    res.PassThrough,
	})
}
