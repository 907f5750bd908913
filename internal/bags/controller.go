package bags

import (
	"errors"
	"net/http"

	"packly/internal/shared/middleware"
	"packly/internal/shared/utils/response"
	"packly/pkg/ability"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

type Controller struct {
	service   Service
	validator *validator.Validate
}

func NewController(service Service) *Controller {
	return &Controller{
		service:   service,
		validator: validator.New(),
	}
}

func viewerFrom(ctx *gin.Context) Viewer {
	return Viewer{
		ID:   ctx.GetString(middleware.CtxUserID),
		Role: ability.Role(ctx.GetString(middleware.CtxUserRole)),
	}
}

func (c *Controller) Create(ctx *gin.Context) {
	var req CreateBagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	bag, err := c.service.Create(ctx.Request.Context(), viewerFrom(ctx), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusCreated, "Bag created successfully", bag)
}

func (c *Controller) List(ctx *gin.Context) {
	out, err := c.service.List(ctx.Request.Context(), viewerFrom(ctx))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	response.SuccessWithMeta(ctx, http.StatusOK, "Bags retrieved successfully", out, gin.H{
		"count": len(out),
	})
}

func (c *Controller) Get(ctx *gin.Context) {
	bag, err := c.service.Get(ctx.Request.Context(), viewerFrom(ctx), ctx.Param("id"))
	if err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusOK, "Bag retrieved successfully", bag)
}

func (c *Controller) Update(ctx *gin.Context) {
	var req UpdateBagRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	bag, err := c.service.Update(ctx.Request.Context(), viewerFrom(ctx), ctx.Param("id"), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusOK, "Bag updated successfully", bag)
}

func (c *Controller) Delete(ctx *gin.Context) {
	if err := c.service.Delete(ctx.Request.Context(), viewerFrom(ctx), ctx.Param("id")); err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusOK, "Bag deleted successfully", nil)
}

func (c *Controller) AddItem(ctx *gin.Context) {
	var req AddItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	item, err := c.service.AddItem(ctx.Request.Context(), viewerFrom(ctx), ctx.Param("id"), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusCreated, "Item added successfully", item)
}

func (c *Controller) UpdateItem(ctx *gin.Context) {
	var req UpdateItemRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.Fail(ctx, http.StatusBadRequest, response.CodeInvalidInput, "Request body is not valid JSON")
		return
	}
	if err := c.validator.Struct(&req); err != nil {
		response.FailWithDetails(ctx, http.StatusBadRequest, response.CodeInvalidInput,
			"Fix the highlighted fields and retry", err.Error())
		return
	}

	item, err := c.service.UpdateItem(ctx.Request.Context(), viewerFrom(ctx),
		ctx.Param("id"), ctx.Param("itemId"), &req)
	if err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusOK, "Item updated successfully", item)
}

func (c *Controller) DeleteItem(ctx *gin.Context) {
	if err := c.service.DeleteItem(ctx.Request.Context(), viewerFrom(ctx),
		ctx.Param("id"), ctx.Param("itemId")); err != nil {
		c.fail(ctx, err)
		return
	}
	response.Success(ctx, http.StatusOK, "Item removed successfully", nil)
}

func (c *Controller) fail(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrBagNotFound):
		response.Fail(ctx, http.StatusNotFound, response.CodeInvalidInput, "No bag matches this id")
	case errors.Is(err, ErrItemNotFound):
		response.Fail(ctx, http.StatusNotFound, response.CodeInvalidInput, "No item matches this id")
	case errors.Is(err, ErrForbidden):
		response.Fail(ctx, http.StatusForbidden, response.CodeForbidden, "This bag belongs to another user")
	default:
		response.Fail(ctx, http.StatusInternalServerError, response.CodeInternal, "Operation failed, try again")
	}
}
