package bags

import (
	"packly/internal/shared/config"
	"packly/internal/shared/middleware"
	"packly/pkg/ability"
	"packly/pkg/token"

	"github.com/gin-gonic/gin"
)

// SetupRoutes registers all bag routes behind the session and ability guards.
func SetupRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config,
	codec *token.Codec, store middleware.UserLookup, resolver ability.Resolver) {

	bagGroup := rg.Group("/bags")
	bagGroup.Use(middleware.SessionAuth(cfg, codec, store))
	{
		bagGroup.GET("",
			middleware.RequireAbility(resolver, ability.ActionRead, ability.SubjectBag),
			controller.List)
		bagGroup.POST("",
			middleware.RequireAbility(resolver, ability.ActionCreate, ability.SubjectBag),
			controller.Create)
		bagGroup.GET("/:id",
			middleware.RequireAbility(resolver, ability.ActionRead, ability.SubjectBag),
			controller.Get)
		bagGroup.PUT("/:id",
			middleware.RequireAbility(resolver, ability.ActionUpdate, ability.SubjectBag),
			controller.Update)
		bagGroup.DELETE("/:id",
			middleware.RequireAbility(resolver, ability.ActionDelete, ability.SubjectBag),
			controller.Delete)

		bagGroup.POST("/:id/items",
			middleware.RequireAbility(resolver, ability.ActionUpdate, ability.SubjectItem),
			controller.AddItem)
		bagGroup.PUT("/:id/items/:itemId",
			middleware.RequireAbility(resolver, ability.ActionUpdate, ability.SubjectItem),
			controller.UpdateItem)
		bagGroup.DELETE("/:id/items/:itemId",
			middleware.RequireAbility(resolver, ability.ActionDelete, ability.SubjectItem),
			controller.DeleteItem)
	}
}
