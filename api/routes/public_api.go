package routes

import (
	"retwis/api/handlers"
	"retwis/api/middleware"

	"github.com/gin-gonic/gin"
)

func PublicApi(router *gin.Engine) *gin.RouterGroup {
	publicEndpoints := router.Group("/api/v1/")
	{
		publicEndpoints.POST("auth/register", handlers.Register)
		publicEndpoints.POST("auth/login", handlers.Login)
		publicEndpoints.POST("auth/logout", middleware.AuthMiddleware(), handlers.Logout)

		publicEndpoints.GET("user/get/:name", middleware.OptionalAuthMiddleware(), handlers.UserGet)
		publicEndpoints.GET("user/new", handlers.NewUsers)

		// Посты и ленты
		publicEndpoints.POST("posts", middleware.AuthMiddleware(), handlers.PublishPost)
		publicEndpoints.GET("posts/:pid", handlers.GetPost)
		publicEndpoints.GET("posts/of/:name", handlers.GetUserPosts)
		publicEndpoints.GET("timeline", middleware.AuthMiddleware(), handlers.GetTimeline)
		publicEndpoints.GET("mentions", middleware.AuthMiddleware(), handlers.GetMentions)
		publicEndpoints.GET("timeline/global", handlers.GetGlobalTimeline)

		// Граф подписок
		publicEndpoints.POST("follow", middleware.AuthMiddleware(), handlers.Follow)
		publicEndpoints.POST("unfollow", middleware.AuthMiddleware(), handlers.Unfollow)
		publicEndpoints.GET("followers/:name", handlers.GetFollowers)
		publicEndpoints.GET("following/:name", handlers.GetFollowing)
		publicEndpoints.GET("also-followed/:name", middleware.AuthMiddleware(), handlers.AlsoFollowed)
		publicEndpoints.GET("common-followers/:name", middleware.AuthMiddleware(), handlers.CommonFollowers)

		// Push-события ленты
		publicEndpoints.GET("ws/feed", middleware.AuthMiddleware(), handlers.WSFeedHandler)
	}
	return publicEndpoints
}
