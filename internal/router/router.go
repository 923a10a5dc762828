package router

import (
	"ripple/internal/handlers"
	"ripple/internal/middleware"
	"ripple/internal/realtime"
	"ripple/internal/services"
	"ripple/internal/store"
	"ripple/internal/utils"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the JSON API. Everything domain-facing lives under
// /api; the websocket upgrade sits at /ws because proxies treat it
// differently from plain HTTP routes.
func RegisterRoutes(r *gin.Engine, st store.Store, hub *realtime.Hub) {
	dispatcher := services.NewDispatcher(st, hub)
	ledger := services.NewVoteLedger(st, dispatcher)
	graph := services.NewFollowGraph(st, dispatcher)
	feedCache, _ := utils.NewCache(256) // errors only on a non-positive size
	paginator := services.NewFeedPaginator(st, feedCache)
	comments := services.NewComments(st, dispatcher)

	authHandler := handlers.NewAuthHandler(st)
	postHandler := handlers.NewPostHandler(st, ledger, paginator)
	voteHandler := handlers.NewVoteHandler(ledger)
	followHandler := handlers.NewFollowHandler(graph)
	feedHandler := handlers.NewFeedHandler(paginator)
	commentHandler := handlers.NewCommentHandler(comments)
	notificationHandler := handlers.NewNotificationHandler(st)
	wsHandler := handlers.NewWSHandler(hub)

	r.Use(middleware.LoadUser(st))

	api := r.Group("/api")
	{
		api.POST("/auth/signup", authHandler.Signup)
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/logout", authHandler.Logout)

		api.GET("/feed", feedHandler.Feed)
		api.GET("/posts", postHandler.List)
		api.GET("/posts/:postId", postHandler.Get)
		api.GET("/p/:pid", postHandler.GetByPid)
		api.GET("/posts/:postId/comments", commentHandler.List)
		api.GET("/users/:userId/followers", followHandler.Followers)
		api.GET("/users/:userId/following", followHandler.Following)
	}

	authorized := r.Group("/api")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/posts", postHandler.Create)
		authorized.DELETE("/posts/:postId", postHandler.Delete)
		authorized.PUT("/posts/:postId/upvote", voteHandler.Upvote)
		authorized.PUT("/posts/:postId/downvote", voteHandler.Downvote)

		authorized.POST("/follow-relations", followHandler.Follow)
		authorized.DELETE("/follow-relations/:targetId", followHandler.Unfollow)

		authorized.POST("/comments", commentHandler.Create)
		authorized.POST("/comments/:commentId/replies", commentHandler.Reply)
		authorized.PUT("/comments/:commentId/like", commentHandler.Like)
		authorized.DELETE("/comments/:commentId", commentHandler.Delete)

		authorized.GET("/notifications", notificationHandler.List)
		authorized.POST("/notifications/:notificationId/read", notificationHandler.Read)
		authorized.POST("/notifications/read-all", notificationHandler.ReadAll)
	}

	ws := r.Group("/ws")
	ws.Use(middleware.AuthRequired())
	ws.GET("", wsHandler.Connect)
}
