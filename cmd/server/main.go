package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Dias221467/Social_Backend/internal/config"
	"github.com/Dias221467/Social_Backend/internal/database"
	"github.com/Dias221467/Social_Backend/internal/handlers"
	"github.com/Dias221467/Social_Backend/internal/jobs"
	"github.com/Dias221467/Social_Backend/internal/realtime"
	"github.com/Dias221467/Social_Backend/internal/repository"
	"github.com/Dias221467/Social_Backend/internal/scheduler"
	"github.com/Dias221467/Social_Backend/internal/services"
	"github.com/Dias221467/Social_Backend/pkg/logger"
	"github.com/Dias221467/Social_Backend/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Load configuration from .env file
	cfg := config.LoadConfig()

	logger.InitLogger(cfg.LogLevel)
	logger.Log.Info("Logger initialized")

	db, err := database.ConnectDB(cfg)
	if err != nil {
		logger.Log.Fatalf("Database connection error: %v", err)
	}
	indexCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureIndexes(indexCtx, db); err != nil {
		logger.Log.Fatalf("Index creation error: %v", err)
	}
	cancel()

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db)
	friendRepo := repository.NewFriendRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	postRepo := repository.NewPostRepository(db)
	chatRepo := repository.NewChatRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	txRunner := repository.NewTxRunner(db)

	hub := realtime.NewHub(cfg.AllowedOrigins)

	// --- Services ---
	notificationService := services.NewNotificationService(notificationRepo, hub)
	activityService := services.NewActivityService(activityRepo)
	friendService := services.NewFriendService(friendRepo, userRepo, notificationService, activityService, txRunner)
	userService := services.NewUserService(userRepo, friendRepo, notificationRepo, activityRepo, txRunner)
	interactionService := services.NewInteractionService(postRepo, userRepo, notificationService, txRunner)
	chatService := services.NewChatService(chatRepo, friendService, hub)
	timelineService := services.NewTimelineService(postRepo, friendService)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService, cfg)
	friendHandler := handlers.NewFriendHandler(friendService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	postHandler := handlers.NewPostHandler(interactionService)
	chatHandler := handlers.NewChatHandler(chatService)
	activityHandler := handlers.NewActivityHandler(activityService)
	timelineHandler := handlers.NewTimelineHandler(timelineService)
	wsHandler := handlers.NewWSHandler(hub, cfg.JWTSecret)

	router := mux.NewRouter()
	router.Use(middleware.LoggingMiddleware)

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	// The socket outlives any request timeout, so it stays outside the api router.
	router.HandleFunc("/ws", wsHandler.ServeWS).Methods("GET")

	api := router.NewRoute().Subrouter()
	api.Use(middleware.TimeoutMiddleware(cfg.RequestTimeout))

	api.HandleFunc("/auth/register", userHandler.RegisterUserHandler).Methods("POST")
	api.HandleFunc("/auth/login", userHandler.LoginUserHandler).Methods("POST")

	// Protected user routes (only authenticated users can access)
	protected := api.NewRoute().Subrouter()
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protected.Use(middleware.UpdateLastActiveMiddleware(userService))

	protected.HandleFunc("/users", userHandler.GetUserByUsernameHandler).Methods("GET")
	protected.HandleFunc("/users/search", userHandler.SearchUsersHandler).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.GetUserHandler).Methods("GET")
	protected.HandleFunc("/users/{id}", userHandler.UpdateUserHandler).Methods("PATCH")
	protected.HandleFunc("/users/{id}", userHandler.DeleteUserHandler).Methods("DELETE")
	protected.HandleFunc("/users/{id}/password", userHandler.ChangePasswordHandler).Methods("PUT")
	protected.HandleFunc("/users/{id}/timeline", timelineHandler.GetTimelineHandler).Methods("GET")

	// Friend graph
	protected.HandleFunc("/users/{id}/graph", friendHandler.GetGraphHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/friend-requests/{targetId}", friendHandler.SendFriendRequestHandler).Methods("POST")
	protected.HandleFunc("/users/{id}/friend-requests/{targetId}", friendHandler.CancelFriendRequestHandler).Methods("DELETE")
	protected.HandleFunc("/users/{id}/friend-requests/{requesterId}/accept", friendHandler.AcceptFriendRequestHandler).Methods("POST")
	protected.HandleFunc("/users/{id}/friend-requests/{requesterId}/reject", friendHandler.RejectFriendRequestHandler).Methods("POST")
	protected.HandleFunc("/users/{id}/friends", friendHandler.GetFriendsHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/friends/search", friendHandler.SearchFriendsHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/friends/{friendId}", friendHandler.RemoveFriendHandler).Methods("DELETE")
	protected.HandleFunc("/users/{id}/friend-suggestions", friendHandler.SuggestFriendsHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/mutual-friends/{otherId}", friendHandler.GetMutualFriendsHandler).Methods("GET")

	// Notifications
	protected.HandleFunc("/users/{id}/notifications", notificationHandler.GetNotificationsHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/notifications/{notificationId}/read", notificationHandler.MarkAsReadHandler).Methods("PATCH")

	protected.HandleFunc("/users/{id}/activity", activityHandler.GetActivityHandler).Methods("GET")

	// Direct messages
	protected.HandleFunc("/users/{id}/messages/unseen", chatHandler.GetUnseenHandler).Methods("GET")
	protected.HandleFunc("/users/{id}/messages/{friendId}/seen", chatHandler.MarkSeenHandler).Methods("PATCH")
	protected.HandleFunc("/users/{id}/messages/{friendId}", chatHandler.SendMessageHandler).Methods("POST")
	protected.HandleFunc("/users/{id}/messages/{friendId}", chatHandler.GetChatHistoryHandler).Methods("GET")

	// Posts
	protected.HandleFunc("/posts", postHandler.CreatePostHandler).Methods("POST")
	protected.HandleFunc("/posts/{id}/like", postHandler.ToggleLikeHandler).Methods("PUT")
	protected.HandleFunc("/posts/{id}/comments", postHandler.AddCommentHandler).Methods("POST")
	protected.HandleFunc("/posts/{id}/comments/{commentId}", postHandler.DeleteCommentHandler).Methods("DELETE")

	sweeper := jobs.NewOrphanSweeper(userService, time.Minute)
	sweepCron, err := scheduler.StartSweepCron(cfg.SweepSchedule, sweeper)
	if err != nil {
		logger.Log.Fatalf("Invalid sweep schedule %q: %v", cfg.SweepSchedule, err)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type", middleware.RequestIDHeader},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           c.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Infof("Server running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatalf("Server error: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Log.Info("Shutting down")
	<-sweepCron.Stop().Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("Graceful shutdown failed")
	}
	if err := db.Client().Disconnect(shutdownCtx); err != nil {
		logger.Log.WithError(err).Error("MongoDB disconnect failed")
	}
}
