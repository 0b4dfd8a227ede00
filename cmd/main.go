package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"chatrelay/backend/internal/api/handler"
	"chatrelay/backend/internal/broker"
	"chatrelay/backend/internal/chathub"
	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/engine"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"
)

func setupDependencies(cfg *config.Config) (*gorm.DB, *redis.Client) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect PostgreSQL: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Fatalf("Failed to connect Redis: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.LinkQueue{},
		&models.Topic{},
		&models.TopicMembership{},
		&models.QueueMessage{},
		&models.TopicMessage{},
	)
	if err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	log.Println("Database and Redis connections established, migrations complete.")
	return db, rdb
}

func main() {
	log.Println("Starting ChatRelay Backend...")

	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}
	cfg := config.Load()

	db, rdb := setupDependencies(cfg)
	store := storage.NewService(db, rdb)

	hub := chathub.NewManager(store)
	go hub.Run()
	hub.StartPubSubListener(store)

	bridge := broker.NewClient(cfg.BrokerURL, cfg.ProducerURL, cfg.ConsumerURL, cfg.CallbackBase, cfg.CallTimeout)
	binder := engine.NewBinder(engine.NewResolver(store), bridge, store)

	r := gin.Default()
	h := handler.NewHandler(store, binder, hub, cfg.JWTSecret, cfg.TokenTTL)

	r.POST("/register", h.Register)
	r.POST("/login", h.Login)

	// Inbound callback fed by the broker proxy; the conversation id in the
	// path is the room key.
	r.POST("/messages/:conversation_id", h.ReceiveMessage)

	auth := r.Group("/", h.AuthRequired())
	auth.POST("/logout", h.Logout)
	auth.GET("/users", h.ListUsers)
	auth.POST("/add_friend", h.AddFriend)
	auth.POST("/create_group", h.CreateGroup)
	auth.POST("/connect", h.Connect)
	auth.POST("/send_message", h.SendMessage)
	auth.POST("/disconnect", h.Disconnect)
	auth.GET("/load_messages", h.LoadMessages)
	auth.POST("/load_messages", h.LoadMessages)
	auth.GET("/ws", h.ServeWebSocket)

	server := &http.Server{
		Addr:           cfg.ListenAddr,
		Handler:        r,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	log.Fatal(server.ListenAndServe())
}
