package main

import (
	"log"
	"os"

	"ripple/internal/db"
	"ripple/internal/realtime"
	"ripple/internal/router"
	"ripple/internal/store"
	"ripple/internal/store/memory"
	"ripple/internal/store/postgres"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	st, err := openStore()
	if err != nil {
		log.Fatal(err)
	}
	defer st.Close()

	r := gin.Default()

	// Setup Sessions
	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		secret = "secret_key_change_me"
	}
	sessionStore := cookie.NewStore([]byte(secret))
	r.Use(sessions.Sessions("ripple_session", sessionStore))

	hub := realtime.NewHub()
	router.RegisterRoutes(r, st, hub)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Ripple server starting on :%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal(err)
	}
}

// openStore picks the backend: Postgres when DATABASE_URL is set, otherwise
// the in-memory store for local development.
func openStore() (store.Store, error) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Println("DATABASE_URL not set, using in-memory store")
		return memory.New(), nil
	}
	gormDB, err := db.Open(dsn)
	if err != nil {
		return nil, err
	}
	return postgres.New(gormDB), nil
}
