package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Jamesscott34/DevopsCA/config"
	"github.com/Jamesscott34/DevopsCA/handlers"
	"github.com/Jamesscott34/DevopsCA/middleware"
	"github.com/Jamesscott34/DevopsCA/models"
	"github.com/Jamesscott34/DevopsCA/service"
	"github.com/Jamesscott34/DevopsCA/store"
	"github.com/Jamesscott34/DevopsCA/utils"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config:", err)
	}

	ctx := context.Background()
	db, err := store.NewMongoDB(ctx, cfg.MongoURI, cfg.DBName)
	if err != nil {
		log.Fatal("mongodb:", err)
	}
	defer func() {
		if err := db.Disconnect(context.Background()); err != nil {
			log.Println("mongodb disconnect:", err)
		}
	}()
	if err := db.EnsureIndexes(ctx); err != nil {
		log.Fatal("indexes:", err)
	}
	if err := ensureAdmin(ctx, db, cfg); err != nil {
		log.Fatal("admin seed:", err)
	}

	var mailer service.Mailer
	if cfg.SMTPHost != "" {
		mailer = service.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	} else {
		log.Println("warning: SMTP_HOST not set; email notifications disabled")
	}

	var covers *service.CoverStore
	if cfg.S3Bucket != "" {
		covers, err = service.NewCoverStore(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3AccessKeyID, cfg.S3SecretKey)
		if err != nil {
			log.Fatal("cover store:", err)
		}
	} else {
		log.Println("warning: AWS_S3_BUCKET not set; cover archiving disabled")
	}

	dispatcher := &service.Dispatcher{Store: db, Mail: mailer}

	authHandler := &handlers.AuthHandler{DB: db, JWTSecret: cfg.JWTSecret, Mail: mailer}
	usersHandler := &handlers.UsersHandler{DB: db}
	booksHandler := &handlers.BooksHandler{DB: db, Covers: covers}
	catalogHandler := &handlers.CatalogHandler{DB: db, Library: service.NewOpenLibraryClient(), Covers: covers}
	notificationsHandler := &handlers.NotificationsHandler{DB: db, Dispatcher: dispatcher}
	statsHandler := &handlers.StatsHandler{DB: db}

	r := chi.NewRouter()
	r.Use(middleware.AllowAll())
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		// Public so <img src> works without a bearer token.
		r.Get("/books/{id}/cover", booksHandler.Cover)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTSecret, db))

			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Get("/me", usersHandler.Me)
			r.Put("/me", usersHandler.UpdateMe)
			r.Delete("/me", usersHandler.DeleteMe)

			r.Get("/books", booksHandler.List)
			r.Post("/books", booksHandler.Create)
			r.Get("/books/read", booksHandler.ReadBooks)
			r.Get("/books/unread", booksHandler.UnreadBooks)
			r.Get("/books/{id}", booksHandler.Get)
			r.Put("/books/{id}", booksHandler.Update)
			r.Delete("/books/{id}", booksHandler.Delete)
			r.Post("/books/{id}/toggle-read", booksHandler.ToggleRead)

			r.Get("/tags", catalogHandler.Tags)
			r.Get("/catalog/search", catalogHandler.Search)
			r.Post("/catalog/import", catalogHandler.Import)

			r.Get("/notifications", notificationsHandler.List)
			r.Post("/notifications/{id}/read", notificationsHandler.MarkRead)
			r.Post("/notifications/read-all", notificationsHandler.MarkAllRead)
			r.Get("/notifications/unread-count", notificationsHandler.UnreadCount)

			r.Get("/stats/books", statsHandler.BookStats)

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/users", usersHandler.ListUsers)
				r.Delete("/users/{id}", usersHandler.DeleteUser)
				r.Put("/users/{id}/email", usersHandler.ChangeEmail)
				r.Put("/users/{id}/referral", usersHandler.SetReferral)
				r.Get("/users/{id}/books", usersHandler.UserBooks)
				r.Post("/notifications/dispatch", notificationsHandler.Dispatch)
				r.Get("/stats/system", statsHandler.SystemStats)
			})
		})
	})

	server := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	go func() {
		log.Println("server listening on :" + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Println("shutdown:", err)
	}
}

// ensureAdmin seeds the bootstrap admin account when it does not exist yet.
func ensureAdmin(ctx context.Context, db *store.DB, cfg *config.Config) error {
	existing, err := db.UserByUsername(ctx, cfg.AdminUsername)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	if cfg.AdminPassword == "" {
		log.Println("warning: ADMIN_PASSWORD not set; skipping admin seed")
		return nil
	}
	hash, err := utils.HashPassword(cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username:  cfg.AdminUsername,
		Email:     cfg.AdminEmail,
		Password:  hash,
		Role:      models.RoleAdmin,
		CreatedAt: time.Now(),
	}
	if _, err := db.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Printf("seeded admin user %q", cfg.AdminUsername)
	return nil
}
