package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	api "github.com/AHsytraka/concours-app/internal/api/http"
	"github.com/AHsytraka/concours-app/internal/audit"
	auth "github.com/AHsytraka/concours-app/internal/auth/middleware"
	"github.com/AHsytraka/concours-app/internal/config"
	"github.com/AHsytraka/concours-app/internal/contest"
	"github.com/AHsytraka/concours-app/internal/db"
	"github.com/AHsytraka/concours-app/internal/policy"
	"github.com/AHsytraka/concours-app/internal/storage"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	if err := bootstrapAdmin(ctx, dbh, cfg); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	store := contest.NewSQLStore(dbh)
	events := audit.NewEventRepo(dbh)
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatalf("blob store: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Post("/auth/register", auth.RegisterHandler(dbh))

	// Protected API (JWT → role in context → access policy)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, true))

		pr.With(policy.RequireAuthenticated()).
			Get("/session/landing", api.LandingHandler())

		// Contest catalogue is visible to every authenticated role
		pr.With(policy.RequireAuthenticated()).
			Get("/contests", api.ListContestsHandler(store))
		pr.With(policy.RequireAuthenticated()).
			Get("/contests/{contestID}", api.GetContestHandler(store))

		pr.With(policy.Require(policy.RoleInstitutionAdmin, policy.RoleContestManager)).
			Post("/contests", api.CreateContestHandler(store))
		pr.With(policy.Require(policy.RoleInstitutionAdmin, policy.RoleUniversityAdmin)).
			Post("/contests/{contestID}/publish", api.PublishContestHandler(store, events))

		// Candidate flow
		pr.With(policy.Require(policy.RoleStudent)).
			Post("/contests/{contestID}/applications", api.ApplyHandler(store, events))
		pr.With(policy.Require(policy.RoleUniversityAdmin, policy.RoleInstitutionAdmin, policy.RoleContestManager)).
			Get("/contests/{contestID}/applications", api.ListApplicationsHandler(store))
		pr.With(policy.Require(policy.RoleUniversityAdmin, policy.RoleInstitutionAdmin)).
			Post("/applications/{applicationID}/decision", api.DecideApplicationHandler(store, events))

		// Grade entry and evaluation
		pr.With(policy.Guard(policy.RouteRequirement{
			Roles:    []policy.Role{policy.RoleContestManager},
			PageName: "Grade entry",
		})).Put("/contests/{contestID}/candidates/{candidateID}/grades", api.SaveGradesHandler(store, events))
		pr.With(policy.Require(policy.RoleContestManager, policy.RoleJuryMember, policy.RoleInstitutionAdmin)).
			Get("/contests/{contestID}/candidates/{candidateID}/grades", api.GetGradeSheetHandler(store))
		pr.With(policy.Require(policy.RoleContestManager, policy.RoleJuryMember, policy.RoleInstitutionAdmin)).
			Get("/contests/{contestID}/candidates/{candidateID}/evaluation", api.EvaluationHandler(store))

		// Published rankings are open to every authenticated role
		pr.With(policy.RequireAuthenticated()).
			Get("/contests/{contestID}/ranking", api.RankingHandler(store))

		// Transcript documents
		pr.Route("/documents", func(dr chi.Router) {
			api.MountDocuments(dr, bs, store)
		})

		// Users
		pr.With(policy.Require(policy.RoleUniversityAdmin, policy.RoleInstitutionAdmin)).
			Post("/users", api.CreateStaffUserHandler(dbh))
		pr.With(policy.Require(policy.RoleUniversityAdmin, policy.RoleInstitutionAdmin)).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(policy.RequireAuthenticated()).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}

// bootstrapAdmin guarantees at least one university admin exists so a fresh
// deployment can log in.
func bootstrapAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) error {
	var exist int
	err := dbh.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, cfg.AdminUser).Scan(&exist)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id,username,password_hash,role,display_name,created_at)
		 VALUES ($1,$2,$3,$4,'Platform admin',$5)`,
		uuid.NewString(), cfg.AdminUser, cfg.AdminPassHash, string(policy.RoleUniversityAdmin), time.Now().Unix())
	return err
}
