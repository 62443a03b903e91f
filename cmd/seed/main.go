// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"bibliolab/internal/config"
	"bibliolab/internal/core/apperror"
	appctx "bibliolab/internal/core/context"
	"bibliolab/internal/core/entity"
	"bibliolab/internal/core/id"
	"bibliolab/internal/core/security"
	"bibliolab/internal/core/types"
	"bibliolab/internal/domain/audit"
	"bibliolab/internal/domain/auth"
	"bibliolab/internal/domain/catalog/author"
	"bibliolab/internal/domain/catalog/book"
	"bibliolab/internal/domain/catalog/genre"
	"bibliolab/internal/domain/lab/experiment"
	"bibliolab/internal/domain/people/person"
	"bibliolab/internal/domain/study"
	"bibliolab/internal/infrastructure/storage/postgres"
	"bibliolab/internal/infrastructure/storage/postgres/auth_repo"
	"bibliolab/internal/infrastructure/storage/postgres/entity_repo"
	"bibliolab/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)

	if cfg.Database.URL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)
	s := &seeder{
		log:       log,
		txManager: txManager,
		users:     auth_repo.NewUserRepo(txManager),
		auth: auth.NewService(auth_repo.NewUserRepo(txManager), auth_repo.NewTokenRepo(txManager),
			txManager, postgres.NewOutboxRecorder(txManager), auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWT.Secret)),
			auth.DefaultServiceConfig()),
	}

	admin, err := s.seedAdminUser(ctx)
	if err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := s.seedDemoData(ctx, admin); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

type seeder struct {
	log       *logger.Logger
	txManager *postgres.TxManager
	users     *auth_repo.UserRepo
	auth      *auth.Service
}

func (s *seeder) seedAdminUser(ctx context.Context) (*auth.User, error) {
	username := getEnv("ADMIN_USERNAME", "admin")
	email := getEnv("ADMIN_EMAIL", "admin@bibliolab.local")
	password := getEnv("ADMIN_PASSWORD", "Admin123!")

	existing, err := s.users.GetByUsername(ctx, username)
	if err == nil {
		s.log.Infow("admin user already exists", "username", username, "user_id", existing.ID)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check admin exists: %w", err)
	}

	admin, err := s.auth.CreateAdmin(ctx, auth.RegisterRequest{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, err
	}

	s.log.Infow("admin user created", "username", username, "user_id", admin.ID)
	return admin, nil
}

func (s *seeder) seedDemoData(ctx context.Context, admin *auth.User) error {
	s.log.Info("seeding demo data...")

	ctx = appctx.WithUser(ctx, &appctx.UserContext{
		UserID:   admin.ID.String(),
		Username: admin.Username,
		Email:    admin.Email,
		IsAdmin:  true,
	})

	policy, err := security.NewCELPolicy("")
	if err != nil {
		return err
	}
	recorder := audit.Recorders{postgres.NewOutboxRecorder(s.txManager)}
	now := time.Now().UTC()

	genres := genre.NewService(entity_repo.NewGenreRepo(s.txManager), nil)
	var genreIDs []id.ID
	for _, name := range []string{"Fiction", "Science", "History"} {
		g, err := genres.Create(ctx, name)
		if apperror.HasCode(err, apperror.CodeDuplicate) || apperror.HasCode(err, apperror.CodeConflict) {
			s.log.Infow("genre already exists", "name", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("create genre %s: %w", name, err)
		}
		genreIDs = append(genreIDs, g.ID)
	}

	authors := author.NewService(entity_repo.NewAuthorRepo(s.txManager), s.txManager, policy, recorder)
	writer := &author.Author{
		BaseEntity: entity.NewBaseEntity(now),
		Name:       "Ursula K. Le Guin",
		Bio:        "Author of speculative fiction.",
	}
	if err := authors.Create(ctx, writer); err != nil {
		return fmt.Errorf("create author: %w", err)
	}

	books := book.NewService(book.ServiceDeps{
		Repo:      entity_repo.NewBookRepo(s.txManager),
		TxManager: s.txManager,
		Policy:    policy,
		Recorder:  recorder,
		Genres:    genres,
		Authors:   authors,
	})
	for _, b := range []*book.Book{
		{
			BaseEntity:      entity.NewBaseEntity(now),
			Title:           "The Dispossessed",
			AuthorID:        writer.ID,
			PublicationDate: time.Date(1974, 5, 1, 0, 0, 0, 0, time.UTC),
			ISBN:            "9780060512750",
			Price:           types.MustMoney("15.99"),
			Pages:           387,
			Rating:          4.6,
			AverageRating:   4.5,
			GenreIDs:        genreIDs,
		},
		{
			BaseEntity:      entity.NewBaseEntity(now),
			Title:           "The Left Hand of Darkness",
			AuthorID:        writer.ID,
			PublicationDate: time.Date(1969, 3, 1, 0, 0, 0, 0, time.UTC),
			ISBN:            "9780441478125",
			Price:           types.MustMoney("12.50"),
			Pages:           304,
			Rating:          4.4,
			AverageRating:   4.3,
		},
	} {
		if err := books.Create(ctx, b); err != nil {
			return fmt.Errorf("create book %q: %w", b.Title, err)
		}
	}

	people := person.NewService(person.ServiceDeps{
		Repo:      entity_repo.NewPersonRepo(s.txManager),
		TxManager: s.txManager,
		Policy:    policy,
		Recorder:  recorder,
	})
	if err := people.Create(ctx, &person.Person{
		BaseEntity: entity.NewBaseEntity(now),
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Email:      "ada@bibliolab.local",
		BirthDate:  time.Date(1990, 12, 10, 0, 0, 0, 0, time.UTC),
		Gender:     person.GenderFemale,
	}); err != nil && !apperror.HasCode(err, apperror.CodeDuplicate) {
		return fmt.Errorf("create person: %w", err)
	}

	experiments := experiment.NewService(entity_repo.NewExperimentRepo(s.txManager), s.txManager, policy, recorder, nil)
	start := now.Truncate(time.Hour).Add(24 * time.Hour)
	if err := experiments.Create(ctx, &experiment.Experiment{
		BaseEntity: entity.NewBaseEntity(now),
		Name:       "Enzyme kinetics",
		StartDate:  start,
		EndDate:    start.Add(6 * time.Hour),
	}); err != nil {
		return fmt.Errorf("create experiment: %w", err)
	}

	studies := study.NewService(entity_repo.NewStudyRepo(s.txManager), s.txManager, policy, recorder, nil)
	if err := studies.Create(ctx, &study.Study{
		BaseEntity:  entity.NewBaseEntity(now),
		Title:       "Reading habits",
		Description: "Longitudinal survey of reading habits.",
		StartDate:   now,
		EndDate:     now.AddDate(0, 1, 0),
	}); err != nil {
		return fmt.Errorf("create study: %w", err)
	}

	s.log.Info("demo data seeded")
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
