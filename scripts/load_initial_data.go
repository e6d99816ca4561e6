package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"dao-tracker-backend/internal/auth"
	"dao-tracker-backend/internal/config"
	"dao-tracker-backend/internal/database"
	"dao-tracker-backend/internal/models"
	"dao-tracker-backend/internal/repository"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Simple structures that directly match the seed file schema
type UserData struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type TeamMemberData struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Role  string `yaml:"role"`
	Email string `yaml:"email,omitempty"`
}

type TaskData struct {
	Name         string   `yaml:"name"`
	IsApplicable bool     `yaml:"is_applicable"`
	AssignedTo   []string `yaml:"assigned_to,omitempty"`
}

type DaoData struct {
	ObjetDossier         string           `yaml:"objet_dossier"`
	Reference            string           `yaml:"reference"`
	AutoriteContractante string           `yaml:"autorite_contractante"`
	DateDepot            string           `yaml:"date_depot"`
	Equipe               []TeamMemberData `yaml:"equipe,omitempty"`
	Tasks                []TaskData       `yaml:"tasks,omitempty"`
}

type SeedFile struct {
	Users []UserData `yaml:"users"`
	Daos  []DaoData  `yaml:"daos"`
}

func main() {
	path := "seed/initial_data.yaml"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatalf("read seed file: %v", err)
	}
	var seed SeedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("parse seed file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.Probe(cfg.MongoURI, cfg.MongoDatabase, time.Duration(cfg.MongoProbeTimeout)*time.Second)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	if db == nil {
		log.Fatal("seeding requires a reachable MongoDB instance")
	}
	defer database.Disconnect(db)

	stores := repository.New(db)
	allocator := repository.NewSequenceAllocator(stores.Daos)
	ctx := context.Background()

	for _, u := range seed.Users {
		if err := seedUser(ctx, stores, u); err != nil {
			log.Fatalf("seed user %s: %v", u.Email, err)
		}
	}
	for _, d := range seed.Daos {
		if err := seedDao(ctx, stores, allocator, d); err != nil {
			log.Fatalf("seed dao %s: %v", d.Reference, err)
		}
	}

	fmt.Printf("seeded %d users and %d daos\n", len(seed.Users), len(seed.Daos))
}

func seedUser(ctx context.Context, stores *repository.Stores, data UserData) error {
	existing, err := stores.Users.GetByEmail(ctx, data.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		log.Printf("user %s already exists, skipping", data.Email)
		return nil
	}

	hash, err := auth.HashPassword(data.Password)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	user := &models.User{
		ID:        uuid.NewString(),
		Name:      data.Name,
		Email:     data.Email,
		Role:      models.UserRole(data.Role),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := stores.Users.Create(ctx, user); err != nil {
		return err
	}
	return stores.Credentials.Upsert(ctx, &models.Credential{
		UserID:       user.ID,
		PasswordHash: hash,
		UpdatedAt:    now,
	})
}

func seedDao(ctx context.Context, stores *repository.Stores, allocator *repository.SequenceAllocator, data DaoData) error {
	dateDepot, err := time.Parse("2006-01-02", data.DateDepot)
	if err != nil {
		return fmt.Errorf("date_depot %q: %w", data.DateDepot, err)
	}

	equipe := make([]models.TeamMember, len(data.Equipe))
	for i, m := range data.Equipe {
		equipe[i] = models.TeamMember{
			ID:    m.ID,
			Name:  m.Name,
			Role:  models.TeamRole(m.Role),
			Email: m.Email,
		}
	}
	tasks := make([]models.Task, len(data.Tasks))
	for i, t := range data.Tasks {
		assigned := t.AssignedTo
		if assigned == nil {
			assigned = []string{}
		}
		tasks[i] = models.Task{
			ID:           i + 1,
			Name:         t.Name,
			IsApplicable: t.IsApplicable,
			AssignedTo:   assigned,
		}
	}

	year := time.Now().Year()
	seq, err := allocator.Allocate(ctx, year)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	return stores.Daos.Create(ctx, &models.Dao{
		ID:                   uuid.NewString(),
		NumeroListe:          repository.FormatNumeroListe(year, seq),
		ObjetDossier:         data.ObjetDossier,
		Reference:            data.Reference,
		AutoriteContractante: data.AutoriteContractante,
		DateDepot:            dateDepot,
		Equipe:               equipe,
		Tasks:                tasks,
		CreatedAt:            now,
		UpdatedAt:            now,
	})
}
