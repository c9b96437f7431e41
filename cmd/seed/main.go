package main

import (
	"context"
	"errors"

	"github.com/polbel-next/internal/app"
	"github.com/polbel-next/internal/config"
	"github.com/polbel-next/internal/constants"
	"github.com/polbel-next/internal/logger"
	"github.com/polbel-next/internal/models"
	"github.com/polbel-next/internal/repository"
	"github.com/polbel-next/internal/schema"
	"github.com/polbel-next/internal/service"
)

// seedActor 种子数据以管理员身份写入
var seedActor = &service.Actor{AdminID: 1, Email: "seed@localhost"}

var siteContent = map[string]string{
	"hero_title":          "Materiały budowlane i wynajem sprzętu",
	"hero_subtitle":       "Dostawa na budowę w 24 godziny",
	"hero_cta_primary":    "Zobacz ofertę",
	"hero_cta_secondary":  "Skontaktuj się",
	"company_description": "Od lat zaopatrujemy firmy i klientów indywidualnych w kruszywa, cement i sprzęt.",
	"contact_phone":       "+48 600 000 000",
	"contact_email":       "biuro@polbel.pl",
	"contact_address":     "ul. Przemysłowa 10, Białystok",
	"contact_hours":       "Pn-Pt 7:00-17:00, Sob 8:00-13:00",
	"stat_years":          "15",
	"stat_equipment":      "120",
	"stat_area":           "podlaskie",
}

var products = []service.Record{
	{
		"name":              "Piasek płukany 0-2 mm",
		"slug":              "piasek-plukany-0-2",
		"short_description": "Do betonu i zapraw",
		"price":             "89.00",
		"price_unit":        "m3",
		"category":          constants.ProductCategoryMaterials,
		"featured":          true,
	},
	{
		"name":              "Cement CEM II 42,5R",
		"slug":              "cement-cem-ii-42-5r",
		"short_description": "Worek 25 kg",
		"price":             "21.50",
		"price_unit":        "szt",
		"category":          constants.ProductCategoryMaterials,
	},
	{
		"name":              "Minikoparka 1,8 t",
		"slug":              "minikoparka-1-8t",
		"short_description": "Wynajem z operatorem lub bez",
		"price":             "450.00",
		"price_unit":        "dzień",
		"category":          constants.ProductCategoryRental,
	},
	{
		"name":       "Transport wywrotką",
		"slug":       "transport-wywrotka",
		"price":      "6.50",
		"price_unit": "mb",
		"category":   constants.ProductCategoryTransport,
	},
}

var posts = []service.Record{
	{
		"title":        "Jak dobrać kruszywo do betonu",
		"slug":         "jak-dobrac-kruszywo-do-betonu",
		"excerpt":      "Frakcje, płukanie i proporcje w praktyce.",
		"content":      "Dobór kruszywa zaczyna się od przeznaczenia betonu.",
		"category":     constants.PostCategoryGuides,
		"tags":         []string{"beton", "kruszywo"},
		"author_name":  "Zespół Polbel",
		"publish_date": "2024-03-01",
		"published":    true,
		"read_time":    5,
	},
	{
		"title":        "Nowa flota minikoparek",
		"slug":         "nowa-flota-minikoparek",
		"excerpt":      "Do wypożyczalni dołączyły trzy nowe maszyny.",
		"category":     constants.PostCategoryNews,
		"author_name":  "Zespół Polbel",
		"publish_date": "2024-04-15",
		"published":    true,
		"read_time":    2,
	},
}

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	defer logger.Sync()
	stdLog := logger.StdLogger()

	db, err := app.OpenDatabase(cfg)
	if err != nil {
		stdLog.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = models.CloseDB(db) }()

	admin := cfg.DefaultAdmin
	if err := models.EnsureDefaultAdmin(db, admin.Name, admin.Email, admin.Password); err != nil {
		stdLog.Printf("Failed to create default admin: %v", err)
	}

	ctx := context.Background()
	entities := service.NewEntityService(repository.NewEntityRepository(db))

	for key, value := range siteContent {
		record := service.Record{"section_key": key, "value": value, "page": constants.ContentPageAll}
		if _, err := entities.Create(ctx, schema.EntitySiteContent, record, seedActor); err != nil {
			logger.Warnw("seed_content_failed", "section_key", key, "error", err)
			continue
		}
		logger.Infow("seed_content_saved", "section_key", key)
	}

	seedAll(ctx, entities, schema.EntityProduct, products)
	seedAll(ctx, entities, schema.EntityPost, posts)
}

// seedAll 逐条写入，slug 已存在的记录跳过
func seedAll(ctx context.Context, entities *service.EntityService, entity schema.Entity, records []service.Record) {
	for _, record := range records {
		_, err := entities.Create(ctx, entity, record, seedActor)
		switch {
		case err == nil:
			logger.Infow("seed_record_created", "entity", entity, "slug", record["slug"])
		case errors.Is(err, service.ErrSlugExists):
			logger.Infow("seed_record_exists", "entity", entity, "slug", record["slug"])
		default:
			logger.Warnw("seed_record_failed", "entity", entity, "slug", record["slug"], "error", err)
		}
	}
}
