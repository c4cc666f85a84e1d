package main

import (
	"context"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

type banknote struct {
	ID          string
	Slug        string
	Title       string
	Description string
	Price       int64
	ImageURL    string
	Country     string
	Year        int
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("Failed to open DB: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Failed to ping DB: %v", err)
	}

	seedBanknotes(ctx, pool)
	log.Println("Seeding completed successfully!")
}

func seedBanknotes(ctx context.Context, pool *pgxpool.Pool) {
	notes := []banknote{
		{
			ID:          "1-mark-darlehnskassenschein",
			Slug:        "1-mark-darlehnskassenschein",
			Title:       "1 Mark (Darlehnskassenschein)",
			Description: "„Darlehenskassenscheine“ were banknotes issued between 1914 and 1922 by the Reichsschuldenverwaltung (Reich debt administration).",
			Price:       190,
			ImageURL:    "/images/banknotes/1-mark-darlehnskassenschein.png",
			Country:     "Germany",
			Year:        1914,
		},
		{
			ID:          "50-dollars-fiji",
			Slug:        "50-dollars-fiji",
			Title:       "50 Dollars (Fiji)",
			Description: "The banknote celebrates Fiji’s past capturing the historic first raising of the Fijian flag at Albeit Park, Suva on 10 October 1970 depicting the birth of Fiji as an independent nation.",
			Price:       4300,
			ImageURL:    "/images/banknotes/50-dollars-fiji.png",
			Country:     "Fiji",
			Year:        1970,
		},
		{
			ID:          "egimilliard-b-pengo-hungary",
			Slug:        "egimilliard-b-pengo-hungary",
			Title:       "Egimilliard B. Pengo (Hungary)",
			Description: "One billion trillion Pengoes (1 Sextillion Pengoes = 10²¹)",
			Price:       120000,
			ImageURL:    "/images/banknotes/egimilliard-b-pengo-hungary.png",
			Country:     "Hungary",
			Year:        1946,
		},
	}

	log.Println("Seeding Banknotes...")
	for _, n := range notes {
		_, err := pool.Exec(ctx, `
			INSERT INTO banknotes (id, slug, title, description, price, currency, image_url, country, year, in_stock)
			VALUES ($1, $2, $3, $4, $5, 'USD', $6, $7, $8, TRUE)
			ON CONFLICT (slug) DO UPDATE SET
				title = EXCLUDED.title,
				description = EXCLUDED.description,
				price = EXCLUDED.price,
				image_url = EXCLUDED.image_url,
				country = EXCLUDED.country,
				year = EXCLUDED.year;
		`, n.ID, n.Slug, n.Title, n.Description, n.Price, n.ImageURL, n.Country, n.Year)
		if err != nil {
			log.Printf("Failed to seed banknote %s: %v", n.Slug, err)
		}
	}
}
