// cmd/seeder/main.go
//
// Seeds a local database with sample subscribers and a draft campaign.
package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/lib/pq"

	"github.com/streetlayer/newsletter-service/internal/config"
	"github.com/streetlayer/newsletter-service/internal/db"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	conn, err := db.Connect(config.Load().Database)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}

	subscribers := []struct {
		email  string
		status string
		tags   []string
	}{
		{"maya@example.com", "subscribed", []string{"vip"}},
		{"jon@example.com", "subscribed", []string{"vip", "sale"}},
		{"rita@example.com", "subscribed", []string{}},
		{"leo@example.com", "pending", []string{"sale"}},
		{"ana@example.com", "unsubscribed", []string{"vip"}},
	}

	for _, s := range subscribers {
		_, err := conn.Exec(`
            INSERT INTO subscribers (email, status, tags)
            VALUES ($1, $2, $3)
            ON CONFLICT (email) DO NOTHING
        `, s.email, s.status, pq.Array(s.tags))
		if err != nil {
			log.Fatal("failed to seed subscriber:", err)
		}
	}

	content := `# New drop is live

The **FW26 collection** just landed. Limited quantities, as always.

- Heavyweight hoodies
- Cargo denim
- Court-ready highs
`

	_, err = conn.Exec(`
        INSERT INTO campaigns (name, subject, content, cta_text, cta_url, target_tags)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, "FW26 launch", "The FW26 drop is live", content, "Shop the drop", "https://streetlayer.co/drops/fw26", pq.Array([]string{"vip"}))
	if err != nil {
		log.Fatal("failed to seed campaign:", err)
	}

	log.Println("✅ Seeded subscribers and sample campaign")
}
