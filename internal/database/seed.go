package database

import (
	"log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// SeedUsers inserts development accounts into the shared users table. The
// password hashes are bcrypt so the external user-service can authenticate
// against the same rows.
func SeedUsers(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM users"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Users already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding users...")

	users := []struct {
		email, name, role, password string
	}{
		{"admin@logitrack.gt", "Administrador", "admin", "admin123"},
		{"gerente@logitrack.gt", "Carlos Mendez", "manager", "gerente123"},
		{"dispatcher@logitrack.gt", "Lucia Ramirez", "dispatcher", "dispatch123"},
		{"coordinador1@logitrack.gt", "Maria Lopez", "coordinator", "coord123"},
		{"coordinador2@logitrack.gt", "Jorge Castillo", "coordinator", "coord123"},
	}

	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		_, err = db.Exec(`
			INSERT INTO users (id, email, password, name, role)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.New().String(), u.email, string(hash), u.name, u.role)
		if err != nil {
			return err
		}
	}

	log.Printf("✓ Seeded %d users", len(users))
	return nil
}

// SeedBranches inserts the Guatemala City branch network.
func SeedBranches(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM branches"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Branches already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding branches...")

	branches := []map[string]interface{}{
		{"name": "Zona 1 Centro", "code": "Z1C", "address": "6a Avenida 9-18, Zona 1", "latitude": 14.6349, "longitude": -90.5069},
		{"name": "Zona 4 Cuatro Grados", "code": "Z4G", "address": "Via 5 1-81, Zona 4", "latitude": 14.6211, "longitude": -90.5158},
		{"name": "Zona 9 Plaza", "code": "Z9P", "address": "7a Avenida 12-23, Zona 9", "latitude": 14.6065, "longitude": -90.5189},
		{"name": "Zona 10 Oakland", "code": "Z10O", "address": "Diagonal 6 13-01, Zona 10", "latitude": 14.5997, "longitude": -90.5061},
		{"name": "Zona 11 Miraflores", "code": "Z11M", "address": "21 Avenida 4-32, Zona 11", "latitude": 14.6205, "longitude": -90.5539},
		{"name": "Zona 14 Las Americas", "code": "Z14A", "address": "Avenida Las Americas 7-20, Zona 14", "latitude": 14.5869, "longitude": -90.5123},
		{"name": "Mixco San Cristobal", "code": "MSC", "address": "Boulevard San Cristobal, Mixco", "latitude": 14.6164, "longitude": -90.6042},
		{"name": "Villa Nueva Centro", "code": "VNC", "address": "4a Calle 3-45, Villa Nueva", "latitude": 14.5269, "longitude": -90.5875},
	}

	for _, b := range branches {
		_, err := db.Exec(`
			INSERT INTO branches (id, name, code, address, latitude, longitude, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		`, uuid.New().String(), b["name"], b["code"], b["address"], b["latitude"], b["longitude"])
		if err != nil {
			return err
		}
	}

	log.Printf("✓ Seeded %d branches", len(branches))
	return nil
}

// SeedChecklistTemplates inserts the moto audit checklist coordinators fill
// in during a branch visit.
func SeedChecklistTemplates(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM checklist_templates"); err != nil {
		return err
	}
	if count > 0 {
		log.Println("✓ Checklist templates already seeded, skipping...")
		return nil
	}

	log.Println("🌱 Seeding checklist templates...")

	templates := []struct {
		name, desc, category string
		order                int
		required             bool
	}{
		{"Operational motos on site", "Count motos available and running", "inventory", 1, true},
		{"Moto documents current", "Insurance, circulation permit, ownership card", "documents", 2, true},
		{"Shift start times met", "Riders arrived on their assigned schedule", "schedule", 3, true},
		{"Uniform and gear complete", "Vest, helmet, thermal backpack in good condition", "equipment", 4, true},
		{"Orders delivered on time", "Review % of deliveries within promised window", "operations", 5, true},
		{"Fuel sufficient for shift", "All motos fueled for the day", "maintenance", 6, false},
		{"Tires in good condition", "No excessive wear, correct pressure", "maintenance", 7, false},
		{"Lights working", "Headlights, tail lights and turn signals", "safety", 8, true},
		{"Brakes responsive", "Front and rear brake check", "safety", 9, true},
		{"Motos clean and presentable", "Presentable for customer deliveries", "image", 10, false},
		{"Rider app operational", "Delivery app installed and working", "technology", 11, true},
		{"GPS tracking active", "Tracking device reporting correctly", "technology", 12, true},
	}

	for _, t := range templates {
		_, err := db.Exec(`
			INSERT INTO checklist_templates (id, name, description, category, is_required, display_order, is_active)
			VALUES ($1, $2, $3, $4, $5, $6, TRUE)
		`, uuid.New().String(), t.name, t.desc, t.category, t.required, t.order)
		if err != nil {
			return err
		}
	}

	log.Printf("✓ Seeded %d checklist templates", len(templates))
	return nil
}
