package machines

import (
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:machines_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Machine{}, &models.Slot{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM slots")
		conn.Exec("DELETE FROM machines")
		conn.Exec("DELETE FROM products")
	})
	return conn
}
