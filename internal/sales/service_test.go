package sales

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/aldousari/vendpoint-backend/pkg/db/models"
	"github.com/aldousari/vendpoint-backend/pkg/enums"
	"github.com/aldousari/vendpoint-backend/pkg/pagination"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file:sales_test?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(&models.Product{}, &models.Machine{}, &models.Sale{}); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		conn.Exec("DELETE FROM sales")
		conn.Exec("DELETE FROM machines")
		conn.Exec("DELETE FROM products")
	})
	return conn
}

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(conn))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

type fixture struct {
	machine *models.Machine
	product *models.Product
}

func seedFixture(t *testing.T, conn *gorm.DB) fixture {
	t.Helper()
	machine := &models.Machine{ID: uuid.New(), Code: "VM-001", Location: "Lobby", Status: enums.MachineStatusActive}
	if err := conn.Create(machine).Error; err != nil {
		t.Fatalf("create machine: %v", err)
	}
	product := &models.Product{ID: uuid.New(), Name: "Chips", Price: decimal.NewFromFloat(2.50)}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return fixture{machine: machine, product: product}
}

func seedSale(t *testing.T, conn *gorm.DB, fix fixture, qty int, soldAt time.Time) *models.Sale {
	t.Helper()
	sale := &models.Sale{
		ID:         uuid.New(),
		MachineID:  fix.machine.ID,
		ProductID:  fix.product.ID,
		SlotNumber: 1,
		Quantity:   qty,
		SoldAt:     soldAt,
	}
	if err := conn.Create(sale).Error; err != nil {
		t.Fatalf("create sale: %v", err)
	}
	return sale
}

func TestListSalesNewestFirstWithCursor(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	fix := seedFixture(t, conn)

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		seedSale(t, conn, fix, 1, base.Add(time.Duration(i)*time.Hour))
	}

	first, err := svc.ListSales(context.Background(), Filter{}, pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(first.Sales) != 2 || !first.HasMore {
		t.Fatalf("expected 2 rows with more, got %d hasMore=%v", len(first.Sales), first.HasMore)
	}
	if !first.Sales[0].SoldAt.After(first.Sales[1].SoldAt) {
		t.Fatalf("expected newest-first ordering")
	}

	second, err := svc.ListSales(context.Background(), Filter{}, pagination.Params{Limit: 2, Cursor: first.NextCursor})
	if err != nil {
		t.Fatalf("list second page: %v", err)
	}
	if len(second.Sales) != 2 || !second.HasMore {
		t.Fatalf("expected full second page, got %d", len(second.Sales))
	}
	if !second.Sales[0].SoldAt.Before(first.Sales[1].SoldAt) {
		t.Fatalf("second page must continue past the cursor")
	}

	third, err := svc.ListSales(context.Background(), Filter{}, pagination.Params{Limit: 2, Cursor: second.NextCursor})
	if err != nil {
		t.Fatalf("list third page: %v", err)
	}
	if len(third.Sales) != 1 || third.HasMore {
		t.Fatalf("expected final page of 1, got %d hasMore=%v", len(third.Sales), third.HasMore)
	}
}

func TestListSalesFiltersByWindow(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	fix := seedFixture(t, conn)

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	seedSale(t, conn, fix, 1, base)
	seedSale(t, conn, fix, 1, base.AddDate(0, 0, 2))

	from := base.AddDate(0, 0, 1)
	result, err := svc.ListSales(context.Background(), Filter{From: &from}, pagination.Params{})
	if err != nil {
		t.Fatalf("list sales: %v", err)
	}
	if len(result.Sales) != 1 {
		t.Fatalf("expected 1 sale in window, got %d", len(result.Sales))
	}
}

func TestSummaryComputesRevenue(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	fix := seedFixture(t, conn)

	now := time.Now().UTC()
	seedSale(t, conn, fix, 2, now)
	seedSale(t, conn, fix, 3, now.Add(-time.Hour))

	summary, err := svc.Summary(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.SaleCount != 2 || summary.ItemCount != 5 {
		t.Fatalf("unexpected counts %+v", summary)
	}
	if !summary.TotalRevenue.Equal(decimal.NewFromFloat(12.50)) {
		t.Fatalf("expected revenue 12.50, got %s", summary.TotalRevenue)
	}
}

func TestExportCSV(t *testing.T) {
	conn := openTestDB(t)
	svc := newTestService(t, conn)
	fix := seedFixture(t, conn)

	seedSale(t, conn, fix, 2, time.Date(2026, 8, 15, 9, 30, 0, 0, time.UTC))

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), Filter{}, &buf); err != nil {
		t.Fatalf("export csv: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header and one row, got %d records", len(records))
	}
	header := records[0]
	want := []string{"Date & Time", "Machine", "Location", "Slot", "Product", "Quantity", "Unit Price", "Total"}
	for i, col := range want {
		if header[i] != col {
			t.Fatalf("header column %d = %q, want %q", i, header[i], col)
		}
	}
	row := records[1]
	if row[0] != "2026-08-15 09:30:00" {
		t.Fatalf("unexpected timestamp %q", row[0])
	}
	if row[1] != "VM-001" || row[2] != "Lobby" || row[4] != "Chips" {
		t.Fatalf("unexpected row %v", row)
	}
	if row[6] != "2.50" || row[7] != "5.00" {
		t.Fatalf("unexpected prices %v", row)
	}
}
