package handlers_test

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/pw-ledger/internal/accounts"
	"github.com/hongminglow/pw-ledger/internal/config"
	"github.com/hongminglow/pw-ledger/internal/models"
	"github.com/hongminglow/pw-ledger/internal/models/dto"
	"github.com/hongminglow/pw-ledger/internal/server"
	"github.com/hongminglow/pw-ledger/internal/storage/postgres"
)

// TestLedgerIntegration runs the debt cycle flow against a live Postgres database.
func TestLedgerIntegration(t *testing.T) {
	if os.Getenv("RUN_DB_INTEGRATION") != "true" {
		t.Skip("set RUN_DB_INTEGRATION=true to run this integration test")
	}

	loadDotEnv()
	dbURL := mustGetEnv(t, "DATABASE_URL")

	ctx := context.Background()
	store, err := postgres.NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	suffix := time.Now().UnixNano()
	username := fmt.Sprintf("it_%d", suffix)
	admins := accounts.NewService(store, nil)
	admin, err := admins.CreateAdmin(ctx, dto.CreateAdminRequest{
		Name:     "Integration",
		Username: username,
		Email:    username + "@example.com",
		Password: "rahasia",
		Role:     string(models.RoleAdmin),
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteAdmin(context.Background(), admin.ID) })

	cfg := config.Config{
		JWTSecret:        "integration-secret",
		JWTIssuer:        "pw-ledger-it",
		JWTTTL:           time.Hour,
		CookieName:       "pw_token",
		Location:         time.UTC,
		DefaultPageLimit: 7,
		OverdueDays:      30,
	}
	c := &client{t: t, h: server.NewHandler(cfg, server.Deps{Store: store, DB: store})}
	if rec := c.login(username, "rahasia"); rec.Code != http.StatusOK {
		t.Fatalf("login status = %d", rec.Code)
	}

	rec, env := c.do(http.MethodPost, "/api/user", dto.CreateUserRequest{Name: fmt.Sprintf("Budi %d", suffix), Phone: "081234567890"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create user status = %d: %s", rec.Code, env.Message)
	}
	user := decodeData[models.User](t, env)

	today := time.Now().UTC().Format(time.DateOnly)
	var cycleID string
	for _, amount := range []int{50000, 20000} {
		rec, env = c.do(http.MethodPost, "/api/debt", map[string]any{"userId": user.ID, "amount": amount, "date": today})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add debt status = %d: %s", rec.Code, env.Message)
		}
		res := decodeData[dto.CreateDebtResponse](t, env)
		cycleID = res.CycleID.String()
	}

	rec, env = c.do(http.MethodPost, "/api/payments", map[string]any{"userId": user.ID, "amount": 70000, "paidAt": today})
	if rec.Code != http.StatusCreated {
		t.Fatalf("payment status = %d: %s", rec.Code, env.Message)
	}
	if paid := decodeData[dto.CreatePaymentResponse](t, env); !paid.IsPaid || paid.Total.String() != "70000" {
		t.Fatalf("unexpected payment result: %+v", paid)
	}

	if rec, env = c.do(http.MethodDelete, "/api/debt/"+cycleID, nil); rec.Code != http.StatusOK {
		t.Fatalf("delete cycle status = %d: %s", rec.Code, env.Message)
	}
	if rec, env = c.do(http.MethodDelete, "/api/user/"+user.ID.String(), nil); rec.Code != http.StatusOK {
		t.Fatalf("delete user status = %d: %s", rec.Code, env.Message)
	}

	t.Logf("ran debt cycle flow for %s as admin %s", user.Name, username)
}

func mustGetEnv(t *testing.T, key string) string {
	t.Helper()
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		t.Fatalf("%s is required", key)
	}
	return val
}

func loadDotEnv() {
	paths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}
	for _, path := range paths {
		_ = godotenv.Overload(path)
	}
}
