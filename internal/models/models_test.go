package models

import (
	"fmt"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := OpenDB("sqlite", dsn, DBPoolConfig{MaxOpenConns: 1, MaxIdleConns: 1})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	t.Cleanup(func() { _ = CloseDB(db) })
	return db
}

func TestOpenDBRejectsUnknownDriver(t *testing.T) {
	if _, err := OpenDB("oracle", "dsn", DBPoolConfig{}); err == nil {
		t.Fatalf("expected error for unsupported driver")
	}
}

func TestEnsureDefaultAdminCreatesOnce(t *testing.T) {
	db := openTestDB(t)

	if err := EnsureDefaultAdmin(db, "Owner", " Owner@Example.com ", "secret123"); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}
	if err := EnsureDefaultAdmin(db, "Other", "other@example.com", "secret456"); err != nil {
		t.Fatalf("second ensure failed: %v", err)
	}

	var admins []AdminUser
	if err := db.Find(&admins).Error; err != nil {
		t.Fatalf("query admins failed: %v", err)
	}
	if len(admins) != 1 {
		t.Fatalf("want 1 admin got %d", len(admins))
	}
	if admins[0].Email != "owner@example.com" {
		t.Fatalf("want normalized email got %s", admins[0].Email)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admins[0].PasswordHash), []byte("secret123")); err != nil {
		t.Fatalf("password hash mismatch: %v", err)
	}
}

func TestEnsureDefaultAdminSkipsWithoutCredentials(t *testing.T) {
	db := openTestDB(t)
	if err := EnsureDefaultAdmin(db, "", "", ""); err != nil {
		t.Fatalf("ensure admin failed: %v", err)
	}
	var count int64
	db.Model(&AdminUser{}).Count(&count)
	if count != 0 {
		t.Fatalf("want no admin got %d", count)
	}
}

func TestParseMoney(t *testing.T) {
	cases := map[string]struct {
		in   interface{}
		want string
	}{
		"string": {"12.5", "12.50"},
		"comma":  {"12,40", "12.40"},
		"float":  {19.999, "20.00"},
		"int":    {7, "7.00"},
		"padded": {" 3 ", "3.00"},
		"bytes":  {[]byte("1.1"), "1.10"},
	}
	for name, tc := range cases {
		got, err := ParseMoney(tc.in)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if got.String() != tc.want {
			t.Fatalf("%s: want %s got %s", name, tc.want, got.String())
		}
	}
	if _, err := ParseMoney("abc"); err == nil {
		t.Fatalf("expected error for malformed amount")
	}
	if _, err := ParseMoney(nil); err == nil {
		t.Fatalf("expected error for nil amount")
	}
}

func TestMoneyJSONIsNumber(t *testing.T) {
	m, _ := ParseMoney("10")
	b, err := m.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(b) != "10.00" {
		t.Fatalf("want 10.00 got %s", string(b))
	}
	var back Money
	if err := back.UnmarshalJSON([]byte(`"4.2"`)); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.String() != "4.20" {
		t.Fatalf("want 4.20 got %s", back.String())
	}
}
