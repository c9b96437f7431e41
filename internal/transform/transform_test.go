package transform

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/polbel-next/internal/schema"
)

func decodePayload(t *testing.T, raw string) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	return out
}

// normalize compares JSON shapes so int64/float64 differences do not matter.
func normalize(t *testing.T, v map[string]interface{}) map[string]interface{} {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	return decodePayload(t, string(b))
}

func TestRoundTripPreservesCoveredFields(t *testing.T) {
	cases := map[schema.Entity]string{
		schema.EntityPost: `{"title":"Intro","slug":"intro-post","excerpt":"x","content":"body",
			"category":"poradniki","tags":["beton","stal"],"author_name":"Ola",
			"publish_date":"2025-03-01","published":true,"read_time":5}`,
		schema.EntityProduct: `{"name":"Cement","slug":"cement-25kg","price":10.5,"price_unit":"szt",
			"category":"materialy","in_stock":false,"featured":true}`,
		schema.EntityOrder: `{"order_number":"POL-1","customer_name":"Jan","customer_phone":"123",
			"customer_address":"Street 1","delivery_date":"2025-04-02","notes":"",
			"items":[{"id":1,"name":"Cement","price":10,"quantity":2}],"total":20,"status":"new"}`,
		schema.EntityComment:     `{"post_id":7,"author_name":"Ewa","content":"Great","approved":false}`,
		schema.EntitySiteContent: `{"section_key":"hero_title","value":"Hello","content_type":"text","page":"home"}`,
	}
	for entity, raw := range cases {
		def := schema.MustGet(entity)
		payload := decodePayload(t, raw)

		stored, err := ToStorage(def, payload, ModeCreate)
		if err != nil {
			t.Fatalf("%s: to storage failed: %v", entity, err)
		}
		back := FromStorage(def, stored, AudienceAdmin)

		if got, want := normalize(t, back), normalize(t, payload); !reflect.DeepEqual(got, want) {
			t.Fatalf("%s: round trip mismatch\nwant %v\ngot  %v", entity, want, got)
		}
	}
}

func TestAbsentFieldsStayAbsent(t *testing.T) {
	def := schema.MustGet(schema.EntityPost)
	stored, err := ToStorage(def, map[string]interface{}{"title": "Only title"}, ModeCreate)
	if err != nil {
		t.Fatalf("to storage failed: %v", err)
	}
	back := FromStorage(def, stored, AudienceAdmin)
	if len(back) != 1 {
		t.Fatalf("want only title back, got %v", back)
	}
}

func TestBooleanCoercion(t *testing.T) {
	def := schema.MustGet(schema.EntityPost)
	for _, in := range []interface{}{true, "true", 1, float64(1), "on"} {
		stored, err := ToStorage(def, map[string]interface{}{"published": in}, ModeCreate)
		if err != nil {
			t.Fatalf("to storage failed: %v", err)
		}
		if stored["published"] != 1 {
			t.Fatalf("%v: want 1 got %v", in, stored["published"])
		}
	}
	for _, in := range []interface{}{false, "false", 0, nil, "", "0"} {
		stored, _ := ToStorage(def, map[string]interface{}{"published": in}, ModeCreate)
		if stored["published"] != 0 {
			t.Fatalf("%v: want 0 got %v", in, stored["published"])
		}
	}

	// drivers hand back 1/0 in different shapes
	for _, raw := range []interface{}{int64(1), []byte("1"), true, "1"} {
		back := FromStorage(def, map[string]interface{}{"published": raw}, AudienceGuest)
		if back["published"] != true {
			t.Fatalf("%v: want true got %v", raw, back["published"])
		}
	}
	back := FromStorage(def, map[string]interface{}{"published": int64(0)}, AudienceGuest)
	if back["published"] != false {
		t.Fatalf("want false got %v", back["published"])
	}
}

func TestEmptyDeliveryDateStoredAsNull(t *testing.T) {
	def := schema.MustGet(schema.EntityOrder)
	stored, err := ToStorage(def, map[string]interface{}{"delivery_date": ""}, ModeCreate)
	if err != nil {
		t.Fatalf("to storage failed: %v", err)
	}
	v, present := stored["delivery_date"]
	if !present || v != nil {
		t.Fatalf("want explicit nil date, got %v (present=%v)", v, present)
	}

	if _, err := ToStorage(def, map[string]interface{}{"delivery_date": "next week"}, ModeCreate); err == nil {
		t.Fatalf("expected malformed date to fail")
	}

	stored, _ = ToStorage(def, map[string]interface{}{"delivery_date": "2025-06-01T10:00:00Z"}, ModeCreate)
	if stored["delivery_date"] != "2025-06-01" {
		t.Fatalf("want truncated date got %v", stored["delivery_date"])
	}
}

func TestDateReadFromTime(t *testing.T) {
	def := schema.MustGet(schema.EntityOrder)
	ts := time.Date(2025, 7, 9, 0, 0, 0, 0, time.UTC)
	back := FromStorage(def, map[string]interface{}{"delivery_date": ts}, AudienceAdmin)
	if back["delivery_date"] != "2025-07-09" {
		t.Fatalf("want 2025-07-09 got %v", back["delivery_date"])
	}
}

func TestMalformedJSONReadsAsEmptySequence(t *testing.T) {
	def := schema.MustGet(schema.EntityOrder)
	for _, raw := range []interface{}{"{not json", nil, "", []byte("null")} {
		back := FromStorage(def, map[string]interface{}{"items": raw}, AudienceAdmin)
		items, ok := back["items"].([]interface{})
		if !ok || len(items) != 0 {
			t.Fatalf("%v: want empty sequence got %#v", raw, back["items"])
		}
	}
}

func TestJSONAlreadyTextIsKept(t *testing.T) {
	def := schema.MustGet(schema.EntityPost)
	stored, _ := ToStorage(def, map[string]interface{}{"tags": `["a"]`}, ModeCreate)
	if stored["tags"] != `["a"]` {
		t.Fatalf("text json should pass through, got %v", stored["tags"])
	}
}

func TestPriceCoercedFromString(t *testing.T) {
	def := schema.MustGet(schema.EntityProduct)
	stored, err := ToStorage(def, map[string]interface{}{"price": "19.90"}, ModeCreate)
	if err != nil {
		t.Fatalf("to storage failed: %v", err)
	}
	back := FromStorage(def, stored, AudienceGuest)
	if back["price"] != 19.9 {
		t.Fatalf("want numeric 19.9 got %#v", back["price"])
	}

	for _, bad := range []interface{}{"abc", -1, "-0.5", map[string]interface{}{}} {
		_, err := ToStorage(def, map[string]interface{}{"price": bad}, ModeCreate)
		var fe *FieldError
		if !errors.As(err, &fe) || fe.Field != "price" {
			t.Fatalf("%v: want price field error got %v", bad, err)
		}
	}
}

func TestToStorageDropsUnknownReadOnlyAndImmutable(t *testing.T) {
	def := schema.MustGet(schema.EntityOrder)
	payload := map[string]interface{}{
		"id":           99,
		"order_number": "POL-X",
		"created_at":   "2020-01-01",
		"hacker":       "1; DROP TABLE orders",
		"status":       "confirmed",
	}
	stored, err := ToStorage(def, payload, ModeUpdate)
	if err != nil {
		t.Fatalf("to storage failed: %v", err)
	}
	if len(stored) != 1 || stored["status"] != "confirmed" {
		t.Fatalf("want only status, got %v", stored)
	}

	stored, _ = ToStorage(def, payload, ModeCreate)
	if stored["order_number"] != "POL-X" {
		t.Fatalf("order_number is writable on create, got %v", stored)
	}
}

func TestEnumRejected(t *testing.T) {
	def := schema.MustGet(schema.EntityProduct)
	if _, err := ToStorage(def, map[string]interface{}{"category": "weapons"}, ModeCreate); err == nil {
		t.Fatalf("expected enum violation")
	}
}

func TestFromStorageVisibility(t *testing.T) {
	admins := schema.MustGet(schema.EntityAdminUser)
	back := FromStorage(admins, map[string]interface{}{
		"id": int64(1), "email": "a@b.c", "password_hash": "$2a$...", "token_version": int64(0),
	}, AudienceAdmin)
	if _, ok := back["password_hash"]; ok {
		t.Fatalf("password hash must never be returned")
	}
	if _, ok := back["token_version"]; ok {
		t.Fatalf("unregistered columns must be dropped")
	}

	comments := schema.MustGet(schema.EntityComment)
	row := map[string]interface{}{"id": int64(3), "author_email": "x@y.z", "content": "hi"}
	if _, ok := FromStorage(comments, row, AudienceGuest)["author_email"]; ok {
		t.Fatalf("author_email is admin only")
	}
	if FromStorage(comments, row, AudienceAdmin)["author_email"] != "x@y.z" {
		t.Fatalf("admins see author_email")
	}
}

func TestValidate(t *testing.T) {
	posts := schema.MustGet(schema.EntityPost)
	if err := Validate(posts, map[string]interface{}{"title": "T"}, ModeCreate); err == nil {
		t.Fatalf("missing slug must fail")
	}
	if err := Validate(posts, map[string]interface{}{"title": "T", "slug": "Bad Slug"}, ModeCreate); err == nil {
		t.Fatalf("bad slug must fail")
	}
	if err := Validate(posts, map[string]interface{}{"title": "T", "slug": "good-slug-2"}, ModeCreate); err != nil {
		t.Fatalf("valid post failed: %v", err)
	}
	if err := Validate(posts, map[string]interface{}{"published": true}, ModeUpdate); err != nil {
		t.Fatalf("partial update should pass: %v", err)
	}
	if err := Validate(posts, map[string]interface{}{"title": "  "}, ModeUpdate); err == nil {
		t.Fatalf("blank required field on update must fail")
	}

	orders := schema.MustGet(schema.EntityOrder)
	err := Validate(orders, map[string]interface{}{
		"customer_name": "Jan", "customer_phone": "1", "customer_address": "A", "items": []interface{}{}, "total": 0,
	}, ModeCreate)
	if err == nil {
		t.Fatalf("empty items must fail")
	}
}

func TestFiltersCoerceQueryValues(t *testing.T) {
	products := schema.MustGet(schema.EntityProduct)
	conds, err := Filters(products, map[string]interface{}{
		"in_stock": "true",
		"category": "materialy",
		"tags":     "x",
		"utm":      "newsletter",
	}, AudienceGuest)
	if err != nil {
		t.Fatalf("filters failed: %v", err)
	}
	want := map[string]interface{}{"in_stock": true, "category": "materialy"}
	if !reflect.DeepEqual(conds, want) {
		t.Fatalf("want %v got %v", want, conds)
	}

	if _, err := Filters(products, map[string]interface{}{"category": "nieznana"}, AudienceGuest); err == nil {
		t.Fatalf("enum filter outside allowed values should fail")
	}

	comments := schema.MustGet(schema.EntityComment)
	conds, err = Filters(comments, map[string]interface{}{"post_id": "7", "author_email": "a@example.com"}, AudienceGuest)
	if err != nil {
		t.Fatalf("comment filters failed: %v", err)
	}
	if len(conds) != 1 || conds["post_id"] != int64(7) {
		t.Fatalf("guest must not filter on admin-only fields, got %v", conds)
	}
	if _, err := Filters(comments, map[string]interface{}{"post_id": "abc"}, AudienceGuest); err == nil {
		t.Fatalf("non-numeric post_id should fail")
	}
}

func TestMatchesStoredBooleans(t *testing.T) {
	posts := schema.MustGet(schema.EntityPost)
	conds, err := Filters(posts, posts.GuestScope, AudienceAdmin)
	if err != nil {
		t.Fatalf("scope failed: %v", err)
	}
	for _, stored := range []interface{}{int64(1), true, "1", []byte("1")} {
		if !Matches(posts, map[string]interface{}{"published": stored}, conds) {
			t.Fatalf("%#v should match published scope", stored)
		}
	}
	for _, stored := range []interface{}{int64(0), false, nil} {
		if Matches(posts, map[string]interface{}{"published": stored}, conds) {
			t.Fatalf("%#v should not match published scope", stored)
		}
	}
}
