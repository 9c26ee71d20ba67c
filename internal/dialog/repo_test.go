package dialog

import (
	"context"
	"testing"
)

func TestGetDefaultsToIdle(t *testing.T) {
	r := NewRepo()
	it, err := r.Get(context.Background(), 100)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if it.State != StateIdle {
		t.Errorf("State = %q, want idle", it.State)
	}
	if it.Payload == nil {
		t.Error("Payload не должен быть nil")
	}
}

func TestSetGetReset(t *testing.T) {
	ctx := context.Background()
	r := NewRepo()

	if err := r.Set(ctx, 100, StateScanAwait, Payload{"cab": int64(3)}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	it, _ := r.Get(ctx, 100)
	if it.State != StateScanAwait {
		t.Errorf("State = %q", it.State)
	}
	if v, ok := GetInt64(it.Payload, "cab"); !ok || v != 3 {
		t.Errorf("cab = %v, %v", v, ok)
	}

	// чужой чат не затронут
	other, _ := r.Get(ctx, 200)
	if other.State != StateIdle {
		t.Errorf("чужой чат: State = %q", other.State)
	}

	if err := r.Reset(ctx, 100); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	it, _ = r.Get(ctx, 100)
	if it.State != StateIdle {
		t.Errorf("после Reset: State = %q", it.State)
	}
}

func TestPayloadIsolation(t *testing.T) {
	ctx := context.Background()
	r := NewRepo()

	p := Payload{"name": "Спирт"}
	_ = r.Set(ctx, 100, StateContNew, p)
	p["name"] = "изменили снаружи"

	it, _ := r.Get(ctx, 100)
	if s, _ := GetString(it.Payload, "name"); s != "Спирт" {
		t.Errorf("payload разделяет память с вызывающим: %q", s)
	}

	// и наоборот: правка полученной копии не видна в хранилище
	it.Payload["name"] = "правка копии"
	again, _ := r.Get(ctx, 100)
	if s, _ := GetString(again.Payload, "name"); s != "Спирт" {
		t.Errorf("хранилище изменилось через копию: %q", s)
	}
}

func TestSetNilPayload(t *testing.T) {
	ctx := context.Background()
	r := NewRepo()
	_ = r.Set(ctx, 100, StateHistView, nil)
	it, _ := r.Get(ctx, 100)
	if it.Payload == nil {
		t.Error("nil payload должен заменяться пустым")
	}
}

func TestPayloadHelpers(t *testing.T) {
	p := Payload{
		"s":     "строка",
		"i64":   int64(5),
		"i":     7,
		"f":     2.5,
		"whole": float64(9),
		"b":     true,
	}

	if v, ok := GetString(p, "s"); !ok || v != "строка" {
		t.Errorf("GetString = %q, %v", v, ok)
	}
	if _, ok := GetString(p, "i"); ok {
		t.Error("GetString должен отвергать не-строку")
	}

	if v, ok := GetInt64(p, "i64"); !ok || v != 5 {
		t.Errorf("GetInt64(int64) = %d, %v", v, ok)
	}
	if v, ok := GetInt64(p, "i"); !ok || v != 7 {
		t.Errorf("GetInt64(int) = %d, %v", v, ok)
	}
	if v, ok := GetInt64(p, "whole"); !ok || v != 9 {
		t.Errorf("GetInt64(float64) = %d, %v", v, ok)
	}
	if _, ok := GetInt64(p, "missing"); ok {
		t.Error("GetInt64 по отсутствующему ключу")
	}

	if v, ok := GetFloat(p, "f"); !ok || v != 2.5 {
		t.Errorf("GetFloat = %v, %v", v, ok)
	}
	if v, ok := GetFloat(p, "i64"); !ok || v != 5 {
		t.Errorf("GetFloat(int64) = %v, %v", v, ok)
	}

	if !GetBool(p, "b") {
		t.Error("GetBool(true) = false")
	}
	if GetBool(p, "s") {
		t.Error("GetBool по строке должен быть false")
	}
}
