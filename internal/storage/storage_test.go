package storage

import (
	"testing"
	"time"
)

func TestNewObjectName(t *testing.T) {
	now := time.UnixMilli(1727481600123)

	tests := []struct {
		name     string
		filename string
		want     string
	}{
		{"plain", "toast.jpg", "1727481600123-toast.jpg"},
		{"with spaces", "my lunch.png", "1727481600123-my lunch.png"},
		{"unix path", "photos/2025/toast.jpg", "1727481600123-toast.jpg"},
		{"windows path", `C:\Users\me\toast.jpg`, "1727481600123-toast.jpg"},
		{"empty", "", "1727481600123-image"},
		{"blank", "   ", "1727481600123-image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewObjectName(now, tt.filename); got != tt.want {
				t.Errorf("NewObjectName(%q) = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestPublicURL_EscapesName(t *testing.T) {
	got := publicURL("http://localhost:9000/", "food_bk", "1-my lunch.png")
	want := "http://localhost:9000/food_bk/1-my%20lunch.png"
	if got != want {
		t.Errorf("publicURL = %q, want %q", got, want)
	}
}

func TestObjectNameFromURL(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		want   string
		wantOK bool
	}{
		{"simple", "http://localhost:9000/food_bk/1-toast.jpg", "1-toast.jpg", true},
		{"escaped", "http://localhost:9000/food_bk/1-my%20lunch.png", "1-my lunch.png", true},
		{"escaped slash stays in segment", "http://cdn/food_bk/1-a%2Fb.png", "1-a/b.png", true},
		{"with query", "http://cdn/food_bk/1-toast.jpg?v=2", "1-toast.jpg", true},
		{"empty", "", "", false},
		{"no path", "http://cdn", "", false},
		{"unparsable", "http://[::1", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ObjectNameFromURL(tt.url)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("ObjectNameFromURL(%q) = (%q, %v), want (%q, %v)", tt.url, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

// 生成したオブジェクト名は公開URLから同じ名前に戻せる
func TestObjectName_RoundTripThroughPublicURL(t *testing.T) {
	name := NewObjectName(time.UnixMilli(42), "Grilled Fish & Rice #1.jpeg")
	u := publicURL("https://storage.example.com", "food_bk", name)
	got, ok := ObjectNameFromURL(u)
	if !ok || got != name {
		t.Errorf("round trip = (%q, %v), want %q", got, ok, name)
	}
}
