// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package storage

import (
	"strings"
	"testing"
	"time"
)

func TestNewWithoutCredentialsDisablesStorage(t *testing.T) {
	c, err := New("", "us-east-1", "", "", "media", "")
	if err != nil || c != nil {
		t.Fatalf("New() = %v, %v; want nil, nil", c, err)
	}
}

func TestNewRequiresBucket(t *testing.T) {
	if _, err := New("https://s3.example.com", "us-east-1", "ak", "sk", "", ""); err == nil {
		t.Fatal("expected error for empty bucket")
	}
}

func TestFileURLAndExtractKey(t *testing.T) {
	c, err := New("https://s3.example.com/", "us-east-1", "ak", "sk", "club", "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	url := c.FileURL("gallery/2026/10/a.jpg")
	if url != "https://s3.example.com/club/gallery/2026/10/a.jpg" {
		t.Errorf("FileURL = %q", url)
	}
	key, ok := c.ExtractKey(url)
	if !ok || key != "gallery/2026/10/a.jpg" {
		t.Errorf("ExtractKey = %q, %v", key, ok)
	}
	if _, ok := c.ExtractKey("https://elsewhere.example.com/a.jpg"); ok {
		t.Error("foreign URL should not match")
	}
}

func TestFileURLWithPublicURL(t *testing.T) {
	c, _ := New("https://s3.example.com", "us-east-1", "ak", "sk", "club", "https://cdn.example.com/")
	if got := c.FileURL("logos/x.png"); got != "https://cdn.example.com/logos/x.png" {
		t.Errorf("FileURL = %q", got)
	}
	if key, ok := c.ExtractKey("https://cdn.example.com/logos/x.png"); !ok || key != "logos/x.png" {
		t.Errorf("ExtractKey = %q, %v", key, ok)
	}
}

func TestObjectKey(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	key := ObjectKey("gallery", ".jpg", now)
	if !strings.HasPrefix(key, "gallery/2026/10/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("ObjectKey = %q", key)
	}
	if ObjectKey("gallery", ".jpg", now) == key {
		t.Error("ObjectKey should be unique per call")
	}
}
