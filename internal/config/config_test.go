package config

import (
	"reflect"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "MAX_UPLOAD_BYTES", "ENABLE_LOCAL_AUTH", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.MaxUploadBytes != 10<<20 || !c.EnableLocalAuth {
		t.Fatalf("upload/auth defaults: %+v", c)
	}
	if len(c.CORSOrigins()) != 2 {
		t.Fatalf("offline origins: %v", c.CORSOrigins())
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("ENABLE_LOCAL_AUTH", "")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	c := FromEnv()
	if c.MaxUploadBytes != 2048 || c.EnableLocalAuth {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if !reflect.DeepEqual(c.CORSOrigins(), []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("online origins: %v", c.CORSOrigins())
	}
}
