package seed_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/registry"
	"github.com/waabox/testdeck/internal/seed"
)

const sample = `
pipelines:
  - name: API Tests Production
    description: Complete API test suite for production environment
    type: api_collection
    created_by: john@testflow.com
    config:
      api_collection:
        collection: production-api.json
        environment: prod.env
        variables:
          baseUrl: https://api.example.com
  - name: Mobile App Regression
    type: mobile_suite
    created_by: jane@testflow.com
    config:
      mobile_suite:
        artifact_path: /apps/app-release.apk
        test_suite: regression
        device: Pixel_5_API_31
        platform: android
        timeout_seconds: 900
`

func TestLoadFile_CreatesPipelines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipelines.yml")
	if err := os.WriteFile(path, []byte(sample), 0600); err != nil {
		t.Fatal(err)
	}
	defs, err := seed.LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	reg := registry.New()
	created, err := seed.Apply(reg, defs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(created) != 2 {
		t.Fatalf("expected 2 pipelines, got %d", len(created))
	}
	api := created[0]
	if api.Config.APICollection.Iterations != 1 || api.Config.APICollection.Variables["baseUrl"] != "https://api.example.com" {
		t.Errorf("unexpected api config: %+v", api.Config.APICollection)
	}
	mobile := created[1]
	if mobile.Config.MobileSuite.Platform != domain.PlatformAndroid || mobile.Config.MobileSuite.TimeoutSeconds != 900 {
		t.Errorf("unexpected mobile config: %+v", mobile.Config.MobileSuite)
	}
	if mobile.CreatedBy != "jane@testflow.com" {
		t.Errorf("expected createdBy jane@testflow.com, got %q", mobile.CreatedBy)
	}
}

func TestParse_RejectsInvalidDefinition(t *testing.T) {
	_, err := seed.Parse(strings.NewReader("pipelines:\n  - name: broken\n    type: api_collection\n"))
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestParse_RejectsUnknownKeys(t *testing.T) {
	_, err := seed.Parse(strings.NewReader("pipelines:\n  - nmae: typo\n"))
	if err == nil {
		t.Error("expected error for unknown key")
	}
}

func TestParse_EmptyFileIsEmpty(t *testing.T) {
	defs, err := seed.Parse(strings.NewReader(""))
	if err != nil || len(defs) != 0 {
		t.Errorf("expected no definitions, got %v %v", defs, err)
	}
}
