package rest_test

import (
	"context"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
)

func TestOpenAPIDocumentIsValid(t *testing.T) {
	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromFile("../../../api/openapi.yml")
	if err != nil {
		t.Fatalf("failed to load openapi document: %v", err)
	}

	if err := doc.Validate(context.Background()); err != nil {
		t.Fatalf("openapi document is invalid: %v", err)
	}

	for _, path := range []string{
		"/invoices",
		"/invoices/{id}/decide",
		"/invoices/{id}/payments",
		"/tenants/{id}/debt",
		"/notifications",
		"/link-token",
		"/messaging/webhook",
		"/messaging/settings",
	} {
		if doc.Paths.Find(path) == nil {
			t.Errorf("openapi document is missing path %s", path)
		}
	}
}
