package openapi

import (
	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI 3.1 document for the license gate's API
// surface. The spec is static: the gate exposes exactly one public and three
// admin operations, so there is nothing to introspect at runtime.
func Generate() *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "Atlas Gate API",
			Description: "License-key verification and issuance for the Atlas download page.",
			Version:     "1.0.0",
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["adminToken"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type: "apiKey",
			In:   "header",
			Name: "admin-token",
		},
	}
	doc.Components.SecuritySchemes["bearerAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "JWT",
		},
	}

	doc.Components.Schemas["LicenseKey"] = &openapi3.SchemaRef{Value: keySchema()}
	doc.Components.Schemas["ErrorResponse"] = &openapi3.SchemaRef{Value: objectSchema(map[string]*openapi3.Schema{
		"error": {Type: &openapi3.Types{"string"}},
	})}
	doc.Components.Schemas["SuccessResponse"] = &openapi3.SchemaRef{Value: objectSchema(map[string]*openapi3.Schema{
		"success": {Type: &openapi3.Types{"boolean"}},
		"key":     {Type: &openapi3.Types{"string"}},
	})}

	doc.Paths = openapi3.NewPaths()

	successRef := openapi3.NewSchemaRef("#/components/schemas/SuccessResponse", nil)

	doc.Paths.Set("/api/verify", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "verifyKey",
			Summary:     "Verify a license key",
			Description: "Checks a key code; the first successful call binds the key to the caller's IP address.",
			RequestBody: jsonRequestBody(objectSchema(map[string]*openapi3.Schema{
				"key": {Type: &openapi3.Types{"string"}},
			})),
			Responses: newResponses("Access granted", successRef, map[string]string{
				"401": "Unknown key code",
				"403": "Key bound to another device, or expired",
				"500": "Storage failure",
			}),
		},
	})

	keyListRef := &openapi3.SchemaRef{
		Value: &openapi3.Schema{
			Type:  &openapi3.Types{"array"},
			Items: openapi3.NewSchemaRef("#/components/schemas/LicenseKey", nil),
		},
	}

	doc.Paths.Set("/api/admin/keys", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listKeys",
			Summary:     "List issued keys, newest first",
			Security:    adminSecurity(),
			Responses: newResponses("Array of key records", keyListRef, map[string]string{
				"403": "Missing or invalid admin credentials",
				"500": "Storage failure",
			}),
		},
		Post: &openapi3.Operation{
			OperationID: "createKey",
			Summary:     "Issue a new license key",
			Description: "Generates a fresh ATLAS-XXXX-XXXX code. Duration is in hours; -1 means unlimited.",
			Security:    adminSecurity(),
			RequestBody: jsonRequestBody(objectSchema(map[string]*openapi3.Schema{
				"name":     {Type: &openapi3.Types{"string"}},
				"duration": {Type: &openapi3.Types{"integer"}},
			})),
			Responses: newResponses("Key issued; response carries the plaintext code", successRef, map[string]string{
				"400": "Duration below the unlimited sentinel",
				"403": "Missing or invalid admin credentials",
				"500": "Storage failure or unresolved code collision",
			}),
		},
	})

	sessionRef := &openapi3.SchemaRef{
		Value: objectSchema(map[string]*openapi3.Schema{
			"session_token": {Type: &openapi3.Types{"string"}},
			"token_type":    {Type: &openapi3.Types{"string"}},
			"expires_in":    {Type: &openapi3.Types{"integer"}},
		}),
	}

	doc.Paths.Set("/api/admin/session", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "adminLogin",
			Summary:     "Exchange the admin secret for a session token",
			RequestBody: jsonRequestBody(objectSchema(map[string]*openapi3.Schema{
				"token": {Type: &openapi3.Types{"string"}},
			})),
			Responses: newResponses("Session token issued", sessionRef, map[string]string{
				"403": "Invalid or unconfigured admin secret",
			}),
		},
	})

	return doc
}

func keySchema() *openapi3.Schema {
	schema := objectSchema(map[string]*openapi3.Schema{
		"id":             {Type: &openapi3.Types{"integer"}},
		"key_code":       {Type: &openapi3.Types{"string"}, Pattern: `^ATLAS-[A-Z0-9]{4}-[A-Z0-9]{4}$`},
		"name":           {Type: &openapi3.Types{"string"}},
		"duration_hours": {Type: &openapi3.Types{"integer"}, Description: "-1 means the key never expires"},
		"used_by_ip":     {Type: &openapi3.Types{"string"}},
		"created_at":     {Type: &openapi3.Types{"string"}, Format: "date-time"},
		"first_used_at":  {Type: &openapi3.Types{"string"}, Format: "date-time"},
	})
	return schema
}

func objectSchema(props map[string]*openapi3.Schema) *openapi3.Schema {
	schema := &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: openapi3.Schemas{},
	}
	for name, p := range props {
		schema.Properties[name] = &openapi3.SchemaRef{Value: p}
	}
	return schema
}

func jsonRequestBody(schema *openapi3.Schema) *openapi3.RequestBodyRef {
	return &openapi3.RequestBodyRef{
		Value: &openapi3.RequestBody{
			Required: true,
			Content:  openapi3.NewContentWithJSONSchemaRef(&openapi3.SchemaRef{Value: schema}),
		},
	}
}

// newResponses builds a response set with one success shape plus the flat
// error envelope for each listed failure status.
func newResponses(successDesc string, successSchema *openapi3.SchemaRef, failures map[string]string) *openapi3.Responses {
	responses := openapi3.NewResponses()

	sd := successDesc
	responses.Set("200", &openapi3.ResponseRef{
		Value: &openapi3.Response{
			Description: &sd,
			Content:     openapi3.NewContentWithJSONSchemaRef(successSchema),
		},
	})

	errorRef := openapi3.NewSchemaRef("#/components/schemas/ErrorResponse", nil)
	for status, desc := range failures {
		d := desc
		responses.Set(status, &openapi3.ResponseRef{
			Value: &openapi3.Response{
				Description: &d,
				Content:     openapi3.NewContentWithJSONSchemaRef(errorRef),
			},
		})
	}
	return responses
}

func adminSecurity() *openapi3.SecurityRequirements {
	return &openapi3.SecurityRequirements{
		{"adminToken": {}},
		{"bearerAuth": {}},
	}
}
