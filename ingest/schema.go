package ingest

import (
	"embed"
	"encoding/json"
	"fmt"
	"log"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/events
var schemaFS embed.FS

var scrapedListingSchema *jsonschema.Schema

func init() {
	const path = "schemas/events/scraped-listing/v1.json"

	file, err := schemaFS.Open(path)
	if err != nil {
		log.Fatalf("[ingest] failed to open embedded schema %s: %v", path, err)
	}
	defer file.Close()

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true
	if err := compiler.AddResource(path, file); err != nil {
		log.Fatalf("[ingest] failed to add schema resource %s: %v", path, err)
	}
	scrapedListingSchema, err = compiler.Compile(path)
	if err != nil {
		log.Fatalf("[ingest] failed to compile schema %s: %v", path, err)
	}
}

// ValidateScrapedListing checks a raw message body against the
// scraped-listing contract before any mapping happens. A failure here
// means the producer broke the contract and the message is not worth
// redelivering.
func ValidateScrapedListing(body []byte) error {
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("message body is not valid JSON: %w", err)
	}
	if err := scrapedListingSchema.Validate(v); err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	return nil
}
