package store

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/mcdev12/auctionhouse/go/internal/models"
)

//go:embed schema/*.json
var schemaFS embed.FS

const (
	schemaBase       = "https://auctionhouse.local/schema/"
	auctionSchemaURL = schemaBase + "auction.schema.json"
	catalogSchemaURL = schemaBase + "catalog.schema.json"
)

var (
	schemasOnce   sync.Once
	auctionSchema *jsonschema.Schema
	catalogSchema *jsonschema.Schema
	schemasErr    error
)

func loadSchemas() (*jsonschema.Schema, *jsonschema.Schema, error) {
	schemasOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		for _, name := range []string{"auction.schema.json", "catalog.schema.json"} {
			b, err := schemaFS.ReadFile("schema/" + name)
			if err != nil {
				schemasErr = fmt.Errorf("read schema %s: %w", name, err)
				return
			}
			if err := compiler.AddResource(schemaBase+name, bytes.NewReader(b)); err != nil {
				schemasErr = fmt.Errorf("add schema %s: %w", name, err)
				return
			}
		}
		if auctionSchema, schemasErr = compiler.Compile(auctionSchemaURL); schemasErr != nil {
			return
		}
		catalogSchema, schemasErr = compiler.Compile(catalogSchemaURL)
	})
	return auctionSchema, catalogSchema, schemasErr
}

func validate(schema *jsonschema.Schema, data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return schema.Validate(doc)
}

func encodeState(s *models.AuctionState) ([]byte, error) {
	return json.MarshalIndent(s, "", "    ")
}

// decodeState parses and checks a persisted auction record.
func decodeState(data []byte) (*models.AuctionState, error) {
	schema, _, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if err := validate(schema, data); err != nil {
		return nil, fmt.Errorf("auction record: %w", err)
	}
	s := models.NewAuctionState()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("auction record: %w", err)
	}
	if s.Managers == nil {
		s.Managers = make(map[string]*models.Manager)
	}
	for _, m := range s.Managers {
		if m != nil && m.Players == nil {
			m.Players = []string{}
		}
	}
	if s.DraftOrder == nil {
		s.DraftOrder = []string{}
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func encodeCatalog(c models.Catalog) ([]byte, error) {
	return json.MarshalIndent(c, "", "    ")
}

func decodeCatalog(data []byte) (models.Catalog, error) {
	_, schema, err := loadSchemas()
	if err != nil {
		return nil, err
	}
	if err := validate(schema, data); err != nil {
		return nil, fmt.Errorf("catalog record: %w", err)
	}
	c := make(models.Catalog)
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("catalog record: %w", err)
	}
	// Keys are re-derived so a hand-edited file cannot hold two spellings of one player.
	out := make(models.Catalog, len(c))
	for _, p := range c {
		out.Put(p)
	}
	return out, nil
}

func canonical(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}

// checkState returns data if it holds a valid auction record, otherwise the
// encoded defaults and true.
func checkState(data []byte, found bool) ([]byte, bool, error) {
	if found {
		_, err := decodeState(data)
		if err == nil {
			return data, false, nil
		}
		log.Warn().Err(err).Msg("auction record is corrupt, falling back to defaults")
	}
	def, err := encodeState(models.NewAuctionState())
	if err != nil {
		return nil, false, err
	}
	return def, true, nil
}

// checkCatalog returns data if it holds a valid catalog, otherwise an empty
// catalog and true.
func checkCatalog(data []byte, found bool) ([]byte, bool) {
	if found {
		_, err := decodeCatalog(data)
		if err == nil {
			return data, false
		}
		log.Warn().Err(err).Msg("catalog record is corrupt, falling back to an empty catalog")
	}
	return emptyCatalog, true
}
