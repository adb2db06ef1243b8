package oracle

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"recibo/internal/model"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const verdictSchemaJSON = `{
	"type": "object",
	"required": ["verified", "discrepancies"],
	"properties": {
		"verified": {"type": "boolean"},
		"discrepancies": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["itemName", "issue"],
				"properties": {
					"itemName": {"type": "string", "minLength": 1},
					"issue": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

const identificationSchemaJSON = `{
	"type": "object",
	"required": ["name", "price"],
	"properties": {
		"name": {"type": "string"},
		"price": {"type": "number", "minimum": 0},
		"icon": {"type": "string"}
	}
}`

var (
	verdictSchema        = jsonschema.MustCompileString("verdict.json", verdictSchemaJSON)
	identificationSchema = jsonschema.MustCompileString("identification.json", identificationSchemaJSON)
)

// VerdictSchema returns the JSON schema that arbiters must answer with.
func VerdictSchema() string {
	return verdictSchemaJSON
}

// ParseVerdict turns a raw arbiter answer into a Verdict. The answer is
// located with ExtractStructured, lightly coerced (string booleans, null
// lists, common key synonyms) and then validated strictly. Anything that
// still does not match the schema is rejected with ErrOracleMalformed.
func ParseVerdict(raw string) (model.Verdict, error) {
	doc, err := ExtractStructured(raw)
	if err != nil {
		return model.Verdict{}, err
	}

	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: decode verdict: %v", model.ErrOracleMalformed, err)
	}
	coerceVerdict(m)

	if err := verdictSchema.Validate(m); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: verdict does not match schema: %v", model.ErrOracleMalformed, err)
	}

	clean, err := json.Marshal(m)
	if err != nil {
		return model.Verdict{}, fmt.Errorf("%w: encode verdict: %v", model.ErrOracleMalformed, err)
	}

	var v model.Verdict
	if err := json.Unmarshal(clean, &v); err != nil {
		return model.Verdict{}, fmt.Errorf("%w: unmarshal verdict: %v", model.ErrOracleMalformed, err)
	}

	for i := range v.Discrepancies {
		v.Discrepancies[i].ItemName = strings.TrimSpace(v.Discrepancies[i].ItemName)
		v.Discrepancies[i].Issue = strings.TrimSpace(v.Discrepancies[i].Issue)
	}

	return v.Normalize(), nil
}

// ParseIdentification turns a raw identifier answer into an Identification.
func ParseIdentification(raw string) (model.Identification, error) {
	doc, err := ExtractStructured(raw)
	if err != nil {
		return model.Identification{}, err
	}

	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return model.Identification{}, fmt.Errorf("%w: decode identification: %v", model.ErrOracleMalformed, err)
	}
	coerceIdentification(m)

	if err := identificationSchema.Validate(m); err != nil {
		return model.Identification{}, fmt.Errorf("%w: identification does not match schema: %v", model.ErrOracleMalformed, err)
	}

	clean, err := json.Marshal(m)
	if err != nil {
		return model.Identification{}, fmt.Errorf("%w: encode identification: %v", model.ErrOracleMalformed, err)
	}

	var id model.Identification
	if err := json.Unmarshal(clean, &id); err != nil {
		return model.Identification{}, fmt.Errorf("%w: unmarshal identification: %v", model.ErrOracleMalformed, err)
	}

	return id.Normalize(), nil
}

// coerceVerdict repairs the harmless shape drift models commonly produce.
func coerceVerdict(m map[string]any) {
	rename(m, "discrepancies", "issues", "mismatches")

	if s, ok := m["verified"].(string); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			m["verified"] = b
		}
	}

	switch list := m["discrepancies"].(type) {
	case nil:
		m["discrepancies"] = []any{}
	case []any:
		for _, entry := range list {
			d, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			rename(d, "itemName", "item_name", "item", "name", "product")
			rename(d, "issue", "description", "reason", "problem", "details")
		}
	}
}

func coerceIdentification(m map[string]any) {
	rename(m, "name", "itemName", "item_name", "item", "title")
	rename(m, "price", "estimated_price", "estimatedPrice", "cost")

	switch p := m["price"].(type) {
	case nil:
		m["price"] = 0.0
	case string:
		f, _ := model.ParseMoney(p).Float64()
		m["price"] = f
	case float64:
		if p < 0 {
			m["price"] = 0.0
		}
	}

	if _, ok := m["name"]; !ok {
		m["name"] = ""
	}
	if icon, ok := m["icon"]; ok && icon == nil {
		delete(m, "icon")
	}
}

// rename moves the first present synonym to key unless key is already set.
func rename(m map[string]any, key string, synonyms ...string) {
	if _, ok := m[key]; ok {
		return
	}
	for _, s := range synonyms {
		if v, ok := m[s]; ok {
			m[key] = v
			delete(m, s)
			return
		}
	}
}
