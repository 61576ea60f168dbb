package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/Drakz0n/CommFlow/internal/model"
)

// schemaVersion identifies which on-disk commission shape a file uses.
type schemaVersion int

const (
	// schemaCurrent stores the price as integer cents in price_cents.
	schemaCurrent schemaVersion = iota + 1
	// schemaLegacyV1 stores the price as float dollars in price.
	schemaLegacyV1
)

func (v schemaVersion) String() string {
	switch v {
	case schemaCurrent:
		return "current"
	case schemaLegacyV1:
		return "legacy-v1"
	default:
		return "unknown"
	}
}

var errMissingPrice = errors.New("missing price or price_cents")

// commissionFields are shared by every schema version, with defaults
// already applied to fields that were absent or of the wrong JSON type.
type commissionFields struct {
	ID            string
	ClientID      string
	ClientName    string
	Title         string
	Description   string
	PaymentStatus string
	Status        string
	CreatedAt     string
	UpdatedAt     string
	Images        []string
}

// commissionDocument is the union of all known shapes. The price fields
// decide which version a document is; a nil price was absent or unusable.
type commissionDocument struct {
	fields     commissionFields
	priceCents *int64
	price      *float64
}

// readDocument reads each field on its own so one mistyped field falls back
// to its default instead of failing the record. Only a document that is not
// a JSON object is rejected here.
func readDocument(data []byte) (commissionDocument, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return commissionDocument{}, fmt.Errorf("parse commission JSON: %w", err)
	}
	doc := commissionDocument{
		fields: commissionFields{
			ID:            stringField(raw, "id", ""),
			ClientID:      stringField(raw, "client_id", ""),
			ClientName:    stringField(raw, "client_name", ""),
			Title:         stringField(raw, "title", ""),
			Description:   stringField(raw, "description", ""),
			PaymentStatus: stringField(raw, "payment_status", string(model.PaymentNotPaid)),
			Status:        stringField(raw, "status", string(model.StatusPending)),
			CreatedAt:     stringField(raw, "created_at", ""),
			UpdatedAt:     stringField(raw, "updated_at", ""),
			Images:        stringsField(raw, "images"),
		},
	}
	var cents int64
	if field(raw, "price_cents", &cents) {
		doc.priceCents = &cents
	}
	var price float64
	if field(raw, "price", &price) {
		doc.price = &price
	}
	return doc, nil
}

// field decodes raw[key] into v and reports whether it held a usable value.
// null counts as absent.
func field(raw map[string]json.RawMessage, key string, v any) bool {
	msg, ok := raw[key]
	if !ok || string(msg) == "null" {
		return false
	}
	return json.Unmarshal(msg, v) == nil
}

func stringField(raw map[string]json.RawMessage, key, def string) string {
	var s string
	if !field(raw, key, &s) {
		return def
	}
	return s
}

// stringsField keeps the string entries of an array and drops the rest.
func stringsField(raw map[string]json.RawMessage, key string) []string {
	out := []string{}
	var items []json.RawMessage
	if !field(raw, key, &items) {
		return out
	}
	for _, item := range items {
		var s string
		if json.Unmarshal(item, &s) == nil {
			out = append(out, s)
		}
	}
	return out
}

// decodedCommission is one schema version's view of a document.
type decodedCommission interface {
	version() schemaVersion
	commission() model.Commission
}

type currentRecord struct {
	fields     commissionFields
	priceCents int64
}

func (currentRecord) version() schemaVersion { return schemaCurrent }

func (r currentRecord) commission() model.Commission {
	return r.fields.withPrice(r.priceCents)
}

type legacyV1Record struct {
	fields commissionFields
	price  float64
}

func (legacyV1Record) version() schemaVersion { return schemaLegacyV1 }

func (r legacyV1Record) commission() model.Commission {
	return r.fields.withPrice(int64(math.Round(r.price * 100)))
}

// classify tags a decoded document with its schema version. An integer
// price_cents wins; anything else falls through to the legacy price.
func classify(doc commissionDocument) (decodedCommission, error) {
	switch {
	case doc.priceCents != nil:
		return currentRecord{fields: doc.fields, priceCents: *doc.priceCents}, nil
	case doc.price != nil:
		return legacyV1Record{fields: doc.fields, price: *doc.price}, nil
	default:
		return nil, errMissingPrice
	}
}

// decodeCommission parses any known on-disk commission shape.
func decodeCommission(data []byte) (model.Commission, schemaVersion, error) {
	doc, err := readDocument(data)
	if err != nil {
		return model.Commission{}, 0, err
	}
	rec, err := classify(doc)
	if err != nil {
		return model.Commission{}, 0, err
	}
	return rec.commission(), rec.version(), nil
}

// DecodeCommission parses a commission record the way stored files are read,
// accepting the legacy float price. It is used for records supplied from
// outside the data directory.
func DecodeCommission(data []byte) (model.Commission, error) {
	c, _, err := decodeCommission(data)
	return c, err
}

func (f commissionFields) withPrice(cents int64) model.Commission {
	return model.Commission{
		ID:            f.ID,
		ClientID:      f.ClientID,
		ClientName:    f.ClientName,
		Title:         f.Title,
		Description:   f.Description,
		PriceCents:    cents,
		PaymentStatus: model.PaymentStatus(f.PaymentStatus),
		Status:        model.Status(f.Status),
		CreatedAt:     f.CreatedAt,
		UpdatedAt:     f.UpdatedAt,
		Images:        f.Images,
	}
}
