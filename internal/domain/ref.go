package domain

import (
	"fmt"

	"github.com/goccy/go-json"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Ref is a reference to another document. Depending on how a record was
// fetched the reference is either a bare id or a populated sub-document;
// Doc holds the populated fields (without the id) and is nil for a bare id.
type Ref struct {
	ID  primitive.ObjectID
	Doc map[string]interface{}
}

// NewRef returns a bare reference to id.
func NewRef(id primitive.ObjectID) Ref {
	return Ref{ID: id}
}

// IsPopulated reports whether the reference carries a resolved sub-document.
func (r Ref) IsPopulated() bool {
	return len(r.Doc) > 0
}

// Bare drops any populated fields and keeps only the identifier.
func (r Ref) Bare() Ref {
	return Ref{ID: r.ID}
}

// Field returns a populated string field, or "" when absent.
func (r Ref) Field(name string) string {
	if r.Doc == nil {
		return ""
	}
	s, _ := r.Doc[name].(string)
	return s
}

// MarshalBSONValue always writes the bare id. Populated fields are never persisted.
func (r Ref) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(r.ID)
}

// UnmarshalBSONValue accepts an ObjectID, a hex string, or an embedded
// document carrying an _id (the shape produced by a $lookup).
func (r *Ref) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.ObjectID:
		*r = Ref{ID: raw.ObjectID()}
	case bsontype.String:
		id, err := primitive.ObjectIDFromHex(raw.StringValue())
		if err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		*r = Ref{ID: id}
	case bsontype.EmbeddedDocument:
		var doc map[string]interface{}
		if err := bson.Unmarshal(data, &doc); err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		id, ok := doc["_id"].(primitive.ObjectID)
		if !ok {
			return fmt.Errorf("ref: embedded document has no ObjectID _id")
		}
		delete(doc, "_id")
		if len(doc) == 0 {
			doc = nil
		}
		*r = Ref{ID: id, Doc: doc}
	case bsontype.Null, bsontype.Undefined:
		*r = Ref{}
	default:
		return fmt.Errorf("ref: cannot decode BSON type %s", t)
	}
	return nil
}

// MarshalJSON renders a bare reference as its hex id and a populated one as
// an object with an "id" key alongside the populated fields.
func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.IsPopulated() {
		return json.Marshal(r.ID.Hex())
	}
	out := make(map[string]interface{}, len(r.Doc)+1)
	for k, v := range r.Doc {
		out[k] = v
	}
	out["id"] = r.ID.Hex()
	return json.Marshal(out)
}

// UnmarshalJSON accepts "hex" or {"id": "hex", ...} ("_id" is also accepted).
func (r *Ref) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return fmt.Errorf("ref: %w", err)
		}
		*r = Ref{ID: id}
		return nil
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("ref: expected id string or object: %w", err)
	}
	rawID, ok := doc["id"]
	if !ok {
		rawID, ok = doc["_id"]
	}
	hex, isString := rawID.(string)
	if !ok || !isString {
		return fmt.Errorf("ref: object has no string id")
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return fmt.Errorf("ref: %w", err)
	}
	delete(doc, "id")
	delete(doc, "_id")
	if len(doc) == 0 {
		doc = nil
	}
	*r = Ref{ID: id, Doc: doc}
	return nil
}
