package models

import (
	"encoding/json"
	"strings"

	"github.com/campus-site/core/internal/pkg/apperr"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BlobID identifies a stored blob. It does not convert to ContentID.
type BlobID struct{ oid primitive.ObjectID }

// ContentID identifies a content document.
type ContentID struct{ oid primitive.ObjectID }

func NewBlobID() BlobID       { return BlobID{oid: primitive.NewObjectID()} }
func NewContentID() ContentID { return ContentID{oid: primitive.NewObjectID()} }

// ParseBlobID parses a 24-char hex reference.
func ParseBlobID(raw string) (BlobID, error) {
	oid, err := parseObjectID(raw)
	if err != nil {
		return BlobID{}, apperr.InvalidReference("parse blob id", raw, err)
	}
	return BlobID{oid: oid}, nil
}

// ParseContentID parses a 24-char hex content id.
func ParseContentID(raw string) (ContentID, error) {
	oid, err := parseObjectID(raw)
	if err != nil {
		return ContentID{}, apperr.InvalidReference("parse content id", raw, err)
	}
	return ContentID{oid: oid}, nil
}

func BlobIDFromObjectID(oid primitive.ObjectID) BlobID       { return BlobID{oid: oid} }
func ContentIDFromObjectID(oid primitive.ObjectID) ContentID { return ContentID{oid: oid} }

func parseObjectID(raw string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(strings.TrimSpace(raw))
}

func (id BlobID) ObjectID() primitive.ObjectID { return id.oid }
func (id BlobID) String() string               { return id.oid.Hex() }
func (id BlobID) IsZero() bool                 { return id.oid.IsZero() }

func (id ContentID) ObjectID() primitive.ObjectID { return id.oid }
func (id ContentID) String() string               { return id.oid.Hex() }
func (id ContentID) IsZero() bool                 { return id.oid.IsZero() }

func (id BlobID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }

func (id *BlobID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseBlobID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id ContentID) MarshalJSON() ([]byte, error) { return json.Marshal(id.String()) }

func (id *ContentID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseContentID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id BlobID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(id.oid)
}

func (id *BlobID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	return bson.RawValue{Type: t, Value: data}.Unmarshal(&id.oid)
}

func (id ContentID) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(id.oid)
}

func (id *ContentID) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	return bson.RawValue{Type: t, Value: data}.Unmarshal(&id.oid)
}
