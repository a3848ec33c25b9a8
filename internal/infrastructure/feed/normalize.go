package feed

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ISOLayout renders UTC instants the way browsers print Date.toISOString.
const ISOLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t as ISO text, or "" for the zero time.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ISOLayout)
}

// NormalizeTimestamp converts any textual timestamp to ISO text, or "" when it
// does not parse.
func NormalizeTimestamp(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return ""
	}
	return FormatTime(t)
}

// recordFromRaw maps a stored product document. Missing or mistyped fields fall
// back to zero values so one bad document cannot break a snapshot.
func recordFromRaw(raw bson.Raw) Record {
	return Record{
		ID:        idString(raw.Lookup("_id")),
		Name:      stringValue(raw.Lookup("name")),
		SKU:       stringValue(raw.Lookup("sku")),
		Price:     numberValue(raw.Lookup("price")),
		Stock:     int(numberValue(raw.Lookup("stock"))),
		Category:  stringValue(raw.Lookup("category")),
		Status:    stringValue(raw.Lookup("status")),
		CreatedAt: timeValue(raw.Lookup("created_at")),
		UpdatedAt: timeValue(raw.Lookup("updated_at")),
	}
}

func idString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	return stringValue(v)
}

func stringValue(v bson.RawValue) string {
	s, _ := v.StringValueOK()
	return s
}

func numberValue(v bson.RawValue) float64 {
	switch v.Type {
	case bsontype.Double:
		return v.Double()
	case bsontype.Int32:
		return float64(v.Int32())
	case bsontype.Int64:
		return float64(v.Int64())
	}
	return 0
}

func timeValue(v bson.RawValue) string {
	switch v.Type {
	case bsontype.DateTime:
		return FormatTime(time.UnixMilli(v.DateTime()))
	case bsontype.Timestamp:
		sec, _ := v.Timestamp()
		return FormatTime(time.Unix(int64(sec), 0))
	case bsontype.String:
		return NormalizeTimestamp(v.StringValue())
	}
	return ""
}
