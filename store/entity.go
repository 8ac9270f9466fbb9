package store

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/jacentio/tripdb/internal/keys"
)

// Entity is implemented by every record written to the table. The record
// is marshaled with attributevalue and must produce PK and SK attributes
// matching EntityKey.
type Entity interface {
	EntityKey() keys.Key
}

// Item is a raw DynamoDB item.
type Item map[string]types.AttributeValue

// String returns a string attribute, or "" when missing or not a string.
func (i Item) String(attr string) string {
	if v, ok := i[attr].(*types.AttributeValueMemberS); ok {
		return v.Value
	}
	return ""
}

// Key returns the item's primary key.
func (i Item) Key() keys.Key {
	return keys.Key{PK: i.String(keys.AttrPK), SK: i.String(keys.AttrSK)}
}

// Unmarshal decodes the item into out (a pointer to a dynamodbav-tagged struct).
func (i Item) Unmarshal(out any) error {
	return attributevalue.UnmarshalMap(i, out)
}

// Document decodes the item into plain Go values for JSON responses.
// Numbers decode as json.Number so integers beyond 2^53 keep every digit.
func (i Item) Document() (map[string]any, error) {
	dec := attributevalue.NewDecoder(func(o *attributevalue.DecoderOptions) {
		o.UseNumber = true
	})
	doc := map[string]any{}
	if err := dec.Decode(&types.AttributeValueMemberM{Value: i}, &doc); err != nil {
		return nil, err
	}
	for k, v := range doc {
		doc[k] = jsonNumbers(v)
	}
	return doc, nil
}

// jsonNumbers replaces decoded attributevalue numbers with json.Number,
// which encoding/json writes as a bare number.
func jsonNumbers(v any) any {
	switch t := v.(type) {
	case attributevalue.Number:
		return json.Number(t)
	case []attributevalue.Number:
		out := make([]json.Number, len(t))
		for i, n := range t {
			out[i] = json.Number(n)
		}
		return out
	case map[string]any:
		for k, e := range t {
			t[k] = jsonNumbers(e)
		}
		return t
	case []any:
		for i, e := range t {
			t[i] = jsonNumbers(e)
		}
		return t
	}
	return v
}

// keyAttributes renders a key as the attribute map DynamoDB expects.
func keyAttributes(k keys.Key) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		keys.AttrPK: &types.AttributeValueMemberS{Value: k.PK},
		keys.AttrSK: &types.AttributeValueMemberS{Value: k.SK},
	}
}

// marshalEntity renders an entity, checking the key attributes are present.
func marshalEntity(e Entity) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(e)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", e.EntityKey(), err)
	}
	if Item(item).String(keys.AttrPK) == "" || Item(item).String(keys.AttrSK) == "" {
		return nil, fmt.Errorf("marshal %s: %w", e.EntityKey(), ErrMissingKey)
	}
	return item, nil
}
