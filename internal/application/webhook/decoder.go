package webhook

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/erp/orderhook/internal/domain/webhook"
	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed schemas/*.json
var schemaFS embed.FS

const (
	orderSchema       = "order.json"
	fulfillmentSchema = "fulfillment.json"
)

// PayloadDecoder turns a raw event payload into the typed snapshot for its
// topic. The payload is checked against the topic's JSON schema before it is
// decoded, and the decoded struct is validated field by field.
type PayloadDecoder struct {
	order       *jsonschema.Schema
	fulfillment *jsonschema.Schema
	validate    *validator.Validate
}

// NewPayloadDecoder compiles the embedded topic schemas
func NewPayloadDecoder() (*PayloadDecoder, error) {
	c := jsonschema.NewCompiler()
	for _, name := range []string{orderSchema, fulfillmentSchema} {
		raw, err := schemaFS.ReadFile("schemas/" + name)
		if err != nil {
			return nil, fmt.Errorf("read schema %s: %w", name, err)
		}
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse schema %s: %w", name, err)
		}
		if err := c.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("add schema %s: %w", name, err)
		}
	}

	orderSch, err := c.Compile(orderSchema)
	if err != nil {
		return nil, fmt.Errorf("compile order schema: %w", err)
	}
	fulfillmentSch, err := c.Compile(fulfillmentSchema)
	if err != nil {
		return nil, fmt.Errorf("compile fulfillment schema: %w", err)
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &PayloadDecoder{order: orderSch, fulfillment: fulfillmentSch, validate: v}, nil
}

// MustNewPayloadDecoder is like NewPayloadDecoder but panics on error. The
// schemas are compiled into the binary, so an error is a build defect.
func MustNewPayloadDecoder() *PayloadDecoder {
	d, err := NewPayloadDecoder()
	if err != nil {
		panic(err)
	}
	return d
}

// DecodeOrder decodes an order snapshot. Errors wrap webhook.ErrSchemaMismatch.
func (d *PayloadDecoder) DecodeOrder(payload []byte) (*webhook.OrderPayload, error) {
	var out webhook.OrderPayload
	if err := d.decode(d.order, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DecodeFulfillment decodes a fulfillment snapshot. Errors wrap
// webhook.ErrSchemaMismatch.
func (d *PayloadDecoder) DecodeFulfillment(payload []byte) (*webhook.FulfillmentPayload, error) {
	var out webhook.FulfillmentPayload
	if err := d.decode(d.fulfillment, payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (d *PayloadDecoder) decode(schema *jsonschema.Schema, payload []byte, out any) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: %v", webhook.ErrSchemaMismatch, err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %s", webhook.ErrSchemaMismatch, schemaErrorSummary(err))
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", webhook.ErrSchemaMismatch, err)
	}
	if err := d.validate.Struct(out); err != nil {
		return fmt.Errorf("%w: %v", webhook.ErrSchemaMismatch, err)
	}
	return nil
}

// schemaErrorSummary flattens a schema validation error to one line
func schemaErrorSummary(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return err.Error()
	}
	return strings.Join(strings.Fields(ve.Error()), " ")
}
