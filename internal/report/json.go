package report

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Maksym-Tokariev/csv-parser/internal/types"
)

// field is one member of an ordered JSON object.
type field struct {
	key   string
	value interface{}
}

// object is a JSON object that keeps its member order.
type object []field

// MarshalJSON implements json.Marshaler.
func (o object) MarshalJSON() ([]byte, error) {
	var buffer bytes.Buffer
	buffer.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buffer.WriteByte(',')
		}
		key, err := marshal(f.key, "")
		if err != nil {
			return nil, err
		}
		value, err := marshal(f.value, "")
		if err != nil {
			return nil, err
		}
		buffer.Write(key)
		buffer.WriteByte(':')
		buffer.Write(value)
	}
	buffer.WriteByte('}')
	return buffer.Bytes(), nil
}

// EncodeJSON renders the report document as indented JSON.
func EncodeJSON(rep types.Report) ([]byte, error) {
	data, err := marshal(document(rep), "  ")
	if err != nil {
		return nil, Error.Wrap(err)
	}
	return append(data, '\n'), nil
}

// marshal encodes v without HTML escaping so keys such as "Art & Craft"
// stay readable.
func marshal(v interface{}, indent string) ([]byte, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buffer.Bytes(), []byte{'\n'}), nil
}

// document builds the ordered report document.
func document(rep types.Report) object {
	stat := rep.Stat
	digits := stat.FractionDigits

	statObject := object{
		{"totalItems", stat.TotalItems},
		{"totalRevenue", money(stat.TotalRevenue, digits)},
	}
	for _, dim := range stat.Dimensions {
		statObject = append(statObject, field{dim.Name + "Count", dim.Count})
	}
	for _, dim := range stat.Dimensions {
		statObject = append(statObject, field{dim.Name + "Stats", dimensionObject(dim.Stats, digits)})
	}

	return object{
		{"totalLines", rep.TotalLines},
		{"validLines", rep.ValidLines},
		{"invalidLines", rep.InvalidLines},
		{"skippedRows", rep.SkippedRows},
		{"stat", statObject},
	}
}

// dimensionObject renders one dimension. encoding/json writes map keys
// sorted, which matches the key order of DimensionStats.
func dimensionObject(stats types.DimensionStats, digits int32) object {
	items := make(map[string]int64, len(stats.Keys))
	revenue := make(map[string]json.Number, len(stats.Keys))
	avgPrice := make(map[string]json.Number, len(stats.Keys))

	for _, key := range stats.Keys {
		items[key] = stats.Items[key]
		revenue[key] = money(stats.Revenue[key], digits)
		avgPrice[key] = json.Number(stats.AvgPrice[key].String())
	}

	return object{
		{"items", items},
		{"revenue", revenue},
		{"avgPrice", avgPrice},
	}
}

// money renders a revenue figure with exactly digits fraction digits.
func money(d decimal.Decimal, digits int32) json.Number {
	return json.Number(d.StringFixed(digits))
}
