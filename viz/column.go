package viz

// ColumnDescription describes one table column. ID is the stable key used
// by queries and the engine; Label is the display name; Pattern is the
// format pattern last applied to the column, if any.
type ColumnDescription struct {
	ID         string
	Type       ValueType
	Label      string
	Pattern    string
	Properties map[string]string
}

// NewColumnDescription returns a column description with no label, pattern
// or properties.
func NewColumnDescription(id string, typ ValueType) ColumnDescription {
	return ColumnDescription{ID: id, Type: typ}
}

// Property returns the custom property for name, or "" when unset.
func (c *ColumnDescription) Property(name string) string {
	return c.Properties[name]
}

// SetProperty sets a custom property, allocating the map on first use.
func (c *ColumnDescription) SetProperty(name, value string) {
	if c.Properties == nil {
		c.Properties = map[string]string{}
	}
	c.Properties[name] = value
}

// Clone returns a deep copy of the description.
func (c ColumnDescription) Clone() ColumnDescription {
	out := c
	out.Properties = cloneProperties(c.Properties)
	return out
}

func cloneProperties(props map[string]string) map[string]string {
	if props == nil {
		return nil
	}
	out := make(map[string]string, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}
