package csv

// Row is one logical record: an ordered field sequence, keyed by column
// name when a header is active. Rows are produced fresh per line and are
// not retained by the Reader after the callback returns.
type Row struct {
	fields []string
	names  []string
}

// Fields returns the ordered field values.
func (r Row) Fields() []string {
	return r.fields
}

// Len returns the number of fields.
func (r Row) Len() int {
	return len(r.fields)
}

// Field returns the field at position i.
func (r Row) Field(i int) string {
	return r.fields[i]
}

// Named reports whether the row carries header names.
func (r Row) Named() bool {
	return r.names != nil
}

// Names returns the header names in column order, or nil when no header is
// active.
func (r Row) Names() []string {
	return r.names
}

// Get returns the field under the given column name. The second return is
// false when no header is active or the name is unknown.
func (r Row) Get(name string) (string, bool) {
	for i, n := range r.names {
		if n == name {
			return r.fields[i], true
		}
	}
	return "", false
}

// Map returns the row as a name-to-value mapping, or nil when no header is
// active. Column order is available through Names.
func (r Row) Map() map[string]string {
	if r.names == nil {
		return nil
	}
	m := make(map[string]string, len(r.names))
	for i, n := range r.names {
		m[n] = r.fields[i]
	}
	return m
}
