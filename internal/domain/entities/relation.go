package entities

import (
	"maps"
	"time"
)

// Relation is a directed, typed edge between two entities.
//
// A relation with an empty ID is a simple relation: a bare triple with no
// properties and no active flag. Complex relations carry an ID, properties
// and an Active flag; Inverse holds the ID of the paired reverse relation.
type Relation struct {
	ID          string     `json:"id,omitempty"`
	Source      EntityRef  `json:"source"`
	Destination EntityRef  `json:"destination"`
	Type        string     `json:"type"`
	Active      bool       `json:"active"`
	Inverse     string     `json:"inverse,omitempty"`
	Properties  Properties `json:"properties"`
}

// IsSimple reports whether r is a simple relation.
func (r *Relation) IsSimple() bool {
	return r.ID == ""
}

// Key identifies the logical edge: source, type and destination.
func (r *Relation) Key() string {
	return r.Source.ID + "\x00" + r.Type + "\x00" + r.Destination.ID
}

// Clone returns a deep copy of r.
func (r *Relation) Clone() Relation {
	c := *r
	c.Source.Parent = nil
	c.Destination.Parent = nil
	c.Properties = r.Properties.Clone()
	return c
}

// Well-known property keys.
const (
	PropCreatedBy = "createdBy"
	PropCreatedOn = "createdOn"
	PropStatus    = "status"
)

// Properties holds relation metadata. Well-known fields are typed; anything
// else lives in Extra keyed by short property name.
type Properties struct {
	CreatedBy string           `json:"createdBy,omitempty"`
	CreatedOn time.Time        `json:"createdOn,omitzero"`
	Status    string           `json:"status,omitempty"`
	Extra     map[string]Value `json:"extra,omitempty"`
}

// PropertiesFromMap converts a loosely typed property map. Well-known keys
// are matched with or without the "emf:" prefix.
func PropertiesFromMap(m map[string]any) (Properties, error) {
	var p Properties
	for k, raw := range m {
		switch trimDefaultPrefix(k) {
		case PropCreatedBy:
			switch x := raw.(type) {
			case string:
				p.CreatedBy = x
			case *EntityRef:
				if x != nil {
					p.CreatedBy = x.ID
				}
			}
			continue
		case PropCreatedOn:
			switch x := raw.(type) {
			case time.Time:
				p.CreatedOn = x
				continue
			case string:
				if t, err := time.Parse(time.RFC3339, x); err == nil {
					p.CreatedOn = t
					continue
				}
			}
		case PropStatus:
			if s, ok := raw.(string); ok {
				p.Status = s
				continue
			}
		}
		v, err := ValueOf(raw)
		if err != nil {
			return Properties{}, err
		}
		p.Set(k, v)
	}
	return p, nil
}

func trimDefaultPrefix(k string) string {
	if len(k) > 4 && k[:4] == "emf:" {
		return k[4:]
	}
	return k
}

// Set stores an extension property.
func (p *Properties) Set(key string, v Value) {
	if p.Extra == nil {
		p.Extra = make(map[string]Value)
	}
	p.Extra[key] = v
}

// Get returns an extension property.
func (p *Properties) Get(key string) (Value, bool) {
	v, ok := p.Extra[key]
	return v, ok
}

// IsEmpty reports whether no property is set.
func (p *Properties) IsEmpty() bool {
	return p.CreatedBy == "" && p.CreatedOn.IsZero() && p.Status == "" && len(p.Extra) == 0
}

// Clone returns a deep copy of p.
func (p Properties) Clone() Properties {
	p.Extra = maps.Clone(p.Extra)
	return p
}

// Merge overlays the non-empty fields of o onto p.
func (p *Properties) Merge(o Properties) {
	if o.CreatedBy != "" {
		p.CreatedBy = o.CreatedBy
	}
	if !o.CreatedOn.IsZero() {
		p.CreatedOn = o.CreatedOn
	}
	if o.Status != "" {
		p.Status = o.Status
	}
	for k, v := range o.Extra {
		p.Set(k, v)
	}
}
