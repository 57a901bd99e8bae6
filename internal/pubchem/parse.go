// ABOUTME: Parsing of PUG-REST JSON payloads into compound records
// ABOUTME: Reads IdentifierList and PC_Compounds props with gjson

package pubchem

import (
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/2389/chembot/internal/compound"
)

// parseIdentifierList reads IdentifierList.CID. A missing list is a shape
// error; an empty list is not.
func parseIdentifierList(body []byte) ([]compound.CID, error) {
	list := gjson.GetBytes(body, "IdentifierList.CID")
	if !list.Exists() {
		return nil, errors.New("response has no IdentifierList.CID")
	}
	if !list.IsArray() {
		return nil, errors.New("IdentifierList.CID is not an array")
	}

	var ids []compound.CID
	for _, v := range list.Array() {
		if v.Type != gjson.Number || v.Int() <= 0 {
			return nil, fmt.Errorf("invalid cid %q in IdentifierList", v.Raw)
		}
		ids = append(ids, compound.CID(v.Int()))
	}
	return ids, nil
}

// property is one PC_Compounds prop value, keyed by urn label and name.
type property struct {
	label string
	name  string
	value gjson.Result
}

// parseRecord builds a Record from a /compound/cid/{id}/JSON body.
func parseRecord(body []byte, requested compound.CID) (compound.Record, error) {
	c := gjson.GetBytes(body, "PC_Compounds.0")
	if !c.Exists() || !c.IsObject() {
		return compound.Record{}, errors.New("response has no PC_Compounds entry")
	}

	id := requested
	if v := c.Get("id.id.cid"); v.Exists() {
		if v.Int() <= 0 {
			return compound.Record{}, fmt.Errorf("invalid cid %q in record", v.Raw)
		}
		id = compound.CID(v.Int())
	}

	var props []property
	c.Get("props").ForEach(func(_, p gjson.Result) bool {
		props = append(props, property{
			label: p.Get("urn.label").String(),
			name:  p.Get("urn.name").String(),
			value: p.Get("value"),
		})
		return true
	})

	rec := compound.Record{
		ID:        id,
		Formula:   compound.NotAvailable,
		Weight:    compound.UnknownWeight(),
		IUPACName: pick(props, "IUPAC Name", "Preferred"),
		SMILES:    pick(props, "SMILES", "Canonical", "Connectivity"),
		InChIKey:  pick(props, "InChIKey"),
	}

	if f := pick(props, "Molecular Formula"); f != "" {
		rec.Formula = f
	} else if f := c.Get("atoms.fstring").String(); f != "" {
		rec.Formula = f
	}

	for _, p := range props {
		if p.label != "Molecular Weight" {
			continue
		}
		if s := p.value.Get("sval"); s.Exists() {
			rec.Weight = compound.ParseWeight(s.String())
		} else if f := p.value.Get("fval"); f.Exists() && f.Type == gjson.Number {
			rec.Weight = compound.ParseWeight(f.Raw)
		}
		break
	}

	rec.DisplayName = rec.IUPACName
	if rec.DisplayName == "" {
		rec.DisplayName = "CID " + id.String()
	}
	return rec, nil
}

// pick returns the string value of the prop with the given label, preferring
// the listed urn names in order, then the first prop with that label.
func pick(props []property, label string, preferred ...string) string {
	for _, want := range preferred {
		for _, p := range props {
			if p.label == label && p.name == want {
				if s := p.value.Get("sval").String(); s != "" {
					return s
				}
			}
		}
	}
	for _, p := range props {
		if p.label == label {
			if s := p.value.Get("sval").String(); s != "" {
				return s
			}
		}
	}
	return ""
}
