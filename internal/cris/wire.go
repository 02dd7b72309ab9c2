// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cris

import (
	"bytes"
	"encoding/json"
)

type publicationsResponse struct {
	TotalCount   int           `json:"TotalCount"`
	Publications []publication `json:"Publications"`
}

type publication struct {
	ID                 flexString       `json:"Id"`
	Title              string           `json:"Title"`
	Year               flexInt          `json:"Year"`
	IdentifierDoi      []flexString     `json:"IdentifierDoi"`
	IdentifierPubmedID []flexString     `json:"IdentifierPubmedId"`
	IdentifierScopusID []flexString     `json:"IdentifierScopusId"`
	PublicationType    *publicationType `json:"PublicationType"`
}

type publicationType struct {
	NameEng string `json:"NameEng"`
}

// flexString accepts a JSON string or number. CRIS has served identifiers
// in both forms.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// flexInt accepts a JSON number or numeric string. Anything else decodes
// to zero so one malformed year does not fail the page.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	var s flexString
	if err := s.UnmarshalJSON(b); err != nil {
		*f = 0
		return nil
	}
	n := json.Number(s)
	if v, err := n.Int64(); err == nil {
		*f = flexInt(v)
		return nil
	}
	*f = 0
	return nil
}
