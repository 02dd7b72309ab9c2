package openalex

import "github.com/pdiddy/cris-reconcile/pkg/types"

// worksResponse is the envelope of the OpenAlex works endpoint. A match is
// decided on len(Results); Meta.Count is informational.
type worksResponse struct {
	Meta    meta   `json:"meta"`
	Results []work `json:"results"`
}

type meta struct {
	Count int `json:"count"`
}

type work struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	DisplayName  string       `json:"display_name"`
	CitedByCount int          `json:"cited_by_count"`
	Authorships  []authorship `json:"authorships"`
}

type authorship struct {
	Institutions []institution `json:"institutions"`
}

type institution struct {
	ID string `json:"id"`
}

func (w work) toRecord() types.TargetRecord {
	rec := types.TargetRecord{
		ID:           w.ID,
		Title:        w.DisplayName,
		CitedByCount: w.CitedByCount,
		Authorships:  make([]types.Authorship, 0, len(w.Authorships)),
	}
	if rec.Title == "" {
		rec.Title = w.Title
	}
	for _, a := range w.Authorships {
		ids := make([]string, 0, len(a.Institutions))
		for _, inst := range a.Institutions {
			if inst.ID != "" {
				ids = append(ids, inst.ID)
			}
		}
		rec.Authorships = append(rec.Authorships, types.Authorship{InstitutionIDs: ids})
	}
	return rec
}
