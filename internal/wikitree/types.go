package wikitree

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/person"
)

// flexInt accepts the server's habit of sending numbers as either JSON
// numbers or quoted strings.
type flexInt int64

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	s := strings.Trim(string(data), `"`)
	if s == "" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexInt(n)
	return nil
}

// apiStatus is zero on success and an explanatory string otherwise; the
// server sends it as either form.
type apiStatus string

func (s *apiStatus) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = apiStatus(str)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if n.String() == "0" {
		*s = ""
	} else {
		*s = apiStatus(n.String())
	}
	return nil
}

// Profile is the wire shape of one profile.
type Profile struct {
	ID        flexInt `json:"Id"`
	Name      string  `json:"Name"`
	IsLiving  flexInt `json:"IsLiving"`
	Privacy   flexInt `json:"Privacy"`
	Manager   flexInt `json:"Manager"`
	BirthDate string  `json:"BirthDate"`
	DeathDate string  `json:"DeathDate"`
	Father    flexInt `json:"Father"`
	Mother    flexInt `json:"Mother"`
	Bio       string  `json:"bio"`
}

// ToRecord converts the wire profile to the domain value type.
func (p Profile) ToRecord() person.Record {
	return person.Record{
		ID:        int64(p.ID),
		Name:      p.Name,
		ManagerID: int64(p.Manager),
		Privacy:   int(p.Privacy),
		IsLiving:  p.IsLiving != 0,
		Birth:     person.ParseDate(p.BirthDate),
		Death:     person.ParseDate(p.DeathDate),
		Bio:       p.Bio,
	}
}

// Parents returns the profile's parent ids, omitting unknown ones.
func (p Profile) Parents() []int64 {
	var ids []int64
	if p.Father != 0 {
		ids = append(ids, int64(p.Father))
	}
	if p.Mother != 0 {
		ids = append(ids, int64(p.Mother))
	}
	return ids
}
