package normalize

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/SOURCE-CODEcommunity/Stakeholder-Identification/internal/model"
)

// decodeBatch decodes a JSON object carrying a stakeholders field, or a bare
// array of stakeholder objects.
func decodeBatch(text string) ([]model.Stakeholder, error) {
	data := []byte(strings.TrimSpace(text))
	if len(data) == 0 {
		return nil, eris.New("normalize: empty payload")
	}

	switch data[0] {
	case '[':
		return decodeList(data)
	case '{':
		var batch struct {
			Stakeholders json.RawMessage `json:"stakeholders"`
		}
		if err := json.Unmarshal(data, &batch); err != nil {
			return nil, eris.Wrap(err, "normalize: decode object")
		}
		if len(batch.Stakeholders) == 0 {
			return []model.Stakeholder{}, nil
		}
		return decodeList(batch.Stakeholders)
	default:
		return nil, eris.New("normalize: payload is not a JSON object or array")
	}
}

// decodeList accepts an array of entries, a single object, or null. String
// entries are read as a bare name; other scalars and records with every
// field empty are skipped.
func decodeList(data json.RawMessage) ([]model.Stakeholder, error) {
	data = bytes.TrimSpace(data)
	out := []model.Stakeholder{}

	switch {
	case len(data) == 0 || string(data) == "null":
		return out, nil
	case data[0] == '{':
		var w wireStakeholder
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, eris.Wrap(err, "normalize: decode stakeholder")
		}
		if st := w.model(); !st.IsZero() {
			out = append(out, st)
		}
		return out, nil
	case data[0] != '[':
		return nil, eris.New("normalize: stakeholders is not a list")
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrap(err, "normalize: decode stakeholder list")
	}
	for _, e := range entries {
		e = bytes.TrimSpace(e)
		if len(e) == 0 {
			continue
		}
		switch e[0] {
		case '{':
			var w wireStakeholder
			if err := json.Unmarshal(e, &w); err != nil {
				return nil, eris.Wrap(err, "normalize: decode stakeholder")
			}
			if st := w.model(); !st.IsZero() {
				out = append(out, st)
			}
		case '"':
			var name string
			if err := json.Unmarshal(e, &name); err == nil && strings.TrimSpace(name) != "" {
				out = append(out, model.Stakeholder{Name: strings.TrimSpace(name)})
			}
		}
	}
	return out, nil
}

type wireStakeholder struct {
	Name         text        `json:"name"`
	Organization text        `json:"organization"`
	Email        text        `json:"email"`
	Phone        text        `json:"phone"`
	SocialLinks  wireSocials `json:"social_links"`
	OtherInfo    text        `json:"other_info"`
}

func (w wireStakeholder) model() model.Stakeholder {
	return model.Stakeholder{
		Name:         string(w.Name),
		Organization: string(w.Organization),
		Email:        string(w.Email),
		Phone:        string(w.Phone),
		SocialLinks:  model.SocialLinks(w.SocialLinks),
		OtherInfo:    string(w.OtherInfo),
	}
}

// text is a string field that also accepts numbers, booleans, arrays and
// null from loosely formatted backend output.
type text string

func (t *text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*t = ""
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = text(strings.TrimSpace(s))
	case '[':
		var items []text
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		parts := make([]string, 0, len(items))
		for _, it := range items {
			if it != "" {
				parts = append(parts, string(it))
			}
		}
		*t = text(strings.Join(parts, ", "))
	case '{':
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return err
		}
		*t = text(buf.String())
	default:
		*t = text(data)
	}
	return nil
}

// wireSocials accepts the requested {linkedin, twitter, facebook} object, or
// a string or list of profile URLs classified by host.
type wireSocials struct {
	LinkedIn string
	Twitter  string
	Facebook string
}

func (w *wireSocials) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '{' {
		var obj struct {
			LinkedIn text `json:"linkedin"`
			Twitter  text `json:"twitter"`
			Facebook text `json:"facebook"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return err
		}
		w.LinkedIn, w.Twitter, w.Facebook = string(obj.LinkedIn), string(obj.Twitter), string(obj.Facebook)
		return nil
	}

	var urls []text
	if data[0] == '[' {
		if err := json.Unmarshal(data, &urls); err != nil {
			return err
		}
	} else {
		var one text
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		urls = []text{one}
	}
	for _, u := range urls {
		s := string(u)
		lower := strings.ToLower(s)
		switch {
		case strings.Contains(lower, "linkedin.com") && w.LinkedIn == "":
			w.LinkedIn = s
		case (strings.Contains(lower, "twitter.com") || strings.Contains(lower, "//x.com")) && w.Twitter == "":
			w.Twitter = s
		case strings.Contains(lower, "facebook.com") && w.Facebook == "":
			w.Facebook = s
		}
	}
	return nil
}
