package usecase

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"cv-builder/internal/model"
	"cv-builder/pkg/apperror"
)

// SectionItems converts a client-supplied section value into items. Common
// input shapes are normalized: null is an empty section, bare strings become
// {"name": s} items, and a single object is treated as a one-item section.
func SectionItems(section string, raw json.RawMessage) ([]model.Item, error) {
	var v interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, apperror.BadRequest(fmt.Sprintf("Invalid %s payload", section))
		}
	}

	switch t := v.(type) {
	case nil:
		return []model.Item{}, nil
	case map[string]interface{}:
		return []model.Item{model.Item(t)}, nil
	case []interface{}:
		items := make([]model.Item, 0, len(t))
		for i, e := range t {
			switch it := e.(type) {
			case nil:
				continue
			case map[string]interface{}:
				items = append(items, model.Item(it))
			case string:
				items = append(items, model.Item{"name": it})
			default:
				return nil, apperror.BadRequest(fmt.Sprintf("%s[%d] must be an object", section, i))
			}
		}
		return items, nil
	}
	return nil, apperror.BadRequest(fmt.Sprintf("%s must be an array", section))
}

// PersonalInfoFrom decodes the personalInfo section; null clears it.
func PersonalInfoFrom(raw json.RawMessage) (model.PersonalInfo, error) {
	var p *model.PersonalInfo
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &p); err != nil {
			return model.PersonalInfo{}, apperror.BadRequest("personalInfo must be an object of strings")
		}
	}
	if p == nil {
		return model.PersonalInfo{}, nil
	}
	return *p, nil
}

// ItemFields decodes an item body. An empty body is an empty item.
func ItemFields(raw []byte) (model.Item, error) {
	var it model.Item
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, apperror.BadRequest("Item must be a JSON object")
		}
	}
	if it == nil {
		it = model.Item{}
	}
	return it, nil
}

// idGenerator hands out millisecond timestamp ids that never repeat within
// the process, even when several are requested in the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return strconv.FormatInt(ms, 10)
}

// uniqueID returns a fresh id that no item in items already uses.
func (g *idGenerator) uniqueID(items []model.Item, now time.Time) string {
	for {
		id := g.next(now)
		if indexOf(items, id) < 0 {
			return id
		}
	}
}

func indexOf(items []model.Item, id string) int {
	for i, it := range items {
		if it.ID() == id {
			return i
		}
	}
	return -1
}
