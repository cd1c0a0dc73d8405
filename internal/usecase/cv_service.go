package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"cv-builder/internal/model"
	"cv-builder/internal/session"
	"cv-builder/pkg/apperror"
)

// SessionStore is the part of the session store the CV service needs.
type SessionStore interface {
	Get(ctx context.Context, sessionID string) (*model.Document, bool)
	Set(ctx context.Context, sessionID string, doc *model.Document, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string)
}

// CVService owns the CV document of each session. Every operation is a
// read-modify-write against the store without locking; concurrent writers
// to one session resolve as last write wins.
type CVService struct {
	store SessionStore
	ttl   time.Duration
	now   func() time.Time
	ids   *idGenerator
	log   *slog.Logger
}

func NewCVService(store SessionStore, ttl time.Duration, log *slog.Logger) *CVService {
	if ttl <= 0 {
		ttl = session.DefaultTTL
	}
	if log == nil {
		log = slog.Default()
	}
	return &CVService{store: store, ttl: ttl, now: time.Now, ids: &idGenerator{}, log: log}
}

// GetDocument returns the stored document or, when none exists, a fresh
// empty template that is not persisted.
func (s *CVService) GetDocument(ctx context.Context, sessionID string) *model.Document {
	if doc, ok := s.store.Get(ctx, sessionID); ok {
		return doc
	}
	return s.EmptyTemplate()
}

// EmptyTemplate returns the canonical blank document.
func (s *CVService) EmptyTemplate() *model.Document {
	return model.EmptyDocument(s.now())
}

// ReplaceDocument validates a full document body and saves it.
func (s *CVService) ReplaceDocument(ctx context.Context, sessionID string, raw []byte) (*model.Document, error) {
	if errs := model.ValidateJSON(raw); len(errs) > 0 {
		return nil, apperror.Validation(errs)
	}
	doc, err := model.DecodeDocument(raw)
	if err != nil {
		return nil, apperror.BadRequest(err.Error())
	}
	return s.SaveDocument(ctx, sessionID, doc)
}

// SaveDocument sanitizes doc and persists it without validating. The
// original creation time of an existing document is kept, and items with a
// missing or repeated id get a new one.
func (s *CVService) SaveDocument(ctx context.Context, sessionID string, doc *model.Document) (*model.Document, error) {
	out := model.Sanitize(doc)
	now := s.now()
	for _, name := range model.ArraySections {
		s.ensureIDs(*out.Section(name), now)
	}

	prev, exists := s.store.Get(ctx, sessionID)
	switch {
	case exists && prev.CreatedAt != "":
		out.CreatedAt = prev.CreatedAt
	case validTime(out.CreatedAt):
	default:
		out.CreatedAt = model.FormatTime(now)
	}
	last := ""
	if exists {
		last = prev.LastUpdated
	}
	out.LastUpdated = stamp(last, now)

	if err := s.persist(ctx, sessionID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteDocument removes the session's document. Deleting nothing succeeds.
func (s *CVService) DeleteDocument(ctx context.Context, sessionID string) {
	s.store.Delete(ctx, sessionID)
}

// UpdateSection replaces one named section wholesale and returns the full
// document. Items without an id, or repeating an earlier id, get a new one.
func (s *CVService) UpdateSection(ctx context.Context, sessionID, section string, raw json.RawMessage) (*model.Document, error) {
	if !model.IsSection(section) {
		return nil, invalidSection(section)
	}
	doc := s.load(ctx, sessionID)
	now := s.now()

	if section == model.SectionPersonalInfo {
		p, err := PersonalInfoFrom(raw)
		if err != nil {
			return nil, err
		}
		doc.PersonalInfo = p
	} else {
		items, err := SectionItems(section, raw)
		if err != nil {
			return nil, err
		}
		*doc.Section(section) = items
	}

	out := model.Sanitize(doc)
	if items := out.Section(section); items != nil {
		s.ensureIDs(*items, now)
	}
	out.LastUpdated = stamp(doc.LastUpdated, now)
	if err := s.persist(ctx, sessionID, out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddItem appends an item with a server-assigned id and createdAt.
func (s *CVService) AddItem(ctx context.Context, sessionID, section string, fields model.Item) (model.Item, error) {
	if err := checkItemSection(section); err != nil {
		return nil, err
	}
	doc := s.load(ctx, sessionID)
	items := doc.Section(section)
	if len(*items) >= model.MaxItems(section) {
		return nil, sectionFull(section)
	}
	now := s.now()

	item := fields.Clone()
	if item == nil {
		item = model.Item{}
	}
	item["id"] = s.ids.uniqueID(*items, now)
	item["createdAt"] = model.FormatTime(now)
	*items = append(*items, item)

	return s.commitItem(ctx, sessionID, section, doc, item.ID(), now)
}

// UpdateItem merges patch over the item with itemID, keeping its id and
// stamping updatedAt. When no such item exists one is created with itemID.
func (s *CVService) UpdateItem(ctx context.Context, sessionID, section, itemID string, patch model.Item) (model.Item, error) {
	if err := checkItemSection(section); err != nil {
		return nil, err
	}
	itemID = model.SanitizeString(itemID)
	if itemID == "" {
		return nil, apperror.BadRequest("Item id is required")
	}
	doc := s.load(ctx, sessionID)
	items := doc.Section(section)
	now := s.now()

	i := indexOf(*items, itemID)
	if i < 0 {
		if len(*items) >= model.MaxItems(section) {
			return nil, sectionFull(section)
		}
		item := patch.Clone()
		if item == nil {
			item = model.Item{}
		}
		item["id"] = itemID
		item["createdAt"] = model.FormatTime(now)
		*items = append(*items, item)
	} else {
		merged := (*items)[i].Clone()
		for k, v := range patch {
			merged[k] = v
		}
		merged["id"] = (*items)[i]["id"]
		merged["updatedAt"] = model.FormatTime(now)
		(*items)[i] = merged
	}

	return s.commitItem(ctx, sessionID, section, doc, itemID, now)
}

// RemoveItem drops every item with itemID. Removing a missing item, or from
// a session without a document, succeeds without writing.
func (s *CVService) RemoveItem(ctx context.Context, sessionID, section, itemID string) error {
	if !model.IsSection(section) {
		return invalidSection(section)
	}
	itemID = model.SanitizeString(itemID)
	if section == model.SectionPersonalInfo || itemID == "" {
		return nil
	}
	doc, ok := s.store.Get(ctx, sessionID)
	if !ok {
		return nil
	}
	items := doc.Section(section)
	kept := make([]model.Item, 0, len(*items))
	for _, it := range *items {
		if it.ID() != itemID {
			kept = append(kept, it)
		}
	}
	if len(kept) == len(*items) {
		return nil
	}
	*items = kept

	out := model.Sanitize(doc)
	out.LastUpdated = stamp(doc.LastUpdated, s.now())
	return s.persist(ctx, sessionID, out)
}

func (s *CVService) load(ctx context.Context, sessionID string) *model.Document {
	if doc, ok := s.store.Get(ctx, sessionID); ok {
		return doc
	}
	return s.EmptyTemplate()
}

func (s *CVService) commitItem(ctx context.Context, sessionID, section string, doc *model.Document, itemID string, now time.Time) (model.Item, error) {
	out := model.Sanitize(doc)
	out.LastUpdated = stamp(doc.LastUpdated, now)
	if err := s.persist(ctx, sessionID, out); err != nil {
		return nil, err
	}
	items := *out.Section(section)
	i := indexOf(items, itemID)
	if i < 0 {
		return nil, apperror.Internal(fmt.Errorf("item %s missing after save", itemID))
	}
	return items[i], nil
}

func (s *CVService) persist(ctx context.Context, sessionID string, doc *model.Document) error {
	if err := s.store.Set(ctx, sessionID, doc, s.ttl); err != nil {
		s.log.Error("persist CV document", "session", sessionID, "error", err)
		return apperror.Internal(err)
	}
	return nil
}

// ensureIDs gives every item a unique id in place. Ids are compared in their
// sanitized form, the form they are stored in.
func (s *CVService) ensureIDs(items []model.Item, now time.Time) {
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		id := model.SanitizeString(it.ID())
		if id == "" || seen[id] {
			id = s.ids.uniqueID(items, now)
		}
		if it.ID() != id {
			it["id"] = id
		}
		seen[id] = true
	}
}

// stamp returns now, or prev when a clock step would move it backwards.
func stamp(prev string, now time.Time) string {
	if t, ok := model.ParseTime(prev); ok && t.After(now) {
		return model.FormatTime(t)
	}
	return model.FormatTime(now)
}

func validTime(s string) bool {
	_, ok := model.ParseTime(s)
	return ok
}

func checkItemSection(section string) error {
	if section == model.SectionPersonalInfo {
		return apperror.BadRequest("personalInfo does not hold items")
	}
	if !model.IsArraySection(section) {
		return invalidSection(section)
	}
	return nil
}

func invalidSection(section string) error {
	return apperror.BadRequest(fmt.Sprintf("Invalid section: %s", section))
}

func sectionFull(section string) error {
	return apperror.BadRequest(fmt.Sprintf("Section %s is full (max %d items)", section, model.MaxItems(section)))
}
