// Package doctable maintains the bidirectional mapping between document
// names (file paths) and the DocumentIDs assigned to them.
package doctable

import (
	"github.com/KhaiTheTran/SystemsProgramming/internal/hashtable"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// DocumentID identifies a registered document. IDs start at 1; 0 means
// "not found".
type DocumentID = uint64

// DefaultBuckets is the initial bucket count of the id->name table.
const DefaultBuckets = 1024

// Table assigns strictly increasing DocumentIDs to document names. The
// id->name table is bucketed so it can be written to an index file; the
// name->id side keys on the full name.
type Table struct {
	byID   *hashtable.Table[DocumentID, string]
	byName map[string]DocumentID
	maxID  DocumentID
}

func New(numBuckets int) *Table {
	if numBuckets <= 0 {
		numBuckets = DefaultBuckets
	}
	return &Table{
		byID:   hashtable.New[DocumentID, string](numBuckets, hashtable.IdentityHash),
		byName: make(map[string]DocumentID),
	}
}

// Register returns the ID of name, allocating the next one if the name has
// not been seen.
func (t *Table) Register(name string) (DocumentID, error) {
	if name == "" {
		return 0, apperrors.Invalid("registering document: empty name")
	}
	if id, ok := t.byName[name]; ok {
		return id, nil
	}
	t.maxID++
	id := t.maxID
	t.byID.Insert(id, name)
	t.byName[name] = id
	return id, nil
}

// Restore registers name under a known id, as when loading an index file.
func (t *Table) Restore(id DocumentID, name string) error {
	if id == 0 || name == "" {
		return apperrors.Invalid("restoring document %d %q: id and name are required", id, name)
	}
	if _, ok := t.byID.Lookup(id); ok {
		return apperrors.Invalid("restoring document %d: id already registered", id)
	}
	if _, ok := t.byName[name]; ok {
		return apperrors.Invalid("restoring document %q: name already registered", name)
	}
	t.byID.Insert(id, name)
	t.byName[name] = id
	if id > t.maxID {
		t.maxID = id
	}
	return nil
}

// LookupByName returns the ID of name, or 0 when it is not registered.
func (t *Table) LookupByName(name string) DocumentID {
	return t.byName[name]
}

// LookupByID returns the name registered under id.
func (t *Table) LookupByID(id DocumentID) (string, bool, error) {
	if id == 0 {
		return "", false, apperrors.Invalid("looking up document: id 0 is reserved")
	}
	name, ok := t.byID.Lookup(id)
	return name, ok, nil
}

func (t *Table) Count() int {
	return t.byID.Len()
}

func (t *Table) MaxID() DocumentID {
	return t.maxID
}

// IDTable exposes the bucketed id->name table for serialisation.
func (t *Table) IDTable() *hashtable.Table[DocumentID, string] {
	return t.byID
}

// Destroy drops all registered names. The table is empty afterwards and ID
// allocation does not restart.
func (t *Table) Destroy() {
	t.byID = hashtable.New[DocumentID, string](1, hashtable.IdentityHash)
	t.byName = make(map[string]DocumentID)
}
