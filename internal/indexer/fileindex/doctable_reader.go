package fileindex

import (
	"os"

	"github.com/KhaiTheTran/SystemsProgramming/internal/hashtable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/diskhash"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	apperrors "github.com/KhaiTheTran/SystemsProgramming/pkg/errors"
)

// DocTableReader resolves DocumentIDs to names from an index file.
type DocTableReader struct {
	file   *os.File
	region *diskhash.Region
}

func newDocTableReader(f *os.File, base int64) (*DocTableReader, error) {
	rg, err := diskhash.OpenRegion(f, base)
	if err != nil {
		return nil, err
	}
	return &DocTableReader{file: f, region: rg}, nil
}

// LookupDocID returns the name stored for id.
func (d *DocTableReader) LookupDocID(id doctable.DocumentID) (string, bool, error) {
	if id == 0 {
		return "", false, apperrors.Invalid("looking up document: id 0 is reserved")
	}
	payload, found, err := d.region.Lookup(hashtable.IdentityHash(id), func(p int64) (bool, error) {
		stored, err := d.region.Uint64At(p)
		return stored == id, err
	})
	if err != nil || !found {
		return "", false, err
	}
	_, name, err := d.readElement(payload)
	if err != nil {
		return "", false, err
	}
	return name, true, nil
}

// All decodes every (id, name) pair in the region.
func (d *DocTableReader) All() (map[doctable.DocumentID]string, error) {
	docs := make(map[doctable.DocumentID]string)
	err := d.region.Walk(func(p int64) error {
		id, name, err := d.readElement(p)
		if err != nil {
			return err
		}
		docs[id] = name
		return nil
	})
	if err != nil {
		return nil, err
	}
	return docs, nil
}

func (d *DocTableReader) readElement(p int64) (doctable.DocumentID, string, error) {
	id, err := d.region.Uint64At(p)
	if err != nil {
		return 0, "", err
	}
	n, err := d.region.Uint16At(p + 8)
	if err != nil {
		return 0, "", err
	}
	name, err := d.region.BytesAt(p+docElementFixed, int(n))
	if err != nil {
		return 0, "", err
	}
	return id, string(name), nil
}

func (d *DocTableReader) Close() error {
	return d.file.Close()
}
