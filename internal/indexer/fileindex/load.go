package fileindex

import (
	"fmt"

	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/doctable"
	"github.com/KhaiTheTran/SystemsProgramming/internal/indexer/index"
)

// Load decodes an entire index file back into memory.
func Load(path string, validate bool) (*doctable.Table, *index.MemoryIndex, error) {
	r, err := Open(path, validate)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	dtr, err := r.GetDocTableReader()
	if err != nil {
		return nil, nil, err
	}
	defer dtr.Close()
	docs, err := dtr.All()
	if err != nil {
		return nil, nil, fmt.Errorf("decoding doc table of %s: %w", path, err)
	}
	dt := doctable.New(int(dtr.region.NumBuckets()))
	for id, name := range docs {
		if err := dt.Restore(id, name); err != nil {
			return nil, nil, fmt.Errorf("decoding doc table of %s: %w", path, err)
		}
	}

	itr, err := r.GetIndexTableReader()
	if err != nil {
		return nil, nil, err
	}
	defer itr.Close()
	mi := index.NewMemoryIndex(int(itr.region.NumBuckets()))
	err = itr.region.Walk(func(p int64) error {
		word, err := itr.readWord(p)
		if err != nil {
			return err
		}
		docIDs, err := itr.docIDTable(p, len(word))
		if err != nil {
			return err
		}
		return docIDs.region.Walk(func(q int64) error {
			id, err := docIDs.region.Uint64At(q)
			if err != nil {
				return err
			}
			positions, err := docIDs.readPositions(q)
			if err != nil {
				return err
			}
			return mi.AddPosting(word, id, positions)
		})
	})
	if err != nil {
		return nil, nil, fmt.Errorf("decoding index of %s: %w", path, err)
	}
	return dt, mi, nil
}
