package instance_manager

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-scatter/common"
	"github.com/Carmen-Shannon/oxy-scatter/engine/arena"
	"github.com/Carmen-Shannon/oxy-scatter/engine/instance"
)

// SaveFormatVersion tags SaveData so loaders can reject payloads they do not understand.
const SaveFormatVersion = 1

// BucketSave is the live content of one bucket.
type BucketSave struct {
	Key      MeshKey
	Chunk    common.IntVector
	Offset   common.IntVector
	Bounds   common.IntBox
	Matrices []instance.Matrix
}

// SaveData is the persisted state of a manager. The file format is up to the caller.
type SaveData struct {
	Version int
	Buckets []BucketSave
}

func (m *instanceManager) SaveData() SaveData {
	data := SaveData{Version: SaveFormatVersion}
	m.buckets.Range(func(_ arena.Handle, b *bucket) bool {
		bounds, ok := b.bounds.Box()
		if !ok || b.component.IsEmpty() {
			return true
		}
		var live []instance.Matrix
		for _, matrix := range b.component.UnbuiltMatrices() {
			if !matrix.IsZeroScale() {
				live = append(live, matrix)
			}
		}
		if len(live) == 0 {
			return true
		}
		data.Buckets = append(data.Buckets, BucketSave{
			Key:      b.key,
			Chunk:    b.chunk,
			Offset:   b.position,
			Bounds:   bounds,
			Matrices: live,
		})
		return true
	})
	return data
}

func (m *instanceManager) LoadData(data SaveData) ([]InstancesRef, error) {
	if data.Version != SaveFormatVersion {
		return nil, fmt.Errorf("instance_manager: unsupported save format version %d, want %d", data.Version, SaveFormatVersion)
	}
	refs := make([]InstancesRef, 0, len(data.Buckets))
	for i, b := range data.Buckets {
		if len(b.Matrices) == 0 {
			continue
		}
		if want := m.TransformsOffset(b.Bounds); want != b.Offset {
			return refs, fmt.Errorf("instance_manager: bucket %d offset %+v does not match %+v derived from its bounds", i, b.Offset, want)
		}
		ref := m.AddInstances(b.Key, instance.Transforms{Offset: b.Offset, Matrices: b.Matrices}, b.Bounds)
		if !ref.IsValid() {
			return refs, fmt.Errorf("instance_manager: bucket %d of %s rejected", i, b.Key.Asset.ID)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}
