package instanced_mesh

import "slices"

// deletion records a compaction of the unbuilt list that the current built snapshot does not know about.
type deletion struct {
	taskID uint64
	start  int
	num    int
}

// mappings translates between unbuilt indices (the live list) and built indices (the last applied snapshot).
type mappings struct {
	instancesToBuilt []int32
	builtToInstances []int32
	// ordered by taskID
	deletions []deletion
}

// BuiltIndex translates a live index into the built snapshot, or -1 if the instance is not in it.
func (m *mappings) BuiltIndex(unbuilt int) int {
	if unbuilt < 0 {
		return -1
	}
	// undo the deletions the snapshot has not seen, newest first
	for i := len(m.deletions) - 1; i >= 0; i-- {
		d := m.deletions[i]
		if d.start <= unbuilt {
			unbuilt += d.num
		}
	}
	if unbuilt >= len(m.instancesToBuilt) {
		return -1
	}
	return int(m.instancesToBuilt[unbuilt])
}

// UnbuiltIndex translates a built index into the live list, or -1 if the instance was deleted since.
func (m *mappings) UnbuiltIndex(built int) int {
	if built < 0 || built >= len(m.builtToInstances) {
		return -1
	}
	unbuilt := int(m.builtToInstances[built])
	for _, d := range m.deletions {
		if d.start <= unbuilt {
			if unbuilt < d.start+d.num {
				return -1
			}
			unbuilt -= d.num
		}
	}
	return unbuilt
}

func (m *mappings) pushDeletion(taskID uint64, start, num int) {
	m.deletions = append(m.deletions, deletion{taskID: taskID, start: start, num: num})
}

// install swaps in the tables of a newly applied snapshot and drops deletions it already reflects.
func (m *mappings) install(instancesToBuilt, builtToInstances []int32, taskID uint64) {
	m.instancesToBuilt = instancesToBuilt
	m.builtToInstances = builtToInstances
	m.deletions = slices.DeleteFunc(m.deletions, func(d deletion) bool {
		return d.taskID < taskID
	})
}

func (m *mappings) reset() {
	m.instancesToBuilt = nil
	m.builtToInstances = nil
	m.deletions = nil
}
