package dom

// PatchOp is the type of patch operation.
type PatchOp uint8

const (
	PatchSetText     PatchOp = 0x01 // Update text content
	PatchSetAttr     PatchOp = 0x02 // Set/update attribute
	PatchRemoveAttr  PatchOp = 0x03 // Remove attribute
	PatchInsertNode  PatchOp = 0x04 // Insert new node
	PatchRemoveNode  PatchOp = 0x05 // Remove node
	PatchMoveNode    PatchOp = 0x06 // Move node to new position
	PatchSetValue    PatchOp = 0x08 // Set input value
	PatchSetChecked  PatchOp = 0x09 // Set checkbox checked
	PatchSetSelected PatchOp = 0x0A // Set select option selected
	PatchSetHTML     PatchOp = 0x0C // Replace children with raw markup
)

// String returns the string representation of the PatchOp.
func (op PatchOp) String() string {
	switch op {
	case PatchSetText:
		return "SetText"
	case PatchSetAttr:
		return "SetAttr"
	case PatchRemoveAttr:
		return "RemoveAttr"
	case PatchInsertNode:
		return "InsertNode"
	case PatchRemoveNode:
		return "RemoveNode"
	case PatchMoveNode:
		return "MoveNode"
	case PatchSetValue:
		return "SetValue"
	case PatchSetChecked:
		return "SetChecked"
	case PatchSetSelected:
		return "SetSelected"
	case PatchSetHTML:
		return "SetHTML"
	default:
		return "Unknown"
	}
}

// Patch represents a single mutation of a connected node.
type Patch struct {
	Op     PatchOp // Operation type
	Target NodeID  // Node the operation applies to
	Parent NodeID  // Parent for Insert/Move/Remove
	Before NodeID  // Insert/Move position; zero means append
	Key    string  // Attribute key (for SetAttr/RemoveAttr)
	Value  string  // New value
	Node   *Node   // Inserted subtree (for InsertNode)
}

// CountOps tallies patches by operation.
func CountOps(patches []Patch) map[PatchOp]int {
	counts := make(map[PatchOp]int)
	for _, p := range patches {
		counts[p.Op]++
	}
	return counts
}
